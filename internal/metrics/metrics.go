package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "espbot"

var (
	LessonsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lessons_completed_total",
		Help:      "Lessons completed, by track.",
	}, []string{"track"})

	ReviewAnswers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_answers_total",
		Help:      "Answers given in review sessions, by result.",
	}, []string{"result"})

	ReviewItemsRetired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_items_retired_total",
		Help:      "Review items that graduated past the last interval.",
	})

	MistakesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mistakes_recorded_total",
		Help:      "Wrong exercise answers scheduled for review, by exercise type.",
	}, []string{"exercise_type"})

	JudgmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "judgment_failures_total",
		Help:      "Language service calls that failed or returned garbage, by kind.",
	}, []string{"kind"})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve runs the /metrics endpoint until ctx is cancelled
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
