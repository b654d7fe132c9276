// Command lessonimport converts an xlsx workbook into lesson JSON files.
//
//	lessonimport -file a1.xlsx -track A1 -out content
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/example/espbot/internal/content"
	"github.com/example/espbot/internal/excel"
	"github.com/example/espbot/internal/logging"
	"go.uber.org/zap"
)

func main() {
	config := excel.DefaultImportConfig()

	file := flag.String("file", "", "path to the xlsx workbook")
	track := flag.String("track", string(config.Track), "track: ZERO, A1, A2 or B1")
	out := flag.String("out", config.OutDir, "content root directory")
	startRow := flag.Int("start-row", config.StartRow, "first data row (1-based)")
	flag.Parse()

	logger, err := logging.New("development", "info")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	t, ok := content.ParseTrack(*track)
	if !ok {
		logger.Fatal("unknown track", zap.String("track", *track))
	}

	config.FilePath = *file
	config.OutDir = *out
	config.Track = t
	config.StartRow = *startRow

	result, err := excel.ImportLessons(config)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	for _, e := range result.Errors {
		logger.Warn("row skipped", zap.String("error", e))
	}
	logger.Info("import finished",
		zap.String("track", string(t)),
		zap.Int("rows", result.TotalProcessed),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped+len(result.Errors)))
}
