package spaced_repetition

// DefaultIntervals is the review ladder in days
var DefaultIntervals = []int{1, 3, 7, 14}

// Ladder is an ordered set of review intervals in days
type Ladder []int

// stepIndex returns the position of interval; values outside the ladder count as step 0
func (l Ladder) stepIndex(interval int) int {
	for i, v := range l {
		if v == interval {
			return i
		}
	}
	return 0
}

// Next returns the interval after an answer. graduated is true when a correct
// answer was given on the last step and the item should be retired.
func (l Ladder) Next(interval int, correct bool) (next int, graduated bool) {
	if !correct {
		return l[0], false
	}
	idx := l.stepIndex(interval)
	if idx == len(l)-1 {
		return 0, true
	}
	return l[idx+1], false
}
