package finalize

// grade maps a normalized [0,1] score to a letter grade using the fixed
// thresholds in spec §4.10 step 4.
func grade(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.8:
		return "B"
	case score >= 0.7:
		return "C"
	case score >= 0.6:
		return "D"
	default:
		return "F"
	}
}
