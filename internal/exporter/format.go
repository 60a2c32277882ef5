package exporter

import "strconv"

// formatFloat renders a float with the minimal digits that round-trip.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatScore renders an optional score; missing scores export as empty
// cells, matching the source representation.
func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return formatFloat(*score)
}
