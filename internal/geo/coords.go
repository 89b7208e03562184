// Package geo resolves birth places and formats their coordinates.
package geo

import (
	"fmt"
	"math"
)

// FormatLatitude renders v as "DD.MM H" with H in {N, S}.
func FormatLatitude(v float64) string {
	return formatDM(v, "N", "S")
}

// FormatLongitude renders v as "DD.MM H" with H in {E, W}.
func FormatLongitude(v float64) string {
	return formatDM(v, "E", "W")
}

// Degrees are truncated, not rounded; minutes are the truncated fraction
// times sixty, so they stay within 0..59.
func formatDM(v float64, positive, negative string) string {
	hemisphere := positive
	if v < 0 {
		hemisphere = negative
	}

	abs := math.Abs(v)
	degrees := math.Trunc(abs)
	minutes := int(math.Trunc((abs - degrees) * 60))
	if minutes > 59 {
		minutes = 59
	}

	return fmt.Sprintf("%d.%02d %s", int(degrees), minutes, hemisphere)
}
