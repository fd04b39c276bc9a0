// Package format renders trip totals for display.
package format

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Distance renders meters with an SI prefix and at most two decimals,
// e.g. 1000 -> "1 km", 1234.5 -> "1.23 km", 850 -> "850 m".
func Distance(meters float64) string {
	if meters < 0 || math.IsNaN(meters) {
		meters = 0
	}
	return humanize.SIWithDigits(meters, 2, "m")
}

// Duration renders seconds as zero-padded hh:mm:ss. Hours are not wrapped
// at 24 and fractional seconds are truncated.
func Duration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
