package collector

import (
	"math"

	"github.com/Guliveer/hostsnap/internal/models"
)

// refreshRate computes a mode's vertical refresh in Hz, rounded to two
// decimals. Zero totals yield zero.
func refreshRate(dotClock uint32, htotal, vtotal uint16) float64 {
	if htotal == 0 || vtotal == 0 {
		return 0
	}
	hz := float64(dotClock) / (float64(htotal) * float64(vtotal))
	return math.Round(hz*100) / 100
}

// ensurePrimary marks the first display primary when none is.
func ensurePrimary(displays []models.DisplayInfo) {
	for _, d := range displays {
		if d.IsPrimary {
			return
		}
	}
	if len(displays) > 0 {
		displays[0].IsPrimary = true
	}
}
