// Package ranking orders posts, comment threads and comments and slices the
// ordered result into batches.
package ranking

import (
	"math"
	"time"
)

// Gravity is the exponent of the age penalty.
const Gravity = 1.8

// HotScore decays likes over time: (likes+1) / (ageHours+2)^Gravity.
// Items created after now are treated as brand new.
func HotScore(likes int64, created, now time.Time) float64 {
	ageHours := now.Sub(created).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	return float64(likes+1) / math.Pow(ageHours+2, Gravity)
}
