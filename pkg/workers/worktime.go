package workers

import (
	"math/rand/v2"
	"time"

	"github.com/vnykmshr/prodsim/pkg/common/validation"
)

// WorkTime is a half-open range [Lower, Upper) of simulated work in
// milliseconds.
type WorkTime struct {
	Lower int
	Upper int
}

// Validate checks both bounds are non-negative and ordered.
func (w WorkTime) Validate(module, field string) error {
	return validation.ValidateRange(module, field, w.Lower, w.Upper)
}

// Draw returns a duration drawn uniformly from the range. An empty range
// (Upper <= Lower) always yields exactly Lower milliseconds, so [0,0) means
// no delay.
func (w WorkTime) Draw() time.Duration {
	ms := w.Lower
	if w.Upper > w.Lower {
		ms += rand.IntN(w.Upper - w.Lower)
	}
	return time.Duration(ms) * time.Millisecond
}
