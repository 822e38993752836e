package dataset

import "sync/atomic"

// WarningCounts tallies soft, non-fatal degradations observed while
// answering wind queries. The interpolator only ever increments; the
// owner decides the lifetime (typically one instance per prediction
// run) and reads the counts afterwards for quality assessment.
//
// Increments are atomic, so a single instance may also be shared
// across concurrent queries.
type WarningCounts struct {
	// AltitudeTooHigh counts queries whose altitude lay above the
	// interpolated top of the dataset's vertical coverage, answered
	// by extrapolation.
	AltitudeTooHigh atomic.Uint64
}

// Any reports whether any warning was recorded.
func (w *WarningCounts) Any() bool {
	return w.AltitudeTooHigh.Load() > 0
}
