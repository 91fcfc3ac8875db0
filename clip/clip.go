// Package clip plays a bounded sub-range of a media source and stops at the
// end of the range, regardless of how coarse the playback engine's
// position notifications are.
package clip

import (
	"errors"
	"fmt"
	"time"

	"github.com/cbsinteractive/pkg/timecode"
)

// Tolerance is how far before the interval end a position notification
// may arrive and still stop playback.
const Tolerance = 0.05

// ErrNoSource is returned when the media has nothing bound to play
var ErrNoSource = errors.New("clip: media has no source bound")

// InvalidIntervalError is returned for an empty, inverted or negative interval
type InvalidIntervalError struct {
	Interval Interval
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("clip: invalid interval [%g, %g)", e.Interval.Start, e.Interval.End)
}

// Interval is a half-open window [Start, End) in seconds
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Validate returns an *InvalidIntervalError unless 0 <= Start < End
func (iv Interval) Validate() error {
	if iv.Start < 0 || iv.End <= iv.Start {
		return &InvalidIntervalError{Interval: iv}
	}
	return nil
}

// Range returns the interval as a timecode.Range
func (iv Interval) Range() timecode.Range {
	return timecode.Range{iv.Start, iv.End}
}

// Duration is the length of the interval
func (iv Interval) Duration() time.Duration {
	return iv.Range().Size()
}

// Reached reports whether pos is close enough to End to stop
func (iv Interval) Reached(pos float64) bool {
	return pos >= iv.End-Tolerance
}

func (iv Interval) String() string {
	return iv.Range().String()
}
