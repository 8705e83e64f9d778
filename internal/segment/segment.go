package segment

import (
	"fmt"
	"iter"
	"time"

	"profscreen/internal/services"
)

// DefaultWindowMs is the window length used when none is configured.
const DefaultWindowMs = 5000

// Segment is a half-open time range [StartMs, EndMs) in milliseconds.
type Segment struct {
	Index   int
	StartMs int64
	EndMs   int64
}

// DurationMs returns the length of the segment.
func (s Segment) DurationMs() int64 {
	return s.EndMs - s.StartMs
}

// Start returns the segment start offset.
func (s Segment) Start() time.Duration {
	return time.Duration(s.StartMs) * time.Millisecond
}

// End returns the segment end offset.
func (s Segment) End() time.Duration {
	return time.Duration(s.EndMs) * time.Millisecond
}

// Label formats the range in seconds with one decimal, e.g. "5.0s - 10.0s".
func (s Segment) Label() string {
	return FormatRange(s.StartMs, s.EndMs)
}

func (s Segment) String() string {
	return s.Label()
}

// FormatRange renders a millisecond range as "{start}s - {end}s".
func FormatRange(startMs, endMs int64) string {
	return fmt.Sprintf("%.1fs - %.1fs", float64(startMs)/1000, float64(endMs)/1000)
}

// Split returns the windows covering [0, durationMs). A zero duration yields
// an empty sequence. The sequence can be ranged over any number of times.
func Split(durationMs, windowMs int64) (iter.Seq[Segment], error) {
	if windowMs <= 0 {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "segmenting", "split",
			fmt.Sprintf("window must be positive, got %d ms", windowMs), nil)
	}
	if durationMs < 0 {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "segmenting", "split",
			fmt.Sprintf("duration must not be negative, got %d ms", durationMs), nil)
	}
	return func(yield func(Segment) bool) {
		index := 0
		for start := int64(0); start < durationMs; start += windowMs {
			end := min(start+windowMs, durationMs)
			if !yield(Segment{Index: index, StartMs: start, EndMs: end}) {
				return
			}
			index++
		}
	}, nil
}

// Count returns the number of segments Split produces: ceil(duration/window).
func Count(durationMs, windowMs int64) int {
	if windowMs <= 0 || durationMs <= 0 {
		return 0
	}
	return int((durationMs + windowMs - 1) / windowMs)
}
