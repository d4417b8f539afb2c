package media

import (
	"sync/atomic"
	"time"
)

// UClockFreq is the Upipe-style 27MHz reference clock frequency used
// throughout this codebase for PTS/PCR/latency arithmetic.
const UClockFreq = 27_000_000

// Clock is a monotonic 27MHz counter, read-only to most stages. It wraps
// time.Now() at process start and is safe for concurrent reads from
// multiple pipeline goroutines.
type Clock struct {
	start time.Time
}

// NewClock creates a Clock anchored to the current wall-clock time.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// Now returns the current time in 27MHz ticks since the clock was created.
func (c *Clock) Now() int64 {
	return int64(time.Since(c.start)) * UClockFreq / int64(time.Second)
}

// AudioClock tracks a single 48kHz audio counter used to monitor
// audio/video phase. Phase is set once on flow definition rather than
// lazily during packet processing, so every subsequent PTS computation
// is relative to one fixed alignment point.
type AudioClock struct {
	samples atomic.Int64
	phase   atomic.Int64
}

// SetPhase performs the one-time alignment of the audio clock against the
// video EAV clock, invoked from a stage's set-flow-definition handler.
func (a *AudioClock) SetPhase(eavClock int64) {
	a.phase.Store(eavClock)
}

// Advance accounts for n more 48kHz samples having been produced/consumed.
func (a *AudioClock) Advance(n int64) {
	a.samples.Add(n)
}

// PTS returns the current audio PTS in 27MHz ticks, derived from the
// sample counter and the one-time phase alignment.
func (a *AudioClock) PTS() int64 {
	return a.phase.Load() + a.samples.Load()*UClockFreq/48000
}
