// Package playback drives the replay animation: a clock that advances a
// current index into a resampled point sequence at a wall-clock-accurate
// rate, decoupled from how often it is ticked.
package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trailbook/pkg/model"
)

// DefaultBaseInterval is the wall-clock time one index step takes at 1x.
// With a 5s resample cadence this plays 100 seconds of trail per second.
const DefaultBaseInterval = 50 * time.Millisecond

// DefaultFrameInterval is how often the run loop ticks the clock. Purely a
// scheduling grain; advance rate is governed by the accumulator.
const DefaultFrameInterval = 16 * time.Millisecond

// SpeedMultipliers is the fixed set of user-selectable playback speeds.
var SpeedMultipliers = []float64{0.5, 1, 2, 4}

// Gate lets the media timeline hold and observe the clock. All methods are
// called from the clock's tick path; implementations must not call back
// into the clock.
type Gate interface {
	// RevealActive reports that an overlay is up. The clock holds its
	// position (and stops accumulating elapsed time) until it clears.
	RevealActive() bool
	// OnAdvance is invoked after each single-step advance with the new
	// index and its timestamp.
	OnAdvance(index int, timestampMs int64)
	// OnSeek is invoked after an explicit seek with the new index and its
	// timestamp, so shown-flags can be rewound.
	OnSeek(index int, timestampMs int64)
}

// Clock owns the PlaybackState of one replay session. It is the sole writer;
// user input mutates state only through its methods. The run loop is started
// by Play and cancelled synchronously by Pause, Stop or reaching the end —
// no tick fires after any of those return.
type Clock struct {
	mu sync.Mutex

	timestamps []int64
	index      int
	playing    bool
	speed      float64
	segment    *model.Segment

	baseInterval  time.Duration
	frameInterval time.Duration
	accumulated   time.Duration
	lastTick      time.Time

	gate Gate
	log  *slog.Logger

	parent   context.Context
	loopStop context.CancelFunc
	loopDone chan struct{}
}

// Option configures a Clock.
type Option func(*Clock)

// WithBaseInterval overrides the 1x advance interval.
func WithBaseInterval(d time.Duration) Option {
	return func(c *Clock) { c.baseInterval = d }
}

// WithFrameInterval overrides the run-loop tick grain.
func WithFrameInterval(d time.Duration) Option {
	return func(c *Clock) { c.frameInterval = d }
}

// WithGate attaches the media timeline gate.
func WithGate(g Gate) Option {
	return func(c *Clock) { c.gate = g }
}

// New creates a stopped clock over a sequence of point timestamps.
// ctx bounds the lifetime of any run loop the clock starts; cancelling it
// (player collapse) tears playback down.
func New(ctx context.Context, timestamps []int64, logger *slog.Logger, opts ...Option) *Clock {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Clock{
		timestamps:    timestamps,
		speed:         1,
		baseInterval:  DefaultBaseInterval,
		frameInterval: DefaultFrameInterval,
		log:           logger,
		parent:        ctx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current playback state snapshot.
func (c *Clock) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := model.PlaybackState{
		CurrentIndex:    c.index,
		IsPlaying:       c.playing,
		SpeedMultiplier: c.speed,
	}
	if c.segment != nil {
		seg := *c.segment
		st.HighlightedSegment = &seg
	}
	return st
}

// Len returns the sequence length.
func (c *Clock) Len() int { return len(c.timestamps) }

// Play enters Running. At the final index it rewinds to 0 first (which also
// rewinds shown-flags through the gate). No-op while already playing or for
// sequences shorter than 2 points.
func (c *Clock) Play() {
	c.mu.Lock()
	if c.playing || len(c.timestamps) < 2 {
		c.mu.Unlock()
		return
	}
	var sought = -1
	if c.index >= len(c.timestamps)-1 {
		c.index = 0
		sought = 0
	}
	c.playing = true
	c.accumulated = 0
	c.lastTick = time.Time{}

	loopCtx, cancel := context.WithCancel(c.parent)
	c.loopStop = cancel
	done := make(chan struct{})
	c.loopDone = done
	interval := c.frameInterval
	c.mu.Unlock()

	if sought == 0 && c.gate != nil {
		c.gate.OnSeek(0, c.timestamps[0])
	}
	c.log.Debug("playback started")
	go c.runLoop(loopCtx, done, interval)
}

// Pause enters Stopped and waits for the run loop to exit, so no tick is
// pending once it returns.
func (c *Clock) Pause() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.playing = false
	stop := c.loopStop
	done := c.loopDone
	c.loopStop = nil
	c.loopDone = nil
	c.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	c.log.Debug("playback paused")
}

// Stop is Pause under a name that reads better at teardown sites.
func (c *Clock) Stop() { c.Pause() }

// Seek clamps index into [0, len-1], sets the position and resets the
// elapsed-time accumulator so the next tick cannot double-advance. Playing
// state is unchanged.
func (c *Clock) Seek(index int) {
	c.mu.Lock()
	if len(c.timestamps) == 0 {
		c.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.timestamps)-1 {
		index = len(c.timestamps) - 1
	}
	c.index = index
	c.accumulated = 0
	c.lastTick = time.Time{}
	ts := c.timestamps[index]
	c.mu.Unlock()

	if c.gate != nil {
		c.gate.OnSeek(index, ts)
	}
}

// SetSpeed switches the advance rate without moving the position. Values
// outside the fixed multiplier set are ignored.
func (c *Clock) SetSpeed(multiplier float64) bool {
	ok := false
	for _, m := range SpeedMultipliers {
		if m == multiplier {
			ok = true
			break
		}
	}
	if !ok {
		c.log.Warn("rejected playback speed", "multiplier", multiplier)
		return false
	}
	c.mu.Lock()
	c.speed = multiplier
	c.mu.Unlock()
	return true
}

// SetSegment records the highlighted sub-segment, clamped and ordered.
func (c *Clock) SetSegment(start, end int) {
	if len(c.timestamps) == 0 {
		return
	}
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end > len(c.timestamps)-1 {
		end = len(c.timestamps) - 1
	}
	c.mu.Lock()
	c.segment = &model.Segment{StartIndex: start, EndIndex: end}
	c.mu.Unlock()
}

// ClearSegment drops the highlighted sub-segment.
func (c *Clock) ClearSegment() {
	c.mu.Lock()
	c.segment = nil
	c.mu.Unlock()
}

func (c *Clock) runLoop(ctx context.Context, done chan struct{}, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if end := c.Tick(now); end {
				// Reaching the final index is an implicit pause. The
				// loop owns its own teardown here; Pause would block
				// on loopDone.
				c.mu.Lock()
				c.playing = false
				if c.loopStop != nil {
					c.loopStop()
					c.loopStop = nil
					c.loopDone = nil
				}
				c.mu.Unlock()
				c.log.Debug("playback reached end")
				return
			}
		}
	}
}

// Tick advances the clock by at most one index, based on wall-clock time
// elapsed since the previous tick. Exported so tests (and alternative
// drivers) can feed simulated time; advance count over a span depends only
// on total elapsed time and speed, not on tick granularity. Returns true
// when the final index was reached.
func (c *Clock) Tick(now time.Time) bool {
	var (
		advIndex = -1
		advTs    int64
		end      bool
	)

	c.mu.Lock()
	if !c.playing || len(c.timestamps) < 2 {
		c.mu.Unlock()
		return false
	}
	if c.index >= len(c.timestamps)-1 {
		c.playing = false
		c.mu.Unlock()
		return true
	}
	if c.lastTick.IsZero() {
		c.lastTick = now
		c.mu.Unlock()
		return false
	}
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now

	if c.gate != nil && c.gate.RevealActive() {
		// Hold position; elapsed time during a reveal doesn't count.
		c.mu.Unlock()
		return false
	}

	c.accumulated += elapsed
	threshold := time.Duration(float64(c.baseInterval) / c.speed)
	if c.accumulated >= threshold {
		c.accumulated -= threshold
		// One advance per tick. Surplus beyond a single pending step is
		// dropped: a stalled driver plays slow-motion, it never fast-
		// forwards to catch up.
		if c.accumulated > threshold {
			c.accumulated = threshold
		}
		c.index++
		advIndex = c.index
		advTs = c.timestamps[c.index]
		end = c.index >= len(c.timestamps)-1
		if end {
			// Implicit pause at the final index.
			c.playing = false
		}
	}
	c.mu.Unlock()

	if advIndex >= 0 && c.gate != nil {
		c.gate.OnAdvance(advIndex, advTs)
	}
	return end
}
