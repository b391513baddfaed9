// Package carousel advances slide blocks while a page is being viewed.
// The editor shows slides frozen on their first image; auto-advance is a
// viewer-session concern, driven here and pushed out over the session's
// live channel.
package carousel

import (
	"context"
	"sync"
	"time"
)

// TickInterval is how often slide positions are re-evaluated. Advancing
// happens on block duration boundaries; the tick only bounds the latency
// of noticing one.
const TickInterval = 100 * time.Millisecond

// AdvanceFunc is called when a slide block moves to a new image index.
type AdvanceFunc func(blockID string, index int)

// slideState tracks one slide block's position and its elapsed baseline.
type slideState struct {
	index    int
	count    int
	duration time.Duration
	lastMove time.Time
}

// Runner advances the registered slide blocks of one viewer session.
type Runner struct {
	mu        sync.Mutex
	slides    map[string]*slideState
	onAdvance AdvanceFunc
	now       func() time.Time
}

// NewRunner creates a runner. onAdvance fires outside the runner's lock.
func NewRunner(onAdvance AdvanceFunc) *Runner {
	return &Runner{
		slides:    make(map[string]*slideState),
		onAdvance: onAdvance,
		now:       time.Now,
	}
}

// SetTimeFunc sets a custom time function (for testing).
func (r *Runner) SetTimeFunc(fn func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = fn
}

// Track registers or updates a slide block. Slides with fewer than two
// images are dropped from tracking; there is nothing to cycle.
func (r *Runner) Track(blockID string, imageCount int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if imageCount < 2 {
		delete(r.slides, blockID)
		return
	}
	if s, ok := r.slides[blockID]; ok {
		s.count = imageCount
		s.duration = duration
		if s.index >= imageCount {
			s.index = 0
		}
		return
	}
	r.slides[blockID] = &slideState{
		count:    imageCount,
		duration: duration,
		lastMove: r.now(),
	}
}

// Untrack removes a slide block.
func (r *Runner) Untrack(blockID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.slides, blockID)
}

// Advance moves a slide one step in the given direction in response to
// manual navigation. The elapsed baseline resets so the auto-advance does
// not immediately override the viewer's choice.
func (r *Runner) Advance(blockID string, step int) (int, bool) {
	r.mu.Lock()
	s, ok := r.slides[blockID]
	if !ok {
		r.mu.Unlock()
		return 0, false
	}
	s.index = ((s.index+step)%s.count + s.count) % s.count
	s.lastMove = r.now()
	index := s.index
	r.mu.Unlock()

	if r.onAdvance != nil {
		r.onAdvance(blockID, index)
	}
	return index, true
}

// Index returns the current position of a slide block.
func (r *Runner) Index(blockID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slides[blockID]
	if !ok {
		return 0, false
	}
	return s.index, true
}

// Tick advances every slide whose duration has elapsed. Exposed for
// testing; Run calls it on the ticker.
func (r *Runner) Tick() {
	type move struct {
		blockID string
		index   int
	}
	var moves []move

	r.mu.Lock()
	now := r.now()
	for blockID, s := range r.slides {
		if now.Sub(s.lastMove) < s.duration {
			continue
		}
		s.index = (s.index + 1) % s.count
		s.lastMove = now
		moves = append(moves, move{blockID, s.index})
	}
	r.mu.Unlock()

	if r.onAdvance != nil {
		for _, m := range moves {
			r.onAdvance(m.blockID, m.index)
		}
	}
}

// Run ticks until the context is canceled. One goroutine per viewer
// session.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}
