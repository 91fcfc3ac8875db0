package clip

import (
	"context"
	"sync"
	"time"
)

// Playhead is a Media driven by a virtual clock. It has no decoder; it
// only tracks position and notifies observers, which is enough to drive
// a Controller headlessly.
type Playhead struct {
	mu       sync.Mutex
	src      string
	pos      float64
	duration float64
	playing  bool
	next     int
	obs      map[int]func(float64)

	// PlayErr, when set, is returned by Play; the playhead stays paused
	PlayErr error
}

// NewPlayhead returns a paused playhead bound to src. A zero duration
// means unbounded.
func NewPlayhead(src string, duration float64) *Playhead {
	return &Playhead{src: src, duration: duration, obs: map[int]func(float64){}}
}

func (p *Playhead) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Bind replaces the source and rewinds
func (p *Playhead) Bind(src string, duration float64) {
	p.mu.Lock()
	p.src, p.duration, p.pos, p.playing = src, duration, 0, false
	p.mu.Unlock()
}

func (p *Playhead) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *Playhead) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *Playhead) Seek(pos float64) {
	p.mu.Lock()
	p.pos = p.clamp(pos)
	p.mu.Unlock()
}

func (p *Playhead) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PlayErr != nil {
		return p.PlayErr
	}
	p.playing = true
	return nil
}

func (p *Playhead) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

func (p *Playhead) OnPositionChange(fn func(float64)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.obs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.obs, id)
		p.mu.Unlock()
	}
}

// Observers is the number of registered position observers
func (p *Playhead) Observers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.obs)
}

// Advance moves a playing playhead forward by dt seconds and notifies
// observers. It reports whether the playhead is still playing.
func (p *Playhead) Advance(dt float64) bool {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return false
	}
	p.pos = p.clamp(p.pos + dt)
	if p.duration > 0 && p.pos >= p.duration {
		p.playing = false
	}
	pos := p.pos
	fns := make([]func(float64), 0, len(p.obs))
	for _, fn := range p.obs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(pos)
	}
	return p.Playing()
}

// Run advances the playhead in real time, notifying every tick, until
// playback stops or ctx is done.
func (p *Playhead) Run(ctx context.Context, tick time.Duration) error {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if !p.Advance(tick.Seconds()) {
				return nil
			}
		}
	}
}

func (p *Playhead) clamp(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if p.duration > 0 && pos > p.duration {
		return p.duration
	}
	return pos
}
