package clip

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeMedia struct {
	src     string
	pos     float64
	playing bool
	playErr error

	calls []string
	obs   map[int]func(float64)
	next  int
}

func newFakeMedia(src string) *fakeMedia {
	return &fakeMedia{src: src, obs: map[int]func(float64){}}
}

func (m *fakeMedia) Source() string    { return m.src }
func (m *fakeMedia) Position() float64 { return m.pos }
func (m *fakeMedia) Seek(pos float64) {
	m.calls = append(m.calls, "seek")
	m.pos = pos
}
func (m *fakeMedia) Play() error {
	m.calls = append(m.calls, "play")
	if m.playErr != nil {
		return m.playErr
	}
	m.playing = true
	return nil
}
func (m *fakeMedia) Pause() {
	m.calls = append(m.calls, "pause")
	m.playing = false
}
func (m *fakeMedia) OnPositionChange(fn func(float64)) func() {
	id := m.next
	m.next++
	m.obs[id] = fn
	return func() { delete(m.obs, id) }
}

// fire moves the position and notifies the observers registered right now.
// A paused media neither moves nor notifies.
func (m *fakeMedia) fire(pos float64) {
	if !m.playing {
		return
	}
	m.pos = pos
	for _, fn := range m.obs {
		fn(pos)
	}
}

func (m *fakeMedia) count(call string) (n int) {
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

func TestPlayIntervalStopsAtEnd(t *testing.T) {
	m := newFakeMedia("cam01.mp4")
	c := NewController()

	if err := c.PlayInterval(m, Interval{Start: 5, End: 10}); err != nil {
		t.Fatal(err)
	}
	if m.pos != 5 {
		t.Fatalf("position after PlayInterval = %v, want 5", m.pos)
	}
	if g := c.State(); g != StatePlaying {
		t.Fatalf("state = %v, want %v", g, StatePlaying)
	}

	m.fire(9.9)
	if m.count("pause") != 0 {
		t.Fatal("paused before reaching the end")
	}
	m.fire(10.0)
	if m.pos != 10.0 || m.playing {
		t.Fatalf("after end event: position = %v playing = %v, want 10 paused", m.pos, m.playing)
	}
	// a late event queued before the pause took effect
	m.playing = true
	m.fire(10.06)
	m.playing = false

	if n := m.count("pause"); n != 1 {
		t.Errorf("pause called %d times, want 1", n)
	}
	if len(m.obs) != 0 {
		t.Errorf("%d observers still registered", len(m.obs))
	}
	if g := c.State(); g != StateIdle {
		t.Errorf("state = %v, want %v", g, StateIdle)
	}
	want := []string{"seek", "play", "seek", "pause"}
	if diff := cmp.Diff(want, m.calls); diff != "" {
		t.Errorf("media calls (-want +got):\n%s", diff)
	}
}

func TestPlayIntervalInvalid(t *testing.T) {
	tests := []struct {
		name string
		iv   Interval
	}{
		{"empty", Interval{Start: 10, End: 10}},
		{"inverted", Interval{Start: 10, End: 4}},
		{"negative start", Interval{Start: -1, End: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newFakeMedia("cam01.mp4")
			err := NewController().PlayInterval(m, tt.iv)
			var ie *InvalidIntervalError
			if !errors.As(err, &ie) {
				t.Fatalf("PlayInterval() error = %v, want *InvalidIntervalError", err)
			}
			if len(m.calls) != 0 || len(m.obs) != 0 {
				t.Errorf("media touched: calls=%v observers=%d", m.calls, len(m.obs))
			}
		})
	}
}

func TestPlayIntervalNoSource(t *testing.T) {
	m := newFakeMedia("")
	err := NewController().PlayInterval(m, Interval{Start: 0, End: 1})
	if !errors.Is(err, ErrNoSource) {
		t.Fatalf("PlayInterval() error = %v, want ErrNoSource", err)
	}
	if len(m.calls) != 0 {
		t.Errorf("media touched: %v", m.calls)
	}
}

func TestPlayIntervalLastCallWins(t *testing.T) {
	m := newFakeMedia("cam01.mp4")
	c := NewController()
	if err := c.PlayInterval(m, Interval{Start: 0, End: 3}); err != nil {
		t.Fatal(err)
	}
	if err := c.PlayInterval(m, Interval{Start: 20, End: 30}); err != nil {
		t.Fatal(err)
	}
	if len(m.obs) != 1 {
		t.Fatalf("%d observers registered, want 1", len(m.obs))
	}

	m.fire(3)
	if m.count("pause") != 0 {
		t.Fatal("first interval end fired after the second call")
	}
	if iv, ok := c.Active(); !ok || iv.End != 30 {
		t.Fatalf("Active() = %v, %v", iv, ok)
	}

	m.fire(29.97)
	if n := m.count("pause"); n != 1 {
		t.Errorf("pause called %d times, want 1", n)
	}
	if m.pos != 30 {
		t.Errorf("final position = %v, want 30", m.pos)
	}
}

func TestPlayIntervalPlayError(t *testing.T) {
	m := newFakeMedia("cam01.mp4")
	m.playErr = errors.New("autoplay blocked")
	c := NewController()

	err := c.PlayInterval(m, Interval{Start: 1, End: 2})
	if err == nil || !errors.Is(err, m.playErr) {
		t.Fatalf("PlayInterval() error = %v, want wrapped play error", err)
	}
	if len(m.obs) != 1 {
		t.Fatalf("observer not registered after play failure")
	}
	if g := c.State(); g != StateSeeking {
		t.Errorf("state after play failure = %v, want %v", g, StateSeeking)
	}

	// a later manual play is still bounded
	m.playErr = nil
	if err := m.Play(); err != nil {
		t.Fatal(err)
	}
	m.fire(2)
	if m.count("pause") != 1 || m.pos != 2 {
		t.Errorf("manual play not bounded: calls=%v pos=%v", m.calls, m.pos)
	}
	if g := c.State(); g != StateIdle {
		t.Errorf("state = %v, want %v", g, StateIdle)
	}
}

func TestStop(t *testing.T) {
	m := newFakeMedia("cam01.mp4")
	c := NewController()
	if err := c.PlayInterval(m, Interval{Start: 1, End: 2}); err != nil {
		t.Fatal(err)
	}
	c.Stop()
	c.Stop()
	if len(m.obs) != 0 {
		t.Errorf("%d observers after Stop", len(m.obs))
	}
	if _, ok := c.Active(); ok {
		t.Error("watch still active after Stop")
	}
}

func TestPlayheadDrivesController(t *testing.T) {
	p := NewPlayhead("cam02.mp4", 60)
	c := NewController()
	if err := c.PlayInterval(p, Interval{Start: 1, End: 1.5}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Run(ctx, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if p.Playing() {
		t.Error("playhead still playing")
	}
	if p.Position() != 1.5 {
		t.Errorf("position = %v, want 1.5", p.Position())
	}
	if p.Observers() != 0 {
		t.Errorf("%d observers left", p.Observers())
	}
}

func TestIntervalDuration(t *testing.T) {
	iv := Interval{Start: 1.5, End: 4}
	if g, e := iv.Duration(), 2500*time.Millisecond; g != e {
		t.Errorf("Duration() = %v, want %v", g, e)
	}
	if !iv.Reached(3.96) || iv.Reached(3.9) {
		t.Error("Reached() tolerance wrong")
	}
}
