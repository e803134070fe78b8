package view

import (
	"sort"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/mobile"
	"github.com/frizinak/inbetween-go-zoomcam/zoom"
	"golang.org/x/mobile/event/touch"
)

const doubleTapWindow = time.Millisecond * 200

// Tracker keeps the set of fingers currently on screen and translates
// per-finger touch events into gesture events.
type Tracker struct {
	active map[touch.Sequence]mobile.Point
	order  []touch.Sequence

	tap       time.Time
	doubleTap bool
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		active: make(map[touch.Sequence]mobile.Point),
		now:    time.Now,
	}
}

// Update applies e and returns the event kind and all active points ordered
// by finger sequence.
func (t *Tracker) Update(e touch.Event) (zoom.Kind, []mobile.Point) {
	t.doubleTap = false
	kind := zoom.KindMove
	switch e.Type {
	case touch.TypeBegin:
		kind = zoom.KindStart
		if len(t.active) == 0 {
			now := t.now()
			t.doubleTap = now.Sub(t.tap) < doubleTapWindow
			t.tap = now
		}
		t.active[e.Sequence] = mobile.FromTouch(e)
	case touch.TypeMove:
		if _, ok := t.active[e.Sequence]; ok {
			t.active[e.Sequence] = mobile.FromTouch(e)
		}
	case touch.TypeEnd:
		kind = zoom.KindEnd
		delete(t.active, e.Sequence)
	}

	return kind, t.Points()
}

func (t *Tracker) Points() []mobile.Point {
	t.order = t.order[:0]
	for s := range t.active {
		t.order = append(t.order, s)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i] < t.order[j] })

	points := make([]mobile.Point, len(t.order))
	for i, s := range t.order {
		points[i] = t.active[s]
	}
	return points
}

// DoubleTap reports whether the last update was the second of two quick
// single finger taps.
func (t *Tracker) DoubleTap() bool { return t.doubleTap }

func (t *Tracker) Count() int { return len(t.active) }

func (t *Tracker) Reset() {
	t.active = make(map[touch.Sequence]mobile.Point)
	t.doubleTap = false
}
