package zoom

import (
	"log"
	"math"

	"github.com/frizinak/inbetween-go-zoomcam/mobile"
)

type State int

const (
	Idle State = iota
	Pinching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pinching:
		return "pinching"
	}
	return "unknown"
}

type Kind int

const (
	KindStart Kind = iota
	KindMove
	KindEnd
)

// Applier pushes a zoom factor onto the preview surface.
// Applying the same zoom twice must look the same as applying it once.
type Applier interface {
	Apply(zoom float64)
}

// Effect describes what a single touch event did.
type Effect struct {
	Applied bool
	Zoom    float64
	State   State
}

// Gesture turns touch events into a bounded zoom factor.
// It is not safe for concurrent use, feed it from the ui event loop.
type Gesture struct {
	l       *log.Logger
	bounds  Bounds
	applier Applier

	state   State
	session Session
	zoom    float64

	// OnBegin is called whenever a new pinch session starts.
	OnBegin func(Session)
}

func New(l *log.Logger, b Bounds, a Applier) *Gesture {
	return &Gesture{l: l, bounds: b, applier: a, zoom: b.Min}
}

func (g *Gesture) Zoom() float64    { return g.zoom }
func (g *Gesture) State() State     { return g.state }
func (g *Gesture) Session() Session { return g.session }
func (g *Gesture) Bounds() Bounds   { return g.bounds }

// SetZoom is the discrete (slider) writer. The next pinch re-baselines
// against the value set here.
func (g *Gesture) SetZoom(z float64) Effect {
	g.set(g.bounds.Clamp(z))
	return g.effect(true)
}

func (g *Gesture) Step(delta float64) Effect {
	return g.SetZoom(g.zoom + delta)
}

func (g *Gesture) OnTouchEvent(kind Kind, points []mobile.Point) Effect {
	if len(points) < 2 {
		g.state = Idle
		return g.effect(false)
	}

	dist := mobile.Distance(points)
	measurable := dist > 0 && !math.IsInf(dist, 0)
	if g.state == Idle {
		if !measurable {
			return g.effect(false)
		}
		g.session = Begin(dist, g.zoom)
		g.state = Pinching
		if g.OnBegin != nil {
			g.OnBegin(g.session)
		}
		return g.effect(false)
	}

	if kind != KindMove || !measurable {
		return g.effect(false)
	}

	if !g.session.Active() {
		g.l.Println("pinch without baseline, retaining zoom", Label(g.zoom))
		return g.effect(false)
	}

	g.set(Resolve(dist, g.session, g.bounds))
	return g.effect(true)
}

func (g *Gesture) set(z float64) {
	g.zoom = z
	if g.applier != nil {
		g.applier.Apply(z)
	}
}

func (g *Gesture) effect(applied bool) Effect {
	return Effect{Applied: applied, Zoom: g.zoom, State: g.state}
}
