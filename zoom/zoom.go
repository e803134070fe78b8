package zoom

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidBounds = errors.New("Invalid zoom bounds")

// Bounds is the closed range a zoom factor is confined to.
type Bounds struct {
	Min float64
	Max float64
}

var DefaultBounds = Bounds{Min: 1, Max: 10}

func (b Bounds) Validate() error {
	if b.Min <= 0 || b.Min > b.Max {
		return ErrInvalidBounds
	}
	return nil
}

// Clamp confines z to b, NaN maps to b.Min.
func (b Bounds) Clamp(z float64) float64 {
	if math.IsNaN(z) {
		return b.Min
	}
	if z > b.Max {
		z = b.Max
	}
	if z < b.Min {
		z = b.Min
	}
	return z
}

// Session is the state of a single two finger pinch.
// A zero BaselineDistance means no pinch has been started.
type Session struct {
	BaselineDistance float64
	BaselineZoom     float64
}

// Begin captures a new baseline, distance must be > 0.
func Begin(distance, currentZoom float64) Session {
	return Session{BaselineDistance: distance, BaselineZoom: currentZoom}
}

func (s Session) Active() bool { return s.BaselineDistance > 0 }

// Resolve maps a touch distance to a zoom factor within b, relative to the
// session baseline. A degenerate session yields its baseline zoom.
func Resolve(currentDistance float64, s Session, b Bounds) float64 {
	if !s.Active() {
		return s.BaselineZoom
	}

	scale := currentDistance / s.BaselineDistance
	return b.Clamp(s.BaselineZoom * scale)
}

// Label is the zoom level as displayed in the preview overlay.
func Label(z float64) string {
	return fmt.Sprintf("%.1fx", z)
}
