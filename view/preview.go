package view

import (
	"image"

	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/geom"
)

// Preview is the transform applied to the live camera frame. It implements
// zoom.Applier.
type Preview struct {
	zoom float64

	// OnApply, when set, is called with every applied zoom factor.
	OnApply func(float64)
}

func NewPreview() *Preview { return &Preview{zoom: 1} }

func (p *Preview) Apply(zoom float64) {
	p.zoom = zoom
	if p.OnApply != nil {
		p.OnApply(zoom)
	}
}

func (p *Preview) Zoom() float64 { return p.zoom }

// Quad fits frame inside the window, scales it by the current zoom and
// centers it on the window center. It returns the top left, top right and
// bottom left corners as expected by glutil.Image.Draw.
func (p *Preview) Quad(sz size.Event, frame image.Rectangle) (tl, tr, bl geom.Point) {
	owidth := float64(frame.Dx())
	oheight := float64(frame.Dy())
	if owidth == 0 || oheight == 0 {
		return
	}

	szWidth := float64(sz.WidthPt)
	szHeight := float64(sz.HeightPt)

	scale := szWidth / owidth
	scale2 := szHeight / oheight
	if scale2 < scale {
		scale = scale2
	}
	scale *= p.zoom

	width := owidth * scale
	height := oheight * scale
	offsetX := szWidth/2 - width/2
	offsetY := szHeight/2 - height/2

	x1, y1 := geom.Pt(offsetX), geom.Pt(offsetY)
	x2, y2 := geom.Pt(offsetX+width), geom.Pt(offsetY+height)
	return geom.Point{x1, y1}, geom.Point{x2, y1}, geom.Point{x1, y2}
}
