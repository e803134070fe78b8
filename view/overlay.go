package view

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/exp/gl/glutil"
	"golang.org/x/mobile/geom"
)

type TextWriter struct {
	ctx    *freetype.Context
	tt     *truetype.Font
	bounds fixed.Rectangle26_6
}

// NewTextWriter returns a white text writer using the Go regular font.
func NewTextWriter() (*TextWriter, error) {
	tt, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, err
	}

	t := &TextWriter{ctx: freetype.NewContext(), tt: tt}
	t.ctx.SetFont(tt)
	t.SetColor(color.White)
	t.SetFontSize(12, 72)
	return t, nil
}

func (t *TextWriter) SetColor(c color.Color) { t.ctx.SetSrc(image.NewUniform(c)) }

func (t *TextWriter) SetFontSize(size float64, dpi float64) {
	t.ctx.SetFontSize(size)
	t.ctx.SetDPI(dpi)
	t.bounds = t.tt.Bounds(fixed.Int26_6(0.5 + (size * dpi * 64 / 72)))
}

// Write draws text with its top left corner at pt and returns the bottom
// right corner. A nil img only measures.
func (t *TextWriter) Write(img draw.Image, text string, pt image.Point) (image.Point, error) {
	t.ctx.SetDst(img)
	var b image.Rectangle
	if img != nil {
		b = img.Bounds()
	}

	t.ctx.SetClip(b)
	f := fixed.P(pt.X, pt.Y)
	ascent := t.bounds.Max.Y
	descent := -t.bounds.Min.Y

	f.Y += ascent
	p, err := t.ctx.DrawString(text, f)
	return image.Pt(p.X.Ceil(), (p.Y + descent).Ceil()), err
}

const overlayPadding = 8

var overlayBackground = color.RGBA{0, 0, 0, 153}

// Overlay renders a short text label on a translucent background.
type Overlay struct {
	writer *TextWriter
	text   string
	img    *image.RGBA

	frame    *glutil.Image
	uploaded *image.RGBA
}

func NewOverlay(w *TextWriter) *Overlay {
	return &Overlay{writer: w}
}

func (o *Overlay) Write(text string) {
	if o.text == text {
		return
	}
	o.text = text
	o.img = nil
}

func (o *Overlay) Text() string { return o.text }

// Render returns the label image, it is cached until the text changes.
func (o *Overlay) Render() (*image.RGBA, error) {
	if o.img != nil || o.text == "" {
		return o.img, nil
	}

	zp := image.Point{overlayPadding, overlayPadding}
	p, err := o.writer.Write(nil, o.text, zp)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, p.X+overlayPadding, p.Y+overlayPadding))
	draw.Draw(img, img.Bounds(), image.NewUniform(overlayBackground), image.Point{}, draw.Src)
	if _, err = o.writer.Write(img, o.text, zp); err != nil {
		return nil, err
	}

	o.img = img
	return img, nil
}

// Draw uploads the label when it changed and draws it with its top left
// corner at pt (in pixels).
func (o *Overlay) Draw(imgs *glutil.Images, sz size.Event, pt image.Point) error {
	img, err := o.Render()
	if err != nil || img == nil {
		return err
	}

	b := img.Bounds()
	if o.uploaded != img {
		if o.frame != nil {
			o.frame.Release()
		}
		o.frame = imgs.NewImage(b.Dx(), b.Dy())
		draw.Draw(o.frame.RGBA, b, img, image.Point{}, draw.Src)
		o.frame.Upload()
		o.uploaded = img
	}

	pppt := float64(sz.PixelsPerPt)
	owidth := float64(b.Dx()) / pppt
	oheight := float64(b.Dy()) / pppt

	x, y := float64(pt.X)/pppt, float64(pt.Y)/pppt
	x1, y1 := geom.Pt(x), geom.Pt(y)
	x2, y2 := geom.Pt(x+owidth), geom.Pt(y+oheight)
	o.frame.Draw(
		sz,
		geom.Point{x1, y1},
		geom.Point{x2, y1},
		geom.Point{x1, y2},
		b,
	)

	return nil
}

func (o *Overlay) Release() {
	if o.frame != nil {
		o.frame.Release()
		o.frame = nil
	}
	o.uploaded = nil
}
