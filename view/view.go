package view

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"log"
	"sync/atomic"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/zoom"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
	"golang.org/x/mobile/exp/gl/glutil"
	"golang.org/x/mobile/gl"
)

type RequestKind int

const (
	RequestPhoto RequestKind = iota
	RequestRecord
	RequestFlip
)

// Request is a discrete user action handed off to the capture side. Zoom is
// the zoom factor at the moment of the request.
type Request struct {
	Kind RequestKind
	Zoom float64
}

type wheelEvent struct{ up bool }

type decodedFrame struct {
	img     image.Image
	created time.Time
}

type View struct {
	l *log.Logger

	gesture *zoom.Gesture
	preview *Preview
	tracker *Tracker
	overlay *Overlay
	rec     *Overlay
	writer  *TextWriter
	step    float64

	requests chan<- Request

	images  *glutil.Images
	frame   *glutil.Image
	decoded chan decodedFrame

	bounds       image.Rectangle
	frameCreated time.Time

	stopDecoder chan struct{}

	recording int32
}

func New(l *log.Logger, bounds zoom.Bounds, step float64, requests chan<- Request) (*View, error) {
	w, err := NewTextWriter()
	if err != nil {
		return nil, err
	}

	preview := NewPreview()
	v := &View{
		l:           l,
		preview:     preview,
		gesture:     zoom.New(l, bounds, preview),
		tracker:     NewTracker(),
		writer:      w,
		overlay:     NewOverlay(w),
		rec:         NewOverlay(w),
		step:        step,
		requests:    requests,
		decoded:     make(chan decodedFrame, 1),
		stopDecoder: make(chan struct{}),
	}
	v.preview.zoom = v.gesture.Zoom()
	v.overlay.Write(zoom.Label(v.gesture.Zoom()))
	v.rec.Write("REC")

	return v, nil
}

func (v *View) Gesture() *zoom.Gesture { return v.gesture }
func (v *View) Preview() *Preview      { return v.preview }

// SetRecording toggles the recording indicator, safe to call from any
// goroutine.
func (v *View) SetRecording(on bool) {
	var n int32
	if on {
		n = 1
	}
	atomic.StoreInt32(&v.recording, n)
}

func (v *View) Recording() bool { return atomic.LoadInt32(&v.recording) == 1 }

func (v *View) initStage(glctx gl.Context, tick <-chan Reader) {
	v.images = glutil.NewImages(glctx)
	go func() {
		for {
			select {
			case <-v.stopDecoder:
				return
			case data := <-tick:
				i, err := jpeg.Decode(bytes.NewReader(data.Bytes()))
				if err != nil {
					v.l.Println(err)
					continue
				}

				// only the newest frame is kept
				select {
				case <-v.decoded:
				default:
				}
				v.decoded <- decodedFrame{i, data.Created()}
			}
		}
	}()
}

func (v *View) destroyStage(glctx gl.Context) {
	v.stopDecoder <- struct{}{}
	v.overlay.Release()
	v.rec.Release()
	if v.frame != nil {
		v.frame.Release()
		v.frame = nil
	}
	v.images.Release()
}

func (v *View) upload() {
	var d decodedFrame
	select {
	case d = <-v.decoded:
	default:
		return
	}

	i := d.img
	v.frameCreated = d.created
	b := i.Bounds()
	if v.frame == nil || b.Size() != v.bounds.Size() {
		if v.frame != nil {
			v.frame.Release()
		}
		v.frame = v.images.NewImage(b.Dx(), b.Dy())
	}
	v.bounds = b

	draw.Draw(v.frame.RGBA, v.frame.RGBA.Bounds(), i, b.Min, draw.Src)
	v.frame.Upload()
}

func (v *View) paint(glctx gl.Context, sz size.Event) {
	v.upload()

	// stale feed
	var r, g, b float32
	if time.Since(v.frameCreated) > time.Second {
		r, g, b = 0.6, 0.2, 0.2
	}

	glctx.ClearColor(r, g, b, 1)
	glctx.Clear(gl.COLOR_BUFFER_BIT)

	if v.frame != nil {
		tl, tr, bl := v.preview.Quad(sz, v.bounds)
		v.frame.Draw(sz, tl, tr, bl, v.frame.RGBA.Bounds())
	}

	margin := int(16 * sz.PixelsPerPt)
	if v.Recording() {
		if err := v.rec.Draw(v.images, sz, image.Pt(margin, margin)); err != nil {
			v.l.Println(err)
		}
	}

	v.overlay.Write(zoom.Label(v.gesture.Zoom()))
	img, err := v.overlay.Render()
	if err != nil {
		v.l.Println(err)
		return
	}
	if img == nil {
		return
	}

	pt := image.Pt(sz.WidthPx-img.Bounds().Dx()-margin, margin)
	if err := v.overlay.Draw(v.images, sz, pt); err != nil {
		v.l.Println(err)
	}
}

func (v *View) request(kind RequestKind) {
	if v.requests == nil {
		return
	}

	select {
	case v.requests <- Request{Kind: kind, Zoom: v.gesture.Zoom()}:
	default:
		v.l.Println("Capture busy, request dropped")
	}
}

func (v *View) handleTouch(e touch.Event) {
	kind, points := v.tracker.Update(e)
	if v.tracker.DoubleTap() {
		v.gesture.SetZoom(v.gesture.Bounds().Min)
		return
	}

	v.gesture.OnTouchEvent(kind, points)
}

func (v *View) handleKey(e key.Event) {
	if e.Direction != key.DirPress {
		return
	}

	switch e.Rune {
	case '+', '=':
		v.gesture.Step(v.step)
	case '-':
		v.gesture.Step(-v.step)
	case '0':
		v.gesture.SetZoom(v.gesture.Bounds().Min)
	case ' ', 'c':
		v.request(RequestPhoto)
	case 'r':
		v.request(RequestRecord)
	case 'f':
		v.request(RequestFlip)
	}
}

func (v *View) handleWheel(e wheelEvent) {
	if e.up {
		v.gesture.Step(v.step)
		return
	}
	v.gesture.Step(-v.step)
}

type filter func(interface{}) interface{}
type window interface {
	Send(event interface{})
	Publish()
	RequiresViewportUpdate() bool
}

func (v *View) loop(w window, events <-chan interface{}, f filter, tick <-chan Reader) {
	var glctx gl.Context
	var sz size.Event
	vpUpdate := w.RequiresViewportUpdate()
	for e := range events {
		switch e := f(e).(type) {
		case lifecycle.Event:
			switch e.Crosses(lifecycle.StageVisible) {
			case lifecycle.CrossOn:
				glctx, _ = e.DrawContext.(gl.Context)
				v.initStage(glctx, tick)
				w.Send(paint.Event{})
			case lifecycle.CrossOff:
				v.tracker.Reset()
				v.gesture.OnTouchEvent(zoom.KindEnd, nil)
				v.destroyStage(glctx)
				glctx = nil
			}
		case touch.Event:
			v.handleTouch(e)
		case key.Event:
			v.handleKey(e)
		case wheelEvent:
			v.handleWheel(e)
		case size.Event:
			sz = e
			if vpUpdate && glctx != nil {
				glctx.Viewport(0, 0, sz.WidthPx, sz.HeightPx)
			}
		case paint.Event:
			if glctx == nil || e.External {
				continue
			}
			v.paint(glctx, sz)
			w.Publish()
			w.Send(paint.Event{})
		}
	}
}
