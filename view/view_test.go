package view

import (
	"image"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/zoom"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
	"golang.org/x/mobile/geom"
)

func testView(t *testing.T, requests chan<- Request) *View {
	t.Helper()
	v, err := New(log.New(ioutil.Discard, "", 0), zoom.DefaultBounds, 0.5, requests)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestPreviewQuad(t *testing.T) {
	p := NewPreview()
	sz := size.Event{WidthPt: 400, HeightPt: 300}
	frame := image.Rect(0, 0, 800, 600)

	tl, tr, bl := p.Quad(sz, frame)
	if tl != (geom.Point{0, 0}) || tr != (geom.Point{400, 0}) || bl != (geom.Point{0, 300}) {
		t.Errorf("zoom 1 should fit the window exactly, got %v %v %v", tl, tr, bl)
	}

	p.Apply(2)
	p.Apply(2)
	tl, tr, bl = p.Quad(sz, frame)
	if tl != (geom.Point{-200, -150}) || tr != (geom.Point{600, -150}) || bl != (geom.Point{-200, 450}) {
		t.Errorf("unexpected quad at zoom 2: %v %v %v", tl, tr, bl)
	}

	// centered
	if (tl.X+tr.X)/2 != 200 || (tl.Y+bl.Y)/2 != 150 {
		t.Errorf("quad not centered: %v %v %v", tl, tr, bl)
	}

	if tl, tr, bl = p.Quad(sz, image.Rectangle{}); tl != (geom.Point{}) || tr != tl || bl != tl {
		t.Error("empty frame should yield an empty quad")
	}
}

func TestPreviewQuadMonotonic(t *testing.T) {
	p := NewPreview()
	sz := size.Event{WidthPt: 360, HeightPt: 640}
	frame := image.Rect(0, 0, 1280, 720)

	var last geom.Pt
	for z := 1.0; z <= 10; z += 0.5 {
		p.Apply(z)
		tl, tr, _ := p.Quad(sz, frame)
		width := tr.X - tl.X
		if width <= last {
			t.Fatalf("width did not grow at zoom %f: %f <= %f", z, width, last)
		}
		last = width
	}
}

func TestPreviewOnApply(t *testing.T) {
	p := NewPreview()
	var got []float64
	p.OnApply = func(z float64) { got = append(got, z) }
	p.Apply(3)
	if len(got) != 1 || got[0] != 3 || p.Zoom() != 3 {
		t.Errorf("unexpected %v %f", got, p.Zoom())
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker()

	kind, points := tr.Update(touch.Event{X: 10, Y: 10, Sequence: 0, Type: touch.TypeMove})
	if kind != zoom.KindMove || len(points) != 0 {
		t.Errorf("hover should not register a finger, got %d %v", kind, points)
	}

	kind, points = tr.Update(touch.Event{X: 10, Y: 10, Sequence: 1, Type: touch.TypeBegin})
	if kind != zoom.KindStart || len(points) != 1 {
		t.Fatalf("unexpected %d %v", kind, points)
	}

	tr.Update(touch.Event{X: 50, Y: 50, Sequence: 0, Type: touch.TypeBegin})
	_, points = tr.Update(touch.Event{X: 20, Y: 20, Sequence: 1, Type: touch.TypeMove})
	if len(points) != 2 || points[0].X != 50 || points[1].X != 20 {
		t.Errorf("expected points ordered by sequence got %v", points)
	}

	kind, points = tr.Update(touch.Event{Sequence: 0, Type: touch.TypeEnd})
	if kind != zoom.KindEnd || len(points) != 1 || points[0].X != 20 {
		t.Errorf("unexpected %d %v", kind, points)
	}

	tr.Reset()
	if tr.Count() != 0 {
		t.Error("expected no fingers after reset")
	}
}

func TestTrackerDoubleTap(t *testing.T) {
	tr := NewTracker()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }

	tap := func() bool {
		tr.Update(touch.Event{Type: touch.TypeBegin})
		d := tr.DoubleTap()
		tr.Update(touch.Event{Type: touch.TypeEnd})
		return d
	}

	if tap() {
		t.Error("first tap is not a double tap")
	}
	now = now.Add(100 * time.Millisecond)
	if !tap() {
		t.Error("expected double tap")
	}
	now = now.Add(time.Second)
	if tap() {
		t.Error("slow taps are not a double tap")
	}

	// second finger during a pinch is never a tap
	now = now.Add(50 * time.Millisecond)
	tr.Update(touch.Event{Type: touch.TypeBegin})
	now = now.Add(50 * time.Millisecond)
	tr.Update(touch.Event{Sequence: 1, Type: touch.TypeBegin})
	if tr.DoubleTap() {
		t.Error("second finger must not count as a tap")
	}
}

func TestViewPinch(t *testing.T) {
	v := testView(t, nil)

	v.handleTouch(touch.Event{X: 100, Y: 100, Sequence: 0, Type: touch.TypeBegin})
	v.handleTouch(touch.Event{X: 200, Y: 100, Sequence: 1, Type: touch.TypeBegin})
	if v.gesture.State() != zoom.Pinching {
		t.Fatal("expected pinching")
	}

	v.handleTouch(touch.Event{X: 300, Y: 100, Sequence: 1, Type: touch.TypeMove})
	if v.gesture.Zoom() != 2 || v.preview.Zoom() != 2 {
		t.Errorf("expected zoom 2 got %f / %f", v.gesture.Zoom(), v.preview.Zoom())
	}

	v.handleTouch(touch.Event{Sequence: 1, Type: touch.TypeEnd})
	if v.gesture.State() != zoom.Idle || v.gesture.Zoom() != 2 {
		t.Errorf("expected zoom to persist after release got %f", v.gesture.Zoom())
	}
}

func TestViewKeysAndWheel(t *testing.T) {
	requests := make(chan Request, 1)
	v := testView(t, requests)

	v.handleKey(key.Event{Rune: '+', Direction: key.DirPress})
	v.handleKey(key.Event{Rune: '+', Direction: key.DirRelease})
	if v.gesture.Zoom() != 1.5 {
		t.Errorf("expected 1.5 got %f", v.gesture.Zoom())
	}

	v.handleWheel(wheelEvent{up: true})
	if v.gesture.Zoom() != 2 {
		t.Errorf("expected 2 got %f", v.gesture.Zoom())
	}
	v.handleWheel(wheelEvent{up: false})
	if v.gesture.Zoom() != 1.5 {
		t.Errorf("expected 1.5 got %f", v.gesture.Zoom())
	}

	v.handleKey(key.Event{Rune: 'c', Direction: key.DirPress})
	select {
	case r := <-requests:
		if r.Kind != RequestPhoto || r.Zoom != 1.5 {
			t.Errorf("unexpected request %+v", r)
		}
	default:
		t.Fatal("expected a photo request")
	}

	// a full queue drops instead of blocking the ui
	v.handleKey(key.Event{Rune: 'r', Direction: key.DirPress})
	v.handleKey(key.Event{Rune: 'r', Direction: key.DirPress})
	if r := <-requests; r.Kind != RequestRecord {
		t.Errorf("unexpected request %+v", r)
	}

	v.handleKey(key.Event{Rune: '0', Direction: key.DirPress})
	if v.gesture.Zoom() != 1 {
		t.Errorf("expected reset to 1 got %f", v.gesture.Zoom())
	}
}

func TestViewDoubleTapResets(t *testing.T) {
	v := testView(t, nil)
	v.gesture.SetZoom(6)

	v.handleTouch(touch.Event{Type: touch.TypeBegin})
	v.handleTouch(touch.Event{Type: touch.TypeEnd})
	v.handleTouch(touch.Event{Type: touch.TypeBegin})
	if v.gesture.Zoom() != 1 {
		t.Errorf("expected double tap to reset zoom got %f", v.gesture.Zoom())
	}
}

func TestOverlay(t *testing.T) {
	w, err := NewTextWriter()
	if err != nil {
		t.Fatal(err)
	}
	o := NewOverlay(w)

	img, err := o.Render()
	if err != nil || img != nil {
		t.Fatalf("expected nothing to render got %v %v", img, err)
	}

	o.Write(zoom.Label(2))
	short, err := o.Render()
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := o.Render(); again != short {
		t.Error("expected cached render")
	}

	lit := false
	b := short.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !lit; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := short.RGBAAt(x, y); c.R > 128 && c.G > 128 && c.B > 128 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected white text pixels")
	}

	o.Write(zoom.Label(10))
	long, err := o.Render()
	if err != nil {
		t.Fatal(err)
	}
	if long.Bounds().Dx() <= short.Bounds().Dx() {
		t.Errorf("expected %q to render wider than 2.0x", o.Text())
	}
}

func TestViewFlipAndRecording(t *testing.T) {
	requests := make(chan Request, 1)
	v := testView(t, requests)

	v.handleKey(key.Event{Rune: 'f', Direction: key.DirPress})
	select {
	case r := <-requests:
		if r.Kind != RequestFlip {
			t.Errorf("unexpected request %+v", r)
		}
	default:
		t.Fatal("expected a flip request")
	}

	if v.Recording() {
		t.Error("should not start out recording")
	}
	v.SetRecording(true)
	if !v.Recording() {
		t.Error("expected recording")
	}

	if v.rec.Text() != "REC" {
		t.Errorf("expected REC label got %q", v.rec.Text())
	}
	img, err := v.rec.Render()
	if err != nil {
		t.Fatal(err)
	}
	if img == nil || img.Bounds().Empty() {
		t.Fatal("expected a rendered REC label")
	}

	v.SetRecording(false)
	if v.Recording() {
		t.Error("expected recording to stop")
	}
}
