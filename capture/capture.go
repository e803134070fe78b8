package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"sync"
	"time"

	"github.com/frizinak/inbetween-go-zoomcam/gallery"
)

var (
	ErrNotRecording = errors.New("Not recording")
	ErrNoFrames     = errors.New("Nothing was recorded")
)

// Saver persists captured media and returns the new item id.
type Saver interface {
	Save(gallery.Item) (int64, error)
}

type Capturer struct {
	l        *log.Logger
	store    Saver
	jpegOpts *jpeg.Options
	now      func() time.Time
}

func New(l *log.Logger, store Saver, quality int) *Capturer {
	return &Capturer{
		l:        l,
		store:    store,
		jpegOpts: &jpeg.Options{Quality: quality},
		now:      time.Now,
	}
}

// Photo stores img as a jpeg photo. zoom is recorded as metadata only, the
// pixels are stored as captured.
func (c *Capturer) Photo(img image.Image, zoom float64) (int64, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, c.jpegOpts); err != nil {
		return 0, err
	}

	id, err := c.store.Save(gallery.Item{
		Type:      gallery.Photo,
		Data:      gallery.DataURL("image/jpeg", buf.Bytes()),
		Timestamp: c.now(),
		Zoom:      zoom,
	})
	if err != nil {
		return 0, err
	}

	c.l.Printf("Photo %d captured (%dkB, zoom %.1fx)", id, buf.Len()/1024, zoom)
	return id, nil
}

// Recorder collects jpeg frames and stores them as a single mjpeg video.
// Frames are stored as received, nothing is transcoded.
type Recorder struct {
	l         *log.Logger
	store     Saver
	maxFrames int

	sem       sync.Mutex
	recording bool
	started   time.Time
	zoom      float64
	frames    [][]byte
	now       func() time.Time
}

func NewRecorder(l *log.Logger, store Saver, maxFrames int) *Recorder {
	return &Recorder{l: l, store: store, maxFrames: maxFrames, now: time.Now}
}

func (r *Recorder) Recording() bool {
	r.sem.Lock()
	defer r.sem.Unlock()
	return r.recording
}

func (r *Recorder) Start(zoom float64) {
	r.sem.Lock()
	r.recording = true
	r.started = r.now()
	r.zoom = zoom
	r.frames = r.frames[:0]
	r.sem.Unlock()
	r.l.Println("Recording started")
}

// Add appends a frame, returns false once the recording is full or stopped.
func (r *Recorder) Add(frame []byte) bool {
	r.sem.Lock()
	defer r.sem.Unlock()
	if !r.recording || len(r.frames) >= r.maxFrames {
		return false
	}

	f := make([]byte, len(frame))
	copy(f, frame)
	r.frames = append(r.frames, f)
	return true
}

func (r *Recorder) Stop() (int64, error) {
	r.sem.Lock()
	if !r.recording {
		r.sem.Unlock()
		return 0, ErrNotRecording
	}
	r.recording = false
	frames := r.frames
	r.frames = nil
	started, zoom := r.started, r.zoom
	r.sem.Unlock()

	if len(frames) == 0 {
		return 0, ErrNoFrames
	}

	data, err := mjpeg(frames)
	if err != nil {
		return 0, err
	}

	id, err := r.store.Save(gallery.Item{
		Type:      gallery.Video,
		Data:      data,
		Timestamp: started,
		Zoom:      zoom,
	})
	if err != nil {
		return 0, err
	}

	r.l.Printf(
		"Video %d recorded (%d frames in %s)",
		id,
		len(frames),
		r.now().Sub(started).Round(time.Millisecond),
	)
	return id, nil
}

const boundary = "zoomcamframe"

func mjpeg(frames [][]byte) (string, error) {
	buf := bytes.NewBuffer(nil)
	w := multipart.NewWriter(buf)
	if err := w.SetBoundary(boundary); err != nil {
		return "", err
	}

	for i := range frames {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "image/jpeg")
		h.Set("Content-Length", strconv.Itoa(len(frames[i])))
		p, err := w.CreatePart(h)
		if err != nil {
			return "", err
		}
		if _, err := p.Write(frames[i]); err != nil {
			return "", err
		}
	}

	if err := w.Close(); err != nil {
		return "", err
	}

	return gallery.DataURL(
		fmt.Sprintf("multipart/x-mixed-replace;boundary=%s", boundary),
		buf.Bytes(),
	), nil
}
