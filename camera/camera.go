package camera

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/blackjack/webcam"
)

var (
	ErrNoResolution = errors.New("No supported frame size within configured bounds")
	ErrNoJPEG       = errors.New("Device offers no jpeg pixel format")
)

type Config struct {
	MaxFPS int

	MinResolution int
	MaxResolution int
}

// Frame is a single jpeg frame as read from the device.
type Frame struct {
	*bytes.Buffer
	created time.Time
}

func NewFrame(b []byte, created time.Time) *Frame {
	return &Frame{Buffer: bytes.NewBuffer(b), created: created}
}

func (f *Frame) Created() time.Time { return f.created }

type Camera struct {
	l      *log.Logger
	device string
	conf   Config

	sem      sync.Mutex
	started  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(l *log.Logger, device string, conf Config) *Camera {
	if conf.MaxFPS <= 0 {
		conf.MaxFPS = 30
	}
	return &Camera{
		l:      l,
		device: device,
		conf:   conf,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (c *Camera) Device() string { return c.device }

func (c *Camera) open() (*webcam.Webcam, error) {
	cam, err := webcam.Open(c.device)
	if err != nil {
		return nil, err
	}

	if err := c.configure(cam); err != nil {
		cam.Close()
		return nil, err
	}

	return cam, nil
}

func (c *Camera) configure(cam *webcam.Webcam) error {
	formats := cam.GetSupportedFormats()
	pix, err := PickFormat(formats)
	if err != nil {
		return err
	}

	sizes := make([]Size, 0)
	for _, s := range cam.GetSupportedFrameSizes(pix) {
		sizes = append(sizes, Size{Width: s.MaxWidth, Height: s.MaxHeight})
	}

	size, ok := PickSize(sizes, c.conf.MinResolution, c.conf.MaxResolution)
	if !ok {
		return ErrNoResolution
	}

	_, w, h, err := cam.SetImageFormat(pix, size.Width, size.Height)
	if err != nil {
		return err
	}

	c.l.Printf("Camera %s: %s %dx%d @ %dfps", c.device, formats[pix], w, h, c.conf.MaxFPS)
	return cam.StartStreaming()
}

// Start opens the device and streams frames, throttled to MaxFPS, until
// Close is called or an error occurs. The output channel is closed when
// streaming ends. Start must only be called once.
func (c *Camera) Start() (<-chan *Frame, <-chan error) {
	errs := make(chan error, 1)
	output := make(chan *Frame, 1)
	c.sem.Lock()
	c.started = true
	c.sem.Unlock()
	go func() {
		defer close(c.done)
		defer close(output)

		cam, err := c.open()
		if err != nil {
			errs <- err
			return
		}
		defer func() {
			if err := cam.StopStreaming(); err != nil {
				c.l.Println(err)
			}
			if err := cam.Close(); err != nil {
				c.l.Println(err)
			}
		}()

		if err := c.stream(cam, output); err != nil {
			errs <- err
		}
	}()

	return output, errs
}

func (c *Camera) stream(cam *webcam.Webcam, output chan<- *Frame) error {
	var last time.Time
	interval := time.Second / time.Duration(c.conf.MaxFPS)
	for {
		select {
		case <-c.stop:
			return nil
		default:
		}

		err := cam.WaitForFrame(1)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			continue
		default:
			return err
		}

		d, err := cam.ReadFrame()
		if err != nil {
			return err
		}

		if len(d) == 0 || time.Since(last) < interval {
			continue
		}

		last = time.Now()
		frame := make([]byte, len(d))
		copy(frame, d)
		select {
		case output <- NewFrame(frame, last):
		case <-c.stop:
			return nil
		}
	}
}

// Close stops streaming and waits for the device to be released. It is safe
// to call more than once.
func (c *Camera) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.sem.Lock()
	started := c.started
	c.sem.Unlock()
	if started {
		<-c.done
	}
	return nil
}

type Size struct {
	Width  uint32
	Height uint32
}

func (s Size) Resolution() int { return int(s.Width * s.Height) }

// PickFormat returns a jpeg (motion jpeg) format, frames in any other format
// could not be previewed or captured.
func PickFormat(formats map[webcam.PixelFormat]string) (webcam.PixelFormat, error) {
	var pix webcam.PixelFormat
	found := false
	for f, name := range formats {
		if !strings.Contains(strings.ToUpper(name), "JPEG") {
			continue
		}
		if !found || f < pix {
			pix = f
			found = true
		}
	}

	if !found {
		return 0, ErrNoJPEG
	}
	return pix, nil
}

// PickSize returns the largest size within [min, max] pixels.
func PickSize(sizes []Size, min, max int) (Size, bool) {
	var best Size
	found := false
	for _, s := range sizes {
		res := s.Resolution()
		if res < min || (max > 0 && res > max) {
			continue
		}
		if !found || res > best.Resolution() {
			best = s
			found = true
		}
	}
	return best, found
}

// Devices cycles through the configured camera devices (e.g. back and
// front camera).
type Devices struct {
	list []string
	ix   int
}

func NewDevices(list []string) *Devices {
	return &Devices{list: list}
}

func (d *Devices) Current() string {
	if len(d.list) == 0 {
		return ""
	}
	return d.list[d.ix]
}

func (d *Devices) Next() string {
	if len(d.list) == 0 {
		return ""
	}
	d.ix = (d.ix + 1) % len(d.list)
	return d.list[d.ix]
}
