package main

import (
	"bytes"
	"flag"
	"image"
	_ "image/jpeg"
	"log"
	"os"
	"sync"

	"github.com/frizinak/inbetween-go-zoomcam/camera"
	"github.com/frizinak/inbetween-go-zoomcam/capture"
	"github.com/frizinak/inbetween-go-zoomcam/config"
	"github.com/frizinak/inbetween-go-zoomcam/crypto"
	"github.com/frizinak/inbetween-go-zoomcam/gallery"
	"github.com/frizinak/inbetween-go-zoomcam/metrics"
	"github.com/frizinak/inbetween-go-zoomcam/view"
	"github.com/frizinak/inbetween-go-zoomcam/zoom"
)

func main() {
	l := log.New(os.Stderr, "", log.Ldate|log.Ltime)
	def, err := config.DefaultConfigFile()
	if err != nil {
		l.Fatal(err)
	}

	file := flag.String("c", def, "Config file")
	flag.Parse()

	conf, err := config.LoadConfig(*file)
	if err != nil {
		if !os.IsNotExist(err) {
			l.Fatal(err)
		}

		if err := config.EnsureConfig(*file); err != nil {
			l.Fatal(err)
		}

		l.Printf("Created example config file in %s", *file)
		return
	}

	if err := conf.Validate(); err != nil {
		l.Fatal(err)
	}

	var sealer *crypto.Sealer
	if conf.Gallery.Passphrase != "" {
		sealer, err = crypto.NewSealer([]byte(conf.Gallery.Passphrase), conf.Gallery.Cost)
		if err != nil {
			l.Fatal(err)
		}
	}

	store, err := gallery.Open(conf.Gallery.Path, sealer)
	if err != nil {
		l.Fatal(err)
	}
	defer store.Close()

	m := metrics.New()
	if err := m.SyncGallery(store); err != nil {
		l.Println(err)
	}
	if conf.MetricsAddress != "" {
		go func() {
			l.Println(m.ListenAndServe(conf.MetricsAddress))
		}()
	}

	requests := make(chan view.Request, 1)
	v, err := view.New(l, conf.Zoom.Bounds(), conf.Zoom.Step, requests)
	if err != nil {
		l.Fatal(err)
	}
	v.Gesture().OnBegin = func(zoom.Session) { m.PinchSessions.Inc() }
	v.Preview().OnApply = m.Zoom.Set
	m.Zoom.Set(v.Gesture().Zoom())

	devices := camera.NewDevices(conf.Devices)
	camConf := conf.Camera.ToCameraConfig()

	var camSem sync.Mutex
	cam := camera.New(l, devices.Current(), camConf)
	defer func() {
		camSem.Lock()
		cam.Close()
		camSem.Unlock()
	}()

	capturer := capture.New(l, store, conf.Capture.JPEGQuality)
	recorder := capture.NewRecorder(l, store, conf.Capture.MaxRecordFrames)

	var lastSem sync.Mutex
	var last []byte

	flip := make(chan struct{}, 1)
	tick := make(chan view.Reader)
	go func() {
		camSem.Lock()
		frames, errs := cam.Start()
		camSem.Unlock()
		for {
			select {
			case <-flip:
				camSem.Lock()
				if err := cam.Close(); err != nil {
					l.Println(err)
				}
				cam = camera.New(l, devices.Next(), camConf)
				frames, errs = cam.Start()
				camSem.Unlock()
				l.Printf("Switched to %s", cam.Device())
			case err := <-errs:
				// feed stays stale until the next flip
				l.Println(err)
				errs = nil
			case f, ok := <-frames:
				if !ok {
					frames = nil
					continue
				}
				lastSem.Lock()
				last = f.Bytes()
				lastSem.Unlock()
				recorder.Add(f.Bytes())

				select {
				case tick <- f:
				default:
				}
			}
		}
	}()

	go func() {
		for r := range requests {
			switch r.Kind {
			case view.RequestPhoto:
				lastSem.Lock()
				frame := last
				lastSem.Unlock()
				if frame == nil {
					l.Println("No frame to capture yet")
					continue
				}

				img, _, err := image.Decode(bytes.NewReader(frame))
				if err == nil {
					_, err = capturer.Photo(img, r.Zoom)
				}
				if err != nil {
					l.Println(err)
				}
				m.Captured(string(gallery.Photo), err)
				if err := m.SyncGallery(store); err != nil {
					l.Println(err)
				}

			case view.RequestRecord:
				if !recorder.Recording() {
					recorder.Start(r.Zoom)
					v.SetRecording(true)
					continue
				}
				_, err := recorder.Stop()
				v.SetRecording(false)
				if err != nil {
					l.Println(err)
				}
				m.Captured(string(gallery.Video), err)
				if err := m.SyncGallery(store); err != nil {
					l.Println(err)
				}

			case view.RequestFlip:
				select {
				case flip <- struct{}{}:
				default:
				}
			}
		}
	}()

	v.Start(tick)
}
