package config

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"

	"github.com/frizinak/inbetween-go-zoomcam/camera"
	"github.com/frizinak/inbetween-go-zoomcam/crypto"
	"github.com/frizinak/inbetween-go-zoomcam/zoom"
)

type Config struct {
	// Camera devices, the first one is opened at startup, the others can be
	// cycled through (e.g. back and front camera).
	Devices        []string
	MetricsAddress string

	Zoom    Zoom
	Camera  Camera
	Capture Capture
	Gallery Gallery
}

type Zoom struct {
	Min  float64
	Max  float64
	Step float64
}

func (z Zoom) Bounds() zoom.Bounds { return zoom.Bounds{Min: z.Min, Max: z.Max} }

type Camera struct {
	MaxFPS int

	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

func (c Camera) ToCameraConfig() camera.Config {
	return camera.Config{
		MaxFPS: c.MaxFPS,

		MinResolution: c.MinWidth * c.MinHeight,
		MaxResolution: c.MaxWidth * c.MaxHeight,
	}
}

type Capture struct {
	JPEGQuality     int
	MaxRecordFrames int
}

type Gallery struct {
	Path string
	// Payloads are stored in plain text when empty.
	Passphrase    string
	Cost          uint8
	ThumbnailSize uint
}

func Default() Config {
	return Config{
		Devices: []string{"/dev/video0"},
		Zoom: Zoom{
			Min:  zoom.DefaultBounds.Min,
			Max:  zoom.DefaultBounds.Max,
			Step: 0.1,
		},
		Camera: Camera{
			MaxFPS: 20,

			MinWidth:  480,
			MinHeight: 320,
			MaxWidth:  1280,
			MaxHeight: 720,
		},
		Capture: Capture{
			JPEGQuality:     90,
			MaxRecordFrames: 20 * 60,
		},
		Gallery: Gallery{
			Cost:          14,
			ThumbnailSize: 300,
		},
	}
}

func (c Config) Validate() error {
	if err := c.Zoom.Bounds().Validate(); err != nil {
		return err
	}
	if c.Zoom.Step <= 0 {
		return errors.New("Zoom step must be positive")
	}
	if len(c.Devices) == 0 {
		return errors.New("No camera devices configured")
	}
	for _, d := range c.Devices {
		if d == "" {
			return errors.New("Empty camera device")
		}
	}
	if c.Camera.MaxFPS <= 0 {
		return errors.New("MaxFPS must be positive")
	}
	if c.Capture.JPEGQuality < 1 || c.Capture.JPEGQuality > 100 {
		return errors.New("JPEG quality must be within [1, 100]")
	}
	if c.Capture.MaxRecordFrames <= 0 {
		return errors.New("MaxRecordFrames must be positive")
	}
	if c.Gallery.Path == "" {
		return errors.New("No gallery path configured")
	}
	if c.Gallery.ThumbnailSize == 0 {
		return errors.New("ThumbnailSize must be positive")
	}
	if c.Gallery.Passphrase != "" && (c.Gallery.Cost < crypto.MinCost || c.Gallery.Cost > crypto.MaxCost) {
		return errors.New("Invalid gallery encryption cost")
	}
	return nil
}

func DefaultConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	return filepath.Join(home, ".config", "zoomcam", "config.json"), err
}

// LoadConfig reads file on top of the defaults.
func LoadConfig(file string) (Config, error) {
	c := Default()
	f, err := os.Open(file)
	if err != nil {
		return c, err
	}
	defer f.Close()

	d := json.NewDecoder(f)
	err = d.Decode(&c)
	return c, err
}

const passChars = "abcdefghijklmnopqrstuvxyzABCDEFGHIJKLMNOPQRSTUVXYZ0123456789-!@#$%^&*-=(){}"

// RandomPassphrase draws n characters from a cryptographically secure source.
func RandomPassphrase(n int) (string, error) {
	pass := make([]byte, n)
	max := big.NewInt(int64(len(passChars)))
	for i := range pass {
		ix, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		pass[i] = passChars[ix.Int64()]
	}
	return string(pass), nil
}

// EnsureConfig writes an example config to file unless it already exists.
func EnsureConfig(file string) error {
	randPass, err := RandomPassphrase(60)
	if err != nil {
		return err
	}

	dirs := filepath.Dir(file)
	c := Default()
	c.Gallery.Path = filepath.Join(dirs, "gallery.db")
	c.Gallery.Passphrase = randPass

	if err := os.MkdirAll(dirs, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if os.IsExist(err) {
		return nil
	} else if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}
