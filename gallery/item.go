package gallery

import (
	"errors"
	"time"
)

type MediaType string

const (
	Photo MediaType = "photo"
	Video MediaType = "video"
)

func (t MediaType) Valid() bool { return t == Photo || t == Video }

var (
	ErrNotFound    = errors.New("Media item not found")
	ErrInvalidType = errors.New("Invalid media type")
	ErrNoThumbnail = errors.New("Media item has no thumbnail")
)

// Item is a single captured photo or video. Data is a data url
// (data:<mime>;base64,<payload>). Items are immutable once stored.
type Item struct {
	ID        int64     `json:"id"`
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Type      MediaType `json:"type"`
	Zoom      float64   `json:"zoom,omitempty"`
}
