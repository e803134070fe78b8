package view

import "time"

// Reader is a single encoded (jpeg) camera frame.
type Reader interface {
	Bytes() []byte
	Created() time.Time
}
