package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/catfence/internal/motion"
)

// Default payload text.
const (
	DefaultCaption     = "Iz this Kat?"
	DefaultDescription = "use /tableflip to shoo away"
	DefaultFilename    = "maybecat.png"
)

// ErrEmptySnapshot is returned when there is no frame to encode.
var ErrEmptySnapshot = errors.New("empty snapshot")

// Payload is a single alert handed to a Notifier.
type Payload struct {
	ID          string          `json:"id"`
	FiredAt     time.Time       `json:"fired_at"`
	Caption     string          `json:"caption"`
	Description string          `json:"description"`
	Regions     []motion.Region `json:"regions"`
	Filename    string          `json:"filename"`
	ContentType string          `json:"content_type"`
	Image       []byte          `json:"-"`
}

// LargestArea returns the area of the biggest region in the payload.
func (p Payload) LargestArea() int {
	largest := 0
	for _, r := range p.Regions {
		if r.Area > largest {
			largest = r.Area
		}
	}
	return largest
}

// Notifier delivers alerts to a messaging sink.
type Notifier interface {
	Send(ctx context.Context, p Payload) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, p Payload) error

// Send calls f.
func (f NotifierFunc) Send(ctx context.Context, p Payload) error {
	return f(ctx, p)
}

// EncodePNG encodes frame as PNG bytes owned by Go.
func EncodePNG(frame gocv.Mat) ([]byte, error) {
	return encode(gocv.PNGFileExt, frame)
}

// EncodeJPEG encodes frame as JPEG bytes owned by Go.
func EncodeJPEG(frame gocv.Mat) ([]byte, error) {
	return encode(gocv.JPEGFileExt, frame)
}

func encode(ext gocv.FileExt, frame gocv.Mat) ([]byte, error) {
	if frame.Empty() {
		return nil, ErrEmptySnapshot
	}

	buf, err := gocv.IMEncode(ext, frame)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
