package mediastore

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

const (
	MaxDimension = 1600
	JPEGQuality  = 85
	WebPQuality  = 85
)

// Processed holds the encoded variants of one upload
type Processed struct {
	JPEG   []byte
	WebP   []byte
	Width  int
	Height int
}

// Process decodes an image, applies the EXIF orientation and fits it into
// MaxDimension x MaxDimension. Smaller images keep their size.
func Process(r io.Reader) (*Processed, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fitted := imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var jpg bytes.Buffer
	if err := imaging.Encode(&jpg, fitted, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	webpBytes, err := encodeWebP(fitted)
	if err != nil {
		return nil, err
	}

	b := fitted.Bounds()
	return &Processed{JPEG: jpg.Bytes(), WebP: webpBytes, Width: b.Dx(), Height: b.Dy()}, nil
}

func encodeWebP(img image.Image) ([]byte, error) {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, WebPQuality)
	if err != nil {
		return nil, fmt.Errorf("webp options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
