package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

// Gallery pictures are scaled down to a fixed display height; width is
// effectively unconstrained so panoramas keep their aspect ratio.
const (
	PictureMaxWidth  = 10000
	PictureMaxHeight = 400
)

// ImageProcessor handles image processing like resizing.
type ImageProcessor struct{}

// NewImageProcessor creates a new ImageProcessor.
func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// FitWithin decodes the source image and scales it to fit inside the
// maxWidth x maxHeight bounding box, re-encoding as JPEG.
func (p *ImageProcessor) FitWithin(content io.Reader, maxWidth, maxHeight int) (io.Reader, error) {
	img, _, err := image.Decode(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf, nil
}

// FitPicture applies the standard hall gallery bounding box.
func (p *ImageProcessor) FitPicture(content io.Reader) (io.Reader, error) {
	return p.FitWithin(content, PictureMaxWidth, PictureMaxHeight)
}
