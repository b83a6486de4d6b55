// Package imaging normalizes raw image bytes to the site's fixed target
// resolution. Pure Go, safe for CGO_ENABLED=0 builds.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"news-ingest/internal/ports"
)

// Processor scales and center-crops to an exact width x height, re-encoding
// as JPEG at a fixed quality. Every featured image goes through this,
// whatever its origin.
type Processor struct {
	width   int
	height  int
	quality int
}

var _ ports.ImageProcessor = (*Processor)(nil)

// NewProcessor fixes the output geometry and JPEG quality.
func NewProcessor(width, height, quality int) *Processor {
	return &Processor{width: width, height: height, quality: quality}
}

// Normalize decodes, aspect-fills to the target rectangle and re-encodes.
func (p *Processor) Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, coverRect(img.Bounds(), p.width, p.height), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// coverRect picks the centered source rectangle matching the target aspect,
// so scaling fills the frame without distortion.
func coverRect(src image.Rectangle, tw, th int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 {
		return src
	}

	if sw*th > tw*sh {
		// source wider than target: crop width
		cw := sh * tw / th
		x := src.Min.X + (sw-cw)/2
		return image.Rect(x, src.Min.Y, x+cw, src.Max.Y)
	}

	// source taller than target: crop height
	ch := sw * th / tw
	y := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+ch)
}
