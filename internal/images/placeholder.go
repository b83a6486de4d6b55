package images

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// palette of muted backgrounds; picked by title hash so the same headline
// always renders the same card.
var palette = []color.RGBA{
	{R: 0x2c, G: 0x3e, B: 0x50, A: 0xff},
	{R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
	{R: 0x16, G: 0xa0, B: 0x85, A: 0xff},
	{R: 0xc0, G: 0x39, B: 0x2b, A: 0xff},
	{R: 0x29, G: 0x80, B: 0xb9, A: 0xff},
}

const maxPlaceholderLines = 4

// renderPlaceholder draws a solid card with the (shortened) headline overlaid
// and encodes it as JPEG. This is the near-guaranteed last step of the chain.
func renderPlaceholder(title string, width, height, quality int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid placeholder size %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := palette[hashTitle(title)%uint32(len(palette))]
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = bg.R
		img.Pix[i+1] = bg.G
		img.Pix[i+2] = bg.B
		img.Pix[i+3] = bg.A
	}

	face := basicfont.Face7x13
	lines := wrapTitle(title, (width-20)/face.Advance)

	lineHeight := face.Height + 4
	startY := height/2 - (len(lines)*lineHeight)/2 + face.Ascent

	for i, line := range lines {
		d := font.Drawer{
			Dst:  img,
			Src:  image.White,
			Face: face,
			Dot: fixed.P(
				(width-len(line)*face.Advance)/2,
				startY+i*lineHeight,
			),
		}
		d.DrawString(line)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

func wrapTitle(title string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}

	var lines []string
	line := ""
	for _, word := range strings.Fields(title) {
		if len(word) > maxChars {
			word = word[:maxChars]
		}
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= maxChars:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
		if len(lines) == maxPlaceholderLines {
			return lines
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func hashTitle(title string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	return h.Sum32()
}
