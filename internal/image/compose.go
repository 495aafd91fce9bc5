// Package imagepkg renders deck images and share QR codes.
package imagepkg

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Card tile geometry.
const (
	CardW   = 215
	CardH   = 300
	Columns = 10

	gap      = 8
	margin   = 48
	pipSize  = 14
	pipGap   = 6
	maxPips  = 10
	headerH  = 400
	rowExtra = pipSize + 2*gap
)

var (
	background  = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}
	placeholder = color.NRGBA{R: 0xbb, G: 0xbb, B: 0xc4, A: 0xff}
	pipColor    = color.NRGBA{R: 0x1f, G: 0x4e, B: 0x9c, A: 0xff}
)

// Tile is one distinct card in the deck image. A nil Image is drawn as a
// blank placeholder.
type Tile struct {
	Image image.Image
	Count int
}

// ComposeDeckImage lays tiles out in rows of Columns, each followed by one
// pip per copy. qr, when set, is placed in the top-right header.
func ComposeDeckImage(tiles []Tile, qr image.Image) *image.NRGBA {
	rows := (len(tiles) + Columns - 1) / Columns
	if rows == 0 {
		rows = 1
	}
	w := 2*margin + Columns*CardW + (Columns-1)*gap
	top := margin
	if qr != nil {
		top += headerH + margin
	}
	h := top + rows*(CardH+rowExtra) + margin
	canvas := imaging.New(w, h, background)

	if qr != nil {
		q := imaging.Resize(qr, headerH, headerH, imaging.Lanczos)
		canvas = imaging.Paste(canvas, q, image.Pt(w-margin-headerH, margin))
	}

	blank := imaging.New(CardW, CardH, placeholder)
	pip := imaging.New(pipSize, pipSize, pipColor)
	for i, t := range tiles {
		x := margin + (i%Columns)*(CardW+gap)
		y := top + (i/Columns)*(CardH+rowExtra)

		face := blank
		if t.Image != nil {
			face = imaging.Fill(t.Image, CardW, CardH, imaging.Center, imaging.Lanczos)
		}
		canvas = imaging.Paste(canvas, face, image.Pt(x, y))

		n := min(t.Count, maxPips)
		for p := 0; p < n; p++ {
			canvas = imaging.Paste(canvas, pip, image.Pt(x+p*(pipSize+pipGap), y+CardH+gap))
		}
	}
	return canvas
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
