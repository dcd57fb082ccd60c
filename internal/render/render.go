// Package render rasterises drawings made on the in-app canvas and scales
// uploaded images into thumbnails.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/nikhilbhutani/sketchstories/internal/vision"
)

const (
	MaxCanvasSide     = 4096
	DefaultCanvasSide = 1024
)

var ErrInvalidDrawing = errors.New("invalid vector drawing")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is one stroke; Tool is pencil, crayon, marker, pen, eraser or
// highlight.
type Path struct {
	Tool        string  `json:"tool"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	Points      []Point `json:"points"`
}

type VectorDrawing struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background,omitempty"`
	Paths      []Path `json:"paths"`
}

// Rasterize draws the strokes onto a canvas and returns PNG bytes.
func Rasterize(d VectorDrawing) ([]byte, error) {
	w, h := d.Width, d.Height
	if w == 0 {
		w = DefaultCanvasSide
	}
	if h == 0 {
		h = DefaultCanvasSide
	}
	if w < 0 || h < 0 || w > MaxCanvasSide || h > MaxCanvasSide {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidDrawing, w, h)
	}

	bg := color.NRGBA{255, 255, 255, 255}
	if d.Background != "" {
		c, err := ParseColor(d.Background)
		if err != nil {
			return nil, err
		}
		bg = c
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for i, p := range d.Paths {
		if len(p.Points) == 0 {
			continue
		}
		c, err := ParseColor(p.Color)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		width := p.StrokeWidth
		if width <= 0 {
			width = 4
		}
		switch p.Tool {
		case "eraser":
			c = bg
		case "highlight":
			c.A = 100
			width *= 2
		case "crayon":
			c.A = 220
		case "marker":
			width *= 1.5
		}

		dc.SetColor(c)
		dc.SetLineWidth(width)
		if len(p.Points) == 1 {
			dc.DrawPoint(p.Points[0].X, p.Points[0].Y, width/2)
			dc.Fill()
			continue
		}
		dc.MoveTo(p.Points[0].X, p.Points[0].Y)
		for _, pt := range p.Points[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", ErrInvalidDrawing, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", ErrInvalidDrawing, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Thumbnail scales an image so its longer side is at most size pixels and
// encodes it as PNG. Smaller images are re-encoded unscaled.
func Thumbnail(data []byte, size int) ([]byte, error) {
	img, _, err := vision.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > size || h > size {
		if w >= h {
			h = max(1, h*size/w)
			w = size
		} else {
			w = max(1, w*size/h)
			h = size
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
