package vision

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sort"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	analysisSize   = 256
	dominantColors = 5
	quantStep      = 16
)

type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c RGB) Hex() string { return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B) }

func (c RGB) packed() uint32 { return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B) }

type DominantColor struct {
	RGB        RGB     `json:"rgb"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
}

type ColorMood struct {
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Mood       string  `json:"mood"`
}

type ColorInfo struct {
	Dominant []DominantColor `json:"dominant_colors"`
	Mood     ColorMood       `json:"color_mood"`
	Palette  []string        `json:"palette"`
}

// SceneAttributes are global pixel statistics in [0, 1].
type SceneAttributes struct {
	Brightness float64 `json:"brightness"`
	Complexity float64 `json:"complexity"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

var namedColors = []struct {
	name string
	rgb  RGB
}{
	{"black", RGB{0, 0, 0}},
	{"white", RGB{255, 255, 255}},
	{"gray", RGB{128, 128, 128}},
	{"red", RGB{220, 20, 60}},
	{"orange", RGB{255, 140, 0}},
	{"yellow", RGB{255, 215, 0}},
	{"green", RGB{34, 139, 34}},
	{"light green", RGB{144, 238, 144}},
	{"blue", RGB{30, 90, 255}},
	{"sky blue", RGB{135, 206, 235}},
	{"purple", RGB{128, 0, 128}},
	{"pink", RGB{255, 105, 180}},
	{"brown", RGB{139, 69, 19}},
	{"beige", RGB{245, 222, 179}},
}

// DecodeImage decodes png, jpeg, gif, webp or bmp data.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, format, nil
}

// ColorAnalyzer summarises the colours of a drawing.
type ColorAnalyzer struct{}

func NewColorAnalyzer() *ColorAnalyzer { return &ColorAnalyzer{} }

type colorCount struct {
	rgb   RGB
	count int
}

// Analyze scales the image down, buckets its colours and reports the five
// most frequent. Colours are ordered by count, most frequent first.
func (a *ColorAnalyzer) Analyze(img image.Image) (ColorInfo, SceneAttributes) {
	bounds := img.Bounds()
	small := downscale(img, analysisSize)

	counts := make(map[RGB]int)
	var sum, sumSq float64
	var n int
	sb := small.Bounds()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			c := RGB{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
			counts[quantize(c)]++
			for _, v := range []uint8{c.R, c.G, c.B} {
				f := float64(v) / 255
				sum += f
				sumSq += f * f
				n++
			}
		}
	}

	attrs := SceneAttributes{Width: bounds.Dx(), Height: bounds.Dy()}
	if n > 0 {
		mean := sum / float64(n)
		attrs.Brightness = mean
		attrs.Complexity = math.Sqrt(math.Max(sumSq/float64(n)-mean*mean, 0))
	}

	sorted := make([]colorCount, 0, len(counts))
	for c, k := range counts {
		sorted = append(sorted, colorCount{rgb: c, count: k})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].rgb.packed() > sorted[j].rgb.packed()
	})

	return ColorInfo{
		Dominant: dominant(sorted),
		Mood:     mood(sorted),
		Palette:  palette(sorted),
	}, attrs
}

func dominant(sorted []colorCount) []DominantColor {
	top := sorted[:min(dominantColors, len(sorted))]
	total := 0
	for _, c := range top {
		total += c.count
	}
	out := make([]DominantColor, 0, len(top))
	for _, c := range top {
		out = append(out, DominantColor{
			RGB:        c.rgb,
			Name:       ColorName(c.rgb),
			Percentage: float64(c.count) / float64(total),
		})
	}
	return out
}

// mood averages brightness and saturation over the distinct colours.
func mood(sorted []colorCount) ColorMood {
	if len(sorted) == 0 {
		return ColorMood{Mood: "balanced"}
	}
	var bright, sat float64
	for _, c := range sorted {
		_, s, v := toHSV(c.rgb)
		bright += v
		sat += s
	}
	m := ColorMood{
		Brightness: bright / float64(len(sorted)),
		Saturation: sat / float64(len(sorted)),
	}
	m.Mood = moodFor(m.Brightness, m.Saturation)
	return m
}

func moodFor(brightness, saturation float64) string {
	switch {
	case brightness > 0.7 && saturation > 0.5:
		return "cheerful"
	case brightness > 0.7 && saturation < 0.3:
		return "peaceful"
	case brightness < 0.3:
		return "mysterious"
	default:
		return "balanced"
	}
}

func palette(sorted []colorCount) []string {
	top := sorted[:min(dominantColors, len(sorted))]
	out := make([]string, len(top))
	for i, c := range top {
		out[i] = c.rgb.Hex()
	}
	return out
}

// ColorName returns the nearest named colour.
func ColorName(c RGB) string {
	best, bestDist := "", math.MaxFloat64
	for _, nc := range namedColors {
		dr := float64(c.R) - float64(nc.rgb.R)
		dg := float64(c.G) - float64(nc.rgb.G)
		db := float64(c.B) - float64(nc.rgb.B)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = nc.name, d
		}
	}
	return best
}

func quantize(c RGB) RGB {
	q := func(v uint8) uint8 {
		b := int(v)/quantStep*quantStep + quantStep/2
		if b > 255 {
			b = 255
		}
		return uint8(b)
	}
	return RGB{q(c.R), q(c.G), q(c.B)}
}

func toHSV(c RGB) (h, s, v float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	cmax := math.Max(r, math.Max(g, b))
	cmin := math.Min(r, math.Min(g, b))
	diff := cmax - cmin

	switch {
	case diff == 0:
		h = 0
	case cmax == r:
		h = math.Mod(60*((g-b)/diff)+360, 360)
	case cmax == g:
		h = math.Mod(60*((b-r)/diff)+120, 360)
	default:
		h = math.Mod(60*((r-g)/diff)+240, 360)
	}
	if cmax > 0 {
		s = diff / cmax
	}
	return h, s, cmax
}

// downscale keeps the aspect ratio and never enlarges.
func downscale(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
