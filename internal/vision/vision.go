// Package vision turns a child's drawing into the structured analysis a
// story is written from: detected objects, scene, colours, composition
// and a drawing-level safety verdict.
package vision

import (
	"context"
	"errors"
	"strings"
)

//go:generate mockgen -destination=mocks/detector_mock.go -package=mocks . Detector

var ErrUnsupportedImage = errors.New("unsupported image")

// Box is a bounding box with coordinates normalised to [0, 1].
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

type Object struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Detection is the raw detector output.
type Detection struct {
	Objects         []Object `json:"objects"`
	Scene           string   `json:"scene,omitempty"`
	SceneConfidence float64  `json:"scene_confidence,omitempty"`
	// Flags carries detector-level content warnings such as "violence".
	Flags []string `json:"flags,omitempty"`
}

// Detector is a black box from image bytes to objects and a scene label.
type Detector interface {
	Name() string
	Detect(ctx context.Context, img []byte, mimeType string) (*Detection, error)
}

// Names returns the lowercase object names in detection order.
func Names(objects []Object) []string {
	out := make([]string, len(objects))
	for i, o := range objects {
		out[i] = strings.ToLower(o.Name)
	}
	return out
}

// ColorOnly detects nothing, leaving the analysis to the colour and scene
// heuristics. It backs deployments without a vision provider.
type ColorOnly struct{}

func (ColorOnly) Name() string { return "colors" }

func (ColorOnly) Detect(context.Context, []byte, string) (*Detection, error) {
	return &Detection{}, nil
}
