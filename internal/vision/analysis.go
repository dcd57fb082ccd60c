package vision

import (
	"fmt"
	"slices"
	"strings"
)

const (
	SceneNature  = "nature"
	SceneIndoor  = "indoor"
	SceneGeneral = "general"
)

var (
	natureObjects = []string{"tree", "grass", "flower", "plant", "sun", "cloud"}
	indoorObjects = []string{"house", "building", "chair", "table", "bed", "couch"}
	unsafeObjects = []string{"knife", "gun", "sword", "blood"}
	unsafeScenes  = []string{"violence", "horror", "danger"}
)

type SceneInfo struct {
	Type       string          `json:"scene_type"`
	Label      string          `json:"label,omitempty"`
	Confidence float64         `json:"confidence"`
	Attributes SceneAttributes `json:"attributes"`
}

type Composition struct {
	Type       string   `json:"composition_type"`
	Central    []string `json:"central_elements"`
	Peripheral []string `json:"peripheral_elements"`
	Balance    float64  `json:"balance_score"`
}

type DrawingSafety struct {
	IsSafe          bool     `json:"is_safe"`
	UnsafeElements  []string `json:"unsafe_elements"`
	SceneSafe       bool     `json:"scene_safety"`
	Recommendations []string `json:"recommendations"`
}

// Analysis is everything a story generator needs to know about a drawing.
type Analysis struct {
	Objects     []Object      `json:"objects"`
	Scene       SceneInfo     `json:"scene"`
	Colors      ColorInfo     `json:"colors"`
	Composition Composition   `json:"composition"`
	Safety      DrawingSafety `json:"safe_for_children"`
	Backend     string        `json:"backend"`
}

// SceneType prefers object evidence over the detector's own label.
func SceneType(objects []Object, label string) string {
	names := Names(objects)
	for _, n := range names {
		if slices.Contains(natureObjects, n) {
			return SceneNature
		}
	}
	for _, n := range names {
		if slices.Contains(indoorObjects, n) {
			return SceneIndoor
		}
	}
	if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
		return label
	}
	return SceneGeneral
}

// Compose classifies objects whose centre lies in the middle third of the
// image as central.
func Compose(objects []Object) Composition {
	if len(objects) == 0 {
		return Composition{Type: "empty", Central: []string{}, Peripheral: []string{}}
	}
	c := Composition{Central: []string{}, Peripheral: []string{}}
	for _, o := range objects {
		x, y := o.Box.Center()
		if x > 0.33 && x < 0.67 && y > 0.33 && y < 0.67 {
			c.Central = append(c.Central, o.Name)
		} else {
			c.Peripheral = append(c.Peripheral, o.Name)
		}
	}
	c.Type = "distributed"
	if len(c.Central) > 0 {
		c.Type = "centered"
	}
	c.Balance = float64(len(c.Peripheral)) / float64(len(objects)+1)
	return c
}

// CheckDrawing flags unsafe objects, unsafe scene labels and detector
// warnings.
func CheckDrawing(objects []Object, scene SceneInfo, flags []string) DrawingSafety {
	s := DrawingSafety{UnsafeElements: []string{}, Recommendations: []string{}, SceneSafe: true}
	for _, o := range objects {
		if slices.Contains(unsafeObjects, strings.ToLower(o.Name)) {
			s.UnsafeElements = append(s.UnsafeElements, o.Name)
		}
	}
	for _, label := range append([]string{scene.Type, scene.Label}, flags...) {
		if slices.Contains(unsafeScenes, strings.ToLower(label)) {
			s.SceneSafe = false
			break
		}
	}

	if len(s.UnsafeElements) > 0 {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("Remove or replace unsafe elements: %s", strings.Join(s.UnsafeElements, ", ")))
	}
	if !s.SceneSafe {
		s.Recommendations = append(s.Recommendations,
			fmt.Sprintf("Consider changing scene type from %s", scene.Type))
	}
	s.IsSafe = len(s.UnsafeElements) == 0 && s.SceneSafe
	return s
}
