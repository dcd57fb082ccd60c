package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func obj(name string, x, y, w, h float64) Object {
	return Object{Name: name, Confidence: 0.9, Box: Box{X: x, Y: y, Width: w, Height: h}}
}

func TestSceneType(t *testing.T) {
	tests := []struct {
		name    string
		objects []Object
		label   string
		want    string
	}{
		{"nature wins", []Object{obj("house", 0, 0, 1, 1), obj("Tree", 0, 0, 1, 1)}, "", SceneNature},
		{"indoor", []Object{obj("chair", 0, 0, 1, 1)}, "garden", SceneIndoor},
		{"detector label", []Object{obj("cat", 0, 0, 1, 1)}, " Beach ", "beach"},
		{"general", nil, "", SceneGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SceneType(tt.objects, tt.label))
		})
	}
}

func TestCompose(t *testing.T) {
	c := Compose([]Object{
		obj("cat", 0.4, 0.4, 0.2, 0.2),
		obj("sun", 0.8, 0.0, 0.1, 0.1),
		obj("tree", 0.0, 0.5, 0.2, 0.4),
	})

	assert.Equal(t, "centered", c.Type)
	assert.Equal(t, []string{"cat"}, c.Central)
	assert.Equal(t, []string{"sun", "tree"}, c.Peripheral)
	assert.InDelta(t, 0.5, c.Balance, 1e-9)

	c = Compose([]Object{obj("sun", 0.8, 0.0, 0.1, 0.1)})
	assert.Equal(t, "distributed", c.Type)

	c = Compose(nil)
	assert.Equal(t, "empty", c.Type)
	assert.Zero(t, c.Balance)
}

func TestCheckDrawing(t *testing.T) {
	safe := CheckDrawing([]Object{obj("cat", 0, 0, 1, 1)}, SceneInfo{Type: SceneNature}, nil)
	assert.True(t, safe.IsSafe)
	assert.Empty(t, safe.Recommendations)

	unsafe := CheckDrawing([]Object{obj("Knife", 0, 0, 1, 1), obj("cat", 0, 0, 1, 1)}, SceneInfo{Type: SceneGeneral}, nil)
	assert.False(t, unsafe.IsSafe)
	assert.Equal(t, []string{"Knife"}, unsafe.UnsafeElements)
	assert.True(t, unsafe.SceneSafe)
	assert.Equal(t, []string{"Remove or replace unsafe elements: Knife"}, unsafe.Recommendations)

	scene := CheckDrawing(nil, SceneInfo{Type: "horror"}, nil)
	assert.False(t, scene.IsSafe)
	assert.False(t, scene.SceneSafe)
	assert.Equal(t, []string{"Consider changing scene type from horror"}, scene.Recommendations)

	flagged := CheckDrawing(nil, SceneInfo{Type: SceneGeneral}, []string{"violence"})
	assert.False(t, flagged.IsSafe)
}
