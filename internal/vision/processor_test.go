package vision_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nikhilbhutani/sketchstories/internal/cache"
	"github.com/nikhilbhutani/sketchstories/internal/vision"
	"github.com/nikhilbhutani/sketchstories/internal/vision/mocks"
)

type memCache struct {
	data map[string][]byte
	ttl  time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dest any) error {
	b, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttl = ttl
	return nil
}

type observed struct {
	backend string
	err     error
}

type recordingObserver struct{ calls []observed }

func (r *recordingObserver) DrawingAnalyzed(backend string, err error, _ time.Duration) {
	r.calls = append(r.calls, observed{backend, err})
}

func greenPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{34, 139, 34, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessorAnalyze(t *testing.T) {
	ctrl := gomock.NewController(t)
	det := mocks.NewMockDetector(ctrl)
	det.EXPECT().Name().Return("mock").AnyTimes()
	obs := &recordingObserver{}
	p := vision.NewProcessor(det, vision.WithObserver(obs))

	img := greenPNG(t)
	det.EXPECT().Detect(gomock.Any(), img, "image/png").Return(&vision.Detection{
		Objects: []vision.Object{
			{Name: "tree", Confidence: 0.95, Box: vision.Box{X: 0.4, Y: 0.4, Width: 0.2, Height: 0.2}},
			{Name: "knife", Confidence: 0.5},
		},
		Scene: "park",
	}, nil)

	a, err := p.Analyze(context.Background(), img)
	require.NoError(t, err)

	require.Len(t, a.Objects, 1, "low confidence objects are dropped")
	assert.Equal(t, "tree", a.Objects[0].Name)
	assert.Equal(t, vision.SceneNature, a.Scene.Type)
	assert.Equal(t, "park", a.Scene.Label)
	assert.Equal(t, "centered", a.Composition.Type)
	assert.True(t, a.Safety.IsSafe)
	assert.Equal(t, "green", a.Colors.Dominant[0].Name)
	assert.Equal(t, "mock", a.Backend)
	assert.Equal(t, []observed{{"mock", nil}}, obs.calls)
}

func TestProcessorUsesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	det := mocks.NewMockDetector(ctrl)
	det.EXPECT().Name().Return("mock").AnyTimes()
	c := newMemCache()
	p := vision.NewProcessor(det, vision.WithCache(c, time.Hour), vision.WithMinConfidence(0.1))

	img := greenPNG(t)
	det.EXPECT().Detect(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&vision.Detection{Objects: []vision.Object{{Name: "cat", Confidence: 0.2}}}, nil).
		Times(1)

	first, err := p.Analyze(context.Background(), img)
	require.NoError(t, err)
	second, err := p.Analyze(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, c.data, 1)
	assert.Equal(t, time.Hour, c.ttl)
}

func TestProcessorErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	det := mocks.NewMockDetector(ctrl)
	det.EXPECT().Name().Return("mock").AnyTimes()
	obs := &recordingObserver{}
	p := vision.NewProcessor(det, vision.WithObserver(obs))

	_, err := p.Analyze(context.Background(), []byte("garbage"))
	assert.ErrorIs(t, err, vision.ErrUnsupportedImage)

	det.EXPECT().Detect(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("quota"))
	_, err = p.Analyze(context.Background(), greenPNG(t))
	assert.ErrorContains(t, err, "detect objects: quota")

	require.Len(t, obs.calls, 2)
	assert.Error(t, obs.calls[1].err)
}

func TestProcessorColorOnly(t *testing.T) {
	p := vision.NewProcessor(vision.ColorOnly{})

	a, err := p.Analyze(context.Background(), greenPNG(t))
	require.NoError(t, err)

	assert.Empty(t, a.Objects)
	assert.Equal(t, "colors", a.Backend)
	assert.Equal(t, "green", a.Colors.Dominant[0].Name)
	assert.True(t, a.Safety.IsSafe)
}
