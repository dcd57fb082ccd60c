package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nikhilbhutani/sketchstories/internal/llm"
	"github.com/nikhilbhutani/sketchstories/internal/llm/mocks"
)

func TestLLMDetector(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	d := NewLLMDetector(gw, "")

	gw.EXPECT().
		Chat(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
			assert.True(t, req.JSON)
			assert.Equal(t, "gpt-4o-mini", req.Model)
			require.Len(t, req.Messages, 2)
			require.Len(t, req.Messages[1].Images, 1)
			assert.Equal(t, "image/png", req.Messages[1].Images[0].MimeType)
			return &llm.ChatResponse{Content: "```json\n" +
				`{"objects":[{"name":" Cat ","confidence":1.4,"box":{"x":-0.1,"y":0.2,"width":0.3,"height":0.3}}],"scene":"Garden","scene_confidence":0.8}` +
				"\n```"}, nil
		})

	det, err := d.Detect(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	require.Len(t, det.Objects, 1)
	assert.Equal(t, "cat", det.Objects[0].Name)
	assert.Equal(t, 1.0, det.Objects[0].Confidence)
	assert.Equal(t, Box{X: 0, Y: 0.2, Width: 0.3, Height: 0.3}, det.Objects[0].Box)
	assert.Equal(t, "garden", det.Scene)
}

func TestLLMDetectorErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	d := NewLLMDetector(gw, "gpt-4o")

	gw.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(nil, errors.New("quota"))
	_, err := d.Detect(context.Background(), nil, "image/png")
	assert.ErrorContains(t, err, "vision detect")

	gw.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(&llm.ChatResponse{Content: "a cat, I think"}, nil)
	_, err = d.Detect(context.Background(), nil, "image/png")
	assert.ErrorContains(t, err, "parse detection")
}

func TestParseDetectionEmpty(t *testing.T) {
	det, err := parseDetection(`{"scene":""}`)
	require.NoError(t, err)
	assert.NotNil(t, det.Objects)
	assert.Empty(t, det.Objects)
}
