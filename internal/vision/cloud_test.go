package vision

import (
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionFromResponse(t *testing.T) {
	r := &visionpb.AnnotateImageResponse{
		LocalizedObjectAnnotations: []*visionpb.LocalizedObjectAnnotation{{
			Name:  "Dog",
			Score: 0.875,
			BoundingPoly: &visionpb.BoundingPoly{NormalizedVertices: []*visionpb.NormalizedVertex{
				{X: 0.25, Y: 0.5}, {X: 0.75, Y: 0.5}, {X: 0.75, Y: 1}, {X: 0.25, Y: 1},
			}},
		}},
		LabelAnnotations: []*visionpb.EntityAnnotation{
			{Description: "Drawing", Score: 0.5},
			{Description: "Art", Score: 0.25},
		},
		SafeSearchAnnotation: &visionpb.SafeSearchAnnotation{
			Violence: visionpb.Likelihood_VERY_LIKELY,
			Adult:    visionpb.Likelihood_UNLIKELY,
		},
	}

	det := detectionFromResponse(r)

	require.Len(t, det.Objects, 1)
	assert.Equal(t, "dog", det.Objects[0].Name)
	assert.Equal(t, 0.875, det.Objects[0].Confidence)
	assert.Equal(t, Box{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.5}, det.Objects[0].Box)
	assert.Equal(t, "drawing", det.Scene)
	assert.Equal(t, 0.5, det.SceneConfidence)
	assert.Equal(t, []string{"violence"}, det.Flags)
}

func TestDetectionFromEmptyResponse(t *testing.T) {
	det := detectionFromResponse(&visionpb.AnnotateImageResponse{})
	assert.Empty(t, det.Objects)
	assert.Empty(t, det.Scene)
	assert.Equal(t, Box{}, boxFromPoly(nil))
}

func TestClientOptionsFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	assert.Empty(t, clientOptionsFromEnv())

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/etc/creds.json")
	assert.Len(t, clientOptionsFromEnv(), 1)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", `{"type":"service_account"}`)
	assert.Len(t, clientOptionsFromEnv(), 1)
}
