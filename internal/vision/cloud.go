package vision

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const maxCloudObjects = 20

// CloudDetector calls the Google Cloud Vision API.
type CloudDetector struct {
	client  *vision.ImageAnnotatorClient
	timeout time.Duration
}

func NewCloudDetector(ctx context.Context) (*CloudDetector, error) {
	client, err := vision.NewImageAnnotatorClient(ctx, clientOptionsFromEnv()...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	return &CloudDetector{client: client, timeout: 30 * time.Second}, nil
}

func (d *CloudDetector) Name() string { return "cloud_vision" }

func (d *CloudDetector) Close() error { return d.client.Close() }

func (d *CloudDetector) Detect(ctx context.Context, img []byte, _ string) (*Detection, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: maxCloudObjects},
				{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: 5},
				{Type: visionpb.Feature_SAFE_SEARCH_DETECTION},
			},
		}},
	}
	resp, err := d.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return &Detection{Objects: []Object{}}, nil
	}
	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return nil, fmt.Errorf("vision annotate error: %s", r.Error.Message)
	}
	return detectionFromResponse(r), nil
}

func detectionFromResponse(r *visionpb.AnnotateImageResponse) *Detection {
	det := &Detection{Objects: []Object{}}
	for _, o := range r.GetLocalizedObjectAnnotations() {
		det.Objects = append(det.Objects, Object{
			Name:       strings.ToLower(o.GetName()),
			Confidence: float64(o.GetScore()),
			Box:        boxFromPoly(o.GetBoundingPoly()),
		})
	}
	if labels := r.GetLabelAnnotations(); len(labels) > 0 {
		det.Scene = strings.ToLower(labels[0].GetDescription())
		det.SceneConfidence = float64(labels[0].GetScore())
	}
	if ss := r.GetSafeSearchAnnotation(); ss != nil {
		if likely(ss.GetViolence()) {
			det.Flags = append(det.Flags, "violence")
		}
		if likely(ss.GetAdult()) || likely(ss.GetRacy()) {
			det.Flags = append(det.Flags, "adult")
		}
		if likely(ss.GetMedical()) {
			det.Flags = append(det.Flags, "medical")
		}
	}
	return det
}

func likely(l visionpb.Likelihood) bool {
	return l == visionpb.Likelihood_LIKELY || l == visionpb.Likelihood_VERY_LIKELY
}

func boxFromPoly(p *visionpb.BoundingPoly) Box {
	vs := p.GetNormalizedVertices()
	if len(vs) == 0 {
		return Box{}
	}
	minX, minY := float64(vs[0].GetX()), float64(vs[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range vs[1:] {
		x, y := float64(v.GetX()), float64(v.GetY())
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// clientOptionsFromEnv accepts inline JSON credentials or a file path.
func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}
