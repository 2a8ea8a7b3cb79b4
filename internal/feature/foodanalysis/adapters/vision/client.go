// Package vision はGoogle Cloud Vision APIのラベル検出で食品を特定するクライアントを提供します。
package vision

import (
	"context"
	"fmt"
	"log/slog"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

// maxLabels はLABEL_DETECTIONで要求するラベル数の上限です。
const maxLabels = 20

// annotator はVision APIクライアントのうち本パッケージが使うメソッドです。
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// VisionFoodLabelDetector はGoogle Cloud Vision APIで画像のラベルを検出します。
type VisionFoodLabelDetector struct {
	client annotator
}

// VisionFoodLabelDetectorがFoodLabelDetectorを実装していることをコンパイル時に検証します。
var _ usecase.FoodLabelDetector = (*VisionFoodLabelDetector)(nil)

// NewVisionFoodLabelDetector はADCを使用してVisionFoodLabelDetectorの新しいインスタンスを生成します。
func NewVisionFoodLabelDetector(ctx context.Context) (*VisionFoodLabelDetector, error) {
	client, err := gvision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &VisionFoodLabelDetector{client: client}, nil
}

// Close はVision APIクライアントを解放します。
func (v *VisionFoodLabelDetector) Close() error {
	return v.client.Close()
}

// DetectLabels は画像バイト列からラベルをスコアの降順で返します（Vision APIの返却順）。
func (v *VisionFoodLabelDetector) DetectLabels(ctx context.Context, imageData []byte) ([]entity.DetectedLabel, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: imageData},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_LABEL_DETECTION, MaxResults: maxLabels},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision API request failed: %w", err)
	}

	if len(resp.GetResponses()) == 0 {
		return nil, nil
	}

	first := resp.GetResponses()[0]
	if first.GetError() != nil {
		return nil, fmt.Errorf("vision API error: %s", first.GetError().GetMessage())
	}

	labels := make([]entity.DetectedLabel, 0, len(first.GetLabelAnnotations()))
	for _, l := range first.GetLabelAnnotations() {
		labels = append(labels, entity.DetectedLabel{
			Description: l.GetDescription(),
			Score:       l.GetScore(),
		})
	}
	slog.Debug("vision labels detected", "count", len(labels))

	return labels, nil
}
