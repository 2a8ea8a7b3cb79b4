package usecase_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// mockModel はModelインターフェースのモック実装です。
type mockModel struct {
	LogitsFunc  func(ctx context.Context, t entity.InputTensor) ([]float32, error)
	LogitsCalls atomic.Int32
	closed      atomic.Bool
}

// Logits はLogitsFuncが設定されていればそれを呼び出し、呼び出し回数を記録します。
func (m *mockModel) Logits(ctx context.Context, t entity.InputTensor) ([]float32, error) {
	m.LogitsCalls.Add(1)
	if m.LogitsFunc != nil {
		return m.LogitsFunc(ctx, t)
	}
	return nil, errors.New("LogitsFunc is not implemented")
}

// Close はモデルが解放されたことを記録します。
func (m *mockModel) Close() { m.closed.Store(true) }

// fixedLogits は常に同じlogitsを返すモックモデルを生成します。
func fixedLogits(logits ...float32) *mockModel {
	return &mockModel{
		LogitsFunc: func(ctx context.Context, t entity.InputTensor) ([]float32, error) {
			return logits, nil
		},
	}
}

// mockNutritionProvider はNutritionProviderインターフェースのモック実装です。
type mockNutritionProvider struct {
	mu          sync.Mutex
	LookupFunc  func(ctx context.Context, query string) (*entity.NutritionRecord, error)
	LookupCalls []string
}

// Lookup はLookupFuncが設定されていればそれを呼び出し、クエリを記録します。
func (m *mockNutritionProvider) Lookup(ctx context.Context, query string) (*entity.NutritionRecord, error) {
	m.mu.Lock()
	m.LookupCalls = append(m.LookupCalls, query)
	m.mu.Unlock()
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, query)
	}
	return nil, errors.New("LookupFunc is not implemented")
}

// mockAnalysisRepository はAnalysisRepositoryインターフェースのモック実装です。
type mockAnalysisRepository struct {
	SaveFunc       func(ctx context.Context, rec *entity.AnalysisRecord) error
	ListByUserFunc func(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error)
	Saved          []*entity.AnalysisRecord
	ListLimit      int
}

// Save はSaveFuncが設定されていればそれを呼び出し、保存されたレコードを記録します。
func (m *mockAnalysisRepository) Save(ctx context.Context, rec *entity.AnalysisRecord) error {
	m.Saved = append(m.Saved, rec)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, rec)
	}
	return nil
}

// ListByUser はListByUserFuncが設定されていればそれを呼び出し、limitを記録します。
func (m *mockAnalysisRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error) {
	m.ListLimit = limit
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit)
	}
	return nil, nil
}

// mockLabelDetector はFoodLabelDetectorインターフェースのモック実装です。
type mockLabelDetector struct {
	DetectLabelsFunc func(ctx context.Context, imageData []byte) ([]entity.DetectedLabel, error)
}

// DetectLabels はDetectLabelsFuncを呼び出します。
func (m *mockLabelDetector) DetectLabels(ctx context.Context, imageData []byte) ([]entity.DetectedLabel, error) {
	if m.DetectLabelsFunc != nil {
		return m.DetectLabelsFunc(ctx, imageData)
	}
	return nil, errors.New("DetectLabelsFunc is not implemented")
}

// encodePNG はテスト用の画像をPNGバイト列にエンコードします。
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// gradientRGBA は位置に応じて色が変化するRGBA画像を生成します。
func gradientRGBA(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w-1, 1)), G: uint8(y * 255 / max(h-1, 1)), B: 128, A: 255})
		}
	}
	return img
}

// pngDataURI はPNG画像をdata URI形式のbase64文字列に変換します。
func pngDataURI(t *testing.T, img image.Image) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodePNG(t, img))
}
