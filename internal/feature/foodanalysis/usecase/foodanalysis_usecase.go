// Package usecase はfoodanalysisフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

const (
	// MaxImageSize は画像アップロードの最大サイズ（16MB）です。
	MaxImageSize = 16 * 1024 * 1024
	// DefaultHistoryLimit は履歴取得のデフォルト件数です。
	DefaultHistoryLimit = 20
	// MaxHistoryLimit は履歴取得の最大件数です。
	MaxHistoryLimit = 100
)

// foodTerms はラベル検出結果から食品ラベルを選ぶためのキーワードです。
var foodTerms = []string{"food", "dish", "meal", "fruit", "vegetable", "meat"}

// Classifier は入力テンソルから上位K件の予測を返します。
type Classifier interface {
	Predict(ctx context.Context, t entity.InputTensor) (entity.RankedPredictions, error)
}

// AnalysisRepository は解析履歴の永続化レイヤーを抽象化します。
type AnalysisRepository interface {
	Save(ctx context.Context, rec *entity.AnalysisRecord) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error)
}

// FoodLabelDetector は画像からラベルを検出します（Google Vision など）。
type FoodLabelDetector interface {
	DetectLabels(ctx context.Context, imageData []byte) ([]entity.DetectedLabel, error)
}

// foodAnalysisUsecase は画像解析パイプライン全体を組み立てます。
type foodAnalysisUsecase struct {
	classifier Classifier
	resolver   *NutritionResolver
	history    AnalysisRepository
	provider   NutritionProvider
	detector   FoodLabelDetector
}

// Option はfoodAnalysisUsecaseの任意の依存関係を設定します。
type Option func(*foodAnalysisUsecase)

// WithHistory は解析履歴の保存先を設定します。
func WithHistory(repo AnalysisRepository) Option {
	return func(u *foodAnalysisUsecase) { u.history = repo }
}

// WithLabelDetector はスキャン用のラベル検出器を設定します。
func WithLabelDetector(d FoodLabelDetector) Option {
	return func(u *foodAnalysisUsecase) { u.detector = d }
}

// NewFoodAnalysisUsecase はfoodAnalysisUsecaseの新しいインスタンスを生成します。
func NewFoodAnalysisUsecase(classifier Classifier, provider NutritionProvider, resolveTimeout time.Duration, opts ...Option) *foodAnalysisUsecase {
	u := &foodAnalysisUsecase{
		classifier: classifier,
		provider:   provider,
		resolver:   NewNutritionResolver(provider, resolveTimeout),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Analyze は画像を分類し、上位1件のラベルで栄養情報を解決します。
// 表示用のFoodItemは上位3件の連結文字列、検索クエリは上位1件の正規化ラベルのみを使用します。
func (u *foodAnalysisUsecase) Analyze(ctx context.Context, userID uint, in entity.RawImageInput) (*entity.PipelineResult, error) {
	if exceedsMaxImageSize(in) {
		return nil, fmt.Errorf("%w: %w: image size exceeds maximum of %d bytes", domain.ErrNoFoodDetected, domain.ErrDecode, MaxImageSize)
	}

	img, err := Decode(in)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoFoodDetected, err)
	}
	slog.Debug("image decoded", "width", img.Width, "height", img.Height)

	tensor, err := Preprocess(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoFoodDetected, err)
	}
	slog.Debug("image preprocessed", "shape", entity.InputTensorShape)

	start := time.Now()
	preds, err := u.classifier.Predict(ctx, tensor)
	if err != nil {
		if errors.Is(err, domain.ErrModelLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrNoFoodDetected, err)
	}
	top, ok := preds.Top()
	if !ok {
		return nil, domain.ErrNoFoodDetected
	}
	slog.Info("food classified", "label", top.Label, "confidence", top.Confidence, "duration", time.Since(start))

	query, err := NormalizeLabel(top.Display())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoFoodDetected, err)
	}
	slog.Debug("label normalized", "label", top.Label, "query", query)

	nutrition, source := u.resolver.Resolve(ctx, query, top.Label)
	slog.Debug("nutrition stage finished", "query", query, "source", source)

	res := &entity.PipelineResult{
		FoodItem:    preds.Display(),
		Query:       query,
		Predictions: preds,
		Nutrition:   nutrition,
		Source:      source,
	}
	u.saveHistory(ctx, userID, res)
	return res, nil
}

// exceedsMaxImageSize はデコード前の入力が MaxImageSize を超えるかを判定します。
// base64の場合はエンコード後のサイズ（4/3倍）とdata URIヘッダー分を許容します。
func exceedsMaxImageSize(in entity.RawImageInput) bool {
	if in.Kind == entity.InputBase64 {
		return len(in.Payload) > MaxImageSize/3*4+256
	}
	return len(in.Bytes) > MaxImageSize
}

// saveHistory は解析結果を履歴に保存します。失敗してもリクエストは失敗させません。
func (u *foodAnalysisUsecase) saveHistory(ctx context.Context, userID uint, res *entity.PipelineResult) {
	if u.history == nil {
		return
	}
	rec := &entity.AnalysisRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		FoodItem:  res.FoodItem,
		Query:     res.Query,
		Nutrition: res.Nutrition,
		Source:    res.Source,
		CreatedAt: time.Now().UTC(),
	}
	if err := u.history.Save(ctx, rec); err != nil {
		slog.Error("failed to save analysis history", "user_id", userID, "error", err)
	}
}

// History はユーザーの解析履歴を新しい順に返します。
func (u *foodAnalysisUsecase) History(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error) {
	if u.history == nil {
		return []entity.AnalysisRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return u.history.ListByUser(ctx, userID, limit)
}

// Scan はラベル検出APIで食品名を特定し、プロバイダーから栄養情報を取得します。
// Analyzeと異なりフォールバック値は使用せず、取得できない場合は domain.ErrNutritionUnavailable を返します。
func (u *foodAnalysisUsecase) Scan(ctx context.Context, imageData []byte) (*entity.ScanResult, error) {
	if u.detector == nil {
		return nil, fmt.Errorf("label detector is not configured")
	}
	if len(imageData) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", domain.ErrDecode)
	}
	if len(imageData) > MaxImageSize {
		return nil, fmt.Errorf("%w: image size exceeds maximum of %d bytes", domain.ErrDecode, MaxImageSize)
	}

	labels, err := u.detector.DetectLabels(ctx, imageData)
	if err != nil {
		return nil, fmt.Errorf("label detection failed: %w", err)
	}
	name, ok := firstFoodLabel(labels)
	if !ok {
		return nil, domain.ErrNoFoodDetected
	}

	ctx, cancel := context.WithTimeout(ctx, u.resolver.timeout)
	defer cancel()
	rec, err := u.provider.Lookup(ctx, name)
	if err != nil || rec == nil {
		slog.Warn("nutrition lookup failed for scanned food", "food", name, "error", err)
		return nil, fmt.Errorf("%w: %q", domain.ErrNutritionUnavailable, name)
	}
	out := *rec
	if out.Name == "" {
		out.Name = name
	}
	return &entity.ScanResult{FoodItem: name, Nutrition: out}, nil
}

// firstFoodLabel は食品関連キーワードを含む最初のラベルを返します。
func firstFoodLabel(labels []entity.DetectedLabel) (string, bool) {
	for _, l := range labels {
		d := strings.ToLower(l.Description)
		for _, term := range foodTerms {
			if strings.Contains(d, term) {
				return l.Description, true
			}
		}
	}
	return "", false
}
