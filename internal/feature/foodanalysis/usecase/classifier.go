package usecase

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// Model は学習済み分類モデルの推論インターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Model interface {
	// Logits は入力テンソルに対する全クラス分の生スコアを返します。
	// 推論は評価モードで行われ、複数のgoroutineから同時に呼び出されても安全でなければなりません。
	Logits(ctx context.Context, t entity.InputTensor) ([]float32, error)
}

// ModelLoader は分類モデルを構築します。ClassifierEngineから最大1回だけ呼び出されます。
type ModelLoader func() (Model, error)

// ClassifierEngine は遅延初期化されるモデルを保持し、上位K件の予測を返します。
// 構成ルート（cmd/server）が1つだけ生成し、プロセスの生存期間中共有します。
type ClassifierEngine struct {
	classes entity.ClassNameTable
	load    ModelLoader
	topK    int

	once   sync.Once
	model  Model
	err    error
	loaded atomic.Bool
}

// NewClassifierEngine はClassifierEngineの新しいインスタンスを生成します。
// モデルは最初のPredictまたはWarmupの呼び出し時にロードされます。
func NewClassifierEngine(classes entity.ClassNameTable, load ModelLoader) *ClassifierEngine {
	return &ClassifierEngine{classes: classes, load: load, topK: entity.TopK}
}

// Warmup はモデルを即時にロードします。起動時に呼び出し、失敗時はリクエストを受け付けないこと。
func (e *ClassifierEngine) Warmup() error {
	_, err := e.getModel()
	return err
}

// Ready はモデルがロード済みであればnilを返します。ロード自体は行いません。
func (e *ClassifierEngine) Ready() error {
	if e.loaded.Load() {
		return nil
	}
	return fmt.Errorf("%w: model not loaded", domain.ErrModelLoad)
}

// getModel はモデルを最大1回だけロードして返します。
// ロード失敗も記録され、以後の呼び出しは同じエラーを返します。
func (e *ClassifierEngine) getModel() (Model, error) {
	e.once.Do(func() {
		if e.classes.Len() == 0 {
			e.err = fmt.Errorf("%w: class name table is empty", domain.ErrModelLoad)
			return
		}
		start := time.Now()
		m, err := e.load()
		if err != nil {
			e.err = fmt.Errorf("%w: %v", domain.ErrModelLoad, err)
			return
		}
		e.model = m
		e.loaded.Store(true)
		slog.Info("classifier model loaded", "num_classes", e.classes.Len(), "duration", time.Since(start))
	})
	return e.model, e.err
}

// Predict は入力テンソルを推論し、確率の降順に並んだ上位K件の予測を返します。
// 同確率の場合はクラスインデックスの小さい方が先になります。
func (e *ClassifierEngine) Predict(ctx context.Context, t entity.InputTensor) (entity.RankedPredictions, error) {
	m, err := e.getModel()
	if err != nil {
		return nil, err
	}

	want := entity.InputChannels * entity.InputSize * entity.InputSize
	if t.Len() != want {
		return nil, fmt.Errorf("input tensor has %d values, expected %d", t.Len(), want)
	}

	logits, err := m.Logits(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(logits) != e.classes.Len() {
		return nil, fmt.Errorf("%w: model produced %d scores for %d classes", domain.ErrModelLoad, len(logits), e.classes.Len())
	}

	probs := Softmax(logits)
	top := TopKIndices(probs, e.topK)

	out := make(entity.RankedPredictions, 0, len(top))
	for _, i := range top {
		out = append(out, entity.ClassPrediction{
			Label:      e.classes.Name(i),
			Confidence: probs[i],
		})
	}
	return out, nil
}

// Softmax はlogitsを確率分布に変換します。数値安定化のため最大値を差し引いて計算します。
func Softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxV := float64(logits[0])
	for _, v := range logits[1:] {
		maxV = math.Max(maxV, float64(v))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxV)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// TopKIndices は確率の降順で上位k件のインデックスを返します。
// 安定ソートのため、同確率の場合はインデックスの小さい方が先になります。
func TopKIndices(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

// Close はロード済みのモデルがリソースを保持している場合に解放します。
func (e *ClassifierEngine) Close() {
	if !e.loaded.Load() {
		return
	}
	if c, ok := e.model.(interface{ Close() }); ok {
		c.Close()
	}
}
