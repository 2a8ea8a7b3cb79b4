package onnx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

// Model はONNX Runtimeのセッションを保持する分類モデルです。
// 入出力テンソルはセッションに束縛されているため、推論はミューテックスで直列化します。
type Model struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// ModelがModelを実装していることをコンパイル時に検証します。
var _ usecase.Model = (*Model)(nil)

// NewLoader はClassifierEngineに渡すモデルローダーを返します。
// ローダーは重みファイルの存在と出力形状（numClasses）を検証してからセッションを作成します。
func NewLoader(cfg Config, numClasses int) usecase.ModelLoader {
	return func() (usecase.Model, error) {
		return NewModel(cfg, numClasses)
	}
}

// NewModel はONNX環境を初期化し、推論セッションを作成します。
func NewModel(cfg Config, numClasses int) (*Model, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model weights not found at %s: %w", cfg.ModelPath, err)
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	if err := checkOutputShape(cfg, numClasses); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(entity.InputTensorShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numClasses)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{cfg.InputName}, []string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Info("onnx session created", "model", cfg.ModelPath, "num_classes", numClasses)
	return &Model{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// checkOutputShape はモデルの出力次元がクラス数と一致するかを検証します。
func checkOutputShape(cfg Config, numClasses int) error {
	_, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to inspect model %s: %w", cfg.ModelPath, err)
	}
	for _, o := range outputs {
		if o.Name != cfg.OutputName {
			continue
		}
		dims := o.Dimensions
		if len(dims) == 0 || dims[len(dims)-1] != int64(numClasses) {
			return fmt.Errorf("model output %q has shape %v, expected %d classes", o.Name, dims, numClasses)
		}
		return nil
	}
	return fmt.Errorf("model has no output named %q", cfg.OutputName)
}

// Logits は入力テンソルをセッションに書き込み、推論結果のコピーを返します。
func (m *Model) Logits(ctx context.Context, t entity.InputTensor) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputTensor.GetData(), t.Data)
	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}

	raw := m.outputTensor.GetData()
	out := make([]float32, len(raw))
	copy(out, raw)
	return out, nil
}

// Close はセッションとテンソルを解放します。
func (m *Model) Close() {
	if m.inputTensor != nil {
		m.inputTensor.Destroy()
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
	}
	if m.session != nil {
		m.session.Destroy()
	}
	ort.DestroyEnvironment()
}
