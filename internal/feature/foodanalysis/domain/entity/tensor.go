package entity

const (
	// InputSize は分類モデルが期待する入力画像の一辺の画素数です。
	InputSize = 224
	// InputChannels は入力テンソルのチャネル数です。
	InputChannels = 3
)

// InputTensorShape はモデル入力の形状（NCHW）です。
var InputTensorShape = []int64{1, InputChannels, InputSize, InputSize}

// InputTensor は正規化済みのモデル入力です。
// Data はチャネル優先（CHW）で InputChannels*InputSize*InputSize 要素を保持します。
type InputTensor struct {
	Data []float32
}

// Len はテンソルの要素数を返します。
func (t InputTensor) Len() int {
	return len(t.Data)
}
