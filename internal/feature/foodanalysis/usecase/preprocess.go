package usecase

import (
	"fmt"

	"github.com/nfnt/resize"

	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// 学習時と同じチャネルごとの正規化パラメータ（ImageNet）。
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Preprocess はCanonicalImageを224x224に引き伸ばしてリサイズし、
// [0,1]へのスケーリングとImageNet正規化を適用したCHWテンソルを返します。
// 同じ入力画素に対しては常に同じテンソルを返します。
func Preprocess(img *entity.CanonicalImage) (entity.InputTensor, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return entity.InputTensor{}, fmt.Errorf("%w: image has no pixels", domain.ErrDecode)
	}

	const size = entity.InputSize
	// アスペクト比は保持しない
	resized := resize.Resize(size, size, img.ToRGBA(), resize.Bilinear)

	plane := size * size
	data := make([]float32, entity.InputChannels*plane)
	b := resized.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := y*size + x
			data[idx] = normalize(float32(r>>8)/255.0, 0)
			data[plane+idx] = normalize(float32(g>>8)/255.0, 1)
			data[2*plane+idx] = normalize(float32(bl>>8)/255.0, 2)
		}
	}
	return entity.InputTensor{Data: data}, nil
}

func normalize(v float32, ch int) float32 {
	return (v - ImageNetMean[ch]) / ImageNetStd[ch]
}
