package usecase

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode"

	_ "image/gif"  // GIFデコーダー登録
	_ "image/jpeg" // JPEGデコーダー登録
	_ "image/png"  // PNGデコーダー登録

	_ "golang.org/x/image/bmp"  // BMPデコーダー登録
	_ "golang.org/x/image/webp" // WEBPデコーダー登録

	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

const (
	// MaxImageDimension はデコードを許可する画像の一辺の最大画素数です。
	MaxImageDimension = 16384
	// MaxImagePixels はデコードを許可する画像の総画素数の上限（50MP）です。
	// 圧縮率の高い画像はバイト数の上限を通過しても展開後に巨大になるため、ヘッダーの寸法で判定します。
	MaxImagePixels = 50_000_000
)

// Decode はRawImageInputをデコードし、3チャネルRGBのCanonicalImageに変換します。
// 入力が画像として不正な場合は domain.ErrDecode を返します。
func Decode(in entity.RawImageInput) (*entity.CanonicalImage, error) {
	data := in.Bytes
	if in.Kind == entity.InputBase64 {
		b, err := decodeBase64Payload(in.Payload)
		if err != nil {
			return nil, err
		}
		data = b
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image data is empty", domain.ErrDecode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return toCanonical(img), nil
}

// checkDimensions はヘッダーの寸法がデコード可能な範囲かを検証します。
func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid image dimensions %dx%d", domain.ErrDecode, w, h)
	}
	if w > MaxImageDimension || h > MaxImageDimension {
		return fmt.Errorf("%w: image dimensions %dx%d exceed %d", domain.ErrDecode, w, h, MaxImageDimension)
	}
	if int64(w)*int64(h) > MaxImagePixels {
		return fmt.Errorf("%w: image has %d pixels, maximum is %d", domain.ErrDecode, int64(w)*int64(h), MaxImagePixels)
	}
	return nil
}

// decodeBase64Payload はdata URIヘッダー（最初のカンマまで）を除去してbase64をデコードします。
func decodeBase64Payload(payload string) ([]byte, error) {
	encoded := payload
	if _, after, found := strings.Cut(payload, ","); found {
		encoded = after
	}
	// 改行などの空白はペイロードの一部とみなさない
	encoded = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: base64 payload is empty", domain.ErrDecode)
	}

	b, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return b, nil
	}
	// パディングなしのペイロードも受け付ける
	if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "=")); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("%w: malformed base64 payload: %v", domain.ErrDecode, err)
}

// toCanonical は任意のカラーモデルの画像をRGBに変換します。
// アルファチャネルは合成せずに破棄します。
func toCanonical(img image.Image) *entity.CanonicalImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &entity.CanonicalImage{Width: w, Height: h, Pix: make([]uint8, w*h*3)}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			i += 3
		}
	}
	return out
}
