package usecase_test

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

// TestDecode_ColorModels は各カラーモデルの画像が3チャネルRGBに変換され、224x224x3のテンソルになることを検証します。
func TestDecode_ColorModels(t *testing.T) {
	t.Parallel()

	gray := image.NewGray(image.Rect(0, 0, 40, 10))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i)
	}

	palette := image.NewPaletted(image.Rect(0, 0, 7, 300), color.Palette{
		color.RGBA{R: 255, A: 255},
		color.RGBA{G: 255, A: 255},
	})
	for i := range palette.Pix {
		palette.Pix[i] = uint8(i % 2)
	}

	translucent := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := 0; i < len(translucent.Pix); i += 4 {
		translucent.Pix[i], translucent.Pix[i+1], translucent.Pix[i+2], translucent.Pix[i+3] = 200, 100, 50, 10
	}

	tests := []struct {
		name  string
		img   image.Image
		check func(t *testing.T, c *entity.CanonicalImage)
	}{
		{
			name: "success: rgba",
			img:  gradientRGBA(640, 480),
		},
		{
			name: "success: grayscale is expanded to three equal channels",
			img:  gray,
			check: func(t *testing.T, c *entity.CanonicalImage) {
				r, g, b := c.At(5, 0)
				assert.Equal(t, r, g)
				assert.Equal(t, g, b)
				assert.Equal(t, uint8(5), r)
			},
		},
		{
			name: "success: palette",
			img:  palette,
			check: func(t *testing.T, c *entity.CanonicalImage) {
				r, g, _ := c.At(0, 0)
				assert.Equal(t, uint8(255), r)
				assert.Equal(t, uint8(0), g)
			},
		},
		{
			name: "success: alpha is dropped without compositing",
			img:  translucent,
			check: func(t *testing.T, c *entity.CanonicalImage) {
				r, g, b := c.At(1, 1)
				assert.Equal(t, [3]uint8{200, 100, 50}, [3]uint8{r, g, b})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := encodePNG(t, tt.img)
			c, err := usecase.Decode(entity.FromFileBytes(data))
			require.NoError(t, err)

			b := tt.img.Bounds()
			assert.Equal(t, b.Dx(), c.Width)
			assert.Equal(t, b.Dy(), c.Height)
			assert.Len(t, c.Pix, b.Dx()*b.Dy()*3)
			if tt.check != nil {
				tt.check(t, c)
			}

			tensor, err := usecase.Preprocess(c)
			require.NoError(t, err)
			assert.Equal(t, entity.InputChannels*entity.InputSize*entity.InputSize, tensor.Len())
		})
	}
}

// TestDecode_Base64 はbase64入力（data URIヘッダーの有無・パディングなし・改行入り）がデコードできることを検証します。
func TestDecode_Base64(t *testing.T) {
	t.Parallel()

	raw := encodePNG(t, gradientRGBA(8, 6))
	std := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		payload string
	}{
		{"success: data uri header", "data:image/png;base64," + std},
		{"success: bare payload", std},
		{"success: unpadded payload", base64.RawStdEncoding.EncodeToString(raw)},
		{"success: payload with line breaks", std[:10] + "\n" + std[10:20] + "\r\n" + std[20:]},
		{"success: non-standard header is cut at the first comma", "data:whatever," + std},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := usecase.Decode(entity.FromBase64(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, 8, c.Width)
			assert.Equal(t, 6, c.Height)
		})
	}
}

// TestDecode_Errors は不正な入力がパニックせずに domain.ErrDecode を返すことを検証します。
func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   entity.RawImageInput
	}{
		{"error: malformed base64", entity.FromBase64("data:image/png;base64,@@@not-base64@@@")},
		{"error: empty base64 after header", entity.FromBase64("data:image/png;base64,")},
		{"error: empty string", entity.FromBase64("")},
		{"error: valid base64 but not an image", entity.FromBase64(base64.StdEncoding.EncodeToString([]byte("hello world")))},
		{"error: empty file bytes", entity.FromFileBytes(nil)},
		{"error: truncated png", entity.FromFileBytes([]byte("\x89PNG\r\n\x1a\n" + strings.Repeat("x", 10)))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			img, err := usecase.Decode(tt.in)
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, domain.ErrDecode), "expected ErrDecode, got %v", err)
		})
	}
}

// withDeclaredSize はPNGのIHDRに記録された寸法を書き換え、CRCを再計算したバイト列を返します。
// 画素データは元のままなので、ファイルは小さいまま巨大な寸法を宣言します。
func withDeclaredSize(t *testing.T, pngData []byte, w, h uint32) []byte {
	t.Helper()
	// シグネチャ(8) + 長さ(4) + "IHDR"(4) + データ(13) + CRC(4)
	require.GreaterOrEqual(t, len(pngData), 33)
	require.Equal(t, "IHDR", string(pngData[12:16]))

	out := append([]byte(nil), pngData...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

// TestDecode_OversizedDimensions は小さなファイルでも宣言寸法が上限を超える場合に、
// 画素バッファを確保せず domain.ErrDecode を返すことを検証します。
func TestDecode_OversizedDimensions(t *testing.T) {
	t.Parallel()

	small := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1)))

	tests := []struct {
		name string
		w, h uint32
	}{
		{"error: total pixels above limit", 8000, 8000},
		{"error: width above limit", usecase.MaxImageDimension + 1, 10},
		{"error: height above limit", 10, usecase.MaxImageDimension + 1},
		{"error: huge square", 40000, 40000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := withDeclaredSize(t, small, tt.w, tt.h)
			require.Less(t, len(data), 1024)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, int(tt.w), cfg.Width)

			img, err := usecase.Decode(entity.FromFileBytes(data))
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, domain.ErrDecode), "expected ErrDecode, got %v", err)

			img, err = usecase.Decode(entity.FromBase64(base64.StdEncoding.EncodeToString(data)))
			assert.Nil(t, img)
			assert.True(t, errors.Is(err, domain.ErrDecode), "expected ErrDecode, got %v", err)
		})
	}
}
