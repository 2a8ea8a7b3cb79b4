// Package entity はfoodanalysisフィーチャーのドメインモデルを定義します。
package entity

import "image"

// InputKind はRawImageInputの種別です。
type InputKind int

const (
	// InputFileBytes はアップロードされたファイルの生バイト列です。
	InputFileBytes InputKind = iota
	// InputBase64 はbase64文字列（data URIヘッダー付きも可）です。
	InputBase64
)

// RawImageInput はリクエストごとに生成される未デコードの画像入力です。
type RawImageInput struct {
	Kind    InputKind
	Bytes   []byte // InputFileBytes の場合のみ使用
	Payload string // InputBase64 の場合のみ使用
}

// FromFileBytes はファイルバイト列からRawImageInputを生成します。
func FromFileBytes(b []byte) RawImageInput {
	return RawImageInput{Kind: InputFileBytes, Bytes: b}
}

// FromBase64 はbase64文字列からRawImageInputを生成します。
func FromBase64(payload string) RawImageInput {
	return RawImageInput{Kind: InputBase64, Payload: payload}
}

// CanonicalImage はデコード済みのRGB画素バッファです。
// Pix は行優先で1画素3バイト（R, G, B）を保持します。
type CanonicalImage struct {
	Width  int
	Height int
	Pix    []uint8
}

// At は(x, y)のRGB値を返します。
func (c *CanonicalImage) At(x, y int) (r, g, b uint8) {
	i := (y*c.Width + x) * 3
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}

// ToRGBA は不透明な *image.RGBA に変換します。
func (c *CanonicalImage) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for i, j := 0, 0; i < len(c.Pix); i, j = i+3, j+4 {
		dst.Pix[j] = c.Pix[i]
		dst.Pix[j+1] = c.Pix[i+1]
		dst.Pix[j+2] = c.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}
