// Package domain はfoodanalysisフィーチャーのドメインエラーを定義します。
package domain

import "errors"

// 画像解析パイプラインのドメインエラー。
// 上位レイヤーは errors.Is で判定してHTTPステータスに変換します。
var (
	// ErrDecode は画像バイト列またはbase64ペイロードが不正な場合に返されます。
	ErrDecode = errors.New("invalid image data")

	// ErrModelLoad は分類モデルの重みファイルが存在しない、またはクラス数と形状が一致しない場合に返されます。
	// 起動時に発生した場合、プロセスはリクエストを受け付けてはいけません。
	ErrModelLoad = errors.New("failed to load classifier model")

	// ErrNoFoodDetected は画像から利用可能な予測が得られなかった場合に返されます。
	ErrNoFoodDetected = errors.New("no food detected in the image")

	// ErrEmptyLabel は正規化後のラベルが空文字列になった場合に返されます。
	ErrEmptyLabel = errors.New("normalized label is empty")

	// ErrNutritionUnavailable は栄養情報プロバイダーから結果が得られなかった場合に返されます。
	// 解析パイプラインではフォールバック値に置き換えられ、呼び出し元には伝播しません。
	ErrNutritionUnavailable = errors.New("nutrition information unavailable")
)
