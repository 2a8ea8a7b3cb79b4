package entity

import "time"

// PipelineResult は画像解析パイプラインの結果です。
type PipelineResult struct {
	FoodItem    string            // 上位3件の表示文字列
	Query       string            // 栄養情報検索に使用した正規化済みクエリ
	Predictions RankedPredictions // 上位3件の予測
	Nutrition   NutritionRecord
	Source      NutritionSource
}

// AnalysisRecord は保存された解析履歴の1件です。
type AnalysisRecord struct {
	ID        string
	UserID    uint
	FoodItem  string
	Query     string
	Nutrition NutritionRecord
	Source    NutritionSource
	CreatedAt time.Time
}

// DetectedLabel は画像ラベル検出APIが返したラベルです。
type DetectedLabel struct {
	Description string
	Score       float32
}

// ScanResult はラベル検出ベースのスキャン結果です。
type ScanResult struct {
	FoodItem  string
	Nutrition NutritionRecord
}
