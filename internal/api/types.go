// Package api はHTTP境界で使用するリクエスト・レスポンスの型を定義します。
package api

import "time"

// ErrorResponse は失敗時の共通レスポンスです。
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewErrorResponse は success=false のErrorResponseを生成します。
func NewErrorResponse(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

// AnalyzeFoodRequest は POST /v1/food/analyze のリクエストボディです。
type AnalyzeFoodRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// NutritionFacts は1食品分の栄養情報です。
type NutritionFacts struct {
	Name               string  `json:"name"`
	Calories           float64 `json:"calories"`
	ProteinG           float64 `json:"protein_g"`
	FatTotalG          float64 `json:"fat_total_g"`
	CarbohydrateTotalG float64 `json:"carbohydrate_total_g"`
	SugarsG            float64 `json:"sugars_g"`
}

// FoodAnalysisResponse は解析・スキャン成功時のレスポンスです。
type FoodAnalysisResponse struct {
	Success        bool           `json:"success"`
	FoodItem       string         `json:"food_item"`
	NutritionFacts NutritionFacts `json:"nutrition_facts"`
}

// HistoryItem は解析履歴の1件です。
type HistoryItem struct {
	ID             string         `json:"id"`
	FoodItem       string         `json:"food_item"`
	Query          string         `json:"query"`
	Source         string         `json:"source"`
	NutritionFacts NutritionFacts `json:"nutrition_facts"`
	CreatedAt      time.Time      `json:"created_at"`
}

// HistoryResponse は GET /v1/food/history のレスポンスです。
type HistoryResponse struct {
	Success bool          `json:"success"`
	Items   []HistoryItem `json:"items"`
}
