package entity

// NutritionSource は栄養情報の取得元を表します。
type NutritionSource string

const (
	SourceProvider NutritionSource = "provider"
	SourceFallback NutritionSource = "fallback"
)

// NutritionRecord は1食品分の栄養情報です。生成後は変更しません。
type NutritionRecord struct {
	Name               string  `json:"name"`
	Calories           float64 `json:"calories"`
	ProteinG           float64 `json:"protein_g"`
	FatTotalG          float64 `json:"fat_total_g"`
	CarbohydrateTotalG float64 `json:"carbohydrate_total_g"`
	SugarsG            float64 `json:"sugars_g"`
}

// FallbackNutrition は外部プロバイダーで解決できなかった場合の固定値を返します。
func FallbackNutrition(name string) NutritionRecord {
	return NutritionRecord{
		Name:               name,
		Calories:           100,
		ProteinG:           2,
		FatTotalG:          1,
		CarbohydrateTotalG: 20,
		SugarsG:            5,
	}
}
