// Package dto defines data transfer objects for the Nutritionix API.
package dto

// NaturalNutrientsRequest is the body of POST /v2/natural/nutrients.
type NaturalNutrientsRequest struct {
	Query string `json:"query"`
}

// NaturalNutrientsResponse represents the JSON response from the natural/nutrients endpoint.
// Nutrient fields are pointers because the provider omits or nulls unknown values.
type NaturalNutrientsResponse struct {
	Foods []struct {
		FoodName          *string  `json:"food_name"`
		Calories          *float64 `json:"nf_calories"`
		Protein           *float64 `json:"nf_protein"`
		TotalCarbohydrate *float64 `json:"nf_total_carbohydrate"`
		Sugars            *float64 `json:"nf_sugars"`
		TotalFat          *float64 `json:"nf_total_fat"`
	} `json:"foods"`
	Message string `json:"message,omitempty"`
}
