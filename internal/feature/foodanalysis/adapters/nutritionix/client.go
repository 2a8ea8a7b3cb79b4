package nutritionix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"calorievisor_backend/internal/feature/foodanalysis/adapters/nutritionix/dto"
	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
	"calorievisor_backend/internal/shared/ratelimiter"
)

// naturalNutrientsPath はNutritionixの自然言語栄養素エンドポイントです。
const naturalNutrientsPath = "/v2/natural/nutrients"

// NutritionixClient はNutritionix外部APIから栄養情報を取得するNutritionProvider実装です。
type NutritionixClient struct {
	cfg         Config
	client      *http.Client
	rateLimiter ratelimiter.RateLimiterInterface
}

// NutritionixClientがNutritionProviderを実装していることをコンパイル時に検証します。
var _ usecase.NutritionProvider = (*NutritionixClient)(nil)

// NewNutritionixClient は指定された設定とHTTPクライアントでNutritionixClientの新しいインスタンスを生成します。
// rateLimiterがnilの場合はレート制限を行いません。
func NewNutritionixClient(cfg Config, client *http.Client, rateLimiter ratelimiter.RateLimiterInterface) *NutritionixClient {
	return &NutritionixClient{cfg: cfg, client: client, rateLimiter: rateLimiter}
}

// Lookup は自然言語クエリをNutritionix APIに送信し、
// 最初に返された食品の栄養情報をNutritionRecordとして返します。
func (n *NutritionixClient) Lookup(ctx context.Context, query string) (*entity.NutritionRecord, error) {
	if n.rateLimiter != nil {
		if err := n.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	// リクエストボディを作成
	payload, err := json.Marshal(dto.NaturalNutrientsRequest{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+naturalNutrientsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-app-id", n.cfg.AppID)
	req.Header.Set("x-app-key", n.cfg.AppKey)
	req.Header.Set("Content-Type", "application/json")

	// リクエストを実行
	res, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("nutritionix http %d", res.StatusCode)
	}

	// JSONレスポンスをDTOにデコード
	var body dto.NaturalNutrientsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode nutritionix response: %w", err)
	}
	if len(body.Foods) == 0 {
		return nil, fmt.Errorf("%w: no foods matched %q", domain.ErrNutritionUnavailable, query)
	}

	food := body.Foods[0]
	// カロリーが欠けている場合は不正なレスポンスとして扱う
	if food.Calories == nil {
		return nil, fmt.Errorf("nutritionix: nf_calories missing for %q", query)
	}

	// ドメインエンティティに変換
	return &entity.NutritionRecord{
		Name:               deref(food.FoodName),
		Calories:           *food.Calories,
		ProteinG:           derefFloat(food.Protein),
		FatTotalG:          derefFloat(food.TotalFat),
		CarbohydrateTotalG: derefFloat(food.TotalCarbohydrate),
		SugarsG:            derefFloat(food.Sugars),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
