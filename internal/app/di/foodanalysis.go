// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	foodadapters "calorievisor_backend/internal/feature/foodanalysis/adapters"
	"calorievisor_backend/internal/feature/foodanalysis/adapters/nutritionix"
	"calorievisor_backend/internal/feature/foodanalysis/adapters/onnx"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
	"calorievisor_backend/internal/platform/cache"
	infrahttp "calorievisor_backend/internal/platform/http"
	"calorievisor_backend/internal/shared/ratelimiter"
)

// NewNutritionProvider creates a rate-limited Nutritionix client wrapped in the Redis cache.
// If rdb is nil, the cache is bypassed.
func NewNutritionProvider(rdb *redis.Client) (usecase.NutritionProvider, time.Duration) {
	cfg := nutritionix.LoadConfig()
	if cfg.AppID == "" || cfg.AppKey == "" {
		slog.Warn("NUTRITIONIX_APP_ID/NUTRITIONIX_APP_KEY not set; lookups will fall back")
	}
	httpClient := infrahttp.NewHTTPClient(infrahttp.ClientConfig{
		Timeout:             cfg.Timeout,
		DialTimeout:         cfg.DialTimeout,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
	})
	rl := ratelimiter.NewRateLimiter(cfg.RateLimit, time.Minute)
	client := nutritionix.NewNutritionixClient(cfg, httpClient, rl)
	return cache.NewCachingNutritionProvider(rdb, cache.DefaultNutritionTTL, client, "nutrition"), cfg.Timeout
}

// NewClassifier loads the class-name table and returns a lazily loaded ONNX classifier.
func NewClassifier() (*usecase.ClassifierEngine, error) {
	cfg := onnx.LoadConfig()
	classes, err := onnx.LoadClassNames(cfg.ClassNamesPath)
	if err != nil {
		return nil, fmt.Errorf("load class names: %w", err)
	}
	slog.Info("class names loaded", "path", cfg.ClassNamesPath, "count", classes.Len())
	return usecase.NewClassifierEngine(classes, onnx.NewLoader(cfg, classes.Len())), nil
}

// NewAnalysisRepository creates the gorm-backed analysis history repository.
func NewAnalysisRepository(db *gorm.DB) usecase.AnalysisRepository {
	return foodadapters.NewAnalysisRepository(db)
}
