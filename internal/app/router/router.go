package router

import (
	"github.com/gin-gonic/gin"

	foodhandler "calorievisor_backend/internal/feature/foodanalysis/transport/handler"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
	"calorievisor_backend/internal/platform/http/handler"
	jwtmw "calorievisor_backend/internal/platform/jwt"
)

// Options はルーティングの切り替え項目です。
type Options struct {
	// ScanEnabled がtrueの場合のみ /v1/food/scan を登録します。
	ScanEnabled bool
	// Readiness は /healthz で確認するコンポーネントです。
	Readiness []handler.ReadinessChecker
}

func NewRouter(food *foodhandler.FoodAnalysisHandler, opts Options) *gin.Engine {
	r := gin.Default()
	// multipartはメモリ上限を超えると一時ファイルに退避される
	r.MaxMultipartMemory = usecase.MaxImageSize + 1<<20

	// 認証不要
	health := handler.NewHealthHandler(opts.Readiness...)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// 認証必須のルート
	v1 := r.Group("/v1")
	v1.Use(jwtmw.AuthRequired())
	{
		v1.POST("/food/analyze", food.AnalyzeBase64)
		v1.POST("/food/analyze/image", food.AnalyzeImage)
		v1.GET("/food/history", food.History)
		if opts.ScanEnabled {
			v1.POST("/food/scan", food.Scan)
		}
	}

	return r
}
