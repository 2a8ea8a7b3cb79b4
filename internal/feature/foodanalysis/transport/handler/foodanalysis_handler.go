// Package handler はfoodanalysisフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"calorievisor_backend/internal/api"
	"calorievisor_backend/internal/feature/foodanalysis/domain"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
	jwtmw "calorievisor_backend/internal/platform/jwt"
)

const (
	// maxJSONBodyBytes はbase64化した最大画像にJSONの余白を加えたサイズです。
	maxJSONBodyBytes = usecase.MaxImageSize/3*4 + 64*1024
	// maxMultipartBodyBytes は最大画像にmultipartの境界やヘッダー分の余白を加えたサイズです。
	maxMultipartBodyBytes = usecase.MaxImageSize + 1<<20
)

// FoodAnalysisUsecase は食品解析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type FoodAnalysisUsecase interface {
	Analyze(ctx context.Context, userID uint, in entity.RawImageInput) (*entity.PipelineResult, error)
	History(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error)
	Scan(ctx context.Context, imageData []byte) (*entity.ScanResult, error)
}

// FoodAnalysisHandler は食品解析のHTTPリクエストを処理します。
type FoodAnalysisHandler struct {
	uc FoodAnalysisUsecase
}

// NewFoodAnalysisHandler はFoodAnalysisHandlerの新しいインスタンスを生成します。
func NewFoodAnalysisHandler(uc FoodAnalysisUsecase) *FoodAnalysisHandler {
	return &FoodAnalysisHandler{uc: uc}
}

// AnalyzeBase64 はbase64画像を解析して栄養情報を返します。
//
// エンドポイント: POST /v1/food/analyze
// Content-Type: application/json
// ボディ: {"image_base64": "data:image/png;base64,..."}（data URIヘッダーは任意）
func (h *FoodAnalysisHandler) AnalyzeBase64(c *gin.Context) {
	userID, ok := jwtmw.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewErrorResponse("Unauthorized"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxJSONBodyBytes)
	var req api.AnalyzeFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageBase64 == "" {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, api.NewErrorResponse("Image too large"))
			return
		}
		slog.Warn("analyze request without image data", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("Missing image_base64 data"))
		return
	}

	res, err := h.uc.Analyze(c.Request.Context(), userID, entity.FromBase64(req.ImageBase64))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnalysisResponse(res.FoodItem, res.Nutrition))
}

// AnalyzeImage はアップロードされた画像ファイルを解析して栄養情報を返します。
//
// エンドポイント: POST /v1/food/analyze/image
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル、最大16MB）
func (h *FoodAnalysisHandler) AnalyzeImage(c *gin.Context) {
	userID, ok := jwtmw.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewErrorResponse("Unauthorized"))
		return
	}

	data, ok := readUpload(c, "image")
	if !ok {
		return
	}

	res, err := h.uc.Analyze(c.Request.Context(), userID, entity.FromFileBytes(data))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnalysisResponse(res.FoodItem, res.Nutrition))
}

// Scan は画像ラベル検出で食品を特定し、栄養情報を返します。
// 栄養情報が取得できない場合はフォールバック値を使わずに400を返します。
//
// エンドポイント: POST /v1/food/scan
// Content-Type: multipart/form-data
// フィールド: food_image（画像ファイル、最大16MB）
func (h *FoodAnalysisHandler) Scan(c *gin.Context) {
	data, ok := readUpload(c, "food_image")
	if !ok {
		return
	}

	res, err := h.uc.Scan(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnalysisResponse(res.FoodItem, res.Nutrition))
}

// History は認証ユーザーの解析履歴を新しい順に返します。
//
// エンドポイント: GET /v1/food/history?limit=20
func (h *FoodAnalysisHandler) History(c *gin.Context) {
	userID, ok := jwtmw.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewErrorResponse("Unauthorized"))
		return
	}

	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.NewErrorResponse("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	recs, err := h.uc.History(c.Request.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list analysis history", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, api.NewErrorResponse("Failed to load history"))
		return
	}

	items := make([]api.HistoryItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, api.HistoryItem{
			ID:             r.ID,
			FoodItem:       r.FoodItem,
			Query:          r.Query,
			Source:         string(r.Source),
			NutritionFacts: toNutritionFacts(r.Nutrition),
			CreatedAt:      r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, api.HistoryResponse{Success: true, Items: items})
}

// readUpload はmultipartのファイルフィールドを読み込みます。
// 失敗した場合はレスポンスを書き込み、falseを返します。
func readUpload(c *gin.Context, field string) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultipartBodyBytes)
	file, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, api.NewErrorResponse("Image too large"))
			return nil, false
		}
		slog.Warn("画像ファイルの取得に失敗", "field", field, "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("No image uploaded"))
		return nil, false
	}
	if file.Size > usecase.MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, api.NewErrorResponse("Image too large"))
		return nil, false
	}

	data, err := readFileHeader(file)
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.NewErrorResponse("Failed to read image"))
		return nil, false
	}
	return data, true
}

func readFileHeader(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()
	return io.ReadAll(io.LimitReader(f, usecase.MaxImageSize+1))
}

// writeError はドメインエラーをHTTPステータスとメッセージに変換します。
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrDecode):
		slog.Warn("invalid image data", "error", err)
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("invalid image data"))
	case errors.Is(err, domain.ErrNoFoodDetected):
		slog.Info("no food detected", "error", err)
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("No food detected in the image"))
	case errors.Is(err, domain.ErrNutritionUnavailable):
		c.JSON(http.StatusBadRequest, api.NewErrorResponse("Could not get nutritional information for the detected food"))
	case errors.Is(err, domain.ErrModelLoad):
		slog.Error("classifier unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, api.NewErrorResponse("Food classifier is unavailable"))
	default:
		slog.Error("failed to process image", "error", err)
		c.JSON(http.StatusInternalServerError, api.NewErrorResponse("Error processing image"))
	}
}

func toAnalysisResponse(foodItem string, n entity.NutritionRecord) api.FoodAnalysisResponse {
	return api.FoodAnalysisResponse{
		Success:        true,
		FoodItem:       foodItem,
		NutritionFacts: toNutritionFacts(n),
	}
}

func toNutritionFacts(n entity.NutritionRecord) api.NutritionFacts {
	return api.NutritionFacts{
		Name:               n.Name,
		Calories:           n.Calories,
		ProteinG:           n.ProteinG,
		FatTotalG:          n.FatTotalG,
		CarbohydrateTotalG: n.CarbohydrateTotalG,
		SugarsG:            n.SugarsG,
	}
}
