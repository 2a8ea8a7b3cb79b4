// Command analyze は手元の画像ファイルを分類し、栄養情報をJSON Linesで出力します。
//
//	go run ./cmd/analyze images/pizza.jpg images/sushi.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"calorievisor_backend/internal/app/di"
	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

type output struct {
	File        string                   `json:"file"`
	FoodItem    string                   `json:"food_item,omitempty"`
	Query       string                   `json:"query,omitempty"`
	Source      entity.NutritionSource   `json:"source,omitempty"`
	Nutrition   *entity.NutritionRecord  `json:"nutrition_facts,omitempty"`
	Predictions []entity.ClassPrediction `json:"predictions,omitempty"`
	Error       string                   `json:"error,omitempty"`
}

func main() {
	workers := flag.Int("workers", 4, "number of images processed concurrently")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: analyze [-workers N] [-timeout D] IMAGE...")
	}
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	classifier, err := di.NewClassifier()
	if err != nil {
		log.Fatal("failed to configure classifier:", err)
	}
	if err := classifier.Warmup(); err != nil {
		log.Fatal("failed to load classifier model:", err)
	}
	defer classifier.Close()

	provider, resolveTimeout := di.NewNutritionProvider(nil)
	uc := usecase.NewFoodAnalysisUsecase(classifier, provider, resolveTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		enc = json.NewEncoder(os.Stdout)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*workers)
	for _, path := range flag.Args() {
		g.Go(func() error {
			out := analyzeFile(gctx, uc, path)
			mu.Lock()
			defer mu.Unlock()
			return enc.Encode(out)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

// analyzeFile は1ファイルを解析します。解析の失敗は出力のerrorに記録します。
func analyzeFile(ctx context.Context, uc interface {
	Analyze(ctx context.Context, userID uint, in entity.RawImageInput) (*entity.PipelineResult, error)
}, path string) output {
	data, err := os.ReadFile(path)
	if err != nil {
		return output{File: path, Error: err.Error()}
	}
	res, err := uc.Analyze(ctx, 0, entity.FromFileBytes(data))
	if err != nil {
		return output{File: path, Error: err.Error()}
	}
	return output{
		File:        path,
		FoodItem:    res.FoodItem,
		Query:       res.Query,
		Source:      res.Source,
		Nutrition:   &res.Nutrition,
		Predictions: res.Predictions,
	}
}
