package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"calorievisor_backend/internal/app/di"
	"calorievisor_backend/internal/app/router"
	"calorievisor_backend/internal/feature/foodanalysis/adapters/vision"
	foodhandler "calorievisor_backend/internal/feature/foodanalysis/transport/handler"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
	infradb "calorievisor_backend/internal/platform/db"
	"calorievisor_backend/internal/platform/http/handler"
	jwtmw "calorievisor_backend/internal/platform/jwt"
	infraredis "calorievisor_backend/internal/platform/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(os.Getenv("LOG_LEVEL"))})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// db
	db, err := infradb.OpenDB()
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Redis
	var rdb *redisv9.Client
	if cfg := infraredis.LoadConfig(); !cfg.Enabled() {
		slog.Warn("REDIS_HOST not set. Running without nutrition cache.")
	} else if tmp, err := infraredis.NewRedisClient(ctx, cfg); err != nil {
		slog.Warn("Redis unavailable. Running without nutrition cache.", "error", err)
	} else {
		rdb = tmp
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close Redis client", "error", err)
			}
		}()
	}

	// 分類モデルは起動時にロードし、失敗した場合はリクエストを受け付けない
	classifier, err := di.NewClassifier()
	if err != nil {
		log.Fatalf("failed to configure classifier: %v", err)
	}
	if err := classifier.Warmup(); err != nil {
		log.Fatalf("failed to load classifier model: %v", err)
	}
	defer classifier.Close()

	provider, resolveTimeout := di.NewNutritionProvider(rdb)
	opts := []usecase.Option{usecase.WithHistory(di.NewAnalysisRepository(db))}

	scanEnabled := os.Getenv("VISION_ENABLED") == "true"
	if scanEnabled {
		detector, err := vision.NewVisionFoodLabelDetector(ctx)
		if err != nil {
			log.Fatalf("failed to create vision client: %v", err)
		}
		defer func() {
			if err := detector.Close(); err != nil {
				slog.Error("Failed to close vision client", "error", err)
			}
		}()
		opts = append(opts, usecase.WithLabelDetector(detector))
	}

	// Usecase
	foodUC := usecase.NewFoodAnalysisUsecase(classifier, provider, resolveTimeout, opts...)

	// Handler
	foodH := foodhandler.NewFoodAnalysisHandler(foodUC)

	// ルータ生成
	r := router.NewRouter(foodH, router.Options{
		ScanEnabled: scanEnabled,
		Readiness:   []handler.ReadinessChecker{classifier},
	})

	// JWT_SECRETチェック（開発中の注意喚起）
	if os.Getenv(jwtmw.EnvKeyJWTSecret) == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr, "scan_enabled", scanEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

// parseLevel はLOG_LEVELをslog.Levelに変換します。未知の値はINFOです。
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
