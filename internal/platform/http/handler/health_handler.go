// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessChecker はリクエストを受け付けられる状態かどうかを報告します。
// 分類モデルのようにウォームアップが必要なコンポーネントが実装します。
type ReadinessChecker interface {
	Ready() error
}

// NewHealthHandler は /healthz エンドポイントのハンドラーを生成します。
// いずれかのcheckerがエラーを返した場合は503を返します。
func NewHealthHandler(checkers ...ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		status := http.StatusOK
		var reason string
		for _, chk := range checkers {
			if err := chk.Ready(); err != nil {
				slog.Warn("readiness check failed", "error", err)
				status = http.StatusServiceUnavailable
				reason = err.Error()
				break
			}
		}

		if c.Request.Method == http.MethodHead {
			c.Status(status)
			return
		}
		if status != http.StatusOK {
			c.JSON(status, gin.H{"status": "unavailable", "error": reason})
			return
		}
		c.JSON(status, gin.H{"status": "ok"})
	}
}
