package usecase

import (
	"context"
	"log/slog"
	"time"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
)

// DefaultResolveTimeout は栄養情報プロバイダー呼び出しのデフォルトタイムアウトです。
const DefaultResolveTimeout = 8 * time.Second

// NutritionProvider は外部の栄養データソースへの問い合わせを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type NutritionProvider interface {
	// Lookup は自然言語クエリに一致する最初の食品の栄養情報を返します。
	// プロバイダーが名前を返さなかった場合、Nameは空文字列になります。
	// 一致する食品がない場合は domain.ErrNutritionUnavailable を返します。
	Lookup(ctx context.Context, query string) (*entity.NutritionRecord, error)
}

// NutritionResolver はプロバイダーの失敗をフォールバック値で隠蔽して栄養情報を解決します。
type NutritionResolver struct {
	provider NutritionProvider
	timeout  time.Duration
}

// NewNutritionResolver はNutritionResolverの新しいインスタンスを生成します。
// timeoutが0以下の場合は DefaultResolveTimeout を使用します。
func NewNutritionResolver(provider NutritionProvider, timeout time.Duration) *NutritionResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &NutritionResolver{provider: provider, timeout: timeout}
}

// Resolve は正規化済みクエリで栄養情報を検索します。
// 通信エラー・非2xx・不正なレスポンス・該当なし・タイムアウトのいずれでも
// エラーは返さず、固定のフォールバック値を返します。
// プロバイダーが名前を返さない場合、およびフォールバック時の名前は label（上位1件の元ラベル）です。
func (r *NutritionResolver) Resolve(ctx context.Context, query, label string) (entity.NutritionRecord, entity.NutritionSource) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	rec, err := r.provider.Lookup(ctx, query)
	if err != nil || rec == nil {
		slog.Warn("nutrition lookup failed, using fallback",
			"query", query, "source", entity.SourceFallback, "error", err, "duration", time.Since(start))
		return entity.FallbackNutrition(label), entity.SourceFallback
	}

	out := *rec
	if out.Name == "" {
		out.Name = label
	}
	slog.Info("nutrition resolved", "query", query, "name", out.Name, "source", entity.SourceProvider, "duration", time.Since(start))
	return out, entity.SourceProvider
}
