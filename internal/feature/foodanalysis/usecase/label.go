package usecase

import (
	"strings"

	"calorievisor_backend/internal/feature/foodanalysis/domain"
)

// NormalizeLabel は予測ラベルから信頼度の注釈を取り除き、栄養情報検索用のクエリに変換します。
//
// 例: "Grilled_Chicken (87.32%)" -> "grilled chicken"
//
// 結果が空文字列の場合は domain.ErrEmptyLabel を返します。
func NormalizeLabel(label string) (string, error) {
	before, _, _ := strings.Cut(label, "(")
	// 先頭・末尾のアンダースコアもトリム対象に含める
	q := strings.ReplaceAll(before, "_", " ")
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return "", domain.ErrEmptyLabel
	}
	return q, nil
}
