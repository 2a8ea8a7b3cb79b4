package entity

import (
	"fmt"
	"strings"
)

// TopK はRankedPredictionsに含める予測件数です。
const TopK = 3

// ClassPrediction は1クラス分の予測結果を表します。
type ClassPrediction struct {
	Label      string  `json:"label"`      // クラス名（例: "grilled_chicken"）
	Confidence float64 `json:"confidence"` // 信頼度（0.0 ~ 1.0）
}

// Display は "label (87.32%)" 形式の表示文字列を返します。
func (p ClassPrediction) Display() string {
	return fmt.Sprintf("%s (%.2f%%)", p.Label, p.Confidence*100)
}

// RankedPredictions は信頼度の降順に並んだ上位K件の予測です。
type RankedPredictions []ClassPrediction

// Top は最上位の予測を返します。空の場合は false を返します。
func (r RankedPredictions) Top() (ClassPrediction, bool) {
	if len(r) == 0 {
		return ClassPrediction{}, false
	}
	return r[0], true
}

// Display は全予測を " | " で連結した表示文字列を返します。
func (r RankedPredictions) Display() string {
	parts := make([]string, 0, len(r))
	for _, p := range r {
		parts = append(parts, p.Display())
	}
	return strings.Join(parts, " | ")
}
