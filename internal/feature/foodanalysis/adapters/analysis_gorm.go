package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

type analysisGorm struct {
	db *gorm.DB
}

var _ usecase.AnalysisRepository = (*analysisGorm)(nil)

// NewAnalysisRepository は解析履歴のgormリポジトリを生成します。
func NewAnalysisRepository(db *gorm.DB) *analysisGorm {
	return &analysisGorm{db: db}
}

// AnalysisModel は food_analyses テーブルの1行です。
type AnalysisModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    uint      `gorm:"not null;index:analysis_user_created,priority:1"`
	CreatedAt time.Time `gorm:"not null;index:analysis_user_created,priority:2"`

	FoodItem string `gorm:"size:512;not null"`
	Query    string `gorm:"size:255;not null"`
	Source   string `gorm:"size:16;not null"`

	Name               string  `gorm:"size:255;not null"`
	Calories           float64 `gorm:"not null"`
	ProteinG           float64 `gorm:"not null;default:0"`
	FatTotalG          float64 `gorm:"not null;default:0"`
	CarbohydrateTotalG float64 `gorm:"not null;default:0"`
	SugarsG            float64 `gorm:"not null;default:0"`
}

func (AnalysisModel) TableName() string {
	return "food_analyses"
}

func toModel(e *entity.AnalysisRecord) AnalysisModel {
	return AnalysisModel{
		ID:                 e.ID,
		UserID:             e.UserID,
		CreatedAt:          e.CreatedAt,
		FoodItem:           e.FoodItem,
		Query:              e.Query,
		Source:             string(e.Source),
		Name:               e.Nutrition.Name,
		Calories:           e.Nutrition.Calories,
		ProteinG:           e.Nutrition.ProteinG,
		FatTotalG:          e.Nutrition.FatTotalG,
		CarbohydrateTotalG: e.Nutrition.CarbohydrateTotalG,
		SugarsG:            e.Nutrition.SugarsG,
	}
}

func (m AnalysisModel) toEntity() entity.AnalysisRecord {
	return entity.AnalysisRecord{
		ID:       m.ID,
		UserID:   m.UserID,
		FoodItem: m.FoodItem,
		Query:    m.Query,
		Nutrition: entity.NutritionRecord{
			Name:               m.Name,
			Calories:           m.Calories,
			ProteinG:           m.ProteinG,
			FatTotalG:          m.FatTotalG,
			CarbohydrateTotalG: m.CarbohydrateTotalG,
			SugarsG:            m.SugarsG,
		},
		Source:    entity.NutritionSource(m.Source),
		CreatedAt: m.CreatedAt,
	}
}

// Save は解析結果を1件保存します。
func (r *analysisGorm) Save(ctx context.Context, rec *entity.AnalysisRecord) error {
	m := toModel(rec)
	return r.db.WithContext(ctx).Create(&m).Error
}

// ListByUser はユーザーの解析履歴を新しい順に最大limit件返します。
func (r *analysisGorm) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.AnalysisRecord, error) {
	var rows []AnalysisModel
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.AnalysisRecord, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntity())
	}
	return out, nil
}
