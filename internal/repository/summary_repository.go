package repository

import (
	"quest_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SummaryRepository struct {
	DB *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) *SummaryRepository {
	return &SummaryRepository{DB: db}
}

// FindByLearner 读取概要行，不存在时返回 gorm.ErrRecordNotFound
func (r *SummaryRepository) FindByLearner(learnerID uint) (*model.LearnerSummary, error) {
	var summary model.LearnerSummary
	err := r.DB.Where("learner_id = ?", learnerID).First(&summary).Error
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// Upsert 以 learner_id 为主键写入概要。聚合器是唯一调用方。
func (r *SummaryRepository) Upsert(tx *gorm.DB, summary *model.LearnerSummary) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "learner_id"}},
		UpdateAll: true,
	}).Create(summary).Error
}
