package repository

import (
	"quest_edu_backend/internal/model"

	"gorm.io/gorm"
)

type MissionRepository struct {
	DB *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{DB: db}
}

func (r *MissionRepository) FindAll(tx *gorm.DB) ([]model.Mission, error) {
	var missions []model.Mission
	err := tx.Order("id ASC").Find(&missions).Error
	if err != nil {
		return nil, err
	}
	return missions, nil
}

func (r *MissionRepository) FindByCode(code string) (*model.Mission, error) {
	var mission model.Mission
	err := r.DB.Where("code = ?", code).First(&mission).Error
	if err != nil {
		return nil, err
	}
	return &mission, nil
}
