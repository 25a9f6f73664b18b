package repository

import (
	"quest_edu_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

// AddBalance 原子增加余额，只能在奖励发放事务内调用。
// 用 SQL 表达式而不是读改写，避免并发丢失更新。
func (r *UserRepository) AddBalance(tx *gorm.DB, userID uint, coins, xp int) error {
	result := tx.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"coins": gorm.Expr("coins + ?", coins),
			"xp":    gorm.Expr("xp + ?", xp),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindTopByXP XP排行榜
func (r *UserRepository) FindTopByXP(limit int) ([]model.User, error) {
	var users []model.User
	err := r.DB.Order("xp DESC").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// FindClassroomLinked 返回绑定了第三方课堂账号的学习者
func (r *UserRepository) FindClassroomLinked() ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("classroom_student_id <> ''").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
