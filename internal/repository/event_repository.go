package repository

import (
	"quest_edu_backend/internal/model"

	"gorm.io/gorm"
)

// EventRepository 完成事件的追加式存储。入账判定完全依赖
// credited_events 上的唯一索引，见 model.CompletionEvent。
type EventRepository struct {
	DB *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

// Insert 在给定事务中追加一条入账事件。
// 重复的 (learner_id, source_unit_id, origin) 或 event_id 会返回
// gorm.ErrDuplicatedKey（需要 gorm.Config.TranslateError 开启）。
func (r *EventRepository) Insert(tx *gorm.DB, event *model.CompletionEvent) error {
	return tx.Create(event).Error
}

// FindByLearner 返回某学习者的全部入账事件，按发生时间升序
func (r *EventRepository) FindByLearner(tx *gorm.DB, learnerID uint) ([]model.CompletionEvent, error) {
	var events []model.CompletionEvent
	err := tx.Where("learner_id = ?", learnerID).
		Order("occurred_at ASC, id ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// LearnerIDs 返回出现在事件历史中的全部学习者ID，供对账任务遍历
func (r *EventRepository) LearnerIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.CompletionEvent{}).
		Distinct("learner_id").
		Pluck("learner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LogAttempt 记录一次原始投递（审计用途），失败不影响入账结果
func (r *EventRepository) LogAttempt(attempt *model.CompletionAttempt) error {
	return r.DB.Create(attempt).Error
}
