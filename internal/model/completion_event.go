package model

import (
	"time"
)

// QuestCategory 任务学科分类（闭集）
type QuestCategory string

const (
	CategoryMath          QuestCategory = "math"
	CategoryScience       QuestCategory = "science"
	CategoryLanguage      QuestCategory = "language"
	CategorySocialStudies QuestCategory = "social_studies"
)

// QuestDifficulty 任务难度（闭集）
type QuestDifficulty string

const (
	DifficultyEasy   QuestDifficulty = "easy"
	DifficultyMedium QuestDifficulty = "medium"
	DifficultyHard   QuestDifficulty = "hard"
)

// EventOrigin 完成事件的来源（闭集）
type EventOrigin string

const (
	OriginInteractive  EventOrigin = "interactive"   // 学生在站内实时完成
	OriginExternalSync EventOrigin = "external_sync" // 课堂同步轮询发现
)

// ValidCategory 判断分类是否在闭集内
func ValidCategory(c QuestCategory) bool {
	switch c {
	case CategoryMath, CategoryScience, CategoryLanguage, CategorySocialStudies:
		return true
	}
	return false
}

func ValidDifficulty(d QuestDifficulty) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func ValidOrigin(o EventOrigin) bool {
	switch o {
	case OriginInteractive, OriginExternalSync:
		return true
	}
	return false
}

// AllCategories 用于直方图初始化与校验
func AllCategories() []QuestCategory {
	return []QuestCategory{CategoryMath, CategoryScience, CategoryLanguage, CategorySocialStudies}
}

func AllDifficulties() []QuestDifficulty {
	return []QuestDifficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// CompletionEvent 一条已入账的完成事件，不可变。
// (learner_id, source_unit_id, origin) 上的唯一索引是发放去重的原子边界：
// 同一工作单元的重复投递在存储层被拒绝，而不是靠应用层先查后写。
type CompletionEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`
	// 调用方提供，每次物理投递唯一
	EventID      string          `gorm:"size:64;uniqueIndex;not null" json:"eventId"`
	LearnerID    uint            `gorm:"type:bigint unsigned;not null;uniqueIndex:idx_learner_unit_origin" json:"learnerId"`
	SourceUnitID string          `gorm:"size:128;not null;uniqueIndex:idx_learner_unit_origin" json:"sourceUnitId"`
	Origin       EventOrigin     `gorm:"size:20;not null;uniqueIndex:idx_learner_unit_origin" json:"origin"`
	Title        string          `gorm:"size:255" json:"title"`
	Category     QuestCategory   `gorm:"size:20;not null;index" json:"category"`
	Difficulty   QuestDifficulty `gorm:"size:10;not null" json:"difficulty"`
	WasCorrect   bool            `gorm:"not null" json:"wasCorrect"`
	CoinsAwarded int             `gorm:"not null" json:"coinsAwarded"`
	XPAwarded    int             `gorm:"column:xp_awarded;not null" json:"xpAwarded"`
	OccurredAt   time.Time       `gorm:"not null;index" json:"occurredAt"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (CompletionEvent) TableName() string {
	return "credited_events"
}

// CompletionAttempt 原始投递的审计记录。与入账判定无关，重复投递也会落一条，
// 仅用于排查与分析。
type CompletionAttempt struct {
	ID           uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID      string      `gorm:"size:64;index" json:"eventId"`
	LearnerID    uint        `gorm:"type:bigint unsigned;index" json:"learnerId"`
	SourceUnitID string      `gorm:"size:128" json:"sourceUnitId"`
	Origin       EventOrigin `gorm:"size:20" json:"origin"`
	Outcome      string      `gorm:"size:20" json:"outcome"` // credited / duplicate
	ReceivedAt   time.Time   `gorm:"not null" json:"receivedAt"`
}

func (CompletionAttempt) TableName() string {
	return "completion_attempts"
}
