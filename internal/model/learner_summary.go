package model

import (
	"time"
)

// LearnerSummary 学习者的派生统计概要，每人一行。
// 由聚合器从事件历史折叠得到，是缓存而非事实来源：任何分歧以重放结果为准。
// 徽章/奖杯集合只增不减（流失的连续天数不会收回已解锁的徽章）。
// swagger:model LearnerSummary
type LearnerSummary struct {
	LearnerID        uint                    `gorm:"primaryKey;autoIncrement:false;type:bigint unsigned" json:"learnerId"`
	TotalQuests      int                     `gorm:"default:0" json:"totalQuests"`
	TotalCoins       int                     `gorm:"default:0" json:"totalCoins"`
	TotalXP          int                     `gorm:"column:total_xp;default:0" json:"totalXp"`
	AccuracyRate     int                     `gorm:"default:0" json:"accuracyRate"` // 0-100，四舍五入
	CurrentStreak    int                     `gorm:"default:0" json:"currentStreak"`
	LongestStreak    int                     `gorm:"default:0" json:"longestStreak"`
	LastCompletedAt  *time.Time              `json:"lastCompletedAt,omitempty"`
	CategoryCounts   map[QuestCategory]int   `gorm:"serializer:json" json:"categoryCounts"`
	DifficultyCounts map[QuestDifficulty]int `gorm:"serializer:json" json:"difficultyCounts"`
	UnlockedBadges   []string                `gorm:"serializer:json" json:"unlockedBadges"`
	UnlockedTrophies []string                `gorm:"serializer:json" json:"unlockedTrophies"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

func (LearnerSummary) TableName() string {
	return "learner_summaries"
}

// NewLearnerSummary 返回零值概要，直方图带全部枚举键，前端无需判空
func NewLearnerSummary(learnerID uint) *LearnerSummary {
	cat := make(map[QuestCategory]int, len(AllCategories()))
	for _, c := range AllCategories() {
		cat[c] = 0
	}
	diff := make(map[QuestDifficulty]int, len(AllDifficulties()))
	for _, d := range AllDifficulties() {
		diff[d] = 0
	}
	return &LearnerSummary{
		LearnerID:        learnerID,
		CategoryCounts:   cat,
		DifficultyCounts: diff,
		UnlockedBadges:   []string{},
		UnlockedTrophies: []string{},
	}
}
