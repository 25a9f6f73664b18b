package service

import (
	"sort"

	"quest_edu_backend/internal/model"
)

// BadgeService 从统计概要派生解锁集合。全部方法是纯函数，
// 不读写存储，方便聚合器在事务内组合调用。
type BadgeService struct{}

func NewBadgeService() *BadgeService {
	return &BadgeService{}
}

// EvaluateBadges 根据概要计算本次满足阈值的徽章集合。
// streak 类徽章以 LongestStreak（历史高水位）为准：当前连续天数归零
// 不影响判定，已解锁的徽章不会消失。
func (s *BadgeService) EvaluateBadges(summary *model.LearnerSummary) []string {
	unlocked := make([]string, 0, len(model.BadgeCatalog))

	for _, badge := range model.BadgeCatalog {
		var value int
		switch badge.Kind {
		case model.BadgeKindQuests:
			value = summary.TotalQuests
		case model.BadgeKindStreak:
			value = summary.LongestStreak
		case model.BadgeKindCategory:
			value = summary.CategoryCounts[badge.Category]
		case model.BadgeKindDifficulty:
			value = summary.DifficultyCounts[badge.Difficulty]
		}

		if value >= badge.Requirement {
			unlocked = append(unlocked, badge.ID)
		}
	}

	return unlocked
}

// EvaluateTrophies 任意入账事件的 source_unit_id 命中任务节点即解锁对应奖杯
func (s *BadgeService) EvaluateTrophies(missions []model.Mission, completedUnits map[string]bool) []string {
	trophies := make([]string, 0, len(missions))
	for _, m := range missions {
		if completedUnits[m.Code] {
			trophies = append(trophies, m.TrophyID)
		}
	}
	return trophies
}

// MergeUnlocked 合并新旧解锁集合。只做并集：重放永远不能收回已解锁项。
func MergeUnlocked(previous, fresh []string) []string {
	seen := make(map[string]bool, len(previous)+len(fresh))
	for _, id := range previous {
		seen[id] = true
	}
	for _, id := range fresh {
		seen[id] = true
	}

	merged := make([]string, 0, len(seen))
	for id := range seen {
		merged = append(merged, id)
	}
	sort.Strings(merged)
	return merged
}
