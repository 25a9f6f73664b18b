package service

import (
	"errors"
	"math"
	"sort"
	"time"

	"quest_edu_backend/internal/model"
	"quest_edu_backend/internal/repository"
	"quest_edu_backend/pkg/logger"
	"quest_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AggregatorService 负责把事件历史折叠成 LearnerSummary。
// 概要行的唯一写入方；其他组件只读。
type AggregatorService struct {
	EventRepo    *repository.EventRepository
	SummaryRepo  *repository.SummaryRepository
	MissionRepo  *repository.MissionRepository
	BadgeService *BadgeService
}

func NewAggregatorService(
	eventRepo *repository.EventRepository,
	summaryRepo *repository.SummaryRepository,
	missionRepo *repository.MissionRepository,
	badgeService *BadgeService,
) *AggregatorService {
	return &AggregatorService{
		EventRepo:    eventRepo,
		SummaryRepo:  summaryRepo,
		MissionRepo:  missionRepo,
		BadgeService: badgeService,
	}
}

// BuildSummary 纯折叠：不访问存储，不合并历史解锁集合。
// 总量与直方图对事件顺序不敏感；连续天数只依赖 occurredAt，不依赖到达顺序。
func (s *AggregatorService) BuildSummary(learnerID uint, events []model.CompletionEvent, now time.Time) *model.LearnerSummary {
	summary := model.NewLearnerSummary(learnerID)
	if len(events) == 0 {
		return summary
	}

	correct := 0
	var last time.Time
	for _, e := range events {
		summary.TotalQuests++
		summary.TotalCoins += e.CoinsAwarded
		summary.TotalXP += e.XPAwarded
		summary.CategoryCounts[e.Category]++
		summary.DifficultyCounts[e.Difficulty]++
		if e.WasCorrect {
			correct++
		}
		if e.OccurredAt.After(last) {
			last = e.OccurredAt
		}
	}

	summary.AccuracyRate = int(math.Round(100 * float64(correct) / float64(summary.TotalQuests)))
	summary.LastCompletedAt = &last

	days := distinctDays(events)
	summary.CurrentStreak = currentStreak(days, dayOf(now))
	summary.LongestStreak = longestStreak(days)

	return summary
}

// Recompute 在给定事务中重放学习者的全部事件，合并单调解锁集合并落盘概要。
// 每次入账后调用，也被对账任务用于修复分歧。
func (s *AggregatorService) Recompute(tx *gorm.DB, learnerID uint, now time.Time) (*model.LearnerSummary, error) {
	events, err := s.EventRepo.FindByLearner(tx, learnerID)
	if err != nil {
		return nil, err
	}

	summary := s.BuildSummary(learnerID, events, now)

	// 解锁集合是"曾经达成"标志：与已存储的集合取并集，绝不回收
	var previousBadges, previousTrophies []string
	var prior model.LearnerSummary
	err = tx.Where("learner_id = ?", learnerID).First(&prior).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		previousBadges = prior.UnlockedBadges
		previousTrophies = prior.UnlockedTrophies
	}

	summary.UnlockedBadges = MergeUnlocked(previousBadges, s.BadgeService.EvaluateBadges(summary))

	missions, err := s.MissionRepo.FindAll(tx)
	if err != nil {
		return nil, err
	}
	completedUnits := make(map[string]bool, len(events))
	for _, e := range events {
		completedUnits[e.SourceUnitID] = true
	}
	summary.UnlockedTrophies = MergeUnlocked(previousTrophies, s.BadgeService.EvaluateTrophies(missions, completedUnits))

	if err := s.SummaryRepo.Upsert(tx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// dayOf 归一化到UTC日历日，连续性判断以整天为粒度
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// distinctDays 返回去重后的日历日，降序。同一天的多次完成只算一个连续日。
func distinctDays(events []model.CompletionEvent) []time.Time {
	seen := make(map[time.Time]bool, len(events))
	for _, e := range events {
		seen[dayOf(e.OccurredAt)] = true
	}
	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// currentStreak 触及"今天"的连续日历日长度。
// 最近一次完成距今超过1天则为0；否则从最近一天向前延伸，遇到第一个
// 缺口即停止。
func currentStreak(daysDesc []time.Time, today time.Time) int {
	if len(daysDesc) == 0 {
		return 0
	}

	gap := int(today.Sub(daysDesc[0]).Hours() / 24)
	if gap > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(daysDesc); i++ {
		if daysDesc[i-1].Sub(daysDesc[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}

// longestStreak 历史上最长的连续日历日区段，与是否触及今天无关
func longestStreak(daysDesc []time.Time) int {
	if len(daysDesc) == 0 {
		return 0
	}

	longest := 1
	run := 1
	for i := 1; i < len(daysDesc); i++ {
		if daysDesc[i-1].Sub(daysDesc[i]) == 24*time.Hour {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	return longest
}

// Reconcile 对账：重放事件历史并与缓存概要比对，分歧时以重放结果覆盖。
// 返回是否发生了修复。
func (s *AggregatorService) Reconcile(learnerID uint, now time.Time) (bool, error) {
	events, err := s.EventRepo.FindByLearner(s.EventRepo.DB, learnerID)
	if err != nil {
		return false, err
	}
	replayed := s.BuildSummary(learnerID, events, now)

	cached, err := s.SummaryRepo.FindByLearner(learnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 概要行缺失也算分歧，直接重建
			_, err = s.Recompute(s.SummaryRepo.DB, learnerID, now)
			return true, err
		}
		return false, err
	}

	if summariesAgree(cached, replayed) {
		return false, nil
	}

	_, err = s.Recompute(s.SummaryRepo.DB, learnerID, now)
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReconcileAll 遍历事件历史中出现过的全部学习者做一轮对账。
// 由后台定时任务调用；修复计入指标并告警日志。
func (s *AggregatorService) ReconcileAll(now time.Time) error {
	ids, err := s.EventRepo.LearnerIDs()
	if err != nil {
		return err
	}

	for _, learnerID := range ids {
		repaired, err := s.Reconcile(learnerID, now)
		if err != nil {
			logger.Log.Error("summary reconcile failed",
				zap.Uint("learnerId", learnerID),
				zap.Error(err),
			)
			continue
		}
		if repaired {
			monitoring.ReconcileRepairsTotal.Inc()
			logger.Log.Warn("summary diverged from event history, repaired by replay",
				zap.Uint("learnerId", learnerID),
			)
		}
	}
	return nil
}

// summariesAgree 只比较可重放的统计量，解锁集合允许缓存超集（单调性）。
// 当前连续天数随日历自然衰减，不参与分歧判定。
func summariesAgree(cached, replayed *model.LearnerSummary) bool {
	if cached.TotalQuests != replayed.TotalQuests ||
		cached.TotalCoins != replayed.TotalCoins ||
		cached.TotalXP != replayed.TotalXP ||
		cached.AccuracyRate != replayed.AccuracyRate ||
		cached.LongestStreak != replayed.LongestStreak {
		return false
	}
	for c, n := range replayed.CategoryCounts {
		if cached.CategoryCounts[c] != n {
			return false
		}
	}
	for d, n := range replayed.DifficultyCounts {
		if cached.DifficultyCounts[d] != n {
			return false
		}
	}
	return true
}
