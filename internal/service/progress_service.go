package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest_edu_backend/internal/model"
	"quest_edu_backend/internal/repository"
	"quest_edu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProgressService 进度查询读路径。只读，与最近一次入账最终一致。
type ProgressService struct {
	SummaryRepo *repository.SummaryRepository
	EventRepo   *repository.EventRepository
	UserRepo    *repository.UserRepository
	Aggregator  *AggregatorService
	Redis       *redis.Client
	CacheTTL    time.Duration
}

func NewProgressService(
	summaryRepo *repository.SummaryRepository,
	eventRepo *repository.EventRepository,
	userRepo *repository.UserRepository,
	aggregator *AggregatorService,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *ProgressService {
	return &ProgressService{
		SummaryRepo: summaryRepo,
		EventRepo:   eventRepo,
		UserRepo:    userRepo,
		Aggregator:  aggregator,
		Redis:       rdb,
		CacheTTL:    cacheTTL,
	}
}

func summaryCacheKey(learnerID uint) string {
	return fmt.Sprintf("progress:summary:%d", learnerID)
}

// GetSummary 读取学习者概要。优先Redis缓存，其次概要表；
// 概要行不存在且学习者没有任何事件时返回零值概要（首个完成才惰性建行）。
func (s *ProgressService) GetSummary(ctx context.Context, learnerID uint) (*model.LearnerSummary, error) {
	if s.Redis != nil {
		cached, err := s.Redis.Get(ctx, summaryCacheKey(learnerID)).Result()
		if err == nil {
			var summary model.LearnerSummary
			if jerr := json.Unmarshal([]byte(cached), &summary); jerr == nil {
				return &summary, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("summary cache read failed", zap.Error(err))
		}
	}

	summary, err := s.SummaryRepo.FindByLearner(learnerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// 缓存行缺失：从事件历史重放。无事件的学习者不落盘。
		events, ferr := s.EventRepo.FindByLearner(s.EventRepo.DB, learnerID)
		if ferr != nil {
			return nil, ferr
		}
		if len(events) == 0 {
			return model.NewLearnerSummary(learnerID), nil
		}
		summary, err = s.Aggregator.Recompute(s.SummaryRepo.DB, learnerID, time.Now())
		if err != nil {
			return nil, err
		}
	}

	s.cacheSummary(ctx, summary)
	return summary, nil
}

func (s *ProgressService) cacheSummary(ctx context.Context, summary *model.LearnerSummary) {
	if s.Redis == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, summaryCacheKey(summary.LearnerID), payload, s.CacheTTL).Err(); err != nil {
		logger.Log.Warn("summary cache write failed", zap.Error(err))
	}
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	User   string `json:"user"`
	XP     int    `json:"xp"`
	Avatar string `json:"avatar,omitempty"`
}

func (s *ProgressService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	users, err := s.UserRepo.FindTopByXP(limit)
	if err != nil {
		return nil, err
	}

	leaderboard := make([]LeaderboardEntry, len(users))
	for i, user := range users {
		leaderboard[i] = LeaderboardEntry{
			Rank:   i + 1,
			User:   user.Name,
			XP:     user.XP,
			Avatar: user.Avatar,
		}
	}

	return leaderboard, nil
}

// BadgeStatus 徽章目录 + 解锁状态，给仪表盘渲染
type BadgeStatus struct {
	model.Badge
	Unlocked bool `json:"unlocked"`
}

func (s *ProgressService) GetBadgeStatuses(ctx context.Context, learnerID uint) ([]BadgeStatus, error) {
	summary, err := s.GetSummary(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	unlocked := make(map[string]bool, len(summary.UnlockedBadges))
	for _, id := range summary.UnlockedBadges {
		unlocked[id] = true
	}

	statuses := make([]BadgeStatus, len(model.BadgeCatalog))
	for i, badge := range model.BadgeCatalog {
		statuses[i] = BadgeStatus{Badge: badge, Unlocked: unlocked[badge.ID]}
	}
	return statuses, nil
}
