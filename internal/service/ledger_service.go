package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest_edu_backend/internal/model"
	"quest_edu_backend/internal/repository"
	"quest_edu_backend/internal/util"
	"quest_edu_backend/pkg/logger"
	"quest_edu_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreditOutcome 入账结果。重复不是错误，调用方按"成功但无新奖励"处理。
type CreditOutcome string

const (
	OutcomeCredited  CreditOutcome = "credited"
	OutcomeDuplicate CreditOutcome = "duplicate"
)

// CreditResult 一次投递的处理结果及发放后的余额
type CreditResult struct {
	Outcome CreditOutcome         `json:"outcome"`
	Coins   int                   `json:"coins"`
	XP      int                   `json:"xp"`
	Summary *model.LearnerSummary `json:"summary,omitempty"`
}

// LedgerService 奖励发放网关：系统中唯一允许增加余额的组件。
// 事件写入、余额增加、概要重算在同一个数据库事务内完成，
// 去重由 credited_events 的唯一索引在存储层原子保证。
type LedgerService struct {
	EventRepo  *repository.EventRepository
	UserRepo   *repository.UserRepository
	Aggregator *AggregatorService
	DB         *gorm.DB
	Redis      *redis.Client
}

func NewLedgerService(
	eventRepo *repository.EventRepository,
	userRepo *repository.UserRepository,
	aggregator *AggregatorService,
	db *gorm.DB,
	rdb *redis.Client,
) *LedgerService {
	return &LedgerService{
		EventRepo:  eventRepo,
		UserRepo:   userRepo,
		Aggregator: aggregator,
		DB:         db,
		Redis:      rdb,
	}
}

// errDuplicateDelivery 事务内部哨兵：触发回滚并在外层翻译成 Duplicate 结果
var errDuplicateDelivery = errors.New("duplicate delivery")

// RecordAndCredit 记录完成事件并发放奖励，(learnerId, sourceUnitId, origin)
// 粒度上恰好一次。重复投递（不论并发还是跨轮询周期）返回 Duplicate，
// 余额与概要不变。存储失败整体回滚，调用方必须携带相同的事件ID重试。
func (s *LedgerService) RecordAndCredit(ctx context.Context, event *model.CompletionEvent) (*CreditResult, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := validateEvent(event); err != nil {
		monitoring.ValidationRejectsTotal.Inc()
		return nil, err
	}

	var summary *model.LearnerSummary
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.EventRepo.Insert(tx, event); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errDuplicateDelivery
			}
			return err
		}

		if err := s.UserRepo.AddBalance(tx, event.LearnerID, event.CoinsAwarded, event.XPAwarded); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		var err error
		summary, err = s.Aggregator.Recompute(tx, event.LearnerID, time.Now())
		return err
	})

	if err != nil && !errors.Is(err, errDuplicateDelivery) {
		return nil, err
	}

	outcome := OutcomeCredited
	if errors.Is(err, errDuplicateDelivery) {
		outcome = OutcomeDuplicate
	}

	s.logAttempt(event, outcome)

	learner, ferr := s.UserRepo.FindByID(event.LearnerID)
	if ferr != nil {
		return nil, ferr
	}

	if outcome == OutcomeDuplicate {
		monitoring.DuplicatesTotal.WithLabelValues(string(event.Origin)).Inc()
		logger.Log.Info("duplicate completion rejected",
			zap.Uint("learnerId", event.LearnerID),
			zap.String("sourceUnitId", event.SourceUnitID),
			zap.String("origin", string(event.Origin)),
		)
		return &CreditResult{Outcome: OutcomeDuplicate, Coins: learner.Coins, XP: learner.XP}, nil
	}

	monitoring.CreditsTotal.WithLabelValues(string(event.Origin)).Inc()
	s.invalidateSummaryCache(ctx, event.LearnerID)

	logger.Log.Info("completion credited",
		zap.Uint("learnerId", event.LearnerID),
		zap.String("sourceUnitId", event.SourceUnitID),
		zap.String("origin", string(event.Origin)),
		zap.Int("coins", event.CoinsAwarded),
		zap.Int("xp", event.XPAwarded),
	)

	return &CreditResult{
		Outcome: OutcomeCredited,
		Coins:   learner.Coins,
		XP:      learner.XP,
		Summary: summary,
	}, nil
}

// validateEvent 在任何写入前拒绝畸形事件
func validateEvent(event *model.CompletionEvent) error {
	if event.LearnerID == 0 {
		return fmt.Errorf("%w: missing learner id", util.ErrInvalidEvent)
	}
	if event.SourceUnitID == "" {
		return fmt.Errorf("%w: missing source unit id", util.ErrInvalidEvent)
	}
	if !model.ValidCategory(event.Category) {
		return fmt.Errorf("%w: unknown category %q", util.ErrInvalidEvent, event.Category)
	}
	if !model.ValidDifficulty(event.Difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", util.ErrInvalidEvent, event.Difficulty)
	}
	if !model.ValidOrigin(event.Origin) {
		return fmt.Errorf("%w: unknown origin %q", util.ErrInvalidEvent, event.Origin)
	}
	if event.CoinsAwarded < 0 || event.XPAwarded < 0 {
		return fmt.Errorf("%w: negative reward", util.ErrInvalidEvent)
	}
	return nil
}

// logAttempt 审计日志与入账结果解耦，写失败只记日志
func (s *LedgerService) logAttempt(event *model.CompletionEvent, outcome CreditOutcome) {
	attempt := &model.CompletionAttempt{
		EventID:      event.EventID,
		LearnerID:    event.LearnerID,
		SourceUnitID: event.SourceUnitID,
		Origin:       event.Origin,
		Outcome:      string(outcome),
		ReceivedAt:   time.Now(),
	}
	if err := s.EventRepo.LogAttempt(attempt); err != nil {
		logger.Log.Warn("failed to log completion attempt", zap.Error(err))
	}
}

func (s *LedgerService) invalidateSummaryCache(ctx context.Context, learnerID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, summaryCacheKey(learnerID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}
