package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quest_edu_backend/internal/config"
	"quest_edu_backend/internal/model"
	"quest_edu_backend/internal/repository"
	"quest_edu_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ClassroomSyncService 外部课堂同步协作方：轮询第三方作业平台，
// 把新提交的远端作业按固定资费换算成完成事件报给账本。
// 同一份作业可能在多个轮询周期里反复出现，安全性完全依赖账本的去重；
// 本服务只保证 sourceUnitId 稳定（远端提交ID），每次投递换新的 eventId。
type ClassroomSyncService struct {
	cfg      config.ClassroomConfig
	Ledger   *LedgerService
	UserRepo *repository.UserRepository
	client   *http.Client
}

func NewClassroomSyncService(cfg config.ClassroomConfig, ledger *LedgerService, userRepo *repository.UserRepository) *ClassroomSyncService {
	s := &ClassroomSyncService{
		cfg:      cfg,
		Ledger:   ledger,
		UserRepo: userRepo,
	}

	if cfg.Enabled {
		// refresh token 换取访问令牌，oauth2 客户端自动续期
		oc := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		}
		ts := oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
		s.client = oauth2.NewClient(context.Background(), ts)
		s.client.Timeout = 30 * time.Second
	}

	return s
}

func (s *ClassroomSyncService) Enabled() bool {
	return s.cfg.Enabled
}

// remoteSubmission 第三方平台的已提交作业
type remoteSubmission struct {
	ID           string    `json:"id"`
	CourseworkID string    `json:"courseworkId"`
	Title        string    `json:"title"`
	Subject      string    `json:"subject"`
	State        string    `json:"state"`
	TurnedInAt   time.Time `json:"turnedInAt"`
}

type submissionList struct {
	Submissions []remoteSubmission `json:"submissions"`
}

// SyncOnce 执行一轮同步。单个学习者或单份作业失败只记日志，
// 下一轮继续；重复投递由账本返回 duplicate，视为成功。
func (s *ClassroomSyncService) SyncOnce(ctx context.Context) error {
	if !s.cfg.Enabled {
		return nil
	}

	learners, err := s.UserRepo.FindClassroomLinked()
	if err != nil {
		return err
	}

	for _, learner := range learners {
		submissions, err := s.fetchTurnedIn(ctx, learner.ClassroomStudentID)
		if err != nil {
			logger.Log.Warn("classroom poll failed",
				zap.Uint("learnerId", learner.ID),
				zap.Error(err),
			)
			continue
		}

		for _, sub := range submissions {
			if err := s.reportSubmission(ctx, learner.ID, sub); err != nil {
				logger.Log.Warn("classroom submission report failed",
					zap.Uint("learnerId", learner.ID),
					zap.String("submissionId", sub.ID),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

func (s *ClassroomSyncService) fetchTurnedIn(ctx context.Context, remoteStudentID string) ([]remoteSubmission, error) {
	url := fmt.Sprintf("%s/students/%s/submissions?state=TURNED_IN", s.cfg.BaseURL, remoteStudentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("classroom api status %d: %s", resp.StatusCode, body)
	}

	var list submissionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}
	return list.Submissions, nil
}

// reportSubmission 把远端作业换算成账本事件。奖励资费由本服务决定
// （配置里的固定金币/经验），账本只负责恰好一次地入账。
func (s *ClassroomSyncService) reportSubmission(ctx context.Context, learnerID uint, sub remoteSubmission) error {
	occurredAt := sub.TurnedInAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	event := &model.CompletionEvent{
		EventID:      uuid.NewString(),
		LearnerID:    learnerID,
		SourceUnitID: sub.ID,
		Origin:       model.OriginExternalSync,
		Title:        sub.Title,
		Category:     mapSubject(sub.Subject),
		Difficulty:   model.DifficultyMedium,
		WasCorrect:   true,
		CoinsAwarded: s.cfg.TariffCoins,
		XPAwarded:    s.cfg.TariffXP,
		OccurredAt:   occurredAt,
	}

	result, err := s.Ledger.RecordAndCredit(ctx, event)
	if err != nil {
		return err
	}

	if result.Outcome == OutcomeDuplicate {
		logger.Log.Debug("classroom submission already credited",
			zap.Uint("learnerId", learnerID),
			zap.String("submissionId", sub.ID),
		)
	}
	return nil
}

// mapSubject 远端学科到站内分类的映射，未知学科归入人文
func mapSubject(subject string) model.QuestCategory {
	switch subject {
	case "math", "mathematics":
		return model.CategoryMath
	case "science", "physics", "chemistry", "biology":
		return model.CategoryScience
	case "language", "english", "reading", "writing":
		return model.CategoryLanguage
	default:
		return model.CategorySocialStudies
	}
}
