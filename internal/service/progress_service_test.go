package service

import (
	"context"
	"testing"

	"quest_edu_backend/internal/model"
)

func TestGetSummaryForNewLearnerIsZeroAndUnpersisted(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	ctx := context.Background()

	summary, err := env.progress.GetSummary(ctx, learner.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.TotalQuests != 0 || summary.TotalCoins != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}

	// 无事件的学习者不落盘概要行，首个完成才惰性建行
	var count int64
	env.db.Model(&model.LearnerSummary{}).Count(&count)
	if count != 0 {
		t.Fatalf("zero summary must not be persisted, found %d rows", count)
	}
}

func TestGetSummaryReflectsCredit(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	ctx := context.Background()

	if _, err := env.ledger.RecordAndCredit(ctx, interactiveEvent(learner.ID, "evt-p1", "unit-p1", 50, 80)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	summary, err := env.progress.GetSummary(ctx, learner.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.TotalQuests != 1 || summary.TotalCoins != 50 || summary.TotalXP != 80 {
		t.Fatalf("summary out of date after credit: %+v", summary)
	}
}

func TestGetSummaryRebuildsMissingRow(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	ctx := context.Background()

	if _, err := env.ledger.RecordAndCredit(ctx, interactiveEvent(learner.ID, "evt-p2", "unit-p2", 5, 5)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	// 概要行丢失（比如迁移事故）：读路径从事件历史重放重建
	err := env.db.Where("learner_id = ?", learner.ID).Delete(&model.LearnerSummary{}).Error
	if err != nil {
		t.Fatalf("drop summary: %v", err)
	}

	summary, err := env.progress.GetSummary(ctx, learner.ID)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.TotalQuests != 1 || summary.TotalCoins != 5 {
		t.Fatalf("expected replayed summary, got %+v", summary)
	}
}

func TestGetBadgeStatusesCoversCatalog(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	ctx := context.Background()

	if _, err := env.ledger.RecordAndCredit(ctx, interactiveEvent(learner.ID, "evt-p3", "unit-p3", 1, 1)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	statuses, err := env.progress.GetBadgeStatuses(ctx, learner.ID)
	if err != nil {
		t.Fatalf("badge statuses: %v", err)
	}
	if len(statuses) != len(model.BadgeCatalog) {
		t.Fatalf("expected one status per catalog badge, got %d/%d", len(statuses), len(model.BadgeCatalog))
	}

	byID := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st.Unlocked
	}
	if !byID["first-quest"] {
		t.Fatal("first-quest should be unlocked after one completion")
	}
	if byID["quest-master"] {
		t.Fatal("quest-master should stay locked after one completion")
	}
}

func TestGetLeaderboardRanksByXP(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, xp := range []int{30, 90, 60} {
		user := &model.User{Name: string(rune('A' + i)), Email: string(rune('a'+i)) + "@lb.local", Password: "x"}
		if err := env.users.Create(user); err != nil {
			t.Fatalf("create user: %v", err)
		}
		ev := interactiveEvent(user.ID, "evt-lb-"+user.Name, "unit-lb", 0, xp)
		if _, err := env.ledger.RecordAndCredit(ctx, ev); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	board, err := env.progress.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board))
	}
	if board[0].XP != 90 || board[1].XP != 60 || board[2].XP != 30 {
		t.Fatalf("expected descending XP order, got %+v", board)
	}
	if board[0].Rank != 1 || board[2].Rank != 3 {
		t.Fatalf("ranks must be 1-based positions, got %+v", board)
	}
}
