package service

import (
	"testing"

	"quest_edu_backend/internal/model"
)

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestEvaluateBadgesThresholds(t *testing.T) {
	badge := NewBadgeService()

	summary := model.NewLearnerSummary(1)
	summary.TotalQuests = 10
	summary.LongestStreak = 3
	summary.CategoryCounts[model.CategoryMath] = 5
	summary.DifficultyCounts[model.DifficultyHard] = 3

	unlocked := badge.EvaluateBadges(summary)

	for _, want := range []string{"first-quest", "quest-novice", "streak-3", "math-whiz", "hard-challenger"} {
		if !containsID(unlocked, want) {
			t.Errorf("expected %q unlocked, got %v", want, unlocked)
		}
	}
	for _, notWant := range []string{"quest-adept", "streak-7", "science-star", "hard-conqueror"} {
		if containsID(unlocked, notWant) {
			t.Errorf("did not expect %q unlocked, got %v", notWant, unlocked)
		}
	}
}

func TestStreakBadgeUsesHighWaterMark(t *testing.T) {
	badge := NewBadgeService()

	// 曾经连续7天，但今天断签：streak 徽章依旧判定解锁
	summary := model.NewLearnerSummary(1)
	summary.TotalQuests = 8
	summary.CurrentStreak = 0
	summary.LongestStreak = 7

	unlocked := badge.EvaluateBadges(summary)
	if !containsID(unlocked, "streak-3") || !containsID(unlocked, "streak-7") {
		t.Fatalf("streak badges must follow the longest-streak high-water mark, got %v", unlocked)
	}
}

func TestMergeUnlockedNeverRemoves(t *testing.T) {
	previous := []string{"streak-7", "first-quest"}
	fresh := []string{"first-quest"}

	merged := MergeUnlocked(previous, fresh)
	if !containsID(merged, "streak-7") {
		t.Fatalf("merge must never drop a previously unlocked badge, got %v", merged)
	}
	if !containsID(merged, "first-quest") {
		t.Fatalf("merge lost a fresh badge, got %v", merged)
	}
	if len(merged) != 2 {
		t.Fatalf("merge should deduplicate, got %v", merged)
	}
}

func TestEvaluateTrophies(t *testing.T) {
	badge := NewBadgeService()

	missions := []model.Mission{
		{Code: "mission_number_castle", TrophyID: "trophy-number-castle"},
		{Code: "mission_galaxy_lab", TrophyID: "trophy-galaxy-lab"},
	}
	completed := map[string]bool{
		"mission_number_castle": true,
		"some_other_quest":      true,
	}

	trophies := badge.EvaluateTrophies(missions, completed)
	if !containsID(trophies, "trophy-number-castle") {
		t.Fatalf("expected trophy for completed mission, got %v", trophies)
	}
	if containsID(trophies, "trophy-galaxy-lab") {
		t.Fatalf("trophy unlocked without completing its mission: %v", trophies)
	}
}
