package service

import (
	"testing"
	"time"

	"quest_edu_backend/internal/model"
)

var testBase = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// dayEvent 在 base+dayOffset 天生成一条入账事件
func dayEvent(unit string, dayOffset int, correct bool, category model.QuestCategory, difficulty model.QuestDifficulty, coins, xp int) model.CompletionEvent {
	return model.CompletionEvent{
		EventID:      "evt-" + unit,
		LearnerID:    1,
		SourceUnitID: unit,
		Origin:       model.OriginInteractive,
		Category:     category,
		Difficulty:   difficulty,
		WasCorrect:   correct,
		CoinsAwarded: coins,
		XPAwarded:    xp,
		OccurredAt:   testBase.AddDate(0, 0, dayOffset),
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	agg := &AggregatorService{}
	summary := agg.BuildSummary(1, nil, testBase)

	if summary.TotalQuests != 0 || summary.TotalCoins != 0 || summary.TotalXP != 0 {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if summary.AccuracyRate != 0 {
		t.Fatalf("accuracy of empty history should be 0, got %d", summary.AccuracyRate)
	}
	if summary.CurrentStreak != 0 || summary.LongestStreak != 0 {
		t.Fatalf("streaks of empty history should be 0/0, got %d/%d", summary.CurrentStreak, summary.LongestStreak)
	}
	if summary.CategoryCounts[model.CategoryMath] != 0 {
		t.Fatal("histogram should carry zero entries for all categories")
	}
}

func TestBuildSummaryTotalsAndAccuracy(t *testing.T) {
	// 7次完成，3次正确：round(300/7) = 43
	events := []model.CompletionEvent{
		dayEvent("q1", 0, true, model.CategoryMath, model.DifficultyEasy, 10, 20),
		dayEvent("q2", 0, true, model.CategoryMath, model.DifficultyHard, 10, 20),
		dayEvent("q3", 0, true, model.CategoryScience, model.DifficultyMedium, 10, 20),
		dayEvent("q4", 0, false, model.CategoryScience, model.DifficultyHard, 10, 20),
		dayEvent("q5", 0, false, model.CategoryLanguage, model.DifficultyEasy, 10, 20),
		dayEvent("q6", 0, false, model.CategorySocialStudies, model.DifficultyEasy, 10, 20),
		dayEvent("q7", 0, false, model.CategoryMath, model.DifficultyHard, 10, 20),
	}

	agg := &AggregatorService{}
	summary := agg.BuildSummary(1, events, testBase)

	if summary.TotalQuests != 7 {
		t.Fatalf("expected 7 quests, got %d", summary.TotalQuests)
	}
	if summary.TotalCoins != 70 || summary.TotalXP != 140 {
		t.Fatalf("expected 70 coins / 140 xp, got %d/%d", summary.TotalCoins, summary.TotalXP)
	}
	if summary.AccuracyRate != 43 {
		t.Fatalf("expected accuracy 43, got %d", summary.AccuracyRate)
	}
	if summary.CategoryCounts[model.CategoryMath] != 3 {
		t.Fatalf("expected 3 math quests, got %d", summary.CategoryCounts[model.CategoryMath])
	}
	if summary.DifficultyCounts[model.DifficultyHard] != 3 {
		t.Fatalf("expected 3 hard quests, got %d", summary.DifficultyCounts[model.DifficultyHard])
	}
}

func TestBuildSummaryOrderIndependence(t *testing.T) {
	events := []model.CompletionEvent{
		dayEvent("a", 0, true, model.CategoryMath, model.DifficultyEasy, 5, 10),
		dayEvent("b", 1, false, model.CategoryScience, model.DifficultyHard, 7, 14),
		dayEvent("c", 2, true, model.CategoryLanguage, model.DifficultyMedium, 9, 18),
	}
	reversed := []model.CompletionEvent{events[2], events[0], events[1]}

	agg := &AggregatorService{}
	now := testBase.AddDate(0, 0, 2)
	s1 := agg.BuildSummary(1, events, now)
	s2 := agg.BuildSummary(1, reversed, now)

	if s1.TotalQuests != s2.TotalQuests || s1.TotalCoins != s2.TotalCoins || s1.TotalXP != s2.TotalXP {
		t.Fatal("totals must not depend on arrival order")
	}
	if s1.CurrentStreak != s2.CurrentStreak || s1.LongestStreak != s2.LongestStreak {
		t.Fatal("streaks must depend on occurredAt only, not arrival order")
	}
	if s1.AccuracyRate != s2.AccuracyRate {
		t.Fatal("accuracy must not depend on arrival order")
	}
}

func TestStreaks(t *testing.T) {
	tests := []struct {
		name          string
		dayOffsets    []int
		todayOffset   int
		wantCurrent   int
		wantLongest   int
	}{
		{
			name:        "single day counted once despite multiple completions",
			dayOffsets:  []int{0, 0, 0},
			todayOffset: 0,
			wantCurrent: 1,
			wantLongest: 1,
		},
		{
			name:        "three consecutive days ending today",
			dayOffsets:  []int{0, 1, 2},
			todayOffset: 2,
			wantCurrent: 3,
			wantLongest: 3,
		},
		{
			name:        "run still alive when last completion was yesterday",
			dayOffsets:  []int{0, 1},
			todayOffset: 2,
			wantCurrent: 2,
			wantLongest: 2,
		},
		{
			name:        "gap of two days from today resets current streak",
			dayOffsets:  []int{0, 1},
			todayOffset: 3,
			wantCurrent: 0,
			wantLongest: 2,
		},
		{
			name:        "gap inside history stops the backward walk",
			dayOffsets:  []int{0, 1, 3},
			todayOffset: 3,
			wantCurrent: 1,
			wantLongest: 2,
		},
		{
			name:        "longest run does not need to touch today",
			dayOffsets:  []int{0, 1, 2, 3, 6},
			todayOffset: 6,
			wantCurrent: 1,
			wantLongest: 4,
		},
	}

	agg := &AggregatorService{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := make([]model.CompletionEvent, 0, len(tt.dayOffsets))
			for i, off := range tt.dayOffsets {
				e := dayEvent("u", off, true, model.CategoryMath, model.DifficultyEasy, 1, 1)
				e.SourceUnitID = e.SourceUnitID + string(rune('a'+i))
				events = append(events, e)
			}

			summary := agg.BuildSummary(1, events, testBase.AddDate(0, 0, tt.todayOffset))
			if summary.CurrentStreak != tt.wantCurrent {
				t.Errorf("current streak: got %d, want %d", summary.CurrentStreak, tt.wantCurrent)
			}
			if summary.LongestStreak != tt.wantLongest {
				t.Errorf("longest streak: got %d, want %d", summary.LongestStreak, tt.wantLongest)
			}
		})
	}
}

func TestAccuracyRounding(t *testing.T) {
	tests := []struct {
		correct int
		total   int
		want    int
	}{
		{0, 0, 0},
		{3, 7, 43},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
	}

	agg := &AggregatorService{}
	for _, tt := range tests {
		events := make([]model.CompletionEvent, 0, tt.total)
		for i := 0; i < tt.total; i++ {
			e := dayEvent("acc", 0, i < tt.correct, model.CategoryMath, model.DifficultyEasy, 1, 1)
			e.SourceUnitID = e.SourceUnitID + string(rune('a'+i))
			events = append(events, e)
		}

		summary := agg.BuildSummary(1, events, testBase)
		if summary.AccuracyRate != tt.want {
			t.Errorf("accuracy %d/%d: got %d, want %d", tt.correct, tt.total, summary.AccuracyRate, tt.want)
		}
	}
}
