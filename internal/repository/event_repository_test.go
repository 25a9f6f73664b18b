package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quest_edu_backend/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.User{}, &model.CompletionEvent{}, &model.CompletionAttempt{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleEvent(eventID, unit string, origin model.EventOrigin) *model.CompletionEvent {
	return &model.CompletionEvent{
		EventID:      eventID,
		LearnerID:    1,
		SourceUnitID: unit,
		Origin:       origin,
		Category:     model.CategoryMath,
		Difficulty:   model.DifficultyEasy,
		WasCorrect:   true,
		CoinsAwarded: 10,
		XPAwarded:    20,
		OccurredAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestInsertRejectsDuplicateWorkUnit(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)

	if err := repo.Insert(db, sampleEvent("evt-1", "q1", model.OriginInteractive)); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// 同 (learner, unit, origin)，不同 eventId：复合唯一索引拒绝
	err := repo.Insert(db, sampleEvent("evt-2", "q1", model.OriginInteractive))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}

func TestInsertRejectsDuplicateEventID(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)

	if err := repo.Insert(db, sampleEvent("evt-1", "q1", model.OriginInteractive)); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := repo.Insert(db, sampleEvent("evt-1", "q2", model.OriginInteractive))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey on event_id, got %v", err)
	}
}

func TestInsertAllowsSameUnitFromDifferentOrigin(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)

	if err := repo.Insert(db, sampleEvent("evt-1", "q1", model.OriginInteractive)); err != nil {
		t.Fatalf("interactive insert: %v", err)
	}
	if err := repo.Insert(db, sampleEvent("evt-2", "q1", model.OriginExternalSync)); err != nil {
		t.Fatalf("external sync insert should be a distinct work unit: %v", err)
	}
}

func TestFindByLearnerOrdersByOccurredAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewEventRepository(db)

	later := sampleEvent("evt-late", "q-late", model.OriginInteractive)
	later.OccurredAt = later.OccurredAt.AddDate(0, 0, 5)
	if err := repo.Insert(db, later); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.Insert(db, sampleEvent("evt-early", "q-early", model.OriginInteractive)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	events, err := repo.FindByLearner(db, 1)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventID != "evt-early" || events[1].EventID != "evt-late" {
		t.Fatalf("expected occurred_at ascending order, got %s, %s", events[0].EventID, events[1].EventID)
	}
}

func TestAddBalanceUnknownUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	err := repo.AddBalance(db, 42, 10, 10)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
