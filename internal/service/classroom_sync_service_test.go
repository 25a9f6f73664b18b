package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quest_edu_backend/internal/config"
	"quest_edu_backend/internal/model"
)

// fakeClassroom 模拟第三方课堂平台：/token 发放访问令牌，
// /students/... 返回已提交作业列表。
func fakeClassroom(t *testing.T, submissions []remoteSubmission) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/students/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("expected refreshed bearer token, got %q", got)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("state") != "TURNED_IN" {
			t.Errorf("expected state=TURNED_IN filter, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(submissionList{Submissions: submissions})
	})
	return httptest.NewServer(mux)
}

func newSyncService(t *testing.T, env *testEnv, server *httptest.Server) *ClassroomSyncService {
	t.Helper()

	cfg := config.ClassroomConfig{
		Enabled:      true,
		BaseURL:      server.URL,
		TokenURL:     server.URL + "/token",
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RefreshToken: "test-refresh",
		TariffCoins:  20,
		TariffXP:     50,
	}
	return NewClassroomSyncService(cfg, env.ledger, env.users)
}

func TestSyncOnceCreditsTurnedInSubmissions(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	learner.ClassroomStudentID = "gstu-1"
	if err := env.users.Update(learner); err != nil {
		t.Fatalf("link classroom account: %v", err)
	}

	server := fakeClassroom(t, []remoteSubmission{
		{ID: "gc_123", Title: "分数练习", Subject: "mathematics", State: "TURNED_IN"},
	})
	defer server.Close()

	sync := newSyncService(t, env, server)
	if err := sync.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	refreshed, err := env.users.FindByID(learner.ID)
	if err != nil {
		t.Fatalf("reload learner: %v", err)
	}
	if refreshed.Coins != 20 || refreshed.XP != 50 {
		t.Fatalf("expected tariff 20/50 credited, got %d/%d", refreshed.Coins, refreshed.XP)
	}

	events, err := env.events.FindByLearner(env.db, learner.ID)
	if err != nil {
		t.Fatalf("load events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].SourceUnitID != "gc_123" || events[0].Origin != model.OriginExternalSync {
		t.Fatalf("unexpected event identity: %+v", events[0])
	}
	if events[0].Category != model.CategoryMath {
		t.Fatalf("expected subject mapped to math, got %s", events[0].Category)
	}
}

func TestSyncOnceRedeliveryAcrossPollsCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	learner := env.createLearner(t)
	learner.ClassroomStudentID = "gstu-2"
	if err := env.users.Update(learner); err != nil {
		t.Fatalf("link classroom account: %v", err)
	}

	server := fakeClassroom(t, []remoteSubmission{
		{ID: "gc_777", Title: "阅读理解", Subject: "reading", State: "TURNED_IN"},
	})
	defer server.Close()

	sync := newSyncService(t, env, server)

	// 远端平台没有增量游标，同一份作业会在每个轮询周期重复出现
	for i := 0; i < 2; i++ {
		if err := sync.SyncOnce(context.Background()); err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
	}

	refreshed, err := env.users.FindByID(learner.ID)
	if err != nil {
		t.Fatalf("reload learner: %v", err)
	}
	if refreshed.Coins != 20 || refreshed.XP != 50 {
		t.Fatalf("redelivered submission must credit once, got %d/%d", refreshed.Coins, refreshed.XP)
	}
}

func TestSyncOnceSkipsUnlinkedLearners(t *testing.T) {
	env := newTestEnv(t)
	env.createLearner(t) // 未绑定课堂账号

	server := fakeClassroom(t, nil)
	defer server.Close()

	sync := newSyncService(t, env, server)
	if err := sync.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	var count int64
	env.db.Model(&model.CompletionEvent{}).Count(&count)
	if count != 0 {
		t.Fatalf("unlinked learners must not produce events, found %d", count)
	}
}

func TestMapSubjectFallsBackToSocialStudies(t *testing.T) {
	tests := []struct {
		subject string
		want    model.QuestCategory
	}{
		{"mathematics", model.CategoryMath},
		{"biology", model.CategoryScience},
		{"writing", model.CategoryLanguage},
		{"history", model.CategorySocialStudies},
		{"", model.CategorySocialStudies},
	}
	for _, tt := range tests {
		if got := mapSubject(tt.subject); got != tt.want {
			t.Errorf("mapSubject(%q) = %s, want %s", tt.subject, got, tt.want)
		}
	}
}
