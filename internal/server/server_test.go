package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	s := store.New()
	return NewServer(s), s
}

func getJSON(t *testing.T, srv *Server, url string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("Failed to decode response: %v\nBody: %s", err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestHandleTasks(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	first := s.Create(ctx, 42, "first")
	second := s.Create(ctx, 42, "second")
	s.Update(ctx, second.ID, func(task *models.Task) { task.SetState(models.StateDone) })
	s.Create(ctx, 7, "other owner")

	var resp struct {
		Tasks []models.Task `json:"tasks"`
	}

	if code := getJSON(t, srv, "/api/tasks?owner=42", &resp); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(resp.Tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(resp.Tasks))
	}
	if resp.Tasks[0].ID != first.ID {
		t.Errorf("Expected tasks sorted by id, got %+v", resp.Tasks)
	}
	for _, task := range resp.Tasks {
		if task.OwnerID != 42 {
			t.Errorf("Owner 42 response leaked task of owner %d", task.OwnerID)
		}
	}

	if code := getJSON(t, srv, "/api/tasks?owner=42&scope=active", &resp); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(resp.Tasks) != 1 || resp.Tasks[0].ID != first.ID {
		t.Errorf("Active scope should exclude Done: %+v", resp.Tasks)
	}

	// Unknown owner gets an empty list, not null
	req := httptest.NewRequest(http.MethodGet, "/api/tasks?owner=9999", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Body.String() != "{\"tasks\":[]}\n" {
		t.Errorf("Expected empty tasks array, got %s", rec.Body.String())
	}
}

func TestHandleTasksBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	var resp struct{}
	if code := getJSON(t, srv, "/api/tasks", &resp); code != http.StatusBadRequest {
		t.Errorf("Missing owner should be 400, got %d", code)
	}
	if code := getJSON(t, srv, "/api/tasks?owner=abc", &resp); code != http.StatusBadRequest {
		t.Errorf("Non-numeric owner should be 400, got %d", code)
	}
	if code := getJSON(t, srv, "/api/tasks?owner=42&scope=bogus", &resp); code != http.StatusBadRequest {
		t.Errorf("Unknown scope should be 400, got %d", code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, s := newTestServer(t)
	ctx := context.Background()

	s.Create(ctx, 42, "one")
	s.Create(ctx, 42, "two")

	var resp struct {
		Tasks  int    `json:"tasks"`
		NextID uint64 `json:"next_id"`
	}
	if code := getJSON(t, srv, "/api/status", &resp); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if resp.Tasks != 2 {
		t.Errorf("Expected 2 tasks, got %d", resp.Tasks)
	}
	if resp.NextID != 2 {
		t.Errorf("Expected next_id 2, got %d", resp.NextID)
	}
}
