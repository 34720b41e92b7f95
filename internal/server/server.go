// Package server exposes a read-only HTTP view of the task store.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

type Server struct {
	store  *store.Store
	server *http.Server
}

func NewServer(s *store.Store) *Server {
	return &Server{store: s}
}

func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	return s.server.ListenAndServe()
}

// Handler returns the route mux, separate from Start so tests can drive
// it with httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tasks", s.handleTasks)
	mux.HandleFunc("/api/status", s.handleStatus)
	return mux
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	ownerID, err := strconv.ParseUint(r.URL.Query().Get("owner"), 10, 64)
	if err != nil {
		http.Error(w, "owner must be a decimal number", http.StatusBadRequest)
		return
	}

	var tasks []models.Task
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "all":
		tasks = s.store.ListOwnerAll(ownerID)
	case "active":
		tasks = s.store.ListOwnerActive(ownerID)
	case "agenda":
		tasks = s.store.ListOwnerAgenda(ownerID)
	default:
		http.Error(w, "scope must be all, active or agenda", http.StatusBadRequest)
		return
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	if tasks == nil {
		tasks = []models.Task{}
	}
	s.respond(w, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respond(w, map[string]interface{}{
		"tasks":   s.store.Len(),
		"next_id": s.store.NextID(),
	})
}

func (s *Server) respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
