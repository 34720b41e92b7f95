package command

import (
	"context"
	"strings"
	"testing"

	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

func TestRouterEndToEnd(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	// 1. Create a task
	reply := r.Handle(ctx, 42, "/create Buy milk")
	if reply != "Ok:) id : 0" {
		t.Fatalf("Unexpected create reply: %q", reply)
	}

	// 2. Set its state, case-insensitively
	reply = r.Handle(ctx, 42, "/setstate 0 DoInG")
	if reply != "State changed" {
		t.Fatalf("Unexpected setstate reply: %q", reply)
	}
	task, _ := s.Get(0)
	if task.State != models.StateDoing {
		t.Errorf("Expected Doing, got %q", task.State)
	}

	// 3. The active list shows exactly that task
	reply = r.Handle(ctx, 42, "/list")
	if !strings.Contains(reply, "Buy milk") || !strings.Contains(reply, "id : 0") {
		t.Errorf("Active list missing the task:\n%s", reply)
	}

	// 4. Done removes it from the active list but not the all list
	r.Handle(ctx, 42, "/setstate 0 done")
	if reply = r.Handle(ctx, 42, "/list"); strings.Contains(reply, "Buy milk") {
		t.Errorf("Done task leaked into active list:\n%s", reply)
	}
	if reply = r.Handle(ctx, 42, "/listall"); !strings.Contains(reply, "Buy milk") {
		t.Errorf("Done task missing from all list:\n%s", reply)
	}

	// 5. Delete empties the all list; a second delete is a no-op
	r.Handle(ctx, 42, "/delete 0")
	if reply = r.Handle(ctx, 42, "/listall"); strings.Contains(reply, "Buy milk") {
		t.Errorf("Deleted task still listed:\n%s", reply)
	}
	if reply = r.Handle(ctx, 42, "/delete 0"); reply != "Ok:)" {
		t.Errorf("Second delete should still ack: %q", reply)
	}
}

func TestRouterEditsAndShow(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	r.Handle(ctx, 42, "/create Report")
	r.Handle(ctx, 42, "/edit 0 write the quarterly report")
	r.Handle(ctx, 42, "/editname 0 Q2 report")
	r.Handle(ctx, 42, "/setdead 0 2024-06-15")

	reply := r.Handle(ctx, 42, "/show 0")
	for _, want := range []string{"Q2 report", "write the quarterly report", "Deadline : 2024-06-15"} {
		if !strings.Contains(reply, want) {
			t.Errorf("Show reply missing %q:\n%s", want, reply)
		}
	}
}

func TestRouterUnknownID(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	for _, text := range []string{"/setstate 99 doing", "/setdead 99 2024-06-15", "/edit 99 x", "/editname 99 x", "/show 99"} {
		if reply := r.Handle(ctx, 42, text); reply != "Unknown id" {
			t.Errorf("Handle(%q) = %q, want Unknown id", text, reply)
		}
	}
}

func TestRouterOwnerIsolation(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	r.Handle(ctx, 42, "/create Owner 42's secret")

	// Another owner cannot see, edit or delete it by id
	if reply := r.Handle(ctx, 7, "/show 0"); reply != "Unknown id" {
		t.Errorf("Cross-owner show got %q", reply)
	}
	if reply := r.Handle(ctx, 7, "/setstate 0 done"); reply != "Unknown id" {
		t.Errorf("Cross-owner edit got %q", reply)
	}
	r.Handle(ctx, 7, "/delete 0")
	if _, ok := s.Get(0); !ok {
		t.Error("Cross-owner delete removed the task")
	}
	if reply := r.Handle(ctx, 7, "/listall"); strings.Contains(reply, "secret") {
		t.Errorf("Cross-owner list leaked:\n%s", reply)
	}
}

func TestRouterBadInputReplies(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	if reply := r.Handle(ctx, 42, "/setstate abc doing"); reply != "First argument should be a number!" {
		t.Errorf("Bad id reply: %q", reply)
	}
	if reply := r.Handle(ctx, 42, "/setdead 0 junk"); reply != "Invalid date format" {
		t.Errorf("Bad date reply: %q", reply)
	}
	if reply := r.Handle(ctx, 42, "/frobnicate"); !strings.Contains(reply, "Unknown command") {
		t.Errorf("Unknown command reply: %q", reply)
	}
	if reply := r.Handle(ctx, 42, "/help"); !strings.Contains(reply, "/create <name>") {
		t.Errorf("Help reply missing command list:\n%s", reply)
	}
}

func TestRouterListSorted(t *testing.T) {
	s := store.New()
	r := NewRouter(s)
	ctx := context.Background()

	r.Handle(ctx, 42, "/create first")
	r.Handle(ctx, 42, "/create second")
	r.Handle(ctx, 42, "/create third")

	reply := r.Handle(ctx, 42, "/listall")
	if strings.Index(reply, "first") > strings.Index(reply, "second") ||
		strings.Index(reply, "second") > strings.Index(reply, "third") {
		t.Errorf("List not ordered by id:\n%s", reply)
	}
}
