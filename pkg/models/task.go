package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

type State string

const (
	StateTodo  State = "ToDo"
	StateDoing State = "Doing"
	StateDone  State = "Done"
	StateUnset State = ""
)

// ParseState maps free text to a State. Input is trimmed and matched
// case-insensitively; anything unrecognized becomes StateUnset.
func ParseState(text string) State {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "todo":
		return StateTodo
	case "doing":
		return StateDoing
	case "done":
		return StateDone
	default:
		return StateUnset
	}
}

// Task is one tracked to-do item. ID and OwnerID are fixed at creation;
// everything else is edited through the store.
type Task struct {
	ID      uint64  `json:"id"`
	OwnerID uint64  `json:"owner_id"`
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	State   State   `json:"state"`
	DueDate *string `json:"due_date,omitempty"`
}

func (t *Task) Done() bool {
	return t.State == StateDone
}

func (t *Task) SetTitle(title string) {
	t.Title = title
}

func (t *Task) SetBody(body string) {
	t.Body = body
}

// SetState replaces the lifecycle state.
func (t *Task) SetState(s State) {
	t.State = s
}

// SetStateFromText parses free text into a state. Unrecognized input
// yields StateUnset rather than an error.
func (t *Task) SetStateFromText(text string) {
	t.State = ParseState(text)
}

// SetDueDate sets or clears the due date. The store does not validate the
// format beyond round-tripping it; callers validate before reaching here.
func (t *Task) SetDueDate(date *string) {
	t.DueDate = date
}

// Due parses the due date, if any.
func (t *Task) Due() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, *t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Message renders the task as the human-readable block sent back to chat.
func (t *Task) Message() string {
	deadline := "None"
	if t.DueDate != nil {
		deadline = *t.DueDate
	}
	return fmt.Sprintf("%s\nState : %s\nDeadline : %s\n%s\n\n\nid : %d",
		t.Title, t.State, deadline, t.Body, t.ID)
}
