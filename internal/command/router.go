package command

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

const helpText = `These commands are supported:
/help - display this text.
/create <name> - create task with <name>.
/setstate <id> <ToDo | Doing | Done> - set task with <id> to state.
/setdead <id> <yyyy-mm-dd> - set task with <id> deadline.
/edit <id> <text> - set task with <id> text to <text>.
/editname <id> <name> - set task with <id> name to <name>.
/delete <id> - delete task with <id>.
/show <id> - show task with <id>.
/list - list ToDo and Doing tasks.
/listall - list all tasks.
/agenda - list upcoming and overdue tasks.`

// Router executes chat commands against the store and formats replies.
type Router struct {
	store *store.Store
}

func NewRouter(s *store.Store) *Router {
	return &Router{store: s}
}

// Handle runs one line of chat text for the given owner and returns the
// reply to send back. Bad input never returns an error; it becomes a
// user-visible reply.
func (r *Router) Handle(ctx context.Context, ownerID uint64, text string) string {
	cmd, err := Parse(text)
	if err != nil {
		return replyForParseError(err)
	}

	switch cmd.Kind {
	case KindHelp:
		return helpText

	case KindCreate:
		t := r.store.Create(ctx, ownerID, cmd.Text)
		return "Ok:) id : " + strconv.FormatUint(t.ID, 10)

	case KindSetState:
		if !r.update(ctx, ownerID, cmd.ID, func(t *models.Task) {
			t.SetStateFromText(cmd.Text)
		}) {
			return "Unknown id"
		}
		return "State changed"

	case KindSetDead:
		date := cmd.Text
		if !r.update(ctx, ownerID, cmd.ID, func(t *models.Task) {
			t.SetDueDate(&date)
		}) {
			return "Unknown id"
		}
		return "State changed"

	case KindEdit:
		if !r.update(ctx, ownerID, cmd.ID, func(t *models.Task) {
			t.SetBody(cmd.Text)
		}) {
			return "Unknown id"
		}
		return "State changed"

	case KindEditName:
		if !r.update(ctx, ownerID, cmd.ID, func(t *models.Task) {
			t.SetTitle(cmd.Text)
		}) {
			return "Unknown id"
		}
		return "State changed"

	case KindDelete:
		r.store.DeleteOwned(ctx, ownerID, cmd.ID)
		return "Ok:)"

	case KindShow:
		t, ok := r.store.Get(cmd.ID)
		if !ok || t.OwnerID != ownerID {
			return "Unknown id"
		}
		return t.Message()

	case KindList:
		return formatList(r.store.ListOwnerActive(ownerID))

	case KindListAll:
		return formatList(r.store.ListOwnerAll(ownerID))

	case KindAgenda:
		return formatList(r.store.ListOwnerAgenda(ownerID))
	}

	return replyForParseError(ErrUnknownCommand)
}

func (r *Router) update(ctx context.Context, ownerID, id uint64, fn func(*models.Task)) bool {
	return r.store.UpdateOwned(ctx, ownerID, id, fn)
}

func replyForParseError(err error) string {
	switch {
	case errors.Is(err, ErrBadID):
		return "First argument should be a number!"
	case errors.Is(err, ErrBadDate):
		return "Invalid date format"
	case errors.Is(err, ErrMissingArgs):
		return "Missing arguments, see /help"
	default:
		return "Unknown command, see /help"
	}
}

func formatList(tasks []models.Task) string {
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(t.Message())
		b.WriteString("\n\n")
	}
	b.WriteString("Ok:)")
	return b.String()
}
