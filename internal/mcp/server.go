package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

// NewServer creates a new MCP server exposing the task store.
//
// Ids are passed as decimal strings: they are 64-bit and would not survive
// a round-trip through JSON numbers.
func NewServer(s *store.Store) *server.MCPServer {
	srv := server.NewMCPServer("Taskbot", "0.1.0")

	srv.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task for an owner."),
		mcp.WithString("owner_id", mcp.Description("Owner (conversation) id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("body", mcp.Description("Task body text")),
	), createTaskHandler(s))

	srv.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(s))

	srv.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List an owner's tasks."),
		mcp.WithString("owner_id", mcp.Description("Owner (conversation) id"), mcp.Required()),
		mcp.WithString("scope", mcp.Description("One of active|all|agenda (defaults to active)")),
	), listTasksHandler(s))

	srv.AddTool(mcp.NewTool("set_task_state",
		mcp.WithDescription("Set a task's lifecycle state (ToDo|Doing|Done). Unrecognized text clears the state."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("state", mcp.Description("New state"), mcp.Required()),
	), setTaskStateHandler(s))

	srv.AddTool(mcp.NewTool("set_due_date",
		mcp.WithDescription("Set a task's due date (yyyy-mm-dd)."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("date", mcp.Description("Due date"), mcp.Required()),
	), setDueDateHandler(s))

	srv.AddTool(mcp.NewTool("rename_task",
		mcp.WithDescription("Change a task's title."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), renameTaskHandler(s))

	srv.AddTool(mcp.NewTool("edit_task",
		mcp.WithDescription("Replace a task's body text."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("body", mcp.Description("New body text"), mcp.Required()),
	), editTaskHandler(s))

	srv.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task. Deleting an absent id is a no-op."),
		mcp.WithString("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(s))

	return srv
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func parseUint(request mcp.CallToolRequest, key string) (uint64, error) {
	raw := mcp.ParseString(request, key, "")
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a decimal number, got %q", key, raw)
	}
	return v, nil
}

func createTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ownerID, err := parseUint(request, "owner_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title := mcp.ParseString(request, "title", "")
		body := mcp.ParseString(request, "body", "")

		t := s.Create(ctx, ownerID, title)
		if body != "" {
			s.Update(ctx, t.ID, func(task *models.Task) {
				task.SetBody(body)
			})
		}

		return mcp.NewToolResultText(fmt.Sprintf("Task created with id %d", t.ID)), nil
	}
}

func getTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		t, ok := s.Get(id)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}

		data, err := json.Marshal(&t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func listTasksHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ownerID, err := parseUint(request, "owner_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		scope := mcp.ParseString(request, "scope", "active")

		var tasks []models.Task
		switch scope {
		case "active":
			tasks = s.ListOwnerActive(ownerID)
		case "all":
			tasks = s.ListOwnerAll(ownerID)
		case "agenda":
			tasks = s.ListOwnerAgenda(ownerID)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("Unknown scope %q (want active|all|agenda)", scope)), nil
		}

		sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

		data, err := json.Marshal(map[string]interface{}{"tasks": tasks})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func setTaskStateHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		state := mcp.ParseString(request, "state", "")

		if !s.Update(ctx, id, func(t *models.Task) {
			t.SetStateFromText(state)
		}) {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return mcp.NewToolResultText("State changed"), nil
	}
}

func setDueDateHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		date := mcp.ParseString(request, "date", "")
		if _, err := time.Parse(models.DateLayout, date); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid date %q (want yyyy-mm-dd)", date)), nil
		}

		if !s.Update(ctx, id, func(t *models.Task) {
			t.SetDueDate(&date)
		}) {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return mcp.NewToolResultText("Deadline changed"), nil
	}
}

func renameTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		title := mcp.ParseString(request, "title", "")

		if !s.Update(ctx, id, func(t *models.Task) {
			t.SetTitle(title)
		}) {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return mcp.NewToolResultText("Title changed"), nil
	}
}

func editTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		body := mcp.ParseString(request, "body", "")

		if !s.Update(ctx, id, func(t *models.Task) {
			t.SetBody(body)
		}) {
			return mcp.NewToolResultError(fmt.Sprintf("Task with id %d not found", id)), nil
		}
		return mcp.NewToolResultText("Body changed"), nil
	}
}

func deleteTaskHandler(s *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := parseUint(request, "id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		s.Delete(ctx, id)
		return mcp.NewToolResultText("Ok"), nil
	}
}
