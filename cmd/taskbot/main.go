package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/nick-dorsch/taskbot/internal/archive"
	"github.com/nick-dorsch/taskbot/internal/command"
	"github.com/nick-dorsch/taskbot/internal/config"
	"github.com/nick-dorsch/taskbot/internal/mcp"
	"github.com/nick-dorsch/taskbot/internal/server"
	"github.com/nick-dorsch/taskbot/internal/store"
	"github.com/nick-dorsch/taskbot/pkg/models"
)

var (
	configPath   string
	snapshotPath string
	archivePath  string
)

func main() {
	flag.StringVar(&configPath, "config", ".taskbot/config.toml", "Path to config file")
	flag.StringVar(&snapshotPath, "snapshot-path", "", "Override snapshot file path")
	flag.StringVar(&archivePath, "archive-path", "", "Override archive database path")
	flag.Parse()

	if flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if snapshotPath != "" {
		cfg.SnapshotPath = snapshotPath
	}
	if archivePath != "" {
		cfg.ArchivePath = archivePath
	}

	switch cmd {
	case "mcp":
		err = runMCP(cfg, args)
	case "web":
		err = runWeb(cfg, args)
	case "exec":
		err = runExec(cfg, args)
	case "repl":
		err = runRepl(cfg, args)
	case "list-tasks":
		err = runListTasks(cfg, args)
	case "status":
		err = runStatus(cfg, args)
	case "history":
		err = runHistory(cfg, args)
	case "restore":
		err = runRestore(cfg, args)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: taskbot [flags] <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  mcp         Serve the task store over MCP stdio")
	fmt.Println("  web         Serve the read-only HTTP API")
	fmt.Println("  exec        Run one chat command (-owner <id> '/create ...')")
	fmt.Println("  repl        Read chat commands from stdin")
	fmt.Println("  list-tasks  List tasks for an owner")
	fmt.Println("  status      Show store status")
	fmt.Println("  history     List archived snapshots")
	fmt.Println("  restore     Restore the snapshot file from an archive entry")
}

// openStore loads the snapshot, applies config, and wires auto-snapshot
// persistence (and the archive, when enabled).
func openStore(cfg config.Config) (*store.Store, *archive.Archive, error) {
	st, err := store.Load(cfg.SnapshotPath, cfg.StrictLoad)
	if err != nil {
		return nil, nil, err
	}
	st.SetWindow(store.WindowMode(cfg.AgendaWindow))

	var arc *archive.Archive
	if cfg.ArchiveEnabled {
		arc, err = archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, nil, err
		}
	}

	var rec store.Recorder
	if arc != nil {
		rec = arc
	}
	st.EnableAutoSnapshot(cfg.SnapshotPath, cfg.SaveRetries, rec)

	return st, arc, nil
}

func runMCP(cfg config.Config, args []string) error {
	st, arc, err := openStore(cfg)
	if err != nil {
		return err
	}
	if arc != nil {
		defer arc.Close()
	}

	return mcp.Serve(mcp.NewServer(st))
}

func runWeb(cfg config.Config, args []string) error {
	webFlags := flag.NewFlagSet("web", flag.ContinueOnError)
	port := webFlags.String("port", "8000", "Port to listen on")
	if err := webFlags.Parse(args); err != nil {
		return err
	}

	st, arc, err := openStore(cfg)
	if err != nil {
		return err
	}
	if arc != nil {
		defer arc.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(st)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(fmt.Sprintf(":%s", *port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func runExec(cfg config.Config, args []string) error {
	execFlags := flag.NewFlagSet("exec", flag.ContinueOnError)
	owner := execFlags.Uint64("owner", 0, "Owner (conversation) id")
	if err := execFlags.Parse(args); err != nil {
		return err
	}
	if execFlags.NArg() == 0 {
		return fmt.Errorf("exec needs a chat command, e.g. '/create Buy milk'")
	}

	st, arc, err := openStore(cfg)
	if err != nil {
		return err
	}
	if arc != nil {
		defer arc.Close()
	}

	router := command.NewRouter(st)
	text := strings.Join(execFlags.Args(), " ")

	fmt.Println(router.Handle(context.Background(), *owner, text))
	return nil
}

func runRepl(cfg config.Config, args []string) error {
	replFlags := flag.NewFlagSet("repl", flag.ContinueOnError)
	owner := replFlags.Uint64("owner", 0, "Owner (conversation) id")
	if err := replFlags.Parse(args); err != nil {
		return err
	}

	st, arc, err := openStore(cfg)
	if err != nil {
		return err
	}
	if arc != nil {
		defer arc.Close()
	}

	router := command.NewRouter(st)
	ctx := context.Background()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fmt.Println(router.Handle(ctx, *owner, line))
	}
	return scanner.Err()
}

func runListTasks(cfg config.Config, args []string) error {
	listFlags := flag.NewFlagSet("list-tasks", flag.ContinueOnError)
	owner := listFlags.Uint64("owner", 0, "Owner (conversation) id")
	scope := listFlags.String("scope", "all", "One of all, active, agenda")
	if err := listFlags.Parse(args); err != nil {
		return err
	}

	st, err := store.Load(cfg.SnapshotPath, cfg.StrictLoad)
	if err != nil {
		return err
	}
	st.SetWindow(store.WindowMode(cfg.AgendaWindow))

	var tasks []models.Task
	switch *scope {
	case "all":
		tasks = st.ListOwnerAll(*owner)
	case "active":
		tasks = st.ListOwnerActive(*owner)
	case "agenda":
		tasks = st.ListOwnerAgenda(*owner)
	default:
		return fmt.Errorf("unknown scope: %s", *scope)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	fmt.Printf("%-6s %-30s %-8s %-12s\n", "ID", "TITLE", "STATE", "DEADLINE")
	fmt.Println("------------------------------------------------------------")
	for _, t := range tasks {
		deadline := "None"
		if t.DueDate != nil {
			deadline = *t.DueDate
		}
		fmt.Printf("%-6d %-30s %-8s %-12s\n", t.ID, t.Title, t.State, deadline)
	}
	return nil
}

func runStatus(cfg config.Config, args []string) error {
	st, err := store.Load(cfg.SnapshotPath, cfg.StrictLoad)
	if err != nil {
		return err
	}

	fmt.Println("Taskbot Status")
	fmt.Println("==============")
	fmt.Printf("Tasks:   %d\n", st.Len())
	fmt.Printf("Next id: %d\n", st.NextID())

	if !cfg.ArchiveEnabled {
		return nil
	}

	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer arc.Close()

	latest, err := arc.Latest(context.Background())
	if err != nil {
		return err
	}
	if latest != nil {
		fmt.Printf("Last archived snapshot: %s (%d tasks, %s)\n",
			latest.ID, latest.TaskCount, latest.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runHistory(cfg config.Config, args []string) error {
	histFlags := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := histFlags.Int("limit", 20, "Maximum entries to show (0 for all)")
	if err := histFlags.Parse(args); err != nil {
		return err
	}

	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer arc.Close()

	entries, err := arc.List(context.Background(), *limit)
	if err != nil {
		return err
	}

	fmt.Printf("%-36s %-25s %-6s\n", "ID", "CREATED", "TASKS")
	fmt.Println("----------------------------------------------------------------------")
	for _, e := range entries {
		fmt.Printf("%-36s %-25s %-6d\n", e.ID, e.CreatedAt.Format(time.RFC3339), e.TaskCount)
	}
	return nil
}

func runRestore(cfg config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("restore needs an archive entry id (see 'taskbot history')")
	}
	entryID := args[0]

	arc, err := archive.Open(cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer arc.Close()

	payload, err := arc.Get(context.Background(), entryID)
	if err != nil {
		return err
	}
	if payload == nil {
		return fmt.Errorf("archive entry not found: %s", entryID)
	}

	st, err := store.Deserialize(payload)
	if err != nil {
		return err
	}
	if err := st.Save(cfg.SnapshotPath, cfg.SaveRetries); err != nil {
		return err
	}

	fmt.Printf("✓ Restored %d tasks to %s\n", st.Len(), cfg.SnapshotPath)
	return nil
}
