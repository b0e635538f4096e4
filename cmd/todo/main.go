package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"todolist/internal/config"
	"todolist/internal/controller"
	"todolist/internal/logging"
	"todolist/internal/storage"
	"todolist/internal/todo"
	"todolist/internal/ui"
	"todolist/internal/watch"
)

const (
	exitOK        = 0
	exitUserError = 1
	exitStoreErr  = 2
)

// usageError marks failures caused by bad arguments rather than the store.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// app holds what every command needs once config has been loaded.
type app struct {
	configPath string
	dbPath     string
	debug      bool

	cfg    config.Config
	log    *slog.Logger
	logOut io.Closer
	store  *storage.Store
	svc    *todo.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root, a := newRootCmd()
	if err := execute(ctx, root, a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(exitUserError)
		}
		os.Exit(exitStoreErr)
	}
	os.Exit(exitOK)
}

// execute runs root and releases the store and log file however the command ended.
func execute(ctx context.Context, root *cobra.Command, a *app) (err error) {
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "todo",
		Short: "Task lists in the terminal",
		Long: `todo keeps task lists and their tasks in a local SQLite database.

Run without a subcommand to open the interactive list screen. The list and
task subcommands perform the same actions from scripts, addressing lists and
tasks by the row numbers shown by "todo list ls" and "todo task ls".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUI(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/todolist/config.toml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path, overrides db_path from the config")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log at debug level")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})
	root.AddCommand(newListCmd(a), newTaskCmd(a))
	return root, a
}

func (a *app) open() error {
	path := a.configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
	if err != nil {
		return userErrorf("config: %v", err)
	}
	a.log, a.logOut = logger, closer

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.store = store
	a.svc = todo.New(store, logger)
	logger.Debug("opened", "db", cfg.DBPath, "config", path)
	return nil
}

func (a *app) close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
	}
	if a.logOut != nil {
		_ = a.logOut.Close()
		a.logOut = nil
	}
	return err
}

func (a *app) runUI(ctx context.Context) error {
	if a.cfg.Watch {
		w, err := watch.New(a.store.Path(), a.svc.Notify, a.log)
		if err == nil {
			err = w.Start()
			defer w.Stop()
		}
		if err != nil {
			a.log.Warn("change watcher disabled", "err", err)
		}
	}
	if err := ui.Run(ctx, a.svc, a.cfg, a.log); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func (a *app) sortMode(flag string) (controller.SortMode, error) {
	if flag == "" {
		flag = a.cfg.DefaultSort
	}
	mode, err := controller.ParseSortMode(flag)
	if err != nil {
		return mode, userErrorf("%v", err)
	}
	return mode, nil
}
