package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	serveradapter "github.com/hylla/hackboard/internal/adapters/server"
	"github.com/hylla/hackboard/internal/adapters/storage/rediscache"
	"github.com/hylla/hackboard/internal/adapters/storage/sqlite"
	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/config"
	"github.com/hylla/hackboard/internal/domain"
	"github.com/hylla/hackboard/internal/platform"
	"github.com/hylla/hackboard/internal/tui"
)

var version = "dev"

type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command tree without fang styling.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// rootOptions holds persistent flag values shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	envOpts := platform.OptionsFromEnv(os.Getenv)
	opts := &rootOptions{
		appName: envOpts.AppName,
		devMode: version == "dev",
		stdout:  stdout,
		stderr:  stderr,
	}
	if opts.appName == "" {
		opts.appName = platform.DefaultAppName
	}
	if strings.TrimSpace(os.Getenv(platform.EnvDevMode)) != "" {
		opts.devMode = envOpts.DevMode
	}

	var team string
	root := &cobra.Command{
		Use:           "hackboard",
		Short:         "Task boards for hackathon teams",
		Long:          "hackboard keeps one kanban board per hackathon team. Run without a subcommand to open the terminal board.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, team)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")
	root.Flags().StringVar(&team, "team", "", "team id, slug, or name to open")

	root.AddCommand(
		newServeCommand(opts),
		newPathsCommand(opts),
		newSeedCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newStatsCommand(opts),
		newActivityCommand(opts),
		newTaskCommand(opts),
		newTeamCommand(opts),
		newMemberCommand(opts),
		newInitCommand(opts),
	)
	return root
}

// cliRuntime bundles the resources a command flow needs.
type cliRuntime struct {
	appName    string
	paths      platform.Paths
	configPath string
	cfg        config.Config
	logger     *runtimeLogger
	svc        *app.Service
	closers    []func() error
}

func (o *rootOptions) resolvePaths() (platform.Paths, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: o.appName, DevMode: o.devMode})
	if err != nil {
		return platform.Paths{}, err
	}
	paths = platform.ApplyEnv(paths, os.Getenv)
	if v := strings.TrimSpace(o.configPath); v != "" {
		paths.ConfigPath = v
	}
	if v := strings.TrimSpace(o.dbPath); v != "" {
		paths.DBPath = v
	}
	return paths, nil
}

// openRuntime loads config, builds the logger, and opens storage for one command.
func openRuntime(ctx context.Context, opts *rootOptions, command string) (*cliRuntime, error) {
	paths, err := opts.resolvePaths()
	if err != nil {
		return nil, err
	}
	defaultCfg := config.Default(paths.DBPath)
	cfg, err := config.Load(paths.ConfigPath, defaultCfg)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if strings.TrimSpace(opts.dbPath) != "" || strings.TrimSpace(os.Getenv(platform.EnvDBPath)) != "" {
		cfg.Database.Path = paths.DBPath
	}

	logger, err := newRuntimeLogger(opts.stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	rt := &cliRuntime{
		appName:    opts.appName,
		paths:      paths,
		configPath: paths.ConfigPath,
		cfg:        cfg,
		logger:     logger,
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the board is on screen.
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", paths.ConfigPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	sqliteRepo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	rt.closers = append(rt.closers, sqliteRepo.Close)

	var repo app.Repository = sqliteRepo
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.DB})
		rt.closers = append(rt.closers, client.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis cache unreachable, reads fall through to sqlite", "addr", cfg.Cache.RedisAddr, "err", err)
		}
		cancel()
		repo = rediscache.New(sqliteRepo, client, time.Duration(cfg.Cache.TTL), cfg.Cache.KeyPrefix)
		logger.Info("redis read cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", time.Duration(cfg.Cache.TTL))
	}

	rt.svc = app.NewService(repo, newID, nil, app.ServiceConfig{
		Columns:      cfg.ColumnTemplates(),
		DefaultActor: cfg.Identity.ActorID,
	})
	logger.Debug("application service initialized", "actor", cfg.Identity.ActorID, "columns", len(cfg.Board.Columns))
	return rt, nil
}

// Close releases storage handles in reverse order, then the log file.
func (r *cliRuntime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.logger.Warn("close failed", "err", err)
			errs = append(errs, err)
		}
	}
	errs = append(errs, r.logger.Close())
	return errors.Join(errs...)
}

// withRuntime runs fn against an opened runtime, logging the command flow.
func withRuntime(ctx context.Context, opts *rootOptions, command string, fn func(*cliRuntime) error) error {
	rt, err := openRuntime(ctx, opts, command)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil && rt.logger.shouldLogToSink(rt.logger.consoleSink) {
			_, _ = fmt.Fprintf(opts.stderr, "warning: close runtime: %v\n", closeErr)
		}
	}()

	rt.logger.Info("command flow start", "command", command)
	if err := fn(rt); err != nil {
		rt.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	rt.logger.Info("command flow complete", "command", command)
	return nil
}

func runTUI(ctx context.Context, opts *rootOptions, team string) error {
	return withRuntime(ctx, opts, "tui", func(rt *cliRuntime) error {
		if strings.TrimSpace(team) == "" {
			team = rt.cfg.Board.DefaultTeam
		}
		m := tui.NewModel(rt.svc, tui.WithActor(rt.cfg.Identity.ActorID), tui.WithTeam(team))
		rt.logger.Info("starting tui program loop", "team", team)
		if _, err := programFactory(m).Run(); err != nil {
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// resolveTeam finds a team by id, slug, or case-insensitive name. An empty
// reference falls back to the configured default team, then the first team.
func resolveTeam(ctx context.Context, rt *cliRuntime, ref string) (domain.Team, error) {
	teams, err := rt.svc.ListTeams(ctx)
	if err != nil {
		return domain.Team{}, err
	}
	if len(teams) == 0 {
		return domain.Team{}, errors.New("no teams yet: run hackboard seed or hackboard team add")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = strings.TrimSpace(rt.cfg.Board.DefaultTeam)
	}
	if ref == "" {
		return teams[0], nil
	}
	for _, team := range teams {
		if team.ID == ref || team.Slug == ref || strings.EqualFold(team.Name, ref) {
			return team, nil
		}
	}
	return domain.Team{}, fmt.Errorf("team %q: %w", ref, app.ErrNotFound)
}

// newID returns a time-ordered UUIDv7, falling back to a random UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
