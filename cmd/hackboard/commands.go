package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	serveradapter "github.com/hylla/hackboard/internal/adapters/server"
	servercommon "github.com/hylla/hackboard/internal/adapters/server/common"
	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/domain"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "serve", func(rt *cliRuntime) error {
				cfg := serveradapter.Config{
					HTTPBind:      rt.cfg.Server.HTTPBind,
					APIEndpoint:   rt.cfg.Server.APIEndpoint,
					MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
					ServerName:    rt.appName,
					ServerVersion: version,
				}
				if cmd.Flags().Changed("http") {
					cfg.HTTPBind = httpBind
				}
				if cmd.Flags().Changed("api-endpoint") {
					cfg.APIEndpoint = apiEndpoint
				}
				if cmd.Flags().Changed("mcp-endpoint") {
					cfg.MCPEndpoint = mcpEndpoint
				}

				adapter := servercommon.NewAppServiceAdapter(rt.svc)
				return serveCommandRunner(cmd.Context(), cfg, serveradapter.Dependencies{
					Board:  adapter,
					Teams:  adapter,
					Logger: rt.logger.HTTPLogger(),
				})
			})
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "127.0.0.1:8080", "HTTP listen address")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "/api/v1", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "/mcp", "MCP streamable HTTP endpoint")
	return cmd
}

func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and log locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo team, roster, and board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "seed", func(rt *cliRuntime) error {
				team, err := rt.svc.SeedDemo(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded team %s (%s)\n", team.Name, team.ID)
				return nil
			})
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of every team and board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "export", func(rt *cliRuntime) error {
				return runExport(cmd.Context(), rt.svc, outPath, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

func newImportCommand(opts *rootOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a JSON snapshot produced by export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			return withRuntime(cmd.Context(), opts, "import", func(rt *cliRuntime) error {
				content, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read import file: %w", err)
				}
				var snap app.Snapshot
				if err := json.Unmarshal(content, &snap); err != nil {
					return fmt.Errorf("decode snapshot json: %w", err)
				}
				if err := rt.svc.ImportSnapshot(cmd.Context(), snap); err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d teams, %d tasks\n", len(snap.Teams), len(snap.Tasks))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var (
		team   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print board counts for a team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "stats", func(rt *cliRuntime) error {
				resolved, err := resolveTeam(cmd.Context(), rt, team)
				if err != nil {
					return err
				}
				stats, err := rt.svc.BoardStats(cmd.Context(), resolved.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(servercommon.StatsView{
						Total:      stats.Total,
						Todo:       stats.Todo,
						InProgress: stats.InProgress,
						Done:       stats.Done,
						Overdue:    stats.Overdue,
					})
				}
				_, _ = fmt.Fprintf(out, "team: %s\n", resolved.Name)
				_, _ = fmt.Fprintf(out, "total: %d\ntodo: %d\nin_progress: %d\ndone: %d\noverdue: %d\n",
					stats.Total, stats.Todo, stats.InProgress, stats.Done, stats.Overdue)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team id, slug, or name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTaskCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and move board tasks",
	}
	cmd.AddCommand(newTaskAddCommand(opts), newTaskMoveCommand(opts))
	return cmd
}

func newTaskAddCommand(opts *rootOptions) *cobra.Command {
	var team, assignee, priority, deadline, description, actor string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Append a task to the To Do column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedDeadline, err := domain.ParseDeadline(deadline)
			if err != nil {
				return fmt.Errorf("--deadline must be %s: %w", domain.DeadlineLayout, err)
			}
			return withRuntime(cmd.Context(), opts, "task add", func(rt *cliRuntime) error {
				resolved, err := resolveTeam(cmd.Context(), rt, team)
				if err != nil {
					return err
				}
				task, err := rt.svc.CreateTask(cmd.Context(), app.CreateTaskInput{
					TeamID:      resolved.ID,
					Title:       args[0],
					Description: description,
					AssigneeID:  assignee,
					Priority:    domain.Priority(strings.ToLower(strings.TrimSpace(priority))),
					Deadline:    parsedDeadline,
					CreatedBy:   actor,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created task %s in %s at %d\n", task.ID, task.Status, task.Position)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&team, "team", "", "team id, slug, or name")
	flags.StringVar(&assignee, "assignee", "", "member id of the assignee")
	flags.StringVar(&priority, "priority", string(domain.PriorityMedium), "low, medium, or high")
	flags.StringVar(&deadline, "deadline", "", "deadline date ("+domain.DeadlineLayout+")")
	flags.StringVar(&description, "description", "", "task description")
	flags.StringVar(&actor, "actor", "", "member id recorded as creator (defaults to identity.actor_id)")
	_ = cmd.MarkFlagRequired("assignee")
	return cmd
}

func newTaskMoveCommand(opts *rootOptions) *cobra.Command {
	var from, to, actor string
	var fromIndex, toIndex int
	cmd := &cobra.Command{
		Use:   "move <task-id>",
		Short: "Move a task to a column and index",
		Long:  "Move a task to --to at --index. Passing --from and --from-index makes the move fail when the task is no longer at that location.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toStatus, err := domain.ParseStatus(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			dest := domain.Location{Column: toStatus, Index: toIndex}
			if toIndex < 0 {
				dest.Index = math.MaxInt
			}
			explicitSource := cmd.Flags().Changed("from") || cmd.Flags().Changed("from-index")
			var source domain.Location
			if explicitSource {
				if !cmd.Flags().Changed("from") || !cmd.Flags().Changed("from-index") {
					return errors.New("--from and --from-index must be passed together")
				}
				fromStatus, err := domain.ParseStatus(from)
				if err != nil {
					return fmt.Errorf("--from: %w", err)
				}
				source = domain.Location{Column: fromStatus, Index: fromIndex}
			}

			return withRuntime(cmd.Context(), opts, "task move", func(rt *cliRuntime) error {
				var (
					task domain.Task
					err  error
				)
				if explicitSource {
					task, err = rt.svc.MoveTask(cmd.Context(), app.MoveTaskInput{TaskID: args[0], From: source, To: dest, Actor: actor})
				} else {
					task, err = rt.svc.MoveTaskTo(cmd.Context(), args[0], dest, actor)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "task %s now in %s at %d\n", task.ID, task.Status, task.Position)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&to, "to", "", "destination column (todo, inprogress, done)")
	flags.IntVar(&toIndex, "index", -1, "destination index (negative appends)")
	flags.StringVar(&from, "from", "", "expected source column")
	flags.IntVar(&fromIndex, "from-index", 0, "expected source index")
	flags.StringVar(&actor, "actor", "", "member id recorded on the move")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTeamCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "team",
		Short: "List, create, and edit teams",
	}
	cmd.AddCommand(
		newTeamListCommand(opts),
		newTeamAddCommand(opts),
		newTeamUpdateCommand(opts),
		newTeamRestyleCommand(opts),
	)
	return cmd
}

func newTeamListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "team list", func(rt *cliRuntime) error {
				teams, err := rt.svc.ListTeams(cmd.Context())
				if err != nil {
					return err
				}
				if len(teams) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no teams")
					return nil
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTeamTable(teams))
				return nil
			})
		},
	}
}

func renderTeamTable(teams []domain.Team) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SLUG", "NAME", "STATE", "HACKATHON")
	for _, team := range teams {
		t.Row(team.ID, team.Slug, team.Name, string(team.State), team.Hackathon)
	}
	return t.String()
}

func newTeamAddCommand(opts *rootOptions) *cobra.Command {
	var description, hackathon, leader, state string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a team with an empty board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "team add", func(rt *cliRuntime) error {
				team, err := rt.svc.CreateTeam(cmd.Context(), app.CreateTeamInput{
					Name:        args[0],
					Description: description,
					Hackathon:   hackathon,
					LeaderID:    leader,
					State:       domain.TeamState(strings.ToLower(strings.TrimSpace(state))),
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created team %s (%s)\n", team.Name, team.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&description, "description", "", "team description")
	flags.StringVar(&hackathon, "hackathon", "", "hackathon name")
	flags.StringVar(&leader, "leader", "", "member id of the team leader")
	flags.StringVar(&state, "state", string(domain.TeamStateRecruiting), "active or recruiting")
	return cmd
}

func newActivityCommand(opts *rootOptions) *cobra.Command {
	var (
		team  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print recent board changes for a team, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("--limit must be >= 0")
			}
			return withRuntime(cmd.Context(), opts, "activity", func(rt *cliRuntime) error {
				resolved, err := resolveTeam(cmd.Context(), rt, team)
				if err != nil {
					return err
				}
				events, err := rt.svc.ListTeamActivity(cmd.Context(), resolved.ID, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					_, _ = fmt.Fprintln(out, "no activity")
					return nil
				}
				for _, event := range events {
					actor := event.ActorID
					if actor == "" {
						actor = "-"
					}
					_, _ = fmt.Fprintf(out, "%s  %-8s %s by %s\n", event.OccurredAt.UTC().Format("2006-01-02 15:04:05"), event.Operation, event.TaskID, actor)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team id, slug, or name")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum events to print")
	return cmd
}
