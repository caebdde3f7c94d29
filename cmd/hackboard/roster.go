package main

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/hylla/hackboard/internal/app"
	"github.com/hylla/hackboard/internal/config"
	"github.com/hylla/hackboard/internal/domain"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file and make sure one team exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := opts.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch err := config.Write(paths.ConfigPath, config.Default(paths.DBPath), force); {
			case errors.Is(err, config.ErrConfigExists):
				_, _ = fmt.Fprintf(out, "config kept: %s\n", paths.ConfigPath)
			case err != nil:
				return fmt.Errorf("write config: %w", err)
			default:
				_, _ = fmt.Fprintf(out, "config written: %s\n", paths.ConfigPath)
			}
			return withRuntime(cmd.Context(), opts, "init", func(rt *cliRuntime) error {
				team, err := rt.svc.EnsureDefaultTeam(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "team: %s (%s)\n", team.Name, team.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newTeamUpdateCommand(opts *rootOptions) *cobra.Command {
	var name, description, hackathon, state string
	cmd := &cobra.Command{
		Use:   "update <team>",
		Short: "Edit team details; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "team update", func(rt *cliRuntime) error {
				team, err := resolveTeam(cmd.Context(), rt, args[0])
				if err != nil {
					return err
				}
				in := app.UpdateTeamInput{
					TeamID:      team.ID,
					Name:        team.Name,
					Description: team.Description,
					Hackathon:   team.Hackathon,
					State:       team.State,
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					in.Name = name
				}
				if flags.Changed("description") {
					in.Description = description
				}
				if flags.Changed("hackathon") {
					in.Hackathon = hackathon
				}
				if flags.Changed("state") {
					in.State = domain.TeamState(strings.ToLower(strings.TrimSpace(state)))
				}
				updated, err := rt.svc.UpdateTeam(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated team %s (%s) %s\n", updated.Name, updated.Slug, updated.State)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "team name")
	flags.StringVar(&description, "description", "", "team description")
	flags.StringVar(&hackathon, "hackathon", "", "hackathon name")
	flags.StringVar(&state, "state", "", "active or recruiting")
	return cmd
}

func newTeamRestyleCommand(opts *rootOptions) *cobra.Command {
	var title, color string
	cmd := &cobra.Command{
		Use:   "restyle <team> <column>",
		Short: "Change a column title and border color",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), opts, "team restyle", func(rt *cliRuntime) error {
				team, err := resolveTeam(cmd.Context(), rt, args[0])
				if err != nil {
					return err
				}
				column, err := rt.svc.RestyleColumn(cmd.Context(), team.ID, status, title, color)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "column %s: %s %s\n", column.ID, column.Title, column.Color)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "column title")
	cmd.Flags().StringVar(&color, "color", "", "border color class, hex, or ANSI index")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newMemberCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage members and team rosters",
	}
	cmd.AddCommand(
		newMemberListCommand(opts),
		newMemberAddCommand(opts),
		newMemberUpdateCommand(opts),
		newMemberJoinCommand(opts),
		newMemberLeaveCommand(opts),
	)
	return cmd
}

func newMemberListCommand(opts *rootOptions) *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all members, or one team roster with --team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), opts, "member list", func(rt *cliRuntime) error {
				var (
					members []domain.Member
					err     error
				)
				if strings.TrimSpace(team) == "" {
					members, err = rt.svc.ListMembers(cmd.Context())
				} else {
					resolved, resolveErr := resolveTeam(cmd.Context(), rt, team)
					if resolveErr != nil {
						return resolveErr
					}
					members, err = rt.svc.ListTeamMembers(cmd.Context(), resolved.ID)
				}
				if err != nil {
					return err
				}
				if len(members) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no members")
					return nil
				}
				t := table.New().Border(lipgloss.NormalBorder()).Headers("ID", "NAME", "ROLE")
				for _, m := range members {
					t.Row(m.ID, m.Name, m.Role)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team id, slug, or name")
	return cmd
}

func newMemberAddCommand(opts *rootOptions) *cobra.Command {
	var id, role, avatar, team string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a member, optionally joining a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "member add", func(rt *cliRuntime) error {
				member, err := rt.svc.CreateMember(cmd.Context(), app.CreateMemberInput{
					ID:     id,
					Name:   args[0],
					Role:   role,
					Avatar: avatar,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created member %s (%s)\n", member.Name, member.ID)
				if strings.TrimSpace(team) == "" {
					return nil
				}
				return joinTeam(cmd, rt, team, member.ID)
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "member id (generated when empty)")
	flags.StringVar(&role, "role", "", "member role")
	flags.StringVar(&avatar, "avatar", "", "avatar path or emoji")
	flags.StringVar(&team, "team", "", "team to join")
	return cmd
}

func newMemberUpdateCommand(opts *rootOptions) *cobra.Command {
	var name, role, avatar string
	cmd := &cobra.Command{
		Use:   "update <member-id>",
		Short: "Edit roster display data; boards show it on the next read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "member update", func(rt *cliRuntime) error {
				members, err := rt.svc.ListMembers(cmd.Context())
				if err != nil {
					return err
				}
				var current *domain.Member
				for i := range members {
					if members[i].ID == args[0] {
						current = &members[i]
						break
					}
				}
				if current == nil {
					return fmt.Errorf("member %q: %w", args[0], app.ErrNotFound)
				}
				in := app.UpdateMemberInput{MemberID: current.ID, Name: current.Name, Role: current.Role, Avatar: current.Avatar}
				if cmd.Flags().Changed("name") {
					in.Name = name
				}
				if cmd.Flags().Changed("role") {
					in.Role = role
				}
				if cmd.Flags().Changed("avatar") {
					in.Avatar = avatar
				}
				member, err := rt.svc.UpdateMember(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated member %s (%s)\n", member.Name, member.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "member name")
	flags.StringVar(&role, "role", "", "member role")
	flags.StringVar(&avatar, "avatar", "", "avatar path or emoji")
	return cmd
}

func newMemberJoinCommand(opts *rootOptions) *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "join <member-id>",
		Short: "Add a member to a team roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "member join", func(rt *cliRuntime) error {
				return joinTeam(cmd, rt, team, args[0])
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team id, slug, or name")
	return cmd
}

func newMemberLeaveCommand(opts *rootOptions) *cobra.Command {
	var team string
	cmd := &cobra.Command{
		Use:   "leave <member-id>",
		Short: "Remove a member from a team roster; assigned tasks keep their copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), opts, "member leave", func(rt *cliRuntime) error {
				resolved, err := resolveTeam(cmd.Context(), rt, team)
				if err != nil {
					return err
				}
				if err := rt.svc.RemoveTeamMember(cmd.Context(), resolved.ID, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "member %s left %s\n", args[0], resolved.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team id, slug, or name")
	return cmd
}

func joinTeam(cmd *cobra.Command, rt *cliRuntime, team, memberID string) error {
	resolved, err := resolveTeam(cmd.Context(), rt, team)
	if err != nil {
		return err
	}
	if err := rt.svc.AddTeamMember(cmd.Context(), resolved.ID, memberID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "member %s joined %s\n", memberID, resolved.Name)
	return nil
}
