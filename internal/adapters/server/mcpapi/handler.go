// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/hackboard/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// columnIDs lists accepted column ids for tool schemas.
var columnIDs = []string{"todo", "inprogress", "done"}

// NewHandler builds one stateless MCP adapter exposing board tools and, when
// available, team listing.
func NewHandler(cfg Config, board common.BoardService, teams common.TeamService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	if teams != nil {
		registerTeamTools(mcpSrv, teams)
	}
	registerBoardTools(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "hackboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerTeamTools registers the `hackboard.list_teams` tool.
func registerTeamTools(srv *mcpserver.MCPServer, teams common.TeamService) {
	srv.AddTool(
		mcp.NewTool(
			"hackboard.list_teams",
			mcp.WithDescription("List every team with its id, name and recruiting state."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rows, err := teams.ListTeams(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"teams": rows,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_teams result: %w", err)
			}
			return result, nil
		},
	)
}

// registerBoardTools registers board read and mutation tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"hackboard.get_board",
			mcp.WithDescription("Return one team board: columns in order, tasks in column order, and counters."),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("Team identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			teamID, err := req.RequireString("team_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := board.GetBoard(ctx, teamID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(view)
			if err != nil {
				return nil, fmt.Errorf("encode get_board result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hackboard.create_task",
			mcp.WithDescription("Create a task at the end of the To Do column."),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("Team identifier")),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("assignee_id", mcp.Required(), mcp.Description("Roster member id")),
			mcp.WithString("description", mcp.Description("Task description")),
			mcp.WithString("priority", mcp.Description("Task priority"), mcp.Enum("low", "medium", "high")),
			mcp.WithString("deadline", mcp.Description("Deadline as YYYY-MM-DD")),
			mcp.WithString("created_by", mcp.Description("Acting member id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			teamID, err := req.RequireString("team_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			assigneeID, err := req.RequireString("assignee_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := board.CreateTask(ctx, common.CreateTaskRequest{
				TeamID:      teamID,
				Title:       title,
				AssigneeID:  assigneeID,
				Description: req.GetString("description", ""),
				Priority:    req.GetString("priority", ""),
				Deadline:    req.GetString("deadline", ""),
				CreatedBy:   req.GetString("created_by", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hackboard.move_task",
			mcp.WithDescription("Move a task to a column and index. Pass from_column and from_index to assert the current location."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("to_column", mcp.Required(), mcp.Description("Destination column"), mcp.Enum(columnIDs...)),
			mcp.WithNumber("to_index", mcp.Required(), mcp.Description("Destination index; clamped to the column length")),
			mcp.WithString("from_column", mcp.Description("Source column"), mcp.Enum(columnIDs...)),
			mcp.WithNumber("from_index", mcp.Description("Source index, required with from_column")),
			mcp.WithString("actor", mcp.Description("Acting member id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toColumn, err := req.RequireString("to_column")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			toIndex, err := req.RequireInt("to_index")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			move := common.MoveTaskRequest{
				TaskID:   taskID,
				ToColumn: toColumn,
				ToIndex:  toIndex,
				Actor:    req.GetString("actor", ""),
			}
			if fromColumn := req.GetString("from_column", ""); fromColumn != "" {
				fromIndex, err := req.RequireInt("from_index")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				move.FromColumn = fromColumn
				move.FromIndex = &fromIndex
			}
			task, err := board.MoveTask(ctx, move)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(task)
			if err != nil {
				return nil, fmt.Errorf("encode move_task result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hackboard.board_stats",
			mcp.WithDescription("Return total, per-column and overdue task counts for one team."),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("Team identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			teamID, err := req.RequireString("team_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			stats, err := board.BoardStats(ctx, teamID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(stats)
			if err != nil {
				return nil, fmt.Errorf("encode board_stats result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"hackboard.list_activity",
			mcp.WithDescription("List recent task activity for one team, newest first."),
			mcp.WithString("team_id", mcp.Required(), mcp.Description("Team identifier")),
			mcp.WithNumber("limit", mcp.Description("Maximum rows to return")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			teamID, err := req.RequireString("team_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			events, err := board.ListActivity(ctx, teamID, req.GetInt("limit", 25))
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"events": events,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_activity result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrPreconditionFailed):
		return mcp.NewToolResultError("precondition_failed: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
