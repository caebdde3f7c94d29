// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/hackboard/internal/adapters/server/common"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board common.BoardService
	teams common.TeamService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter from board and team services.
func NewHandler(board common.BoardService, teams common.TeamService) *Handler {
	return &Handler{
		board: board,
		teams: teams,
	}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	switch {
	case len(parts) == 1 && parts[0] == "teams":
		h.routeTeams(w, r)
	case len(parts) == 1 && parts[0] == "members":
		h.routeMembers(w, r)
	case len(parts) >= 2 && parts[0] == "teams":
		h.routeTeam(w, r, parts[1], parts[2:])
	case len(parts) >= 2 && parts[0] == "tasks":
		h.routeTask(w, r, parts[1], parts[2:])
	default:
		writeNotFound(w)
	}
}

// routeTeams serves `/teams`.
func (h *Handler) routeTeams(w http.ResponseWriter, r *http.Request) {
	if !h.requireTeams(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		teams, err := h.teams.ListTeams(r.Context())
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
	case http.MethodPost:
		var req common.CreateTeamRequest
		if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		team, err := h.teams.CreateTeam(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, team)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// routeMembers serves `/members`.
func (h *Handler) routeMembers(w http.ResponseWriter, r *http.Request) {
	if !h.requireTeams(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		members, err := h.teams.ListMembers(r.Context())
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	case http.MethodPost:
		var req common.CreateMemberRequest
		if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		member, err := h.teams.CreateMember(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, member)
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// routeTeam serves `/teams/{id}` and its sub-resources.
func (h *Handler) routeTeam(w http.ResponseWriter, r *http.Request, teamID string, rest []string) {
	if len(rest) > 1 {
		writeNotFound(w)
		return
	}
	resource := ""
	if len(rest) == 1 {
		resource = rest[0]
	}
	switch resource {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if !h.requireTeams(w) {
			return
		}
		team, err := h.teams.GetTeam(r.Context(), teamID)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	case "members":
		h.handleTeamMembers(w, r, teamID)
	case "board":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if !h.requireBoard(w) {
			return
		}
		board, err := h.board.GetBoard(r.Context(), teamID)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	case "tasks":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleCreateTask(w, r, teamID)
	case "stats":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		if !h.requireBoard(w) {
			return
		}
		stats, err := h.board.BoardStats(r.Context(), teamID)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	case "activity":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		h.handleActivity(w, r, teamID)
	default:
		writeNotFound(w)
	}
}

// handleTeamMembers serves GET|POST `/teams/{id}/members`.
func (h *Handler) handleTeamMembers(w http.ResponseWriter, r *http.Request, teamID string) {
	if !h.requireTeams(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		members, err := h.teams.ListTeamMembers(r.Context(), teamID)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})
	case http.MethodPost:
		var req common.AddTeamMemberRequest
		if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		members, err := h.teams.AddTeamMember(r.Context(), teamID, req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"members": members})
	default:
		writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

// handleCreateTask serves POST `/teams/{id}/tasks`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request, teamID string) {
	if !h.requireBoard(w) {
		return
	}
	var req common.CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	if bodyTeam := strings.TrimSpace(req.TeamID); bodyTeam != "" && bodyTeam != teamID {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: "team_id does not match the request path",
		})
		return
	}
	req.TeamID = teamID
	task, err := h.board.CreateTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// handleActivity serves GET `/teams/{id}/activity`.
func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request, teamID string) {
	if !h.requireBoard(w) {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "limit must be a non-negative integer",
			})
			return
		}
		limit = parsed
	}
	events, err := h.board.ListActivity(r.Context(), teamID, limit)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// routeTask serves `/tasks/{id}` and `/tasks/{id}/move`.
func (h *Handler) routeTask(w http.ResponseWriter, r *http.Request, taskID string, rest []string) {
	if !h.requireBoard(w) {
		return
	}
	switch {
	case len(rest) == 0:
		if r.Method != http.MethodPatch {
			writeMethodNotAllowed(w, http.MethodPatch)
			return
		}
		var req common.UpdateTaskRequest
		if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		req.TaskID = taskID
		task, err := h.board.UpdateTask(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case len(rest) == 1 && rest[0] == "move":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		var req common.MoveTaskRequest
		if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
			writeErrorFrom(w, err)
			return
		}
		req.TaskID = taskID
		task, err := h.board.MoveTask(r.Context(), req)
		if err != nil {
			writeErrorFrom(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	default:
		writeNotFound(w)
	}
}

func (h *Handler) requireBoard(w http.ResponseWriter) bool {
	if h.board != nil {
		return true
	}
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "board service is not configured",
	})
	return false
}

func (h *Handler) requireTeams(w http.ResponseWriter) bool {
	if h.teams != nil {
		return true
	}
	writeJSONError(w, http.StatusServiceUnavailable, APIError{
		Code:    "service_unavailable",
		Message: "team service is not configured",
	})
	return false
}

// splitPath canonicalizes one request path into non-empty segments.
func splitPath(path string) []string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil
		}
	}
	return parts
}

func writeNotFound(w http.ResponseWriter) {
	writeJSONError(w, http.StatusNotFound, APIError{
		Code:    "not_found",
		Message: "endpoint not found",
	})
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrPreconditionFailed):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "precondition_failed",
			Message: err.Error(),
			Hint:    "Reload the board and retry against its current state.",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
