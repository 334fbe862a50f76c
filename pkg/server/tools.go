package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/oigbridge/oigbridge/pkg/log"
	"github.com/oigbridge/oigbridge/pkg/oig"
	"github.com/oigbridge/oigbridge/pkg/security"
	"github.com/oigbridge/oigbridge/pkg/session"
	"github.com/oigbridge/oigbridge/pkg/transform"
)

const (
	whitelistDeniedMsg = "Authorization denied: User not on whitelist."
	readonlyDeniedMsg  = "Action denied. Server is in readonly mode. Set 'X-OIG-Readonly-Access: false' header to allow actions."
	authFailedMsg      = "Authentication failed with OIG Cloud."
)

func errorResult(msg string) map[string]any {
	return map[string]any{"status": "error", "message": msg}
}

// sessionPreview shortens a session id for the response envelope so the
// full id never leaves the server.
func sessionPreview(id string) string {
	if id == "" {
		return "(unknown)"
	}
	head := id
	if len(head) > 4 {
		head = head[:4]
	}
	tail := id
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return head + "..." + tail
}

func stringArg(args map[string]any, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intArg(args map[string]any, name string) (int, bool) {
	v, ok := args[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("tool")
	ctx := log.With(r.Context(), log.Ctx(r.Context()).With(slog.String("tool", name)))
	r = r.WithContext(ctx)

	// Limit body size to 1MB to prevent DoS
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1048576))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read request body", slog.Any("error", err))
		writeJSONError(w, "invalid request", http.StatusBadRequest)
		return
	}
	args := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeJSONError(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	var result map[string]any
	switch name {
	case "get_basic_data":
		result = s.toolGetBasicData(r)
	case "get_extended_data":
		startDate, ok := stringArg(args, "start_date")
		if !ok {
			writeJSONError(w, "missing required parameter: start_date", http.StatusBadRequest)
			return
		}
		endDate, ok := stringArg(args, "end_date")
		if !ok {
			writeJSONError(w, "missing required parameter: end_date", http.StatusBadRequest)
			return
		}
		result = s.toolGetExtendedData(r, startDate, endDate)
	case "get_notifications":
		result = s.toolGetNotifications(r)
	case "set_box_mode":
		mode, ok := stringArg(args, "mode")
		if !ok {
			writeJSONError(w, "missing required parameter: mode", http.StatusBadRequest)
			return
		}
		result = s.toolSetBoxMode(r, mode)
	case "set_grid_delivery":
		mode, ok := intArg(args, "mode")
		if !ok {
			writeJSONError(w, "missing required parameter: mode", http.StatusBadRequest)
			return
		}
		result = s.toolSetGridDelivery(r, mode)
	default:
		writeJSONError(w, fmt.Sprintf("tool %q not found", name), http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"output": result}, http.StatusOK)
}

// openSession resolves an authenticated upstream client for the request's
// credentials. The second return is a ready-to-send error result when the
// session could not be established.
func (s *Server) openSession(r *http.Request, email, password string) (oig.Client, session.Status, map[string]any) {
	ctx := r.Context()
	client, status, err := s.cache.GetSession(ctx, email, password, clientIP(r))
	if err != nil {
		var rateLimited *security.RateLimitedError
		switch {
		case errors.As(err, &rateLimited):
			return nil, "", errorResult(rateLimited.Error())
		case errors.Is(err, session.ErrAuthenticationFailed):
			return nil, "", errorResult(authFailedMsg)
		default:
			return nil, "", errorResult(err.Error())
		}
	}
	return client, status, nil
}

// readSession is the shared prologue of the read-only tools: credentials,
// whitelist, then session.
func (s *Server) readSession(r *http.Request) (oig.Client, session.Status, map[string]any) {
	email, password, err := credentialsFromRequest(r)
	if err != nil {
		return nil, "", errorResult(err.Error())
	}
	if !s.whitelist.IsAllowed(email) {
		return nil, "", errorResult(whitelistDeniedMsg)
	}
	return s.openSession(r, email, password)
}

func (s *Server) toolGetBasicData(r *http.Request) map[string]any {
	client, status, errRes := s.readSession(r)
	if errRes != nil {
		return errRes
	}

	liveData, err := client.GetStats(r.Context())
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to fetch data from OIG Cloud: %v", err))
	}

	return map[string]any{
		"status":             "success",
		"cache_status":       status,
		"session_id_preview": sessionPreview(client.SessionID()),
		"data":               transform.Stats(liveData),
	}
}

func (s *Server) toolGetExtendedData(r *http.Request, startDate, endDate string) map[string]any {
	client, status, errRes := s.readSession(r)
	if errRes != nil {
		return errRes
	}

	// the report name for the underlying API is hardcoded to "history"
	liveData, err := client.GetExtendedStats(r.Context(), "history", startDate, endDate)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to fetch historical data from OIG Cloud: %v", err))
	}

	return map[string]any{
		"status":             "success",
		"cache_status":       status,
		"session_id_preview": sessionPreview(client.SessionID()),
		"data":               liveData,
	}
}

func (s *Server) toolGetNotifications(r *http.Request) map[string]any {
	client, status, errRes := s.readSession(r)
	if errRes != nil {
		return errRes
	}

	liveData, err := client.GetNotifications(r.Context())
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to fetch notifications from OIG Cloud: %v", err))
	}

	return map[string]any{
		"status":             "success",
		"cache_status":       status,
		"session_id_preview": sessionPreview(client.SessionID()),
		"data":               liveData,
	}
}

// ensureBoxID fetches stats once when the client hasn't learned its box id
// yet; the write endpoints need it.
func ensureBoxID(r *http.Request, client oig.Client) error {
	if client.BoxID() != "" {
		return nil
	}
	_, err := client.GetStats(r.Context())
	return err
}

func (s *Server) toolSetBoxMode(r *http.Request, mode string) map[string]any {
	email, password, err := credentialsFromRequest(r)
	if err != nil {
		return errorResult(err.Error())
	}
	if isReadonly(r) {
		return errorResult(readonlyDeniedMsg)
	}
	if !s.whitelist.IsAllowed(email) {
		return errorResult(whitelistDeniedMsg)
	}

	client, _, errRes := s.openSession(r, email, password)
	if errRes != nil {
		return errRes
	}

	if err := ensureBoxID(r, client); err != nil {
		return errorResult(fmt.Sprintf("An error occurred while setting box mode: %v", err))
	}

	ok, err := client.SetBoxMode(r.Context(), mode)
	if err != nil {
		return errorResult(fmt.Sprintf("An error occurred while setting box mode: %v", err))
	}
	if !ok {
		return errorResult("API call succeeded but failed to set box mode.")
	}
	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Box mode successfully set to '%s'.", mode),
	}
}

func (s *Server) toolSetGridDelivery(r *http.Request, mode int) map[string]any {
	email, password, err := credentialsFromRequest(r)
	if err != nil {
		return errorResult(err.Error())
	}
	if isReadonly(r) {
		return errorResult(readonlyDeniedMsg)
	}
	if !s.whitelist.IsAllowed(email) {
		return errorResult(whitelistDeniedMsg)
	}

	client, _, errRes := s.openSession(r, email, password)
	if errRes != nil {
		return errRes
	}

	if err := ensureBoxID(r, client); err != nil {
		return errorResult(fmt.Sprintf("An error occurred while setting grid delivery mode: %v", err))
	}

	ok, err := client.SetGridDelivery(r.Context(), mode)
	if err != nil {
		return errorResult(fmt.Sprintf("An error occurred while setting grid delivery mode: %v", err))
	}
	if !ok {
		return errorResult("API call succeeded but failed to set grid delivery mode.")
	}
	return map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Grid delivery mode successfully set to '%d'.", mode),
	}
}
