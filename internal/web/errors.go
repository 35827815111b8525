package web

// errors.go turns errors into HTTP responses.
//
// The technical error is logged with the request id; the client gets the
// user-facing message from core.MapError, as JSON for /api routes and as an
// HTML fragment for the report page.

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/datops/internal/core"
	"github.com/JonMunkholm/datops/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user-facing form. The status is
// derived from the error's code.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	if errors.Is(err, errInvalidBody) {
		msg = core.UserMessage{
			Message: "The request body is not valid JSON for this endpoint",
			Action:  "Check field names and types",
			Code:    "REQ001",
		}
	}
	status := statusFor(msg.Code)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   err.Error(),
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
	}
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code string) int {
	switch code {
	case "FILE001":
		return http.StatusNotFound
	case "FILE003":
		return http.StatusConflict
	case "FILE004":
		return http.StatusForbidden
	case "RATE001":
		return http.StatusTooManyRequests
	case "ERR001":
		return http.StatusGatewayTimeout
	case "ENC001", "SCH001", "HDR001", "FILE002":
		return http.StatusUnprocessableEntity
	case "ERR000", "ERR002", "DB001", "DB002":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
