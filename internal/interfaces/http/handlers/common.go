// Package handlers holds the HTTP handlers of the API server. Every handler
// answers JSON except the report download.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/internal/interfaces/http/middleware"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// maxBodyBytes bounds request bodies; answers payloads are a few KB.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAppError maps err to its HTTP status via the error code. Server-side
// failures are logged and masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	msg := strings.TrimPrefix(err.Error(), "["+string(code)+"] ")
	if errors.IsServerError(code) {
		logger.Error("request failed", logging.String("code", string(code)), logging.Err(err))
		msg = errors.DefaultMessageForCode(code)
	}
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: msg})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", tooLarge.Limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeBadRequest, "request body is required")
		default:
			return errors.Wrap(err, errors.ErrCodeBadRequest, "malformed JSON body")
		}
	}
	return nil
}

func actorFrom(r *http.Request) (common.Actor, error) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok || a.ProfileID == "" {
		return common.Actor{}, errors.Unauthorized("identity required")
	}
	return a, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Newf(errors.ErrCodeBadRequest, "invalid %s %q", name, raw)
	}
	return id, nil
}

// intQuery returns the integer query parameter or def when absent or invalid.
func intQuery(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
