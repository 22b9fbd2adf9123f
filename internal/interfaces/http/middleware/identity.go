package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/turtacn/SIMPLE/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SIMPLE/pkg/errors"
	"github.com/turtacn/SIMPLE/pkg/types/common"
)

// Headers set by the trusted gateway in front of the API.
const (
	HeaderProfileID = "X-Profile-ID"
	HeaderRole      = "X-Profile-Role"
)

type actorContextKey struct{}

// profileIDPattern accepts opaque gateway identifiers: 1-128 characters of
// letters, digits and "._:@-".
var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:@-]{1,128}$`)

// IdentityConfig controls Identity.
type IdentityConfig struct {
	// SkipPaths bypass the check entirely.
	SkipPaths []string
	// Optional lets anonymous requests through with an empty actor.
	Optional bool
}

// Identity resolves the caller from the gateway headers and stores a
// common.Actor in the request context. Missing or malformed identity yields
// 401 unless cfg.Optional is set; an unknown role yields 403.
func Identity(cfg IdentityConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			id := strings.TrimSpace(r.Header.Get(HeaderProfileID))
			if id == "" {
				if cfg.Optional {
					next.ServeHTTP(w, r)
					return
				}
				writeMiddlewareError(w, errors.ErrCodeUnauthorized, "missing "+HeaderProfileID+" header")
				return
			}
			if !profileIDPattern.MatchString(id) {
				logger.Warn("rejected malformed profile id", logging.String("path", r.URL.Path))
				writeMiddlewareError(w, errors.ErrCodeUnauthorized, "malformed "+HeaderProfileID+" header")
				return
			}

			role, ok := parseRole(r.Header.Get(HeaderRole))
			if !ok {
				writeMiddlewareError(w, errors.ErrCodeForbidden, "unknown role")
				return
			}

			actor := common.Actor{ProfileID: common.ProfileID(id), Role: role}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func parseRole(s string) (common.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(common.RoleUser):
		return common.RoleUser, true
	case string(common.RoleAdmin):
		return common.RoleAdmin, true
	default:
		return "", false
	}
}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor common.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the actor stored by Identity.
func ActorFromContext(ctx context.Context) (common.Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(common.Actor)
	return a, ok
}

// ContextGetProfileID returns the caller's profile id or "".
func ContextGetProfileID(ctx context.Context) string {
	a, _ := ActorFromContext(ctx)
	return string(a.ProfileID)
}

// writeMiddlewareError mirrors the handlers' error body.
func writeMiddlewareError(w http.ResponseWriter, code errors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errors.HTTPStatusForCode(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(code),
		"message": message,
	})
}
