package access

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/shared"
)

// ActorSource loads the current actor's fresh profile. Implemented by the
// actors service; middleware re-reads the record per request so assignment or
// approval edits apply immediately.
type ActorSource interface {
	Get(ctx context.Context, id int64) (actors.Actor, error)
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor actors.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor placed by RequireSignIn.
func ActorFromContext(ctx context.Context) (actors.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(actors.Actor)
	return actor, ok
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Actors    ActorSource
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// RequireSignIn loads the session actor into the request context. Collectors
// are refused here: they are served through a separate channel and must never
// reach the permission evaluator.
func (m Middleware) RequireSignIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.currentActor(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if actor.Role == actors.RoleCollector {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
	})
}

// RequireApproved rejects actors whose account is not approved. Must run
// inside RequireSignIn.
func (m Middleware) RequireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.Approved() {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole restricts the route to the given roles. Must run inside
// RequireSignIn.
func (m Middleware) RequireRole(roles ...actors.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok || !actor.Approved() {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}

// Require guards a route with a module/action permission check. Must run
// inside RequireSignIn.
func (m Middleware) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			allowed, err := m.Evaluator.CanPerform(r.Context(), actor, module, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission check", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentActor(r *http.Request) (actors.Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return actors.Actor{}, false
	}
	raw := strings.TrimSpace(sess.Actor())
	if raw == "" {
		return actors.Actor{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("parse session actor id", slog.String("value", raw))
		}
		return actors.Actor{}, false
	}
	actor, err := m.Actors.Get(r.Context(), id)
	if err != nil || !actor.IsActive {
		return actors.Actor{}, false
	}
	return actor, true
}
