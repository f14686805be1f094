package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/auth"
	"github.com/rutacredit/rutacredit/internal/shared"
	_ "github.com/rutacredit/rutacredit/testing"
)

type stubStore struct {
	actor *actors.Actor
}

func (s *stubStore) FindByEmail(ctx context.Context, email string) (actors.Actor, error) {
	if s.actor == nil || s.actor.Email != email {
		return actors.Actor{}, shared.ErrNotFound
	}
	return *s.actor, nil
}

type stubSessions struct {
	created int
	deleted int
}

func (s *stubSessions) CreateSession(ctx context.Context, id string, actorID int64, expiresAt time.Time, ip, ua string) error {
	s.created++
	return nil
}

func (s *stubSessions) DeleteSession(ctx context.Context, id string) error {
	s.deleted++
	return nil
}

func newAuthHandler(t *testing.T, store auth.ActorStore) (*auth.Handler, *shared.SessionManager, *stubSessions) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	sessions := &stubSessions{}
	handler := auth.NewHandler(slog.Default(), auth.NewService(store, sessions), sessionManager, csrfManager)
	return handler, sessionManager, sessions
}

func testActor(t *testing.T, role actors.Role, password string) *actors.Actor {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &actors.Actor{
		ID:             1,
		Email:          "user@test.local",
		PasswordHash:   string(hashed),
		Role:           role,
		ApprovalStatus: actors.ApprovalApproved,
		IsActive:       true,
	}
}

func doLogin(t *testing.T, handler *auth.Handler, sessionManager *shared.SessionManager, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess, err := sessionManager.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	if err := sessionManager.Commit(ctx, res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return res
}

func TestLoginSuccessReturnsCSRFToken(t *testing.T) {
	handler, sessionManager, sessions := newAuthHandler(t, &stubStore{actor: testActor(t, actors.RoleStandardUser, "correctpass")})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var payload struct {
		CSRFToken string `json:"csrf_token"`
		Role      string `json:"role"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.CSRFToken == "" {
		t.Fatalf("expected csrf token in response")
	}
	if payload.Role != string(actors.RoleStandardUser) {
		t.Fatalf("unexpected role %q", payload.Role)
	}
	if sessions.created != 1 {
		t.Fatalf("expected one session record, got %d", sessions.created)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	handler, sessionManager, _ := newAuthHandler(t, &stubStore{actor: testActor(t, actors.RoleStandardUser, "correctpass")})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"wrongpass1"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginCollectorRefused(t *testing.T) {
	handler, sessionManager, _ := newAuthHandler(t, &stubStore{actor: testActor(t, actors.RoleCollector, "correctpass")})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for collector, got %d", res.Code)
	}
}

func TestLoginInactiveActorRefused(t *testing.T) {
	actor := testActor(t, actors.RoleAdmin, "correctpass")
	actor.IsActive = false
	handler, sessionManager, _ := newAuthHandler(t, &stubStore{actor: actor})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive actor, got %d", res.Code)
	}
}

func TestLoginPendingActorAuthenticates(t *testing.T) {
	actor := testActor(t, actors.RoleStandardUser, "correctpass")
	actor.ApprovalStatus = actors.ApprovalPending
	handler, sessionManager, _ := newAuthHandler(t, &stubStore{actor: actor})

	res := doLogin(t, handler, sessionManager, `{"email":"user@test.local","password":"correctpass"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 for pending actor, got %d", res.Code)
	}
	var payload struct {
		ApprovalStatus string `json:"approval_status"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ApprovalStatus != string(actors.ApprovalPending) {
		t.Fatalf("expected pending status, got %q", payload.ApprovalStatus)
	}
}
