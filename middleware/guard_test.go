package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	authcore "github.com/nexlify/authcore"
)

type staticUserProvider struct {
	mu    sync.Mutex
	users map[string]authcore.UserRecord
}

func (p *staticUserProvider) GetUserByID(_ context.Context, userID string) (authcore.UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.users[userID]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return u, nil
}

func (p *staticUserProvider) TouchLastActive(context.Context, string) error { return nil }

func newTestSetup(t *testing.T) (*authcore.Engine, *staticUserProvider, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	up := &staticUserProvider{users: map[string]authcore.UserRecord{
		"user-1": {ID: "user-1", Role: "member"},
	}}

	cfg := authcore.DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("guard-test-key-0123456789abcdef!")

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(up).
		Build()
	require.NoError(t, err)

	return engine, up, mr
}

func protectedHandler(t *testing.T, gotIdentity **authcore.Identity) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		*gotIdentity = id
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuardAllowsValidToken(t *testing.T) {
	engine, _, _ := newTestSetup(t)

	pair, err := engine.Issue(context.Background(), authcore.UserRecord{ID: "user-1", Role: "member"})
	require.NoError(t, err)

	var identity *authcore.Identity
	handler := Guard(engine)(protectedHandler(t, &identity))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, identity)
	require.Equal(t, "user-1", identity.UserID)
	require.Equal(t, pair.AccessToken, identity.Token)
}

func TestGuardRejectsMissingOrBadHeader(t *testing.T) {
	engine, _, _ := newTestSetup(t)
	handler := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer ", "Basic dXNlcg==", "token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestGuardRejectsInvalidToken(t *testing.T) {
	engine, _, _ := newTestSetup(t)
	handler := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.real.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuardLockedAccountAnswers423(t *testing.T) {
	engine, up, _ := newTestSetup(t)

	pair, err := engine.Issue(context.Background(), authcore.UserRecord{ID: "user-1", Role: "member"})
	require.NoError(t, err)

	up.mu.Lock()
	up.users["user-1"] = authcore.UserRecord{
		ID:        "user-1",
		Role:      "member",
		Locked:    true,
		LockUntil: time.Now().Add(time.Hour),
	}
	up.mu.Unlock()

	handler := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusLocked, rec.Code)
}

func TestGuardStoreOutageAnswers503(t *testing.T) {
	engine, _, mr := newTestSetup(t)

	pair, err := engine.Issue(context.Background(), authcore.UserRecord{ID: "user-1", Role: "member"})
	require.NoError(t, err)

	mr.Close()

	handler := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc123")
	require.True(t, ok)
	require.Equal(t, "abc123", token)

	_, ok = bearerToken("bearer abc123")
	require.False(t, ok)
	_, ok = bearerToken("Bearer ")
	require.False(t, ok)
	_, ok = bearerToken("")
	require.False(t, ok)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:53421"
	require.Equal(t, "192.0.2.10", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 70.41.3.18")
	require.Equal(t, "203.0.113.5", clientIP(req))
}
