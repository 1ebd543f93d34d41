package api

import (
	"net/http"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/entity"

	"github.com/stretchr/testify/require"
)

// sessionTokenFor 用与服务端相同的密钥签发会话令牌，便于构造边界用例。
func sessionTokenFor(t *testing.T, env *testEnv, user *entity.User, sessionExpiry time.Duration) string {
	t.Helper()
	manager, err := auth.NewManager(env.cfg.JWTSecret, env.cfg.JWTIssuer, sessionExpiry, time.Minute)
	require.NoError(t, err)
	token, _, err := manager.GenerateSessionToken(user)
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.jsonRequest(t, http.MethodGet, "/api/auth/me", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, ErrCodeUnauthorized, decodeAPIError(t, w).Code)
}

func TestAuthMiddlewareRejectsMalformedToken(t *testing.T) {
	env := newTestEnv(t)

	cookie := &http.Cookie{Name: env.cfg.CookieName, Value: "not-a-jwt"}
	w := env.jsonRequest(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, ErrCodeUnauthorized, decodeAPIError(t, w).Code)
}

func TestAuthMiddlewareReportsExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "expired@example.com", "password123", entity.RoleUser, true)

	token := sessionTokenFor(t, env, user, time.Nanosecond)
	time.Sleep(10 * time.Millisecond)

	cookie := &http.Cookie{Name: env.cfg.CookieName, Value: token}
	w := env.jsonRequest(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, ErrCodeSessionExpired, decodeAPIError(t, w).Code)
}

func TestAuthMiddlewareRejectsDeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "inactive@example.com", "password123", entity.RoleUser, false)

	// 签名仍然有效，但账户已停用
	token := sessionTokenFor(t, env, user, time.Hour)
	cookie := &http.Cookie{Name: env.cfg.CookieName, Value: token}
	w := env.jsonRequest(t, http.MethodGet, "/api/auth/me", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, ErrCodeUserNotFound, decodeAPIError(t, w).Code)
}

func TestAuthMiddlewareAcceptsBearerHeader(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "bearer@example.com", "password123", entity.RoleUser, true)

	token := sessionTokenFor(t, env, user, time.Hour)
	req, w := env.newRequest(t, http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestOptionalAuthMiddlewarePassesAnonymous(t *testing.T) {
	env := newTestEnv(t)

	w := env.jsonRequest(t, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdminForbidsRegularUser(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "user@example.com", "password123", entity.RoleUser, true)

	cookie := env.login(t, "user@example.com", "password123")
	w := env.jsonRequest(t, http.MethodGet, "/api/admin/users", nil, cookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, ErrCodeForbidden, decodeAPIError(t, w).Code)
}

func TestRequireAdminNeedsAuthenticationFirst(t *testing.T) {
	env := newTestEnv(t)

	w := env.jsonRequest(t, http.MethodGet, "/api/admin/users", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
