package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(store session.Store, signer *session.Signer) *gin.Engine {
	r := gin.New()
	auth := r.Group("/", SessionAuth(store, signer))
	auth.GET("/me", func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"name": actor.Name, "session": CurrentSessionID(c)})
	})
	auth.GET("/admin", RequireRole("manager"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func signedSession(t *testing.T, store session.Store, signer *session.Signer, role string) string {
	sess := session.New(1, "Zeynep", role)
	require.NoError(t, store.Create(context.Background(), sess))
	token, err := signer.Sign(sess)
	require.NoError(t, err)
	return token
}

func TestSessionAuthAcceptsCookieAndBearer(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	signer := session.NewSigner("test-secret-0123456789", time.Hour)
	r := newAuthRouter(store, signer)
	token := signedSession(t, store, signer, "waiter")

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Zeynep")

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionAuthRejectsMissingAndEndedSessions(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	signer := session.NewSigner("test-secret-0123456789", time.Hour)
	r := newAuthRouter(store, signer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := signedSession(t, store, signer, "waiter")
	claims, err := signer.Parse(token)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), claims.SessionID()))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	signer := session.NewSigner("test-secret-0123456789", time.Hour)
	r := newAuthRouter(store, signer)

	for role, want := range map[string]int{"waiter": http.StatusForbidden, "manager": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signedSession(t, store, signer, role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewStrictRateLimiter(2)
	r := gin.New()
	r.POST("/login", rl.RateLimit(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestCORSEchoesOriginForWildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares("*"))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://pos.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://pos.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		r := gin.New()
		r.Use(SecurityHeaders(hsts))
		r.GET("/menu", func(c *gin.Context) { c.Status(http.StatusOK) })
		r.GET("/admin/reports/pdf", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menu", nil))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
		assert.Equal(t, hsts, w.Header().Get("Strict-Transport-Security") != "")

		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/reports/pdf", nil))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	}
}
