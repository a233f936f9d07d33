// Package resttest wires handlers behind the device middleware for tests.
package resttest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/seoscribe/dashboard/internal/auth"
	"codeberg.org/seoscribe/dashboard/seoscribe/devices"
	"codeberg.org/seoscribe/dashboard/seoscribe/entitlements"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles"
	"codeberg.org/seoscribe/dashboard/seoscribe/profiles/profilestest"
	"codeberg.org/seoscribe/dashboard/seoscribe/usage"
)

const secret = "0123456789abcdef0123456789abcdef"

// a router with cookie and device middleware in front of /api/v1
type Gateway struct {
	Router  *gin.Engine
	V1      *gin.RouterGroup
	Devices *devices.Manager
	Cookies *auth.DeviceSessions
	API     *profilestest.Server
	Backend *usage.MemoryBackend

	cookies map[string]*http.Cookie
}

// creates a gateway backed by a fresh fake API
func New(t *testing.T) *Gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := profilestest.NewServer()
	t.Cleanup(api.Close)

	backend := usage.NewMemoryBackend()
	remote := profiles.NewClient(api.URL)

	manager := devices.NewManager(func(_ context.Context, deviceID string) *entitlements.State {
		return entitlements.New(usage.NewStore(backend, deviceID), remote)
	}, devices.WithCleanupInterval(time.Hour))
	t.Cleanup(manager.Stop)

	cookies := auth.NewDeviceSessions(secret, false)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(cookies.Middleware(), manager.Middleware(cookies))

	// stores cookie credentials the way the login callback does
	router.POST("/test/login", cookies.Middleware(), func(c *gin.Context) {
		creds := auth.Credentials{AccessToken: c.Query("token")}
		if err := cookies.SaveCredentials(c, creds); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusNoContent)
	})

	return &Gateway{
		Router:  router,
		V1:      v1,
		Devices: manager,
		Cookies: cookies,
		API:     api,
		Backend: backend,
		cookies: make(map[string]*http.Cookie),
	}
}

// sends a request carrying the cookies of earlier responses
func (g *Gateway) Do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, cookie := range g.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	g.Router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		g.cookies[cookie.Name] = cookie
	}

	return w
}

// registers token with the fake API and stores it in the device cookie
func (g *Gateway) SignIn(t *testing.T, token string, p profiles.Profile) {
	t.Helper()

	g.API.AddAccount(token, p)

	w := g.Do(t, http.MethodPost, "/test/login?token="+token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("sign in: status %d: %s", w.Code, w.Body.String())
	}
}

// decodes a JSON response body
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}

	return out
}
