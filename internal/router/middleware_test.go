package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tavan-shop/storefront/internal/http/handlers/shared"
	"github.com/tavan-shop/storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://tavan.mn", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://tavan.mn", []string{"*"}, true)
	if got != "https://tavan.mn" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://shop.tavan.mn", []string{"https://shop.tavan.mn", "https://admin.tavan.mn"}, false)
	if got != "https://shop.tavan.mn" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://evil.example.com", []string{"https://shop.tavan.mn"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	generated := w2.Header().Get(requestIDHeader)
	if generated == "" {
		t.Fatalf("generated request id should not be empty")
	}
	if resp := strings.TrimSpace(generated); resp == "" {
		t.Fatalf("generated request id should not be blank")
	}
}

type fakeAuthenticator struct {
	sessions map[string]*service.Session
}

func (f fakeAuthenticator) Authenticate(_ context.Context, raw string) (*service.Session, error) {
	session, ok := f.sessions[raw]
	if !ok {
		return nil, service.ErrInvalidToken
	}
	return session, nil
}

type fakeEnforcer struct {
	allow map[string]bool
	calls int
}

func (f *fakeEnforcer) EnforceRole(role, obj, act string) (bool, error) {
	f.calls++
	return f.allow[role+" "+act+" "+obj], nil
}

func envelopeStatus(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func newAuthTestRouter(auth Authenticator, enforcer RoleEnforcer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	user := r.Group("/api/v1", UserAuthMiddleware(auth))
	user.GET("/cart", func(c *gin.Context) {
		session, ok := shared.CurrentSession(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": session.UserID()})
	})
	admin := r.Group("/api/v1/admin", AdminAuthMiddleware(auth), AdminRBACMiddleware(enforcer))
	admin.DELETE("/bank-accounts/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	return r
}

func TestUserAuthMiddleware(t *testing.T) {
	auth := fakeAuthenticator{sessions: map[string]*service.Session{
		"user-token":  {Kind: service.SessionUser, SubjectID: 9},
		"admin-token": {Kind: service.SessionAdmin, SubjectID: 1, IsSuper: true},
	}}
	r := newAuthTestRouter(auth, &fakeEnforcer{})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: 401},
		{name: "not bearer", header: "Token user-token", want: 401},
		{name: "unknown token", header: "Bearer nope", want: 401},
		{name: "admin token on user route", header: "Bearer admin-token", want: 401},
		{name: "valid", header: "Bearer user-token", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("http status want 200 got %d", w.Code)
			}
			if got := envelopeStatus(t, w); got != tc.want {
				t.Fatalf("status_code want %d got %d", tc.want, got)
			}
		})
	}
}

func TestAdminRBACMiddleware(t *testing.T) {
	auth := fakeAuthenticator{sessions: map[string]*service.Session{
		"super":    {Kind: service.SessionAdmin, SubjectID: 1, Role: "role:super", IsSuper: true},
		"operator": {Kind: service.SessionAdmin, SubjectID: 2, Role: "role:operator"},
		"finance":  {Kind: service.SessionAdmin, SubjectID: 3, Role: "role:finance"},
	}}
	enforcer := &fakeEnforcer{allow: map[string]bool{
		"role:finance DELETE /api/v1/admin/bank-accounts/:id": true,
	}}
	r := newAuthTestRouter(auth, enforcer)

	do := func(token string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/bank-accounts/3", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		return envelopeStatus(t, w)
	}

	if got := do("super"); got != 0 {
		t.Fatalf("super want 0 got %d", got)
	}
	if enforcer.calls != 0 {
		t.Fatalf("super should bypass enforcer, calls=%d", enforcer.calls)
	}
	if got := do("operator"); got != 403 {
		t.Fatalf("operator want 403 got %d", got)
	}
	if got := do("finance"); got != 0 {
		t.Fatalf("finance want 0 got %d", got)
	}
}

func TestAdminRBACMiddlewareWithoutEnforcer(t *testing.T) {
	auth := fakeAuthenticator{sessions: map[string]*service.Session{
		"operator": {Kind: service.SessionAdmin, SubjectID: 2, Role: "role:operator"},
	}}
	r := newAuthTestRouter(auth, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/bank-accounts/3", nil)
	req.Header.Set("Authorization", "Bearer operator")
	r.ServeHTTP(w, req)
	if got := envelopeStatus(t, w); got != 401 {
		t.Fatalf("status_code want 401 got %d", got)
	}
}

func TestBearerToken(t *testing.T) {
	if token, ok := bearerToken("bearer  abc "); !ok || token != "abc" {
		t.Fatalf("want abc got %q ok=%v", token, ok)
	}
	if _, ok := bearerToken("Bearer "); ok {
		t.Fatalf("empty bearer should be rejected")
	}
	if !isAuthRejection(service.ErrTokenRevoked) || isAuthRejection(errors.New("db down")) {
		t.Fatalf("unexpected auth rejection classification")
	}
}
