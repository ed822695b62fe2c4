package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/dmitrijs2005/storegate/internal/server/auth"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestTokens(secret string) *auth.TokenService {
	return auth.NewTokenService([]byte(secret), time.Hour, auth.WithTokenClock(func() time.Time { return testNow }))
}

func mustIssue(t *testing.T, tokens *auth.TokenService, role auth.Role) string {
	t.Helper()
	tok, err := tokens.Issue(auth.Identity{SubjectID: "acc-1", Email: "a@example.com", FirstName: "Ada", LastName: "L", Role: role})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	return tok
}

// okHandler records whether it ran and which claims it saw.
type okHandler struct {
	called bool
	claims *auth.Claims
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.claims, _ = auth.ClaimsFromContext(r.Context())
	w.WriteHeader(http.StatusTeapot)
}

func serve(t *testing.T, mw func(http.Handler) http.Handler, path, authorization string) (*httptest.ResponseRecorder, *okHandler) {
	t.Helper()
	next := &okHandler{}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	return rec, next
}

func expectRejected(t *testing.T, rec *httptest.ResponseRecorder, next *okHandler, message string) {
	t.Helper()
	if next.called {
		t.Fatal("downstream handler must not run on rejection")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
	}
	if body.Status != "error" || body.Message != message {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAuthenticate_PublicPathsSkipTokenCheck(t *testing.T) {
	t.Parallel()

	mw := Authenticate(newTestTokens("secret"), logging.NewDiscardLogger(), PublicUserPaths...)

	for _, p := range PublicUserPaths {
		rec, next := serve(t, mw, p, "")
		if !next.called {
			t.Fatalf("%s: handler not called", p)
		}
		if rec.Code != http.StatusTeapot {
			t.Fatalf("%s: unexpected status %d", p, rec.Code)
		}
		if next.claims != nil {
			t.Fatalf("%s: claims must not be attached on public paths", p)
		}
	}
}

func TestAuthenticate_PublicMatchIsExact(t *testing.T) {
	t.Parallel()

	mw := Authenticate(newTestTokens("secret"), logging.NewDiscardLogger(), PublicUserPaths...)

	for _, p := range []string{"/users/login/", "/users/register/extra", "/users/LOGIN"} {
		rec, next := serve(t, mw, p, "")
		expectRejected(t, rec, next, "No authorization token provided")
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens("secret")
	other := newTestTokens("other-secret")
	expired := auth.NewTokenService([]byte("secret"), time.Minute,
		auth.WithTokenClock(func() time.Time { return testNow.Add(-2 * time.Minute) }))

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{"missing", "", "No authorization token provided"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "Invalid authorization format"},
		{"lowercase scheme", "bearer " + mustIssue(t, tokens, auth.RoleUser), "Invalid authorization format"},
		{"empty token", "Bearer ", "Invalid authorization format"},
		{"garbage", "Bearer not-a-jwt", "Invalid or expired token"},
		{"foreign signature", "Bearer " + mustIssue(t, other, auth.RoleUser), "Invalid or expired token"},
		{"expired", "Bearer " + mustIssue(t, expired, auth.RoleUser), "Invalid or expired token"},
	}

	mw := Authenticate(tokens, logging.NewDiscardLogger(), PublicUserPaths...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, next := serve(t, mw, "/users/me", tt.header)
			expectRejected(t, rec, next, tt.msg)
		})
	}
}

func TestAuthenticate_ValidTokenAttachesClaims(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens("secret")
	mw := Authenticate(tokens, logging.NewDiscardLogger(), PublicUserPaths...)

	rec, next := serve(t, mw, "/users/me", "Bearer "+mustIssue(t, tokens, auth.RoleUser))
	if !next.called || rec.Code != http.StatusTeapot {
		t.Fatalf("expected pass-through, got called=%v status=%d", next.called, rec.Code)
	}
	if next.claims == nil || next.claims.Subject != "acc-1" || next.claims.Role != auth.RoleUser {
		t.Fatalf("unexpected claims: %+v", next.claims)
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tokens := newTestTokens("secret")
	mw := RequireAdmin(tokens, logging.NewDiscardLogger())

	rec, next := serve(t, mw, "/admin/uploads", "")
	expectRejected(t, rec, next, "No authorization token provided")

	rec, next = serve(t, mw, "/admin/uploads", "Token abc")
	expectRejected(t, rec, next, "Invalid authorization format")

	rec, next = serve(t, mw, "/admin/uploads", "Bearer broken")
	expectRejected(t, rec, next, "Invalid or expired token")

	rec, next = serve(t, mw, "/admin/uploads", "Bearer "+mustIssue(t, tokens, auth.RoleUser))
	expectRejected(t, rec, next, "Insufficient permissions")

	rec, next = serve(t, mw, "/admin/uploads", "Bearer "+mustIssue(t, tokens, auth.RoleAdmin))
	if !next.called || rec.Code != http.StatusTeapot {
		t.Fatalf("admin token must pass, got called=%v status=%d", next.called, rec.Code)
	}
	if next.claims == nil || next.claims.Role != auth.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", next.claims)
	}
}

func TestRequireAdmin_HasNoPublicPaths(t *testing.T) {
	t.Parallel()

	mw := RequireAdmin(newTestTokens("secret"), logging.NewDiscardLogger())

	rec, next := serve(t, mw, "/admin/login", "")
	expectRejected(t, rec, next, "No authorization token provided")
}
