package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tulisan/ocr-uploader/internal/models"
)

func newIssuer(t *testing.T, secret string) *Issuer {
	t.Helper()
	i, err := NewIssuer(models.SessionConfig{
		Secret:      secret,
		CookieName:  "ocr_session",
		TTL:         time.Hour,
		IdleTimeout: time.Minute,
	})
	if err != nil {
		t.Fatalf("NewIssuer() error = %v", err)
	}
	return i
}

func TestIssueAndParse(t *testing.T) {
	i := newIssuer(t, "secret")

	token, err := i.Issue("abc")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := i.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.SessionID != "abc" {
		t.Errorf("SessionID = %q", claims.SessionID)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	token, _ := newIssuer(t, "one").Issue("abc")
	if _, err := newIssuer(t, "two").Parse(token); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	i := newIssuer(t, "secret")
	token, _ := i.Issue("abc")

	i.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := i.Parse(token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestRandomSecretWhenEmpty(t *testing.T) {
	a, b := newIssuer(t, ""), newIssuer(t, "")
	token, _ := a.Issue("abc")
	if _, err := b.Parse(token); err == nil {
		t.Fatal("two generated secrets should differ")
	}
}

func TestMiddlewareStartsAndResumesSession(t *testing.T) {
	i := newIssuer(t, "secret")
	var seen []string
	handler := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := GetClaimsFromContext(r.Context())
		if err != nil {
			t.Fatalf("GetClaimsFromContext() error = %v", err)
		}
		seen = append(seen, claims.SessionID)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "ocr_session" || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookies %+v", cookies)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 0 {
		t.Error("valid session should not be reissued")
	}
	if len(seen) != 2 || seen[0] != seen[1] {
		t.Errorf("sessions = %v, want the same id twice", seen)
	}
}

func TestMiddlewareReplacesTamperedCookie(t *testing.T) {
	i := newIssuer(t, "secret")
	handler := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "ocr_session", Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("tampered cookie should be replaced")
	}
}

func TestMiddlewareSkipsHealth(t *testing.T) {
	i := newIssuer(t, "secret")
	handler := i.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetClaimsFromContext(r.Context()); err == nil {
			t.Error("health should not carry a session")
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if len(rec.Result().Cookies()) != 0 {
		t.Error("health should not set cookies")
	}
}
