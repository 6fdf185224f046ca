package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tulisan/ocr-uploader/internal/models"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// Claims identifies the browser session owning an upload form
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session cookies
type Issuer struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	skipPaths  []string
	now        func() time.Time
}

// NewIssuer creates an issuer. An empty secret is replaced by a random one,
// so sessions do not survive a restart.
func NewIssuer(cfg models.SessionConfig) (*Issuer, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	return &Issuer{
		secret:     secret,
		cookieName: cfg.CookieName,
		ttl:        cfg.TTL,
		secure:     cfg.SecureCookie,
		skipPaths:  []string{"/health", "/metrics"},
		now:        time.Now,
	}, nil
}

// CookieName returns the session cookie name
func (i *Issuer) CookieName() string {
	return i.cookieName
}

// Issue signs a token for sessionID
func (i *Issuer) Issue(sessionID string) (string, error) {
	now := i.now()
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if claims.SessionID == "" {
		return nil, errors.New("invalid session token: missing session id")
	}
	return claims, nil
}

// Middleware attaches session claims to every request, starting a new session
// when the cookie is missing, invalid or expired.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range i.skipPaths {
			if r.URL.Path == p || strings.HasPrefix(r.URL.Path, p+"/") {
				next.ServeHTTP(w, r)
				return
			}
		}

		var claims *Claims
		if cookie, err := r.Cookie(i.cookieName); err == nil {
			claims, _ = i.Parse(cookie.Value)
		}

		if claims == nil {
			sessionID := uuid.New().String()
			token, err := i.Issue(sessionID)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"failed to start session"}`, http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     i.cookieName,
				Value:    token,
				Path:     "/",
				Expires:  i.now().Add(i.ttl),
				HttpOnly: true,
				Secure:   i.secure,
				SameSite: http.SameSiteLaxMode,
			})
			claims = &Claims{SessionID: sessionID}
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaimsFromContext returns the session claims set by Middleware
func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	if !ok || claims == nil {
		return nil, errors.New("no session in context")
	}
	return claims, nil
}
