package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// ActorClaims is the session token issued by the main application. Subject is
// the acting user id.
type ActorClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller of a user-facing route.
type Actor struct {
	ID    string
	Email string
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *TokenVerifier) Parse(tok string) (*ActorClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	claims := &ActorClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Mint signs claims; used by tests and local tooling.
func (v *TokenVerifier) Mint(claims ActorClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func bearer(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// RequireActor authenticates the caller and stores the Actor in the context.
func RequireActor(v *TokenVerifier, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := bearer(r)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, err)
				return
			}
			claims, err := v.Parse(tok)
			if err != nil {
				logging.With(r.Context(), logger).Debug().Err(err).Msg("actor token rejected")
				writeAuthError(w, http.StatusUnauthorized, err)
				return
			}
			ctx := WithActor(r.Context(), Actor{ID: claims.Subject, Email: claims.Email})
			ctx = logging.WithActorID(ctx, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminKey guards the admin routes with a static bearer key. Rejections
// are counted under endpoint "rejected"; served calls under their route pattern.
func RequireAdminKey(apiKey string, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				logging.With(r.Context(), logger).Error().Msg("admin API key is not configured")
				metrics.IncAdminRequest("rejected", "unauthorized")
				writeAuthError(w, http.StatusForbidden, errors.New("admin api disabled"))
				return
			}
			tok, err := bearer(r)
			if err != nil {
				metrics.IncAdminRequest("rejected", "unauthorized")
				writeAuthError(w, http.StatusUnauthorized, err)
				return
			}
			if subtle.ConstantTimeCompare([]byte(tok), []byte(apiKey)) != 1 {
				logging.With(r.Context(), logger).Warn().Str("path", r.URL.Path).Msg("admin key mismatch")
				metrics.IncAdminRequest("rejected", "unauthorized")
				writeAuthError(w, http.StatusForbidden, ErrInvalidToken)
				return
			}
			next.ServeHTTP(w, r)
			metrics.IncAdminRequest(r.Method+" "+routePattern(r), "authorized")
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, err error) {
	writeJSONError(w, status, "unauthorized", err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
