package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"retroboard/pkg/requestcontext"
)

// ParticipantClaims is the identity the core consumes: a stable pseudonymous
// hash, an optional display alias, and an admin flag.
type ParticipantClaims struct {
	UserHash string `json:"user_hash"`
	Alias    string `json:"alias,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates participant tokens. It is the only place
// that knows identity is JWT-backed; everything downstream reads the
// resolved identity from the request context.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenIssuer constructs a TokenIssuer with an HS256 signing key.
func NewTokenIssuer(signingKey string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{signingKey: []byte(signingKey), ttl: ttl}
}

// Issue mints a signed participant token.
func (t *TokenIssuer) Issue(userHash, alias string, isAdmin bool, now time.Time) (string, error) {
	claims := ParticipantClaims{
		UserHash: userHash,
		Alias:    alias,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
}

// Validate parses and verifies a participant token.
func (t *TokenIssuer) Validate(tokenString string) (*ParticipantClaims, error) {
	claims := &ParticipantClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// RequireParticipant resolves the bearer token into a participant identity
// and rejects requests without one.
func RequireParticipant(issuer *TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := issuer.Validate(token)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				writeUnauthorized(w)
				return
			}

			ctx := requestcontext.WithParticipant(r.Context(), claims.UserHash, claims.Alias, claims.IsAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"participant token required"}`))
}
