package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"depositlink/internal/auth"
)

type ctxKey int

const claimsKey ctxKey = 0

type TokenVerifierContract interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// RequireAdmin guards dashboard endpoints: a valid Bearer token with the
// admin scope. MFA-scope tokens (password checked, code pending) are not
// enough.
func RequireAdmin(verifier TokenVerifierContract, next http.HandlerFunc) http.HandlerFunc {
	return requireScope(verifier, auth.ScopeAdmin, next)
}

// RequireMFA accepts the short-lived token issued after the password check,
// used only to verify the one-time code.
func RequireMFA(verifier TokenVerifierContract, next http.HandlerFunc) http.HandlerFunc {
	return requireScope(verifier, auth.ScopeMFA, next)
}

func requireScope(verifier TokenVerifierContract, scope string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			unauthorized(w, "missing token")
			return
		}
		claims, err := verifier.VerifyToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			log.Printf("layer=middleware component=auth err=%v", err)
			unauthorized(w, "invalid token")
			return
		}
		if claims.Scope != scope {
			// Admin tokens may do anything an mfa token can.
			if !(scope == auth.ScopeMFA && claims.Scope == auth.ScopeAdmin) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]any{"message": "insufficient scope"})
				return
			}
		}
		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// ClaimsFrom returns the verified claims stored by the middleware, if any.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": msg})
}
