package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/session"
)

const CartIDHeader = "X-Cart-ID"

type TokenVerifier interface {
	Verify(token string) (*session.Principal, error)
}

// AuthMiddleware puts a session.Session into the request context. A bearer
// token is optional, but a bad one is refused rather than treated as
// anonymous. Anonymous callers without a cart id get a fresh one back in the
// X-Cart-ID header.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.Session{CartID: strings.TrimSpace(r.Header.Get(CartIDHeader))}

			if header := r.Header.Get("Authorization"); header != "" {
				token, found := strings.CutPrefix(header, "Bearer ")
				if !found || token == "" {
					respondError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "malformed authorization header")
					return
				}
				principal, err := verifier.Verify(token)
				if err != nil {
					logger.Printf(r.Context(), "rejected bearer token: %v", err)
					respondError(w, http.StatusUnauthorized, "AUTHENTICATION_REQUIRED", "invalid or expired token")
					return
				}
				sess.Principal = principal
				sess.Token = token
			}

			if !sess.IsAuthenticated() && sess.CartID == "" {
				sess.CartID = uuid.NewString()
			}
			if sess.CartID != "" {
				w.Header().Set(CartIDHeader, sess.CartID)
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}

// RequireUser refuses anonymous callers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAuthenticated() {
			respondError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "please sign in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if !sess.IsAuthenticated() {
			respondError(w, http.StatusUnauthorized, "NOT_AUTHENTICATED", "please sign in")
			return
		}
		if !sess.IsAdmin() {
			respondError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MaxBodySize caps request bodies at n bytes.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
