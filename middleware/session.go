package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"checkout-payment-api/services/auth"
	"checkout-payment-api/utils"
)

type contextKey string

const SessionIDContextKey contextKey = "session_id"

// SessionTokenMiddleware binds the request to the checkout session its
// bearer token was issued for. Handlers read the id from the context and
// never trust a session id from the body or URL.
func SessionTokenMiddleware(tokens *auth.SessionTokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("Missing Authorization header from %s", r.RemoteAddr)
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("Invalid Authorization header format from %s", r.RemoteAddr)
				utils.SendErrorResponse(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			sessionID, err := tokens.ValidateSessionToken(parts[1])
			if err != nil {
				log.Printf("Session token validation failed from %s: %v", r.RemoteAddr, err)

				var message string
				switch err {
				case auth.ErrTokenExpired:
					message = "Session token expired"
				case auth.ErrInvalidToken:
					message = "Invalid session token"
				default:
					message = "Authentication failed"
				}

				utils.SendErrorResponse(w, http.StatusUnauthorized, message)
				return
			}

			ctx := context.WithValue(r.Context(), SessionIDContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionIDFromContext returns the session id bound by
// SessionTokenMiddleware, or "" when the request was not authenticated.
func GetSessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SessionIDContextKey).(string)
	return id
}
