package auth

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vetclinic/internal/backend"
)

type contextKey string

const (
	sessionIDKey   contextKey = "session_id"
	credentialsKey contextKey = "credentials"
)

// GatewaySessionCookie identifies the visitor to this gateway. It exists for
// anonymous visitors too, since carts start before login.
const GatewaySessionCookie = "vc_session"

// SessionMiddleware guarantees every request carries a gateway session id and
// captures whatever clinic credentials the browser sent, so handlers can
// forward them upstream.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := ""
		if c, err := r.Cookie(GatewaySessionCookie); err == nil && c.Value != "" {
			sessionID = c.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     GatewaySessionCookie,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		creds := backend.Credentials{}
		if c, err := r.Cookie(backend.SessionCookieName); err == nil {
			creds.SessionCookie = c.Value
		}
		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			creds.Token = strings.TrimPrefix(header, "Bearer ")
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		ctx = context.WithValue(ctx, credentialsKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the gateway session id set by SessionMiddleware.
func SessionID(r *http.Request) string {
	v, _ := r.Context().Value(sessionIDKey).(string)
	return v
}

// Credentials returns the clinic credentials captured from the request.
func Credentials(r *http.Request) backend.Credentials {
	v, _ := r.Context().Value(credentialsKey).(backend.Credentials)
	return v
}

// StaffAuthMiddleware admits only bearer tokens issued by the staff login.
func StaffAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["role"] != "staff" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
