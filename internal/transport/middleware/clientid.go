package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/pkg/logger"
)

const ClientIDHeader = "X-Client-ID"

// MaxClientIDLength matches the client_id columns of the state store.
const MaxClientIDLength = 64

// ClientID identifies the browser client behind a request: the X-Client-ID header,
// else the client cookie, else a fresh id that is set as the cookie. An oversized header
// is rejected and an oversized cookie is replaced.
func ClientID(cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := strings.TrimSpace(r.Header.Get(ClientIDHeader))
			if len(clientID) > MaxClientIDLength {
				status, body := internal.NewValidationError("Identificador de cliente inválido", internal.ErrCodeInvalidClientID).ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(body)
				return
			}
			if clientID == "" {
				if c, err := r.Cookie(cookieName); err == nil && len(strings.TrimSpace(c.Value)) <= MaxClientIDLength {
					clientID = strings.TrimSpace(c.Value)
				}
			}
			if clientID == "" {
				clientID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    clientID,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := internal.ContextWithClientID(r.Context(), clientID)
			ctx = logger.With(ctx, "client_id", clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
