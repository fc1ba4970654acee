package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/radieske/wingo-round-engine/internal/game-service/auth"
)

type ctxKey struct{}

func identityFrom(ctx context.Context) auth.Identity {
	id, _ := ctx.Value(ctxKey{}).(auth.Identity)
	return id
}

// authenticate aceita "Authorization: Bearer <token>" ou ?token= (clientes sem header)
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if h := r.Header.Get("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeMessage(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			token = parts[1]
		} else {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeMessage(w, http.StatusUnauthorized, "authorization required")
			return
		}

		id, err := s.auth.Verify(token)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identityFrom(r.Context()).IsAdmin() {
			writeMessage(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
