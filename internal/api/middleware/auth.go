package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// UserEmailKey is the context key for user email
	UserEmailKey ContextKey = "email"

	tokenIDKey     ContextKey = "tokenID"
	tokenExpiryKey ContextKey = "tokenExpiry"
)

// AccessTokenCookie is the cookie the frontend stores the token in
const AccessTokenCookie = "access_token"

// UserLookup loads the caller for checks that need the stored account
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// TokenFromRequest returns the bearer token, falling back to the cookie
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware returns a middleware that validates JWT tokens. Tokens whose
// id is on the denylist are rejected; denylist may be nil.
func AuthMiddleware(jwtSecret string, denylist auth.Denylist) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Token de autenticação em falta"))
				return
			}

			claims, err := auth.ParseClaims(tokenStr, jwtSecret)
			if err != nil {
				utils.WriteError(w, errors.Unauthorized("Token inválido ou expirado"))
				return
			}

			if denylist != nil && claims.ID != "" {
				revoked, err := denylist.Contains(r.Context(), claims.ID)
				if err != nil {
					utils.WriteError(w, errors.ServiceUnavailable("Serviço temporariamente indisponível"))
					return
				}
				if revoked {
					utils.WriteError(w, errors.Unauthorized("Sessão terminada"))
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			ctx = context.WithValue(ctx, tokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, tokenExpiryKey, claims.ExpiresAt.Time)
			}

			AddLogField(w, "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin lets through only active administrators. It must run after
// AuthMiddleware.
func RequireAdmin(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r)
			if !ok {
				utils.WriteError(w, errors.Unauthorized("Token de autenticação em falta"))
				return
			}

			u, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.IsNotFound(err) {
					utils.WriteError(w, errors.Unauthorized("Utilizador não encontrado"))
					return
				}
				utils.WriteError(w, errors.Internal("Erro interno do servidor", err))
				return
			}
			if !u.IsActive {
				utils.WriteError(w, errors.Unauthorized("Conta desativada"))
				return
			}
			if !u.IsAdmin {
				utils.WriteError(w, errors.Forbidden("Acesso restrito a administradores"))
				return
			}

			AddLogField(w, "admin", true)
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(UserIDKey).(int64)
	return userID, ok
}

// GetUserEmail extracts the user email from the request context
func GetUserEmail(r *http.Request) (string, bool) {
	email, ok := r.Context().Value(UserEmailKey).(string)
	return email, ok
}

// GetToken returns the id and expiry of the token that authenticated r
func GetToken(r *http.Request) (string, time.Time, bool) {
	jti, ok := r.Context().Value(tokenIDKey).(string)
	if !ok || jti == "" {
		return "", time.Time{}, false
	}
	exp, _ := r.Context().Value(tokenExpiryKey).(time.Time)
	return jti, exp, true
}
