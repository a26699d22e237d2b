package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	EmailKey    contextKey = "email"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

type Claims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SessionVerifier confirms a live session record exists for a bearer
// token. *store.DB satisfies it; tests pass a stub.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*models.Session, error)
}

// BearerToken extracts the token from an Authorization header. Returns
// "" when the header is missing or malformed.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// ParseClaims verifies the token signature and expiry and returns its claims.
func ParseClaims(tokenString, jwtSecret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}

// Auth verifies the bearer token and, when sessions is non-nil, confirms
// a matching live session record (bumping its lastActivity). Claims land
// in the request context.
func Auth(jwtSecret string, sessions SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				unauthorized(w, "missing or malformed authorization header")
				return
			}
			claims, err := ParseClaims(tokenString, jwtSecret)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				unauthorized(w, "invalid user id")
				return
			}
			if sessions != nil {
				s, err := sessions.VerifySession(r.Context(), tokenString)
				if err != nil {
					unauthorized(w, "session check failed")
					return
				}
				if s == nil {
					unauthorized(w, "session expired")
					return
				}
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves claims when a valid token is present but lets
// anonymous requests through. Used on routes that personalize output for
// logged-in callers (reactions, comment like state).
func OptionalAuth(jwtSecret string, sessions SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := BearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := ParseClaims(tokenString, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if sessions != nil {
				s, err := sessions.VerifySession(r.Context(), tokenString)
				if err != nil || s == nil {
					next.ServeHTTP(w, r)
					return
				}
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the admin role. Must run inside Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RoleFromContext(r.Context()) != models.RoleAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"success":false,"message":"admin access required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(UserIDKey).(primitive.ObjectID)
	return id, ok
}

func EmailFromContext(ctx context.Context) string {
	e, _ := ctx.Value(EmailKey).(string)
	return e
}

func UsernameFromContext(ctx context.Context) string {
	u, _ := ctx.Value(UsernameKey).(string)
	return u
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// IsAdmin reports whether the request context carries the admin role.
func IsAdmin(ctx context.Context) bool {
	return RoleFromContext(ctx) == models.RoleAdmin
}
