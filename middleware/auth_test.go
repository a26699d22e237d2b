package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID primitive.ObjectID, role string, expiresIn time.Duration) string {
	t.Helper()
	claims := &Claims{
		UserID:   userID.Hex(),
		Email:    "reader@example.com",
		Username: "reader",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

// stubSessions implements SessionVerifier with a fixed answer.
type stubSessions struct {
	session *models.Session
	err     error
}

func (s *stubSessions) VerifySession(ctx context.Context, token string) (*models.Session, error) {
	return s.session, s.err
}

func liveSession() *models.Session {
	return &models.Session{IsActive: true, ExpiresAt: time.Now().Add(time.Hour)}
}

func TestAuth(t *testing.T) {
	userID := primitive.NewObjectID()

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		if !ok || id != userID {
			t.Errorf("context user id = %v, %v", id, ok)
		}
		if got := UsernameFromContext(r.Context()); got != "reader" {
			t.Errorf("context username = %q", got)
		}
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes", func(t *testing.T) {
		handler := Auth(testSecret, &stubSessions{session: liveSession()})(echo)
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleUser, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing header rejected", func(t *testing.T) {
		handler := Auth(testSecret, nil)(echo)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/auth/me", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		handler := Auth(testSecret, nil)(echo)
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Token abc123")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		handler := Auth(testSecret, nil)(echo)
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleUser, -time.Minute))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		handler := Auth("other-secret", nil)(echo)
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleUser, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("dead session rejected even with valid token", func(t *testing.T) {
		handler := Auth(testSecret, &stubSessions{session: nil})(echo)
		r := httptest.NewRequest("GET", "/api/auth/me", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleUser, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestOptionalAuth(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("anonymous passes through", func(t *testing.T) {
		var sawUser bool
		handler := OptionalAuth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawUser = UserIDFromContext(r.Context())
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/manga", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if sawUser {
			t.Error("anonymous request should have no user in context")
		}
	})

	t.Run("valid token personalizes", func(t *testing.T) {
		var gotID primitive.ObjectID
		handler := OptionalAuth(testSecret, &stubSessions{session: liveSession()})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID, _ = UserIDFromContext(r.Context())
		}))
		r := httptest.NewRequest("GET", "/api/manga", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, userID, models.RoleUser, time.Hour))
		handler.ServeHTTP(httptest.NewRecorder(), r)
		if gotID != userID {
			t.Errorf("context user = %v, want %v", gotID, userID)
		}
	})

	t.Run("bad token degrades to anonymous", func(t *testing.T) {
		var sawUser bool
		handler := OptionalAuth(testSecret, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawUser = UserIDFromContext(r.Context())
		}))
		r := httptest.NewRequest("GET", "/api/manga", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if sawUser {
			t.Error("bad token should not resolve a user")
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("admin passes", func(t *testing.T) {
		handler := Auth(testSecret, nil)(RequireAdmin(ok))
		r := httptest.NewRequest("POST", "/api/manga", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), models.RoleAdmin, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("user forbidden", func(t *testing.T) {
		handler := Auth(testSecret, nil)(RequireAdmin(ok))
		r := httptest.NewRequest("POST", "/api/manga", nil)
		r.Header.Set("Authorization", "Bearer "+signToken(t, primitive.NewObjectID(), models.RoleUser, time.Hour))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, r)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("no auth context forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequireAdmin(ok).ServeHTTP(rec, httptest.NewRequest("POST", "/api/manga", nil))
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}

func TestBearerToken(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{"empty", "", ""},
		{"bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"wrong scheme", "Basic dXNlcg==", ""},
		{"no token", "Bearer", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := BearerToken(r); got != tc.want {
				t.Errorf("BearerToken = %q, want %q", got, tc.want)
			}
		})
	}
}
