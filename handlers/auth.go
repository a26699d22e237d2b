package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	DB        *store.DB
	JWTSecret string
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)

	if existing, err := h.DB.UserByEmail(r.Context(), req.Email); err != nil {
		utils.Internal(w, "registration failed")
		return
	} else if existing != nil {
		utils.Conflict(w, "email already in use")
		return
	}
	if existing, err := h.DB.UserByUsername(r.Context(), req.Username); err != nil {
		utils.Internal(w, "registration failed")
		return
	} else if existing != nil {
		utils.Conflict(w, "username already in use")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Internal(w, "registration failed")
		return
	}
	now := time.Now()
	user := &models.User{
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hash),
		Role:      models.RoleUser,
		IsActive:  true,
		Settings:  models.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := h.DB.CreateUser(r.Context(), user)
	if err != nil {
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "email or username already in use")
			return
		}
		utils.Internal(w, "registration failed")
		return
	}
	user.ID = id

	token, err := h.issueSession(r, user)
	if err != nil {
		utils.Internal(w, "could not create session")
		return
	}
	utils.Created(w, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	user, err := h.DB.UserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		utils.Internal(w, "login failed")
		return
	}
	if user == nil {
		utils.Unauthorized(w, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.Unauthorized(w, "invalid email or password")
		return
	}
	if !user.IsActive {
		utils.Forbidden(w, "account is deactivated")
		return
	}

	token, err := h.issueSession(r, user)
	if err != nil {
		utils.Internal(w, "could not create session")
		return
	}
	utils.OK(w, AuthResponse{Token: token, User: user})
}

// Logout deactivates the session behind the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.Unauthorized(w, "missing authorization header")
		return
	}
	if err := h.DB.DeactivateSession(r.Context(), token); err != nil {
		utils.Internal(w, "logout failed")
		return
	}
	utils.OKMessage(w, "logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	user, err := h.DB.UserByID(r.Context(), userID)
	if err != nil || user == nil {
		utils.NotFound(w, "user not found")
		return
	}
	utils.OK(w, user)
}

// issueSession signs a token and persists the matching session record.
func (h *AuthHandler) issueSession(r *http.Request, user *models.User) (string, error) {
	token, err := CreateToken(h.JWTSecret, user)
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = h.DB.CreateSession(r.Context(), &models.Session{
		UserID:       user.ID,
		Token:        token,
		UserAgent:    r.UserAgent(),
		IP:           utils.ClientIP(r.RemoteAddr),
		IsActive:     true,
		LastActivity: now,
		ExpiresAt:    now.Add(models.SessionTTL),
		CreatedAt:    now,
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// CreateToken signs a 30-day HS256 bearer token carrying the user's
// id, email, username and role.
func CreateToken(secret string, user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(models.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// EnsureAdminUser seeds the bootstrap admin from config when no admin
// exists yet. Called once at startup.
func EnsureAdminUser(ctx context.Context, db *store.DB, email, password string) {
	if email == "" || password == "" {
		return
	}
	n, err := db.AdminsCount(ctx)
	if err != nil {
		log.Printf("admin bootstrap: %v", err)
		return
	}
	if n > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("admin bootstrap: %v", err)
		return
	}
	now := time.Now()
	username := strings.SplitN(email, "@", 2)[0]
	_, err = db.CreateUser(ctx, &models.User{
		Email:     strings.ToLower(email),
		Username:  username,
		Password:  string(hash),
		Role:      models.RoleAdmin,
		IsActive:  true,
		Settings:  models.DefaultSettings(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Printf("admin bootstrap: %v", err)
		return
	}
	log.Printf("admin bootstrap: created %s", email)
}
