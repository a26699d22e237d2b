package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

type AdminHandler struct {
	DB *store.DB
}

// ListUsers handles GET /api/admin/users with optional ?search= over
// email and username.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := ParsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	users, total, err := h.DB.ListUsers(r.Context(), search, page, limit)
	if err != nil {
		utils.Internal(w, "failed to list users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.OKPage(w, users, utils.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	})
}

type AdminCreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

// CreateUser handles POST /api/admin/users.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := h.DB.UserByEmail(r.Context(), email); err != nil {
		utils.Internal(w, "failed to create user")
		return
	} else if existing != nil {
		utils.Conflict(w, "email already in use")
		return
	}
	if existing, err := h.DB.UserByUsername(r.Context(), req.Username); err != nil {
		utils.Internal(w, "failed to create user")
		return
	} else if existing != nil {
		utils.Conflict(w, "username already in use")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.Internal(w, "failed to create user")
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	now := time.Now()
	user := &models.User{
		Email:     email,
		Username:  req.Username,
		Password:  string(hash),
		Role:      role,
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
		utils.Internal(w, "failed to create user")
		return
	}
	user.ID = id
	utils.Created(w, user)
}

type AdminUpdateUserRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password"`
}

// UpdateUser handles PUT /api/admin/users/{userID}. Deactivating a user
// also kills their sessions so outstanding tokens stop working.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := idParam(r, "userID")
	if !ok {
		utils.BadRequest(w, "invalid user id")
		return
	}
	target, err := h.DB.UserByID(r.Context(), targetID)
	if err != nil {
		utils.Internal(w, "failed to update user")
		return
	}
	if target == nil {
		utils.NotFound(w, "user not found")
		return
	}
	var req AdminUpdateUserRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	set := bson.M{}
	if req.Role != nil {
		if *req.Role != models.RoleUser && *req.Role != models.RoleAdmin {
			utils.BadRequest(w, "invalid role")
			return
		}
		if target.Role == models.RoleAdmin && *req.Role != models.RoleAdmin {
			if err := h.ensureNotLastAdmin(w, r); err != nil {
				return
			}
		}
		set["role"] = *req.Role
	}
	if req.IsActive != nil {
		set["isActive"] = *req.IsActive
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			utils.BadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.Internal(w, "failed to update user")
			return
		}
		set["password"] = string(hash)
	}
	if len(set) == 0 {
		utils.OK(w, target)
		return
	}
	if err := h.DB.UpdateUser(r.Context(), targetID, set); err != nil {
		utils.Internal(w, "failed to update user")
		return
	}
	if req.IsActive != nil && !*req.IsActive {
		if err := h.DB.DeactivateUserSessions(r.Context(), targetID); err != nil {
			utils.Internal(w, "failed to update user")
			return
		}
	}
	updated, _ := h.DB.UserByID(r.Context(), targetID)
	utils.OK(w, updated)
}

// DeleteUser handles DELETE /api/admin/users/{userID}. Admins cannot
// delete themselves, and the last admin account cannot be removed.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID, ok := idParam(r, "userID")
	if !ok {
		utils.BadRequest(w, "invalid user id")
		return
	}
	callerID, _ := middleware.UserIDFromContext(r.Context())
	if callerID == targetID {
		utils.BadRequest(w, "you cannot delete your own account")
		return
	}
	target, err := h.DB.UserByID(r.Context(), targetID)
	if err != nil {
		utils.Internal(w, "failed to delete user")
		return
	}
	if target == nil {
		utils.NotFound(w, "user not found")
		return
	}
	if target.Role == models.RoleAdmin {
		if err := h.ensureNotLastAdmin(w, r); err != nil {
			return
		}
	}
	if err := h.DB.DeactivateUserSessions(r.Context(), targetID); err != nil {
		utils.Internal(w, "failed to delete user")
		return
	}
	if err := h.DB.DeleteUser(r.Context(), targetID); err != nil {
		utils.Internal(w, "failed to delete user")
		return
	}
	utils.OKMessage(w, "user deleted")
}

// ensureNotLastAdmin writes the error response and returns non-nil when
// the operation would leave zero admins.
func (h *AdminHandler) ensureNotLastAdmin(w http.ResponseWriter, r *http.Request) error {
	n, err := h.DB.AdminsCount(r.Context())
	if err != nil {
		utils.Internal(w, "failed to update user")
		return err
	}
	if n <= 1 {
		utils.BadRequest(w, "cannot remove the last admin")
		return errLastAdmin
	}
	return nil
}

var errLastAdmin = errors.New("last admin")

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.DB.CollectionStats(r.Context())
	if err != nil {
		utils.Internal(w, "failed to collect stats")
		return
	}
	utils.OK(w, stats)
}

// Export handles GET /api/admin/export: a full catalog dump for backup
// or migration. Users, comments and sessions are never exported.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	dump, err := h.DB.Export(r.Context())
	if err != nil {
		utils.Internal(w, "failed to export catalog")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="catalog-export.json"`)
	utils.OK(w, dump)
}

// Import handles POST /api/admin/import, upserting an export dump.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	var dump store.ExportDump
	if msg, ok := decodeJSON(r, &dump); !ok {
		utils.BadRequest(w, msg)
		return
	}
	if len(dump.Manga) == 0 && len(dump.Chapters) == 0 && len(dump.Settings) == 0 {
		utils.BadRequest(w, "dump is empty")
		return
	}
	res, err := h.DB.Import(r.Context(), &dump)
	if err != nil {
		utils.Internal(w, "failed to import catalog")
		return
	}
	utils.OK(w, res)
}
