package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	DB *store.DB
}

// currentUser loads the authenticated user or writes the error response.
func (h *UserHandler) currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return nil
	}
	u, err := h.DB.UserByID(r.Context(), userID)
	if err != nil {
		utils.Internal(w, "failed to load profile")
		return nil
	}
	if u == nil {
		utils.NotFound(w, "user not found")
		return nil
	}
	return u
}

// Profile handles GET /api/user/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	if u := h.currentUser(w, r); u != nil {
		utils.OK(w, u)
	}
}

type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
	Password *string `json:"password"`
}

// UpdateProfile handles PUT /api/user/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req UpdateProfileRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	set := bson.M{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if len(username) < 3 || len(username) > 32 {
			utils.BadRequest(w, "username must be 3-32 characters")
			return
		}
		if username != u.Username {
			existing, err := h.DB.UserByUsername(r.Context(), username)
			if err != nil {
				utils.Internal(w, "failed to update profile")
				return
			}
			if existing != nil {
				utils.Conflict(w, "username already in use")
				return
			}
			set["username"] = username
		}
	}
	if req.Avatar != nil {
		set["avatar"] = strings.TrimSpace(*req.Avatar)
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 8 {
			utils.BadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			utils.Internal(w, "failed to update profile")
			return
		}
		set["password"] = string(hash)
	}
	if len(set) == 0 {
		utils.OK(w, u)
		return
	}
	if err := h.DB.UpdateUser(r.Context(), u.ID, set); err != nil {
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "username already in use")
			return
		}
		utils.Internal(w, "failed to update profile")
		return
	}
	updated, _ := h.DB.UserByID(r.Context(), u.ID)
	utils.OK(w, updated)
}

// Settings handles GET /api/user/settings.
func (h *UserHandler) Settings(w http.ResponseWriter, r *http.Request) {
	if u := h.currentUser(w, r); u != nil {
		utils.OK(w, u.Settings)
	}
}

type UpdateSettingsRequest struct {
	Theme             *string `json:"theme"`
	Language          *string `json:"language"`
	ReadingMode       *string `json:"readingMode"`
	NotifyNewChapters *bool   `json:"notifyNewChapters"`
	NotifyReplies     *bool   `json:"notifyReplies"`
}

// UpdateSettings handles PUT /api/user/settings; absent fields keep their
// current value.
func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	var req UpdateSettingsRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	s := u.Settings
	if req.Theme != nil {
		s.Theme = *req.Theme
	}
	if req.Language != nil {
		s.Language = *req.Language
	}
	if req.ReadingMode != nil {
		if !contains(models.ValidReadingModes, *req.ReadingMode) {
			utils.BadRequest(w, "invalid reading mode")
			return
		}
		s.ReadingMode = *req.ReadingMode
	}
	if req.NotifyNewChapters != nil {
		s.NotifyNewChapters = *req.NotifyNewChapters
	}
	if req.NotifyReplies != nil {
		s.NotifyReplies = *req.NotifyReplies
	}
	if err := h.DB.UpdateUser(r.Context(), u.ID, bson.M{"settings": s}); err != nil {
		utils.Internal(w, "failed to update settings")
		return
	}
	utils.OK(w, s)
}

// Favorites handles GET /api/user/favorites, resolving refs to manga.
func (h *UserHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	manga, err := h.DB.FavoriteManga(r.Context(), userID)
	if err != nil {
		utils.Internal(w, "failed to load favorites")
		return
	}
	if manga == nil {
		manga = []models.Manga{}
	}
	utils.OK(w, manga)
}

// History handles GET /api/user/history.
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	history := u.ReadingHistory
	if history == nil {
		history = []models.HistoryEntry{}
	}
	utils.OK(w, history)
}

type HistoryRequest struct {
	MangaID     string `json:"mangaId" validate:"required"`
	ChapterID   string `json:"chapterId" validate:"required"`
	Page        int    `json:"page" validate:"min=0"`
	ReadingTime int64  `json:"readingTime" validate:"min=0"` // seconds since last report
}

// RecordHistory handles POST /api/user/history: upserts the per-manga
// progress entry and accumulates reading time. The reader posts on page
// change, tab hide and navigation away.
func (h *UserHandler) RecordHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	var req HistoryRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	mangaID, err := primitive.ObjectIDFromHex(req.MangaID)
	if err != nil {
		utils.BadRequest(w, "invalid mangaId")
		return
	}
	chapterID, err := primitive.ObjectIDFromHex(req.ChapterID)
	if err != nil {
		utils.BadRequest(w, "invalid chapterId")
		return
	}
	err = h.DB.UpsertHistory(r.Context(), userID, models.HistoryEntry{
		MangaID:     mangaID,
		ChapterID:   chapterID,
		Page:        req.Page,
		ReadingTime: req.ReadingTime,
	})
	if err != nil {
		utils.Internal(w, "failed to record history")
		return
	}
	utils.OKMessage(w, "history recorded")
}

// ClearHistory handles DELETE /api/user/history.
func (h *UserHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	if err := h.DB.ClearHistory(r.Context(), userID); err != nil {
		utils.Internal(w, "failed to clear history")
		return
	}
	utils.OKMessage(w, "history cleared")
}

// Lists handles GET /api/user/lists.
func (h *UserHandler) Lists(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	lists := u.ReadingLists
	if lists == nil {
		lists = []models.ReadingList{}
	}
	utils.OK(w, lists)
}

type ReadingListRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=500"`
	IsPublic    bool   `json:"isPublic"`
}

// CreateList handles POST /api/user/lists.
func (h *UserHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	var req ReadingListRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	list := models.ReadingList{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		IsPublic:    req.IsPublic,
		MangaIDs:    []primitive.ObjectID{},
		CreatedAt:   time.Now(),
	}
	if err := h.DB.AddReadingList(r.Context(), userID, list); err != nil {
		utils.Internal(w, "failed to create list")
		return
	}
	utils.Created(w, list)
}

// UpdateList handles PUT /api/user/lists/{listID}.
func (h *UserHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	listID, ok := idParam(r, "listID")
	if !ok {
		utils.BadRequest(w, "invalid list id")
		return
	}
	var req ReadingListRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	err := h.DB.UpdateReadingList(r.Context(), userID, listID,
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Description), req.IsPublic)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "list not found")
			return
		}
		utils.Internal(w, "failed to update list")
		return
	}
	utils.OKMessage(w, "list updated")
}

// DeleteList handles DELETE /api/user/lists/{listID}.
func (h *UserHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	listID, ok := idParam(r, "listID")
	if !ok {
		utils.BadRequest(w, "invalid list id")
		return
	}
	if err := h.DB.DeleteReadingList(r.Context(), userID, listID); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "list not found")
			return
		}
		utils.Internal(w, "failed to delete list")
		return
	}
	utils.OKMessage(w, "list deleted")
}

// AddListManga handles POST /api/user/lists/{listID}/manga/{mangaID}.
func (h *UserHandler) AddListManga(w http.ResponseWriter, r *http.Request) {
	h.changeListManga(w, r, true)
}

// RemoveListManga handles DELETE /api/user/lists/{listID}/manga/{mangaID}.
func (h *UserHandler) RemoveListManga(w http.ResponseWriter, r *http.Request) {
	h.changeListManga(w, r, false)
}

func (h *UserHandler) changeListManga(w http.ResponseWriter, r *http.Request, add bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	listID, ok := idParam(r, "listID")
	if !ok {
		utils.BadRequest(w, "invalid list id")
		return
	}
	mangaID, ok := idParam(r, "mangaID")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	if add {
		m, err := h.DB.MangaByID(r.Context(), mangaID)
		if err != nil {
			utils.Internal(w, "failed to update list")
			return
		}
		if m == nil {
			utils.NotFound(w, "manga not found")
			return
		}
	}
	var err error
	if add {
		err = h.DB.AddMangaToList(r.Context(), userID, listID, mangaID)
	} else {
		err = h.DB.RemoveMangaFromList(r.Context(), userID, listID, mangaID)
	}
	if err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "list not found")
			return
		}
		utils.Internal(w, "failed to update list")
		return
	}
	utils.OKMessage(w, "list updated")
}
