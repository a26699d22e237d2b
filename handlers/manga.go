package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MangaHandler struct {
	DB     *store.DB
	Counts *utils.CountCache
}

// List handles GET /api/manga with pagination, sort, filter and an
// admin-only private view.
func (h *MangaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := ParsePagination(r)

	f := store.MangaFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Genre:  q.Get("genre"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
	}
	if fields := q.Get("fields"); fields != "" {
		f.Fields = utils.CleanStrings(strings.Split(fields, ","))
	}
	if q.Get("admin") == "true" {
		if !middleware.IsAdmin(r.Context()) {
			utils.Forbidden(w, "admin access required")
			return
		}
		f.IncludePrivate = true
	}

	order := -1
	if q.Get("order") == "asc" {
		order = 1
	}
	sortKey := q.Get("sort")

	items, err := h.DB.ListManga(r.Context(), f, page, limit, sortKey, order)
	if err != nil {
		utils.Internal(w, "failed to list manga")
		return
	}

	countKey := countCacheKey(f)
	total, ok := h.Counts.Get(countKey)
	if !ok {
		total, err = h.DB.CountManga(r.Context(), f)
		if err != nil {
			utils.Internal(w, "failed to list manga")
			return
		}
		h.Counts.Set(countKey, total)
	}

	utils.OKPage(w, items, utils.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	})
}

func countCacheKey(f store.MangaFilter) string {
	return fmt.Sprintf("manga|%s|%s|%s|%s|%t", f.Search, f.Genre, f.Status, f.Type, f.IncludePrivate)
}

// Get handles GET /api/manga/{slug}. Bumps the view counter; private
// manga 404 for non-admins.
func (h *MangaHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	m, err := h.DB.MangaBySlug(r.Context(), slug)
	if err != nil {
		utils.Internal(w, "failed to load manga")
		return
	}
	if m == nil || (m.IsPrivate && !middleware.IsAdmin(r.Context())) {
		utils.NotFound(w, "manga not found")
		return
	}
	if err := h.DB.IncrementMangaView(r.Context(), m.ID); err == nil {
		m.ViewCount++
	}
	// membership lists stay server-side; resolve the caller's own state instead
	type ownState struct {
		Favorited bool `json:"favorited"`
		Liked     bool `json:"liked"`
		Disliked  bool `json:"disliked"`
		Rating    int  `json:"rating,omitempty"`
	}
	var own *ownState
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		st := ownState{}
		for _, id := range m.Likes {
			if id == userID {
				st.Liked = true
			}
		}
		for _, id := range m.Dislikes {
			if id == userID {
				st.Disliked = true
			}
		}
		for _, rt := range m.Ratings {
			if rt.UserID == userID {
				st.Rating = rt.Value
			}
		}
		if u, err := h.DB.UserByID(r.Context(), userID); err == nil && u != nil {
			for _, fav := range u.Favorites {
				if fav == m.ID {
					st.Favorited = true
				}
			}
		}
		own = &st
	}
	utils.OK(w, map[string]interface{}{"manga": m, "own": own})
}

type MangaRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200"`
	AltTitles   []string `json:"altTitles"`
	Description string   `json:"description" validate:"required,min=1"`
	Authors     []string `json:"authors" validate:"required,min=1"`
	Artists     []string `json:"artists"`
	Genres      []string `json:"genres" validate:"required,min=1"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	Type        string   `json:"type"`
	CoverImage  string   `json:"coverImage"`
	BannerImage string   `json:"bannerImage"`
	IsPrivate   bool     `json:"isPrivate"`
	IsNSFW      bool     `json:"isNSFW"`
}

// normalize trims list fields and applies enum defaults. Returns a
// message for invalid enum values.
func (req *MangaRequest) normalize() string {
	req.Title = strings.TrimSpace(req.Title)
	req.AltTitles = utils.CleanStrings(req.AltTitles)
	req.Authors = utils.CleanStrings(req.Authors)
	req.Artists = utils.CleanStrings(req.Artists)
	req.Genres = utils.CleanStrings(req.Genres)
	req.Tags = utils.CleanStrings(req.Tags)
	if len(req.Authors) == 0 {
		return "authors must contain at least one non-empty entry"
	}
	if len(req.Genres) == 0 {
		return "genres must contain at least one non-empty entry"
	}
	for _, g := range req.Genres {
		if !contains(models.ValidGenres, g) {
			return "unknown genre: " + g
		}
	}
	if req.Status == "" {
		req.Status = models.StatusOngoing
	}
	if !contains(models.ValidStatuses, req.Status) {
		return "invalid status"
	}
	if req.Type == "" {
		req.Type = models.TypeManga
	}
	if !contains(models.ValidTypes, req.Type) {
		return "invalid type"
	}
	return ""
}

// Create handles POST /api/manga (admin only).
func (h *MangaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MangaRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	if msg := req.normalize(); msg != "" {
		utils.BadRequest(w, msg)
		return
	}

	slug := utils.Slugify(req.Title)
	if slug == "" {
		utils.BadRequest(w, "title produces an empty slug")
		return
	}
	if exists, err := h.DB.SlugExists(r.Context(), slug, primitive.NilObjectID); err != nil {
		utils.Internal(w, "failed to create manga")
		return
	} else if exists {
		utils.Conflict(w, "a manga with this title already exists")
		return
	}

	now := time.Now()
	m := &models.Manga{
		Title:       req.Title,
		Slug:        slug,
		AltTitles:   req.AltTitles,
		Description: req.Description,
		Authors:     req.Authors,
		Artists:     req.Artists,
		Genres:      req.Genres,
		Tags:        req.Tags,
		Status:      req.Status,
		Type:        req.Type,
		CoverImage:  req.CoverImage,
		BannerImage: req.BannerImage,
		IsPrivate:   req.IsPrivate,
		IsNSFW:      req.IsNSFW,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := h.DB.InsertManga(r.Context(), m)
	if err != nil {
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "a manga with this title already exists")
			return
		}
		utils.Internal(w, "failed to create manga")
		return
	}
	m.ID = id
	h.Counts.Flush()
	utils.Created(w, m)
}

// Update handles PUT /api/manga/{id} (admin only). The slug regenerates
// only when the title changes.
func (h *MangaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	existing, err := h.DB.MangaByID(r.Context(), id)
	if err != nil {
		utils.Internal(w, "failed to update manga")
		return
	}
	if existing == nil {
		utils.NotFound(w, "manga not found")
		return
	}

	var req MangaRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	if msg := req.normalize(); msg != "" {
		utils.BadRequest(w, msg)
		return
	}

	set := bson.M{
		"title":       req.Title,
		"altTitles":   req.AltTitles,
		"description": req.Description,
		"authors":     req.Authors,
		"artists":     req.Artists,
		"genres":      req.Genres,
		"tags":        req.Tags,
		"status":      req.Status,
		"type":        req.Type,
		"coverImage":  req.CoverImage,
		"bannerImage": req.BannerImage,
		"isPrivate":   req.IsPrivate,
		"isNSFW":      req.IsNSFW,
	}
	if req.Title != existing.Title {
		slug := utils.Slugify(req.Title)
		if slug == "" {
			utils.BadRequest(w, "title produces an empty slug")
			return
		}
		if exists, err := h.DB.SlugExists(r.Context(), slug, id); err != nil {
			utils.Internal(w, "failed to update manga")
			return
		} else if exists {
			utils.Conflict(w, "a manga with this title already exists")
			return
		}
		set["slug"] = slug
	}

	if err := h.DB.UpdateManga(r.Context(), id, set); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "manga not found")
			return
		}
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "a manga with this title already exists")
			return
		}
		utils.Internal(w, "failed to update manga")
		return
	}
	updated, err := h.DB.MangaByID(r.Context(), id)
	if err != nil || updated == nil {
		utils.Internal(w, "failed to load updated manga")
		return
	}
	h.Counts.Flush()
	utils.OK(w, updated)
}

// Delete handles DELETE /api/manga/{id} (admin only). Cascades chapters,
// comments and favorite references.
func (h *MangaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	if err := h.DB.DeleteManga(r.Context(), id); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "manga not found")
			return
		}
		utils.Internal(w, "failed to delete manga")
		return
	}
	h.Counts.Flush()
	utils.OKMessage(w, "manga deleted")
}

// Favorite handles POST /api/manga/{id}/favorite (toggle).
func (h *MangaHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	m, err := h.DB.MangaByID(r.Context(), id)
	if err != nil {
		utils.Internal(w, "failed to toggle favorite")
		return
	}
	if m == nil {
		utils.NotFound(w, "manga not found")
		return
	}
	favorited, count, err := h.DB.ToggleFavorite(r.Context(), userID, id)
	if err != nil {
		utils.Internal(w, "failed to toggle favorite")
		return
	}
	utils.OK(w, map[string]interface{}{
		"favorited":     favorited,
		"favoriteCount": count,
	})
}

type RateRequest struct {
	Value int `json:"value" validate:"required,min=1,max=10"`
}

// Rate handles POST /api/manga/{id}/rate.
func (h *MangaHandler) Rate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	var req RateRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	m, err := h.DB.RateManga(r.Context(), userID, id, req.Value)
	if err != nil {
		utils.Internal(w, "failed to rate manga")
		return
	}
	if m == nil {
		utils.NotFound(w, "manga not found")
		return
	}
	utils.OK(w, map[string]interface{}{
		"rating":      m.Rating,
		"ratingCount": m.RatingCount,
		"own":         req.Value,
	})
}

// Like handles POST /api/manga/{id}/like; Dislike the mirror route.
func (h *MangaHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

func (h *MangaHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

func (h *MangaHandler) toggleLike(w http.ResponseWriter, r *http.Request, dislike bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	m, err := h.DB.ToggleMangaLike(r.Context(), userID, id, dislike)
	if err != nil {
		utils.Internal(w, "failed to toggle")
		return
	}
	if m == nil {
		utils.NotFound(w, "manga not found")
		return
	}
	liked, disliked := false, false
	for _, uid := range m.Likes {
		if uid == userID {
			liked = true
		}
	}
	for _, uid := range m.Dislikes {
		if uid == userID {
			disliked = true
		}
	}
	utils.OK(w, map[string]interface{}{
		"likeCount":    m.LikeCount,
		"dislikeCount": m.DislikeCount,
		"liked":        liked,
		"disliked":     disliked,
	})
}
