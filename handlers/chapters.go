package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/service"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ChaptersHandler struct {
	DB      *store.DB
	Mailer  *service.Mailer
	BaseURL string // public site base for notification links
}

// resolveManga loads the manga behind {slug}, applying the private gate.
func (h *ChaptersHandler) resolveManga(w http.ResponseWriter, r *http.Request) *models.Manga {
	slug := chi.URLParam(r, "slug")
	m, err := h.DB.MangaBySlug(r.Context(), slug)
	if err != nil {
		utils.Internal(w, "failed to load manga")
		return nil
	}
	if m == nil || (m.IsPrivate && !middleware.IsAdmin(r.Context())) {
		utils.NotFound(w, "manga not found")
		return nil
	}
	return m
}

// ListByManga handles GET /api/manga/{slug}/chapters.
func (h *ChaptersHandler) ListByManga(w http.ResponseWriter, r *http.Request) {
	m := h.resolveManga(w, r)
	if m == nil {
		return
	}
	publishedOnly := !middleware.IsAdmin(r.Context())
	chapters, err := h.DB.ChaptersByManga(r.Context(), m.ID, publishedOnly)
	if err != nil {
		utils.Internal(w, "failed to list chapters")
		return
	}
	utils.OK(w, chapters)
}

// Read handles GET /api/manga/{slug}/chapters/{number}: the chapter with
// its pages plus previous/next links, bumping the chapter view counter.
func (h *ChaptersHandler) Read(w http.ResponseWriter, r *http.Request) {
	m := h.resolveManga(w, r)
	if m == nil {
		return
	}
	number, err := strconv.ParseFloat(chi.URLParam(r, "number"), 64)
	if err != nil {
		utils.BadRequest(w, "invalid chapter number")
		return
	}
	publishedOnly := !middleware.IsAdmin(r.Context())
	c, err := h.DB.ChapterByNumber(r.Context(), m.ID, number, publishedOnly)
	if err != nil {
		utils.Internal(w, "failed to load chapter")
		return
	}
	if c == nil {
		utils.NotFound(w, "chapter not found")
		return
	}
	prev, next, err := h.DB.AdjacentChapters(r.Context(), m.ID, number)
	if err != nil {
		utils.Internal(w, "failed to load chapter")
		return
	}
	if err := h.DB.IncrementChapterView(r.Context(), c.ID); err == nil {
		c.ViewCount++
	}
	utils.OK(w, map[string]interface{}{
		"manga":   m,
		"chapter": c,
		"prev":    prev,
		"next":    next,
	})
}

type ChapterRequest struct {
	MangaID       string        `json:"mangaId" validate:"required"`
	Title         string        `json:"title"`
	ChapterNumber float64       `json:"chapterNumber" validate:"required,gt=0"`
	Volume        int           `json:"volume"`
	Pages         []models.Page `json:"pages" validate:"required,min=1,dive"`
	IsPublished   bool          `json:"isPublished"`
	Languages     []string      `json:"languages"`
}

// Create handles POST /api/chapters (admin only). Publishing a chapter
// notifies opted-in favoriting users.
func (h *ChaptersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ChapterRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	mangaID, err := primitiveFromHex(req.MangaID)
	if err != nil {
		utils.BadRequest(w, "invalid manga id")
		return
	}
	m, err := h.DB.MangaByID(r.Context(), mangaID)
	if err != nil {
		utils.Internal(w, "failed to create chapter")
		return
	}
	if m == nil {
		utils.NotFound(w, "manga not found")
		return
	}

	now := time.Now()
	c := &models.Chapter{
		MangaID:       mangaID,
		Title:         req.Title,
		ChapterNumber: req.ChapterNumber,
		Volume:        req.Volume,
		Slug:          models.ChapterSlug(mangaID, req.ChapterNumber),
		Pages:         normalizePages(req.Pages),
		IsPublished:   req.IsPublished,
		Languages:     utils.CleanStrings(req.Languages),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.IsPublished {
		c.PublishedAt = &now
	}
	id, err := h.DB.InsertChapter(r.Context(), c)
	if err != nil {
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "this manga already has a chapter with that number")
			return
		}
		utils.Internal(w, "failed to create chapter")
		return
	}
	c.ID = id

	if err := h.DB.RefreshChapterPointers(r.Context(), mangaID); err != nil {
		log.Printf("chapter pointers: %v", err)
	}
	if req.IsPublished {
		h.notifyFavoriters(m, c)
	}
	utils.Created(w, c)
}

// Update handles PUT /api/chapters/{id} (admin only).
func (h *ChaptersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid chapter id")
		return
	}
	existing, err := h.DB.ChapterByID(r.Context(), id)
	if err != nil {
		utils.Internal(w, "failed to update chapter")
		return
	}
	if existing == nil {
		utils.NotFound(w, "chapter not found")
		return
	}

	var req ChapterRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}

	set := bson.M{
		"title":       req.Title,
		"volume":      req.Volume,
		"pages":       normalizePages(req.Pages),
		"isPublished": req.IsPublished,
		"languages":   utils.CleanStrings(req.Languages),
	}
	if req.ChapterNumber != existing.ChapterNumber {
		set["chapterNumber"] = req.ChapterNumber
		set["slug"] = models.ChapterSlug(existing.MangaID, req.ChapterNumber)
	}
	justPublished := req.IsPublished && !existing.IsPublished
	if justPublished {
		set["publishedAt"] = time.Now()
	}

	if err := h.DB.UpdateChapter(r.Context(), id, set); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "chapter not found")
			return
		}
		if store.IsDuplicateKey(err) {
			utils.Conflict(w, "this manga already has a chapter with that number")
			return
		}
		utils.Internal(w, "failed to update chapter")
		return
	}
	if err := h.DB.RefreshChapterPointers(r.Context(), existing.MangaID); err != nil {
		log.Printf("chapter pointers: %v", err)
	}
	updated, err := h.DB.ChapterByID(r.Context(), id)
	if err != nil || updated == nil {
		utils.Internal(w, "failed to load updated chapter")
		return
	}
	if justPublished {
		if m, err := h.DB.MangaByID(r.Context(), existing.MangaID); err == nil && m != nil {
			h.notifyFavoriters(m, updated)
		}
	}
	utils.OK(w, updated)
}

// Delete handles DELETE /api/chapters/{id} (admin only).
func (h *ChaptersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid chapter id")
		return
	}
	c, err := h.DB.DeleteChapter(r.Context(), id)
	if err != nil {
		utils.Internal(w, "failed to delete chapter")
		return
	}
	if c == nil {
		utils.NotFound(w, "chapter not found")
		return
	}
	if err := h.DB.RefreshChapterPointers(r.Context(), c.MangaID); err != nil {
		log.Printf("chapter pointers: %v", err)
	}
	utils.OKMessage(w, "chapter deleted")
}

// notifyFavoriters mails opted-in users in the background; the request
// doesn't wait on SMTP.
func (h *ChaptersHandler) notifyFavoriters(m *models.Manga, c *models.Chapter) {
	if h.Mailer == nil {
		return
	}
	mangaID, title, number := m.ID, m.Title, c.ChapterNumber
	mangaSlug := m.Slug
	go func() {
		ctx, cancel := contextWithTimeout(30 * time.Second)
		defer cancel()
		emails, err := h.DB.NotifyTargets(ctx, mangaID)
		if err != nil {
			log.Printf("notify targets: %v", err)
			return
		}
		link := fmt.Sprintf("%s/manga/%s/chapters/%g", h.BaseURL, mangaSlug, number)
		h.Mailer.NotifyNewChapter(emails, title, number, link)
	}()
}

func normalizePages(pages []models.Page) []models.Page {
	for i := range pages {
		if pages[i].Number == 0 {
			pages[i].Number = i + 1
		}
	}
	return pages
}
