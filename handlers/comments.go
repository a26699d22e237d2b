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
)

type CommentsHandler struct {
	DB *store.DB
}

// List handles GET /api/comments?mangaId=|chapterId=. Threaded one level
// deep, newest first.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := bson.M{}
	if v := q.Get("mangaId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			utils.BadRequest(w, "invalid mangaId")
			return
		}
		target["mangaId"] = id
	}
	if v := q.Get("chapterId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			utils.BadRequest(w, "invalid chapterId")
			return
		}
		target["chapterId"] = id
	}
	if len(target) == 0 {
		utils.BadRequest(w, "mangaId or chapterId is required")
		return
	}

	var viewer *primitive.ObjectID
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		viewer = &userID
	}
	page, limit := ParsePagination(r)
	comments, total, err := h.DB.ListComments(r.Context(), target, viewer, page, limit)
	if err != nil {
		utils.Internal(w, "failed to list comments")
		return
	}
	utils.OKPage(w, comments, utils.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	})
}

type CommentRequest struct {
	MangaID   string `json:"mangaId"`
	ChapterID string `json:"chapterId"`
	ParentID  string `json:"parentId"`
	Content   string `json:"content" validate:"required,min=1,max=2000"`
}

// Create handles POST /api/comments. Replies attach to a top-level
// comment only; replying to a reply attaches to its parent's thread.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	var req CommentRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		utils.BadRequest(w, "content is required")
		return
	}

	now := time.Now()
	c := &models.Comment{
		UserID:    userID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.MangaID != "" {
		id, err := primitive.ObjectIDFromHex(req.MangaID)
		if err != nil {
			utils.BadRequest(w, "invalid mangaId")
			return
		}
		c.MangaID = &id
	}
	if req.ChapterID != "" {
		id, err := primitive.ObjectIDFromHex(req.ChapterID)
		if err != nil {
			utils.BadRequest(w, "invalid chapterId")
			return
		}
		c.ChapterID = &id
	}
	if c.MangaID == nil && c.ChapterID == nil {
		utils.BadRequest(w, "mangaId or chapterId is required")
		return
	}

	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			utils.BadRequest(w, "invalid parentId")
			return
		}
		parent, err := h.DB.CommentByID(r.Context(), parentID)
		if err != nil {
			utils.Internal(w, "failed to create comment")
			return
		}
		if parent == nil {
			utils.NotFound(w, "parent comment not found")
			return
		}
		// threads are one level deep
		if parent.ParentID != nil {
			parentID = *parent.ParentID
		}
		c.ParentID = &parentID
		c.MangaID, c.ChapterID = parent.MangaID, parent.ChapterID
	}

	id, err := h.DB.InsertComment(r.Context(), c)
	if err != nil {
		utils.Internal(w, "failed to create comment")
		return
	}
	c.ID = id
	utils.Created(w, c)
}

type EditCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// Update handles PUT /api/comments/{id}. Author only; marks the comment
// edited.
func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid comment id")
		return
	}
	var req EditCommentRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	c, err := h.DB.EditComment(r.Context(), id, userID, strings.TrimSpace(req.Content))
	if err != nil {
		utils.Internal(w, "failed to edit comment")
		return
	}
	if c == nil {
		// not found, deleted, or not the author; don't leak which
		existing, err := h.DB.CommentByID(r.Context(), id)
		if err == nil && existing != nil && existing.UserID != userID {
			utils.Forbidden(w, "you can only edit your own comments")
			return
		}
		utils.NotFound(w, "comment not found")
		return
	}
	utils.OK(w, c)
}

// Delete handles DELETE /api/comments/{id}: soft delete by the author or
// an admin.
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid comment id")
		return
	}
	c, err := h.DB.CommentByID(r.Context(), id)
	if err != nil {
		utils.Internal(w, "failed to delete comment")
		return
	}
	if c == nil {
		utils.NotFound(w, "comment not found")
		return
	}
	if c.UserID != userID && !middleware.IsAdmin(r.Context()) {
		utils.Forbidden(w, "you can only delete your own comments")
		return
	}
	if err := h.DB.SoftDeleteComment(r.Context(), id); err != nil {
		if err == mongo.ErrNoDocuments {
			utils.NotFound(w, "comment not found")
			return
		}
		utils.Internal(w, "failed to delete comment")
		return
	}
	utils.OKMessage(w, "comment deleted")
}

// Like handles POST /api/comments/{id}/like; Dislike the mirror route.
func (h *CommentsHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, false)
}

func (h *CommentsHandler) Dislike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, true)
}

func (h *CommentsHandler) toggleLike(w http.ResponseWriter, r *http.Request, dislike bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.Unauthorized(w, "unauthorized")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		utils.BadRequest(w, "invalid comment id")
		return
	}
	c, err := h.DB.ToggleCommentLike(r.Context(), userID, id, dislike)
	if err != nil {
		utils.Internal(w, "failed to toggle")
		return
	}
	if c == nil {
		utils.NotFound(w, "comment not found")
		return
	}
	liked, disliked := false, false
	for _, uid := range c.Likes {
		if uid == userID {
			liked = true
		}
	}
	for _, uid := range c.Dislikes {
		if uid == userID {
			disliked = true
		}
	}
	utils.OK(w, map[string]interface{}{
		"likeCount":    len(c.Likes),
		"dislikeCount": len(c.Dislikes),
		"liked":        liked,
		"disliked":     disliked,
	})
}
