package handlers

import (
	"net/http"

	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
	"github.com/inkreader/backend/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReactionsHandler struct {
	DB *store.DB
}

// reactionCaller identifies the caller for reaction attribution: user id
// when authenticated, hashed remote IP otherwise.
func reactionCaller(r *http.Request) (*primitive.ObjectID, string) {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return &userID, ""
	}
	return nil, utils.HashIP(utils.ClientIP(r.RemoteAddr))
}

// Get handles GET /api/reactions?targetType=&targetId=.
func (h *ReactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	targetType := q.Get("targetType")
	if !contains(models.ValidReactionTargets, targetType) {
		utils.BadRequest(w, "targetType must be manga or chapter")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(q.Get("targetId"))
	if err != nil {
		utils.BadRequest(w, "invalid targetId")
		return
	}
	userID, ipHash := reactionCaller(r)
	counts, err := h.DB.ReactionCounts(r.Context(), targetType, targetID, userID, ipHash)
	if err != nil {
		utils.Internal(w, "failed to load reactions")
		return
	}
	utils.OK(w, counts)
}

type ReactionRequest struct {
	TargetType string `json:"targetType" validate:"required"`
	TargetID   string `json:"targetId" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

// Post handles POST /api/reactions (toggle), then returns the refreshed
// counts so clients re-render from this response rather than guessing.
func (h *ReactionsHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req ReactionRequest
	if msg, ok := decodeJSON(r, &req); !ok {
		utils.BadRequest(w, msg)
		return
	}
	if !contains(models.ValidReactionTargets, req.TargetType) {
		utils.BadRequest(w, "targetType must be manga or chapter")
		return
	}
	if !contains(models.ValidReactionNames, req.Name) {
		utils.BadRequest(w, "unknown reaction name")
		return
	}
	targetID, err := primitive.ObjectIDFromHex(req.TargetID)
	if err != nil {
		utils.BadRequest(w, "invalid targetId")
		return
	}

	userID, ipHash := reactionCaller(r)
	if _, err := h.DB.ToggleReaction(r.Context(), req.TargetType, targetID, req.Name, userID, ipHash); err != nil {
		utils.Internal(w, "failed to save reaction")
		return
	}
	counts, err := h.DB.ReactionCounts(r.Context(), req.TargetType, targetID, userID, ipHash)
	if err != nil {
		utils.Internal(w, "failed to load reactions")
		return
	}
	utils.OK(w, counts)
}
