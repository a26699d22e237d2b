package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction target types.
const (
	ReactionTargetManga   = "manga"
	ReactionTargetChapter = "chapter"
)

var ValidReactionTargets = []string{ReactionTargetManga, ReactionTargetChapter}

// The fixed reaction palette.
var ValidReactionNames = []string{"love", "funny", "sad", "shocked", "fire"}

// Reaction is one emoji response to a manga or chapter. Exactly one of
// UserID or IPHash is set; anonymous visitors are keyed by hashed IP.
type Reaction struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TargetType string              `bson:"targetType" json:"targetType"`
	TargetID   primitive.ObjectID  `bson:"targetId" json:"targetId"`
	Name       string              `bson:"name" json:"name"`
	UserID     *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
	IPHash     string              `bson:"ipHash,omitempty" json:"-"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// ReactionCounts maps reaction name to count for one target.
type ReactionCounts struct {
	Counts map[string]int64 `json:"counts"`
	Own    string           `json:"own,omitempty"` // the caller's current reaction, if any
}
