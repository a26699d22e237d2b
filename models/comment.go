package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedCommentPlaceholder replaces the content of soft-deleted comments
// so threads keep their shape.
const DeletedCommentPlaceholder = "[deleted]"

type Comment struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID   `bson:"userId" json:"userId"`
	MangaID   *primitive.ObjectID  `bson:"mangaId,omitempty" json:"mangaId,omitempty"`
	ChapterID *primitive.ObjectID  `bson:"chapterId,omitempty" json:"chapterId,omitempty"`
	ParentID  *primitive.ObjectID  `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Content   string               `bson:"content" json:"content"`
	Likes     []primitive.ObjectID `bson:"likes,omitempty" json:"-"`
	Dislikes  []primitive.ObjectID `bson:"dislikes,omitempty" json:"-"`
	IsDeleted bool                 `bson:"isDeleted" json:"isDeleted"`
	IsEdited  bool                 `bson:"isEdited" json:"isEdited"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CommentView is a comment joined with author info and the caller's state,
// with replies nested one level deep.
type CommentView struct {
	Comment        `bson:",inline" json:",inline"`
	AuthorUsername string        `bson:"authorUsername" json:"authorUsername"`
	AuthorAvatar   string        `bson:"authorAvatar,omitempty" json:"authorAvatar,omitempty"`
	LikeCount      int           `bson:"likeCount" json:"likeCount"`
	DislikeCount   int           `bson:"dislikeCount" json:"dislikeCount"`
	Liked          bool          `bson:"-" json:"liked"`
	Disliked       bool          `bson:"-" json:"disliked"`
	Replies        []CommentView `bson:"-" json:"replies,omitempty"`
}
