package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role constants for user authorization.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var ValidRoles = []string{RoleAdmin, RoleUser}

// Reading modes supported by the reader UI.
const (
	ReadingModePaged    = "paged"
	ReadingModeVertical = "vertical"
	ReadingModeWebtoon  = "webtoon"
)

var ValidReadingModes = []string{ReadingModePaged, ReadingModeVertical, ReadingModeWebtoon}

// HistoryEntry records reading progress for one manga, one entry per manga.
type HistoryEntry struct {
	MangaID     primitive.ObjectID `bson:"mangaId" json:"mangaId"`
	ChapterID   primitive.ObjectID `bson:"chapterId" json:"chapterId"`
	Page        int                `bson:"page" json:"page"`
	ReadingTime int64              `bson:"readingTime" json:"readingTime"` // accumulated seconds
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReadingList is a user-curated, optionally public collection of manga.
type ReadingList struct {
	ID          primitive.ObjectID   `bson:"id" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	IsPublic    bool                 `bson:"isPublic" json:"isPublic"`
	MangaIDs    []primitive.ObjectID `bson:"mangaIds" json:"mangaIds"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
}

type Settings struct {
	Theme             string `bson:"theme" json:"theme"`
	Language          string `bson:"language" json:"language"`
	ReadingMode       string `bson:"readingMode" json:"readingMode"`
	NotifyNewChapters bool   `bson:"notifyNewChapters" json:"notifyNewChapters"`
	NotifyReplies     bool   `bson:"notifyReplies" json:"notifyReplies"`
}

// DefaultSettings are applied at registration.
func DefaultSettings() Settings {
	return Settings{
		Theme:             "dark",
		Language:          "en",
		ReadingMode:       ReadingModePaged,
		NotifyNewChapters: true,
		NotifyReplies:     true,
	}
}

type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Email          string               `bson:"email" json:"email"`
	Username       string               `bson:"username" json:"username"`
	Password       string               `bson:"password" json:"-"` // bcrypt hash
	Role           string               `bson:"role" json:"role"`
	Avatar         string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	IsActive       bool                 `bson:"isActive" json:"isActive"`
	Favorites      []primitive.ObjectID `bson:"favorites,omitempty" json:"favorites,omitempty"`
	ReadingHistory []HistoryEntry       `bson:"readingHistory,omitempty" json:"readingHistory,omitempty"`
	ReadingLists   []ReadingList        `bson:"readingLists,omitempty" json:"readingLists,omitempty"`
	Settings       Settings             `bson:"settings" json:"settings"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}
