package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status values for a series.
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
	StatusCancelled = "cancelled"
)

var ValidStatuses = []string{StatusOngoing, StatusCompleted, StatusHiatus, StatusCancelled}

// Type values for a series.
const (
	TypeManga   = "manga"
	TypeManhwa  = "manhwa"
	TypeManhua  = "manhua"
	TypeWebtoon = "webtoon"
)

var ValidTypes = []string{TypeManga, TypeManhwa, TypeManhua, TypeWebtoon}

var ValidGenres = []string{
	"action", "adventure", "comedy", "drama", "fantasy", "horror",
	"mystery", "psychological", "romance", "sci-fi", "slice-of-life",
	"sports", "supernatural", "thriller", "tragedy",
}

// Rating is a single user's score for a manga, embedded in the manga document.
type Rating struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Value     int                `bson:"value" json:"value"` // 1..10
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type Manga struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Slug        string             `bson:"slug" json:"slug"`
	AltTitles   []string           `bson:"altTitles,omitempty" json:"altTitles,omitempty"`
	Description string             `bson:"description" json:"description"`
	Authors     []string           `bson:"authors" json:"authors"`
	Artists     []string           `bson:"artists,omitempty" json:"artists,omitempty"`
	Genres      []string           `bson:"genres" json:"genres"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Status      string             `bson:"status" json:"status"`
	Type        string             `bson:"type" json:"type"`
	CoverImage  string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	BannerImage string             `bson:"bannerImage,omitempty" json:"bannerImage,omitempty"`

	Rating        float64              `bson:"rating" json:"rating"`
	RatingCount   int                  `bson:"ratingCount" json:"ratingCount"`
	Ratings       []Rating             `bson:"ratings,omitempty" json:"-"`
	ViewCount     int64                `bson:"viewCount" json:"viewCount"`
	FavoriteCount int                  `bson:"favoriteCount" json:"favoriteCount"`
	LikeCount     int                  `bson:"likeCount" json:"likeCount"`
	DislikeCount  int                  `bson:"dislikeCount" json:"dislikeCount"`
	Likes         []primitive.ObjectID `bson:"likes,omitempty" json:"-"`
	Dislikes      []primitive.ObjectID `bson:"dislikes,omitempty" json:"-"`

	IsPrivate bool `bson:"isPrivate" json:"isPrivate"`
	IsNSFW    bool `bson:"isNSFW" json:"isNSFW"`

	FirstChapter *primitive.ObjectID `bson:"firstChapter,omitempty" json:"firstChapter,omitempty"`
	LastChapter  *primitive.ObjectID `bson:"lastChapter,omitempty" json:"lastChapter,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// RecomputeRating sets Rating and RatingCount from the embedded per-user
// ratings. The mean is rounded to one decimal place.
func (m *Manga) RecomputeRating() {
	m.RatingCount = len(m.Ratings)
	if m.RatingCount == 0 {
		m.Rating = 0
		return
	}
	sum := 0
	for _, r := range m.Ratings {
		sum += r.Value
	}
	m.Rating = float64(int(float64(sum)/float64(m.RatingCount)*10+0.5)) / 10
}
