package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TextRegion is a positioned text block on a page. Translations maps a
// language code to the translated text for that region.
type TextRegion struct {
	X            float64           `bson:"x" json:"x"`
	Y            float64           `bson:"y" json:"y"`
	Width        float64           `bson:"width" json:"width"`
	Height       float64           `bson:"height" json:"height"`
	Text         string            `bson:"text" json:"text"`
	Translations map[string]string `bson:"translations,omitempty" json:"translations,omitempty"`
}

// Page is a single image in a chapter, in reading order.
type Page struct {
	Number      int          `bson:"number" json:"number"`
	ImageURL    string       `bson:"imageUrl" json:"imageUrl"`
	Width       int          `bson:"width,omitempty" json:"width,omitempty"`
	Height      int          `bson:"height,omitempty" json:"height,omitempty"`
	TextRegions []TextRegion `bson:"textRegions,omitempty" json:"textRegions,omitempty"`
}

type Chapter struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MangaID       primitive.ObjectID `bson:"mangaId" json:"mangaId"`
	Title         string             `bson:"title,omitempty" json:"title,omitempty"`
	ChapterNumber float64            `bson:"chapterNumber" json:"chapterNumber"`
	Volume        int                `bson:"volume,omitempty" json:"volume,omitempty"`
	Slug          string             `bson:"slug" json:"slug"`
	Pages         []Page             `bson:"pages" json:"pages"`
	IsPublished   bool               `bson:"isPublished" json:"isPublished"`
	PublishedAt   *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	ViewCount     int64              `bson:"viewCount" json:"viewCount"`
	Languages     []string           `bson:"languages,omitempty" json:"languages,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ChapterSlug derives the canonical slug for a chapter of a manga,
// e.g. "65f0c2...-chapter-12" or "...-chapter-12.5".
func ChapterSlug(mangaID primitive.ObjectID, number float64) string {
	if number == float64(int64(number)) {
		return fmt.Sprintf("%s-chapter-%d", mangaID.Hex(), int64(number))
	}
	return fmt.Sprintf("%s-chapter-%g", mangaID.Hex(), number)
}

// ChapterSummary is the trimmed chapter shape embedded in manga listings.
type ChapterSummary struct {
	ID            primitive.ObjectID `bson:"_id" json:"id"`
	Title         string             `bson:"title,omitempty" json:"title,omitempty"`
	ChapterNumber float64            `bson:"chapterNumber" json:"chapterNumber"`
	Slug          string             `bson:"slug" json:"slug"`
	PublishedAt   *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}
