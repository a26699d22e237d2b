package store

import (
	"context"
	"time"

	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MangaFilter narrows a manga listing. Zero value lists everything public.
type MangaFilter struct {
	Search         string
	Genre          string
	Status         string
	Type           string
	IncludePrivate bool     // admin panel view only
	Fields         []string // optional projection whitelist
}

// MangaListItem is a listing row: the manga enriched with its most recent
// published chapters and the total published chapter count.
type MangaListItem struct {
	models.Manga   `bson:",inline" json:",inline"`
	RecentChapters []models.ChapterSummary `bson:"recentChapters" json:"recentChapters"`
	ChapterCount   int                     `bson:"chapterCount" json:"chapterCount"`
}

// BuildMangaMatch translates a MangaFilter into the $match document.
func BuildMangaMatch(f MangaFilter) bson.M {
	match := bson.M{}
	if !f.IncludePrivate {
		match["isPrivate"] = false
	}
	if f.Search != "" {
		match["$text"] = bson.M{"$search": f.Search}
	}
	if f.Genre != "" {
		match["genres"] = f.Genre
	}
	if f.Status != "" {
		match["status"] = f.Status
	}
	if f.Type != "" {
		match["type"] = f.Type
	}
	return match
}

var mangaSortFields = map[string]string{
	"title":         "title",
	"rating":        "rating",
	"views":         "viewCount",
	"favorites":     "favoriteCount",
	"createdAt":     "createdAt",
	"updatedAt":     "updatedAt",
	"chapterNumber": "chapterNumber",
}

// MangaSortField maps an API sort key to its document field, defaulting
// to updatedAt for unknown keys.
func MangaSortField(key string) string {
	if f, ok := mangaSortFields[key]; ok {
		return f
	}
	return "updatedAt"
}

// recentChaptersLookup joins up to three recent published chapters and the
// total published chapter count onto each manga.
func recentChaptersLookup() []bson.D {
	chapterMatch := bson.D{{Key: "$match", Value: bson.M{
		"$expr":       bson.M{"$eq": bson.A{"$mangaId", "$$mid"}},
		"isPublished": true,
	}}}
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from": "chapters",
			"let":  bson.M{"mid": "$_id"},
			"pipeline": []bson.D{
				chapterMatch,
				{{Key: "$sort", Value: bson.D{{Key: "chapterNumber", Value: -1}}}},
				{{Key: "$limit", Value: 3}},
				{{Key: "$project", Value: bson.M{
					"title": 1, "chapterNumber": 1, "slug": 1, "publishedAt": 1,
				}}},
			},
			"as": "recentChapters",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "chapters",
			"let":  bson.M{"mid": "$_id"},
			"pipeline": []bson.D{
				chapterMatch,
				{{Key: "$count", Value: "n"}},
			},
			"as": "chapterTotal",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"chapterCount": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$chapterTotal.n", 0}}, 0,
			}},
		}}},
	}
}

// ListManga runs the listing pipeline: match, sort, page window, recent
// chapter lookup, projection. order is 1 or -1. Title sort uses
// locale-aware collation. f.Fields, when set, restricts the output to
// those fields (plus _id/slug/title so links still render).
func (db *DB) ListManga(ctx context.Context, f MangaFilter, page, limit int, sortKey string, order int) ([]MangaListItem, error) {
	match := BuildMangaMatch(f)
	sortField := MangaSortField(sortKey)

	pipeline := []bson.D{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: sortField, Value: order}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	)
	pipeline = append(pipeline, recentChaptersLookup()...)

	if len(f.Fields) > 0 {
		include := bson.M{"slug": 1, "title": 1, "recentChapters": 1, "chapterCount": 1}
		for _, field := range f.Fields {
			switch field {
			case "ratings", "likes", "dislikes", "chapterTotal":
				// membership lists stay server-side
			default:
				include[field] = 1
			}
		}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: include}})
	} else {
		exclude := bson.M{"ratings": 0, "likes": 0, "dislikes": 0, "chapterTotal": 0}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: exclude}})
	}

	aggOpts := options.Aggregate()
	if sortField == "title" {
		aggOpts.SetCollation(&options.Collation{Locale: "en", Strength: 2})
	}

	cur, err := db.Manga().Aggregate(ctx, pipeline, aggOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	items := []MangaListItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CountManga counts the manga matching the filter, for pagination.
func (db *DB) CountManga(ctx context.Context, f MangaFilter) (int64, error) {
	return db.Manga().CountDocuments(ctx, BuildMangaMatch(f))
}

func (db *DB) InsertManga(ctx context.Context, m *models.Manga) (primitive.ObjectID, error) {
	res, err := db.Manga().InsertOne(ctx, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) MangaByID(ctx context.Context, id primitive.ObjectID) (*models.Manga, error) {
	var m models.Manga
	err := db.Manga().FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) MangaBySlug(ctx context.Context, slug string) (*models.Manga, error) {
	var m models.Manga
	err := db.Manga().FindOne(ctx, bson.M{"slug": slug}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SlugExists reports whether any manga other than excludeID owns the slug.
func (db *DB) SlugExists(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": slug}
	if excludeID != primitive.NilObjectID {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := db.Manga().CountDocuments(ctx, filter)
	return n > 0, err
}

func (db *DB) UpdateManga(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := db.Manga().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteManga removes the manga and cascades its chapters and comments.
func (db *DB) DeleteManga(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Manga().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	if _, err := db.Chapters().DeleteMany(ctx, bson.M{"mangaId": id}); err != nil {
		return err
	}
	if _, err := db.Comments().DeleteMany(ctx, bson.M{"mangaId": id}); err != nil {
		return err
	}
	_, err = db.Users().UpdateMany(ctx, bson.M{}, bson.M{"$pull": bson.M{"favorites": id}})
	return err
}

// IncrementMangaView bumps the view counter atomically.
func (db *DB) IncrementMangaView(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Manga().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}

// ToggleFavorite flips membership of userID in its favorites list and
// keeps the manga's denormalized favoriteCount in step. Returns the new
// state and count.
func (db *DB) ToggleFavorite(ctx context.Context, userID, mangaID primitive.ObjectID) (favorited bool, count int, err error) {
	n, err := db.Users().CountDocuments(ctx, bson.M{"_id": userID, "favorites": mangaID})
	if err != nil {
		return false, 0, err
	}
	userUpdate := bson.M{"$addToSet": bson.M{"favorites": mangaID}}
	delta := 1
	favorited = true
	if n > 0 {
		userUpdate = bson.M{"$pull": bson.M{"favorites": mangaID}}
		delta = -1
		favorited = false
	}
	if _, err := db.Users().UpdateOne(ctx, bson.M{"_id": userID}, userUpdate); err != nil {
		return false, 0, err
	}
	var m models.Manga
	err = db.Manga().FindOneAndUpdate(ctx,
		bson.M{"_id": mangaID},
		bson.M{"$inc": bson.M{"favoriteCount": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After).
			SetProjection(bson.M{"favoriteCount": 1}),
	).Decode(&m)
	if err != nil {
		return false, 0, err
	}
	return favorited, m.FavoriteCount, nil
}

// ToggleMangaLike flips the caller's like (or dislike, when dislike is
// true). Like and dislike are mutually exclusive per user.
func (db *DB) ToggleMangaLike(ctx context.Context, userID, mangaID primitive.ObjectID, dislike bool) (*models.Manga, error) {
	m, err := db.MangaByID(ctx, mangaID)
	if err != nil || m == nil {
		return nil, err
	}
	field, other := "likes", "dislikes"
	countField, otherCount := "likeCount", "dislikeCount"
	if dislike {
		field, other = other, field
		countField, otherCount = otherCount, countField
	}

	inSet := containsID(pickIDList(m, field), userID)
	inOther := containsID(pickIDList(m, other), userID)
	update := likeToggleUpdate(userID, field, other, countField, otherCount, inSet, inOther)

	var out models.Manga
	err = db.Manga().FindOneAndUpdate(ctx,
		bson.M{"_id": mangaID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// likeToggleUpdate builds the update for a like or dislike toggle with
// denormalized counters. A repeat vote retracts itself; voting the other
// way retracts the opposite vote first, so a user holds at most one.
func likeToggleUpdate(userID primitive.ObjectID, field, other, countField, otherCount string, inSet, inOther bool) bson.M {
	inc := bson.M{}
	update := bson.M{}
	if inSet {
		update["$pull"] = bson.M{field: userID}
		inc[countField] = -1
	} else {
		update["$addToSet"] = bson.M{field: userID}
		inc[countField] = 1
		if inOther {
			update["$pull"] = bson.M{other: userID}
			inc[otherCount] = -1
		}
	}
	update["$inc"] = inc
	return update
}

func pickIDList(m *models.Manga, field string) []primitive.ObjectID {
	if field == "likes" {
		return m.Likes
	}
	return m.Dislikes
}

func containsID(list []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

// RateManga upserts the caller's rating entry and recomputes the
// aggregate. Returns the updated manga.
func (db *DB) RateManga(ctx context.Context, userID, mangaID primitive.ObjectID, value int) (*models.Manga, error) {
	_, err := db.Manga().UpdateOne(ctx,
		bson.M{"_id": mangaID},
		bson.M{"$pull": bson.M{"ratings": bson.M{"userId": userID}}},
	)
	if err != nil {
		return nil, err
	}
	var m models.Manga
	err = db.Manga().FindOneAndUpdate(ctx,
		bson.M{"_id": mangaID},
		bson.M{"$push": bson.M{"ratings": models.Rating{
			UserID:    userID,
			Value:     value,
			CreatedAt: time.Now(),
		}}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.RecomputeRating()
	_, err = db.Manga().UpdateOne(ctx, bson.M{"_id": mangaID}, bson.M{"$set": bson.M{
		"rating":      m.Rating,
		"ratingCount": m.RatingCount,
	}})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// RefreshChapterPointers recomputes the firstChapter/lastChapter refs
// after a chapter insert or delete.
func (db *DB) RefreshChapterPointers(ctx context.Context, mangaID primitive.ObjectID) error {
	set := bson.M{}
	unset := bson.M{}

	var first, last models.Chapter
	err := db.Chapters().FindOne(ctx,
		bson.M{"mangaId": mangaID, "isPublished": true},
		options.FindOne().SetSort(bson.D{{Key: "chapterNumber", Value: 1}}),
	).Decode(&first)
	switch err {
	case nil:
		set["firstChapter"] = first.ID
	case mongo.ErrNoDocuments:
		unset["firstChapter"] = ""
	default:
		return err
	}

	err = db.Chapters().FindOne(ctx,
		bson.M{"mangaId": mangaID, "isPublished": true},
		options.FindOne().SetSort(bson.D{{Key: "chapterNumber", Value: -1}}),
	).Decode(&last)
	switch err {
	case nil:
		set["lastChapter"] = last.ID
	case mongo.ErrNoDocuments:
		unset["lastChapter"] = ""
	default:
		return err
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	_, err = db.Manga().UpdateOne(ctx, bson.M{"_id": mangaID}, update)
	return err
}
