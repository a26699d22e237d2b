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

func (db *DB) InsertChapter(ctx context.Context, c *models.Chapter) (primitive.ObjectID, error) {
	res, err := db.Chapters().InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) ChapterByID(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error) {
	var c models.Chapter
	err := db.Chapters().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChapterByNumber finds one chapter of a manga. publishedOnly hides
// unpublished chapters from readers; admins pass false.
func (db *DB) ChapterByNumber(ctx context.Context, mangaID primitive.ObjectID, number float64, publishedOnly bool) (*models.Chapter, error) {
	filter := bson.M{"mangaId": mangaID, "chapterNumber": number}
	if publishedOnly {
		filter["isPublished"] = true
	}
	var c models.Chapter
	err := db.Chapters().FindOne(ctx, filter).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChaptersByManga lists a manga's chapters ordered by number.
func (db *DB) ChaptersByManga(ctx context.Context, mangaID primitive.ObjectID, publishedOnly bool) ([]models.Chapter, error) {
	filter := bson.M{"mangaId": mangaID}
	if publishedOnly {
		filter["isPublished"] = true
	}
	cur, err := db.Chapters().Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "chapterNumber", Value: 1}}).
			SetProjection(bson.M{"pages": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	chapters := []models.Chapter{}
	if err := cur.All(ctx, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

// AdjacentChapters returns the previous and next published chapters
// around number, either of which may be nil at the ends of the series.
func (db *DB) AdjacentChapters(ctx context.Context, mangaID primitive.ObjectID, number float64) (prev, next *models.Chapter, err error) {
	var p models.Chapter
	err = db.Chapters().FindOne(ctx,
		bson.M{"mangaId": mangaID, "isPublished": true, "chapterNumber": bson.M{"$lt": number}},
		options.FindOne().
			SetSort(bson.D{{Key: "chapterNumber", Value: -1}}).
			SetProjection(bson.M{"pages": 0}),
	).Decode(&p)
	switch err {
	case nil:
		prev = &p
	case mongo.ErrNoDocuments:
	default:
		return nil, nil, err
	}

	var n models.Chapter
	err = db.Chapters().FindOne(ctx,
		bson.M{"mangaId": mangaID, "isPublished": true, "chapterNumber": bson.M{"$gt": number}},
		options.FindOne().
			SetSort(bson.D{{Key: "chapterNumber", Value: 1}}).
			SetProjection(bson.M{"pages": 0}),
	).Decode(&n)
	switch err {
	case nil:
		next = &n
	case mongo.ErrNoDocuments:
	default:
		return nil, nil, err
	}
	return prev, next, nil
}

func (db *DB) UpdateChapter(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := db.Chapters().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// DeleteChapter removes the chapter and its comments.
func (db *DB) DeleteChapter(ctx context.Context, id primitive.ObjectID) (*models.Chapter, error) {
	var c models.Chapter
	err := db.Chapters().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_, err = db.Comments().DeleteMany(ctx, bson.M{"chapterId": id})
	return &c, err
}

// IncrementChapterView bumps the view counter atomically.
func (db *DB) IncrementChapterView(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Chapters().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}
