package store

import (
	"context"
	"regexp"
	"time"

	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminsCount returns the number of users with role admin.
func (db *DB) AdminsCount(ctx context.Context) (int64, error) {
	return db.Users().CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
}

func (db *DB) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"email": email})
}

func (db *DB) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return db.findUser(ctx, bson.M{"username": username})
}

func (db *DB) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return db.findUser(ctx, bson.M{"_id": id})
}

func (db *DB) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := db.Users().FindOne(ctx, filter).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (db *DB) CreateUser(ctx context.Context, user *models.User) (primitive.ObjectID, error) {
	res, err := db.Users().InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// ListUsers pages through users, optionally matching email or username
// against search (case-insensitive substring).
func (db *DB) ListUsers(ctx context.Context, search string, page, limit int) ([]models.User, int64, error) {
	filter := bson.M{}
	if search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{bson.M{"email": rx}, bson.M{"username": rx}}
	}
	total, err := db.Users().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := db.Users().Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (db *DB) UpdateUser(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (db *DB) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	_, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FavoriteManga resolves a user's favorites list to manga documents,
// newest first.
func (db *DB) FavoriteManga(ctx context.Context, userID primitive.ObjectID) ([]models.Manga, error) {
	u, err := db.UserByID(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}
	if len(u.Favorites) == 0 {
		return []models.Manga{}, nil
	}
	cur, err := db.Manga().Find(ctx,
		bson.M{"_id": bson.M{"$in": u.Favorites}},
		options.Find().
			SetSort(bson.D{{Key: "updatedAt", Value: -1}}).
			SetProjection(bson.M{"ratings": 0, "likes": 0, "dislikes": 0}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	manga := []models.Manga{}
	if err := cur.All(ctx, &manga); err != nil {
		return nil, err
	}
	return manga, nil
}

// UpsertHistory records reading progress: one entry per manga, with
// readingTime accumulated across visits.
func (db *DB) UpsertHistory(ctx context.Context, userID primitive.ObjectID, e models.HistoryEntry) error {
	e.UpdatedAt = time.Now()
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID, "readingHistory.mangaId": e.MangaID},
		bson.M{
			"$set": bson.M{
				"readingHistory.$.chapterId": e.ChapterID,
				"readingHistory.$.page":      e.Page,
				"readingHistory.$.updatedAt": e.UpdatedAt,
			},
			"$inc": bson.M{"readingHistory.$.readingTime": e.ReadingTime},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	_, err = db.Users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"readingHistory": e}})
	return err
}

func (db *DB) ClearHistory(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"readingHistory": []models.HistoryEntry{}}})
	return err
}

// AddReadingList appends a new list to the user's readingLists.
func (db *DB) AddReadingList(ctx context.Context, userID primitive.ObjectID, list models.ReadingList) error {
	_, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"readingLists": list}})
	return err
}

// UpdateReadingList sets name/description/isPublic on one of the user's lists.
func (db *DB) UpdateReadingList(ctx context.Context, userID, listID primitive.ObjectID, name, description string, isPublic bool) error {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID, "readingLists.id": listID},
		bson.M{"$set": bson.M{
			"readingLists.$.name":        name,
			"readingLists.$.description": description,
			"readingLists.$.isPublic":    isPublic,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (db *DB) DeleteReadingList(ctx context.Context, userID, listID primitive.ObjectID) error {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"readingLists": bson.M{"id": listID}}})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddMangaToList / RemoveMangaFromList flip membership of a manga in one
// of the user's lists. $addToSet keeps entries unique.
func (db *DB) AddMangaToList(ctx context.Context, userID, listID, mangaID primitive.ObjectID) error {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID, "readingLists.id": listID},
		bson.M{"$addToSet": bson.M{"readingLists.$.mangaIds": mangaID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (db *DB) RemoveMangaFromList(ctx context.Context, userID, listID, mangaID primitive.ObjectID) error {
	res, err := db.Users().UpdateOne(ctx,
		bson.M{"_id": userID, "readingLists.id": listID},
		bson.M{"$pull": bson.M{"readingLists.$.mangaIds": mangaID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// NotifyTargets returns the emails of active users who favorited the
// manga and have new-chapter notifications enabled.
func (db *DB) NotifyTargets(ctx context.Context, mangaID primitive.ObjectID) ([]string, error) {
	cur, err := db.Users().Find(ctx,
		bson.M{
			"favorites":                  mangaID,
			"isActive":                   true,
			"settings.notifyNewChapters": true,
		},
		options.Find().SetProjection(bson.M{"email": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	return emails, nil
}

