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

func (db *DB) InsertComment(ctx context.Context, c *models.Comment) (primitive.ObjectID, error) {
	res, err := db.Comments().InsertOne(ctx, c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) CommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	err := db.Comments().FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// commentViewPipeline joins author username/avatar onto comments matching
// filter.
func commentViewPipeline(filter bson.M, sortOrder int, skip, limit int) []bson.D {
	pipeline := []bson.D{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: sortOrder}}}},
	}
	if limit > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: skip}},
			bson.D{{Key: "$limit", Value: limit}},
		)
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "author",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"authorUsername": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$author.username", 0}}, "[deleted user]",
			}},
			"authorAvatar": bson.M{"$ifNull": bson.A{
				bson.M{"$arrayElemAt": bson.A{"$author.avatar", 0}}, "",
			}},
			"likeCount":    bson.M{"$size": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}},
			"dislikeCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$dislikes", bson.A{}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"author": 0}}},
	)
	return pipeline
}

// ListComments returns top-level comments for a manga or chapter, newest
// first, with replies nested one level deep and the caller's like state
// resolved when viewerID is non-nil.
func (db *DB) ListComments(ctx context.Context, target bson.M, viewerID *primitive.ObjectID, page, limit int) ([]models.CommentView, int64, error) {
	topFilter := bson.M{"parentId": nil}
	for k, v := range target {
		topFilter[k] = v
	}
	total, err := db.Comments().CountDocuments(ctx, topFilter)
	if err != nil {
		return nil, 0, err
	}

	cur, err := db.Comments().Aggregate(ctx, commentViewPipeline(topFilter, -1, (page-1)*limit, limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	top := []models.CommentView{}
	if err := cur.All(ctx, &top); err != nil {
		return nil, 0, err
	}

	if len(top) > 0 {
		parentIDs := make([]primitive.ObjectID, len(top))
		for i := range top {
			parentIDs[i] = top[i].ID
		}
		rcur, err := db.Comments().Aggregate(ctx,
			commentViewPipeline(bson.M{"parentId": bson.M{"$in": parentIDs}}, 1, 0, 0))
		if err != nil {
			return nil, 0, err
		}
		defer rcur.Close(ctx)
		var replies []models.CommentView
		if err := rcur.All(ctx, &replies); err != nil {
			return nil, 0, err
		}
		byParent := make(map[primitive.ObjectID][]models.CommentView)
		for _, r := range replies {
			byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
		}
		for i := range top {
			top[i].Replies = byParent[top[i].ID]
		}
	}

	if viewerID != nil {
		for i := range top {
			markViewerState(&top[i], *viewerID)
			for j := range top[i].Replies {
				markViewerState(&top[i].Replies[j], *viewerID)
			}
		}
	}
	return top, total, nil
}

func markViewerState(c *models.CommentView, viewer primitive.ObjectID) {
	c.Liked = containsID(c.Likes, viewer)
	c.Disliked = containsID(c.Dislikes, viewer)
	// membership lists stay server-side
	c.Likes, c.Dislikes = nil, nil
}

// EditComment replaces content and flags the comment as edited. Only the
// author may edit; the filter enforces it.
func (db *DB) EditComment(ctx context.Context, id, authorID primitive.ObjectID, content string) (*models.Comment, error) {
	var c models.Comment
	err := db.Comments().FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": authorID, "isDeleted": false},
		bson.M{"$set": bson.M{
			"content":   content,
			"isEdited":  true,
			"updatedAt": time.Now(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// softDeleteUpdate blanks the content and marks the comment deleted while
// keeping the document so replies stay anchored.
func softDeleteUpdate(now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"content":   models.DeletedCommentPlaceholder,
		"isDeleted": true,
		"updatedAt": now,
	}}
}

// SoftDeleteComment keeps the document so replies stay anchored.
func (db *DB) SoftDeleteComment(ctx context.Context, id primitive.ObjectID) error {
	res, err := db.Comments().UpdateOne(ctx,
		bson.M{"_id": id}, softDeleteUpdate(time.Now()))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// toggleMembershipUpdate builds the update for a vote toggle without
// counters. Comments derive their counts from the list lengths.
func toggleMembershipUpdate(userID primitive.ObjectID, field, other string, inSet, inOther bool) bson.M {
	update := bson.M{}
	switch {
	case inSet:
		update["$pull"] = bson.M{field: userID}
	case inOther:
		update["$addToSet"] = bson.M{field: userID}
		update["$pull"] = bson.M{other: userID}
	default:
		update["$addToSet"] = bson.M{field: userID}
	}
	return update
}

// ToggleCommentLike mirrors ToggleMangaLike for comments.
func (db *DB) ToggleCommentLike(ctx context.Context, userID, commentID primitive.ObjectID, dislike bool) (*models.Comment, error) {
	c, err := db.CommentByID(ctx, commentID)
	if err != nil || c == nil {
		return nil, err
	}
	field, other := "likes", "dislikes"
	set, otherSet := c.Likes, c.Dislikes
	if dislike {
		field, other = other, field
		set, otherSet = otherSet, set
	}

	update := toggleMembershipUpdate(userID, field, other,
		containsID(set, userID), containsID(otherSet, userID))

	var out models.Comment
	err = db.Comments().FindOneAndUpdate(ctx,
		bson.M{"_id": commentID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
