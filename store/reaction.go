package store

import (
	"context"
	"time"

	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// reactionActor matches the caller: a user id for logged-in callers, a
// hashed IP otherwise.
func reactionActor(userID *primitive.ObjectID, ipHash string) bson.M {
	if userID != nil {
		return bson.M{"userId": *userID}
	}
	return bson.M{"ipHash": ipHash}
}

// ToggleReaction sets the caller's reaction on a target. Posting the same
// name again removes it; posting a different name replaces it. Returns
// the caller's reaction after the toggle ("" when removed).
func (db *DB) ToggleReaction(ctx context.Context, targetType string, targetID primitive.ObjectID, name string, userID *primitive.ObjectID, ipHash string) (string, error) {
	filter := bson.M{"targetType": targetType, "targetId": targetID}
	for k, v := range reactionActor(userID, ipHash) {
		filter[k] = v
	}

	var existing models.Reaction
	err := db.Reactions().FindOne(ctx, filter).Decode(&existing)
	switch err {
	case nil:
		if existing.Name == name {
			_, err := db.Reactions().DeleteOne(ctx, bson.M{"_id": existing.ID})
			return "", err
		}
		_, err := db.Reactions().UpdateOne(ctx,
			bson.M{"_id": existing.ID},
			bson.M{"$set": bson.M{"name": name, "createdAt": time.Now()}})
		return name, err
	case mongo.ErrNoDocuments:
		r := models.Reaction{
			TargetType: targetType,
			TargetID:   targetID,
			Name:       name,
			UserID:     userID,
			IPHash:     ipHash,
			CreatedAt:  time.Now(),
		}
		if userID != nil {
			r.IPHash = ""
		}
		_, err := db.Reactions().InsertOne(ctx, r)
		return name, err
	default:
		return "", err
	}
}

// ReactionCounts aggregates per-name counts for a target and resolves the
// caller's own reaction.
func (db *DB) ReactionCounts(ctx context.Context, targetType string, targetID primitive.ObjectID, userID *primitive.ObjectID, ipHash string) (*models.ReactionCounts, error) {
	cur, err := db.Reactions().Aggregate(ctx, []bson.D{
		{{Key: "$match", Value: bson.M{"targetType": targetType, "targetId": targetID}}},
		{{Key: "$group", Value: bson.M{"_id": "$name", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64, len(models.ValidReactionNames))
	for _, n := range models.ValidReactionNames {
		counts[n] = 0
	}
	var rows []struct {
		Name  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.Name] = row.Count
	}

	out := &models.ReactionCounts{Counts: counts}
	filter := bson.M{"targetType": targetType, "targetId": targetID}
	for k, v := range reactionActor(userID, ipHash) {
		filter[k] = v
	}
	var own models.Reaction
	err = db.Reactions().FindOne(ctx, filter).Decode(&own)
	if err == nil {
		out.Own = own.Name
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}
	return out, nil
}
