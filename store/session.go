package store

import (
	"context"
	"time"

	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) CreateSession(ctx context.Context, s *models.Session) (primitive.ObjectID, error) {
	res, err := db.Sessions().InsertOne(ctx, s)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

// VerifySession confirms a live session exists for the token and bumps
// its lastActivity. A session past expiresAt or deactivated fails even
// when the signed token itself is still valid.
func (db *DB) VerifySession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	err := db.Sessions().FindOne(ctx, bson.M{"token": token}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.Expired(time.Now()) {
		return nil, nil
	}
	_, err = db.Sessions().UpdateOne(ctx,
		bson.M{"_id": s.ID},
		bson.M{"$set": bson.M{"lastActivity": time.Now()}})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeactivateSession marks the session inactive (logout).
func (db *DB) DeactivateSession(ctx context.Context, token string) error {
	_, err := db.Sessions().UpdateOne(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"isActive": false}})
	return err
}

// DeactivateUserSessions logs a user out everywhere; used when an admin
// deactivates an account.
func (db *DB) DeactivateUserSessions(ctx context.Context, userID primitive.ObjectID) error {
	_, err := db.Sessions().UpdateMany(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"isActive": false}})
	return err
}
