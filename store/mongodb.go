package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Manga() *mongo.Collection {
	return db.Database.Collection("manga")
}

func (db *DB) Chapters() *mongo.Collection {
	return db.Database.Collection("chapters")
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Comments() *mongo.Collection {
	return db.Database.Collection("comments")
}

func (db *DB) Reactions() *mongo.Collection {
	return db.Database.Collection("reactions")
}

func (db *DB) Sessions() *mongo.Collection {
	return db.Database.Collection("sessions")
}

// EnsureIndexes creates the unique, text and TTL indexes the stores rely
// on. Safe to call on every startup; mongo treats existing identical
// indexes as a no-op.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := db.Manga().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_slug").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "altTitles", Value: "text"},
				{Key: "description", Value: "text"},
			},
			Options: options.Index().SetName("idx_text_search"),
		},
		{
			Keys:    bson.D{{Key: "isPrivate", Value: 1}, {Key: "updatedAt", Value: -1}},
			Options: options.Index().SetName("idx_private_updated"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Chapters().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "mangaId", Value: 1}, {Key: "chapterNumber", Value: 1}},
			Options: options.Index().SetName("idx_manga_number").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("idx_chapter_slug"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("idx_username").SetUnique(true),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Comments().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "mangaId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_manga_created"),
		},
		{
			Keys:    bson.D{{Key: "chapterId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("idx_chapter_created"),
		},
		{
			Keys:    bson.D{{Key: "parentId", Value: 1}},
			Options: options.Index().SetName("idx_parent"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Reactions().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "targetType", Value: 1},
				{Key: "targetId", Value: 1},
				{Key: "userId", Value: 1},
				{Key: "ipHash", Value: 1},
			},
			Options: options.Index().SetName("idx_target_actor"),
		},
	})
	if err != nil {
		return err
	}

	_, err = db.Sessions().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_token").SetUnique(true),
		},
		{
			// TTL: mongo removes the session once expiresAt passes.
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("idx_ttl").SetExpireAfterSeconds(0),
		},
	})
	return err
}

// IsDuplicateKey reports whether err is a mongo unique-index violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
