package store

import (
	"context"
	"time"

	"github.com/inkreader/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// SettingsExport is one user's preferences keyed by email, the stable
// identifier across installs. No credentials or history leave the DB.
type SettingsExport struct {
	Email    string          `bson:"email" json:"email"`
	Settings models.Settings `bson:"settings" json:"settings"`
}

// ExportDump is the backup payload: manga, chapters and user settings.
// Accounts, sessions and comments are never exported.
type ExportDump struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Manga      []models.Manga   `json:"manga"`
	Chapters   []models.Chapter `json:"chapters"`
	Settings   []SettingsExport `json:"settings"`
}

// Export dumps the collections concurrently.
func (db *DB) Export(ctx context.Context) (*ExportDump, error) {
	dump := &ExportDump{ExportedAt: time.Now()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := db.Manga().Find(gctx, bson.M{})
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		return cur.All(gctx, &dump.Manga)
	})
	g.Go(func() error {
		cur, err := db.Chapters().Find(gctx, bson.M{})
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		return cur.All(gctx, &dump.Chapters)
	})
	g.Go(func() error {
		cur, err := db.Users().Find(gctx, bson.M{},
			options.Find().SetProjection(bson.M{"email": 1, "settings": 1}))
		if err != nil {
			return err
		}
		defer cur.Close(gctx)
		return cur.All(gctx, &dump.Settings)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if dump.Manga == nil {
		dump.Manga = []models.Manga{}
	}
	if dump.Chapters == nil {
		dump.Chapters = []models.Chapter{}
	}
	if dump.Settings == nil {
		dump.Settings = []SettingsExport{}
	}
	return dump, nil
}

// ImportResult counts what a restore touched.
type ImportResult struct {
	MangaUpserted    int64 `json:"mangaUpserted"`
	ChaptersUpserted int64 `json:"chaptersUpserted"`
	SettingsApplied  int64 `json:"settingsApplied"`
}

// Import restores a dump, upserting manga by slug and chapters by
// (mangaId, chapterNumber) so a restore never duplicates documents.
// Settings apply to existing accounts matched by email; unknown emails
// are skipped, a restore never creates users.
func (db *DB) Import(ctx context.Context, dump *ExportDump) (*ImportResult, error) {
	result := &ImportResult{}
	upsert := options.Replace().SetUpsert(true)
	for i := range dump.Manga {
		m := &dump.Manga[i]
		// matched docs keep their _id, so chapter refs stay valid
		res, err := db.Manga().ReplaceOne(ctx, bson.M{"slug": m.Slug}, m, upsert)
		if err != nil {
			return nil, err
		}
		result.MangaUpserted += res.ModifiedCount + res.UpsertedCount
	}
	for i := range dump.Chapters {
		c := &dump.Chapters[i]
		filter := bson.M{"mangaId": c.MangaID, "chapterNumber": c.ChapterNumber}
		res, err := db.Chapters().ReplaceOne(ctx, filter, c, upsert)
		if err != nil {
			return nil, err
		}
		result.ChaptersUpserted += res.ModifiedCount + res.UpsertedCount
	}
	for _, s := range dump.Settings {
		res, err := db.Users().UpdateOne(ctx,
			bson.M{"email": s.Email},
			bson.M{"$set": bson.M{"settings": s.Settings}})
		if err != nil {
			return nil, err
		}
		result.SettingsApplied += res.MatchedCount
	}
	return result, nil
}

// Stats are the admin dashboard collection counts.
type Stats struct {
	Manga    int64 `json:"manga"`
	Chapters int64 `json:"chapters"`
	Users    int64 `json:"users"`
	Comments int64 `json:"comments"`
}

func (db *DB) CollectionStats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	g, gctx := errgroup.WithContext(ctx)
	count := func(coll *mongo.Collection, dst *int64) func() error {
		return func() error {
			n, err := coll.CountDocuments(gctx, bson.M{})
			*dst = n
			return err
		}
	}
	g.Go(count(db.Manga(), &s.Manga))
	g.Go(count(db.Chapters(), &s.Chapters))
	g.Go(count(db.Users(), &s.Users))
	g.Go(count(db.Comments(), &s.Comments))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}
