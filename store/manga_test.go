package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildMangaMatch(t *testing.T) {
	testCases := []struct {
		name   string
		filter MangaFilter
		want   bson.M
	}{
		{
			"zero value hides private",
			MangaFilter{},
			bson.M{"isPrivate": false},
		},
		{
			"admin view includes private",
			MangaFilter{IncludePrivate: true},
			bson.M{},
		},
		{
			"text search",
			MangaFilter{Search: "solo leveling"},
			bson.M{
				"isPrivate": false,
				"$text":     bson.M{"$search": "solo leveling"},
			},
		},
		{
			"combined filters",
			MangaFilter{Genre: "action", Status: "ongoing", Type: "manhwa"},
			bson.M{
				"isPrivate": false,
				"genres":    "action",
				"status":    "ongoing",
				"type":      "manhwa",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildMangaMatch(tc.filter)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("match mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMangaSortField(t *testing.T) {
	testCases := []struct {
		key  string
		want string
	}{
		{"title", "title"},
		{"views", "viewCount"},
		{"favorites", "favoriteCount"},
		{"rating", "rating"},
		{"createdAt", "createdAt"},
		{"", "updatedAt"},
		{"bogus", "updatedAt"},
	}

	for _, tc := range testCases {
		if got := MangaSortField(tc.key); got != tc.want {
			t.Errorf("MangaSortField(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestLikeToggleUpdate(t *testing.T) {
	uid := primitive.NewObjectID()

	testCases := []struct {
		name             string
		inSet, inOther   bool
		want             bson.M
	}{
		{
			"first like adds and counts",
			false, false,
			bson.M{
				"$addToSet": bson.M{"likes": uid},
				"$inc":      bson.M{"likeCount": 1},
			},
		},
		{
			"second like retracts",
			true, false,
			bson.M{
				"$pull": bson.M{"likes": uid},
				"$inc":  bson.M{"likeCount": -1},
			},
		},
		{
			"like after dislike swaps the vote",
			false, true,
			bson.M{
				"$addToSet": bson.M{"likes": uid},
				"$pull":     bson.M{"dislikes": uid},
				"$inc":      bson.M{"likeCount": 1, "dislikeCount": -1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := likeToggleUpdate(uid, "likes", "dislikes", "likeCount", "dislikeCount", tc.inSet, tc.inOther)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("toggle pair is a no-op", func(t *testing.T) {
		add := likeToggleUpdate(uid, "likes", "dislikes", "likeCount", "dislikeCount", false, false)
		undo := likeToggleUpdate(uid, "likes", "dislikes", "likeCount", "dislikeCount", true, false)
		if add["$inc"].(bson.M)["likeCount"].(int)+undo["$inc"].(bson.M)["likeCount"].(int) != 0 {
			t.Error("increments of a toggle pair do not cancel")
		}
	})
}
