package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/inkreader/backend/models"
)

func TestToggleMembershipUpdate(t *testing.T) {
	uid := primitive.NewObjectID()

	testCases := []struct {
		name    string
		inSet   bool
		inOther bool
		want    bson.M
	}{
		{
			"first vote adds",
			false, false,
			bson.M{"$addToSet": bson.M{"likes": uid}},
		},
		{
			"repeat vote retracts",
			true, false,
			bson.M{"$pull": bson.M{"likes": uid}},
		},
		{
			"opposite vote swaps",
			false, true,
			bson.M{
				"$addToSet": bson.M{"likes": uid},
				"$pull":     bson.M{"dislikes": uid},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := toggleMembershipUpdate(uid, "likes", "dislikes", tc.inSet, tc.inOther)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSoftDeleteUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := bson.M{"$set": bson.M{
		"content":   models.DeletedCommentPlaceholder,
		"isDeleted": true,
		"updatedAt": now,
	}}
	if diff := cmp.Diff(want, softDeleteUpdate(now)); diff != "" {
		t.Errorf("update mismatch (-want +got):\n%s", diff)
	}
}
