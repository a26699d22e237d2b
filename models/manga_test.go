package models

import "testing"

func TestRecomputeRating(t *testing.T) {
	testCases := []struct {
		name      string
		values    []int
		want      float64
		wantCount int
	}{
		{"no ratings", nil, 0, 0},
		{"single", []int{7}, 7, 1},
		{"mean rounds down", []int{7, 8, 8}, 7.7, 3},
		{"mean rounds up", []int{7, 8}, 7.5, 2},
		{"all max", []int{10, 10, 10}, 10, 3},
		{"third decimal drops", []int{1, 1, 2}, 1.3, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &Manga{}
			for _, v := range tc.values {
				m.Ratings = append(m.Ratings, Rating{Value: v})
			}
			m.RecomputeRating()
			if m.Rating != tc.want {
				t.Errorf("rating = %v, want %v", m.Rating, tc.want)
			}
			if m.RatingCount != tc.wantCount {
				t.Errorf("ratingCount = %d, want %d", m.RatingCount, tc.wantCount)
			}
		})
	}
}

func TestRecomputeRatingClearsStale(t *testing.T) {
	m := &Manga{Rating: 9.9, RatingCount: 12}
	m.RecomputeRating()
	if m.Rating != 0 || m.RatingCount != 0 {
		t.Errorf("got rating=%v count=%d, want zeros", m.Rating, m.RatingCount)
	}
}
