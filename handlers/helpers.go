package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ParsePagination reads page/limit query params, clamping to sane bounds.
func ParsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	return page, limit
}

// TotalPages computes the page count for a total and limit.
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

// decodeJSON decodes the request body into dst and runs validator tags.
// Returns a user-facing message on failure.
func decodeJSON(r *http.Request, dst interface{}) (string, bool) {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid json body", false
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			msgs := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				msgs = append(msgs, ve.Field()+" is invalid ("+ve.Tag()+")")
			}
			return strings.Join(msgs, ", "), false
		}
		return "validation failed", false
	}
	return "", true
}

// idParam parses the chi URL parameter name as an ObjectID.
func idParam(r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id, err == nil
}

// primitiveFromHex wraps ObjectIDFromHex for request bodies.
func primitiveFromHex(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}

// contextWithTimeout is a background context for work that outlives the
// request (notification fan-out).
func contextWithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
