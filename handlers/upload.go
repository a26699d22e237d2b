package handlers

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkreader/backend/middleware"
	"github.com/inkreader/backend/service"
	"github.com/inkreader/backend/utils"
)

type UploadHandler struct {
	S3          *service.S3Service
	MaxUploadMB int64
}

// uploadPrefixes maps the upload type to its S3 key prefix. Avatar
// uploads are open to any signed-in user, the rest are admin-only.
var uploadPrefixes = map[string]string{
	"cover":  "covers/",
	"banner": "banners/",
	"page":   "pages/",
	"avatar": "avatars/",
}

// Upload handles POST /api/upload: multipart form with "file" and "type".
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		utils.Error(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	maxBytes := h.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		utils.BadRequest(w, "file too large or malformed upload")
		return
	}
	uploadType := r.FormValue("type")
	prefix, ok := uploadPrefixes[uploadType]
	if !ok {
		utils.BadRequest(w, "type must be one of: cover, banner, page, avatar")
		return
	}
	if uploadType != "avatar" && !middleware.IsAdmin(r.Context()) {
		utils.Forbidden(w, "admin access required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		utils.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	// Sniff the real content type, the client header is not trusted.
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		utils.Internal(w, "failed to read upload")
		return
	}
	contentType := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(contentType, "image/") {
		utils.BadRequest(w, "only image uploads are allowed")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		utils.Internal(w, "failed to read upload")
		return
	}

	key, err := h.S3.Upload(r.Context(), prefix, header.Filename, file, contentType)
	if err != nil {
		utils.Internal(w, "failed to store image")
		return
	}
	utils.Created(w, map[string]string{
		"key": key,
		"url": "/api/images/" + key,
	})
}

// Image handles GET /api/images/{key...}, streaming the object from S3.
func (h *UploadHandler) Image(w http.ResponseWriter, r *http.Request) {
	if h.S3 == nil {
		utils.Error(w, http.StatusServiceUnavailable, "image storage is not configured")
		return
	}
	key := chi.URLParam(r, "*")
	if key == "" {
		utils.BadRequest(w, "image key is required")
		return
	}
	body, contentType, err := h.S3.GetObject(r.Context(), key)
	if err != nil {
		utils.NotFound(w, "image not found")
		return
	}
	defer body.Close()
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	io.Copy(w, body)
}
