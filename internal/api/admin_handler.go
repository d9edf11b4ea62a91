package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/media"
)

type ImageUploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

type AdminHandler struct {
	images  ImageUploader
	maxSize int64
	timeout time.Duration
}

func NewAdminHandler(images ImageUploader, maxSize int64, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		images:  images,
		maxSize: maxSize,
		timeout: timeout,
	}
}

type UploadResponseDTO struct {
	URL string `json:"url"`
}

// POST /api/v1/admin/images
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if h.images == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "image storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form with a file field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_file", "file is required")
		return
	}
	defer file.Close()

	url, err := h.images.Upload(ctx, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if errors.Is(err, media.ErrUnsupportedType) {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_type", "only jpeg, png, webp and gif images are accepted")
		return
	}
	if err != nil {
		logger.Printf(ctx, "image upload failed: %v", err)
		respondError(w, http.StatusBadGateway, "upload_failed", "could not store the image")
		return
	}

	respondJSON(w, http.StatusCreated, UploadResponseDTO{URL: url})
}
