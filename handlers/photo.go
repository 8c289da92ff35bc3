package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/config"
	"github.com/facelens/facelensbackend/media"
	"github.com/facelens/facelensbackend/repository"
)

// PhotoHandler serves stored photo files, optionally resized
type PhotoHandler struct {
	Cfg       config.Config
	PhotoRepo repository.PhotoRepositoryInterface
}

// GetPhoto handles GET /api/photos/{photoID}. Without a `w` query parameter
// the original file is served as-is; with one the image is scaled down to
// that width and re-encoded as JPEG.
func (h *PhotoHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photoID := chi.URLParam(r, "photoID")

	photo, err := h.PhotoRepo.GetByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "photo_not_found", "photo not found")
			return
		}
		log.Printf("photo: failed to load %s: %v", photoID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to load photo")
		return
	}

	if _, err := os.Stat(photo.FilePath); os.IsNotExist(err) {
		WriteAPIError(w, http.StatusNotFound, "file_missing", "file missing on disk")
		return
	}

	widthStr := r.URL.Query().Get("w")
	if widthStr == "" {
		http.ServeFile(w, r, photo.FilePath)
		return
	}

	width, err := strconv.Atoi(widthStr)
	if err != nil || width <= 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_width", "w must be a positive integer")
		return
	}
	if width > h.Cfg.PreviewMaxWidth {
		width = h.Cfg.PreviewMaxWidth
	}

	data, err := os.ReadFile(photo.FilePath)
	if err != nil {
		log.Printf("photo: failed to read %s: %v", photo.FilePath, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to read photo file")
		return
	}

	preview, err := media.ResizeToWidth(data, width)
	if err != nil {
		log.Printf("photo: failed to resize %s: %v", photoID, err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to resize photo")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(preview)
}
