package handlers

import (
	"log"
	"net/http"

	"github.com/facelens/facelensbackend/repository"
	"github.com/facelens/facelensbackend/workers"
)

// StatusHandler exposes the worker's progress record plus store-wide totals
type StatusHandler struct {
	Processor *workers.PhotoProcessor
	PhotoRepo repository.PhotoRepositoryInterface
}

// StatusResponse combines the worker status snapshot with the current photo
// totals so the UI can poll a single endpoint.
type StatusResponse struct {
	workers.Status
	TotalPhotos int64 `json:"total_photos"`
}

// GetStatus returns the current processing status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := h.Processor.Status()

	totalPhotos, photosNoFace, err := h.PhotoRepo.CountStats()
	if err != nil {
		log.Printf("status: failed to read photo stats: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to read photo stats")
		return
	}

	// the store is authoritative for the global no-face count; the worker's
	// own counter only covers the run in flight
	status.PhotosNoFace = photosNoFace

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:      status,
		TotalPhotos: totalPhotos,
	})
}
