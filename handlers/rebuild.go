package handlers

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/facelens/facelensbackend/repository"
	"github.com/facelens/facelensbackend/workers"
)

// RebuildHandler re-enqueues the whole collection for a fresh extraction and
// clustering pass
type RebuildHandler struct {
	PhotoRepo repository.PhotoRepositoryInterface
	Processor *workers.PhotoProcessor
}

// RebuildResponse reports what the rebuild request did
type RebuildResponse struct {
	Message      string `json:"message"`
	QueuedJobs   int    `json:"queued_jobs"`
	PrunedPhotos int64  `json:"pruned_photos"`
}

// Rebuild handles POST /api/rebuild. Photos whose backing file disappeared
// are pruned first; every remaining photo is resubmitted as a single batch.
func (h *RebuildHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	if h.Processor.Status().State == workers.StateRunning {
		WriteAPIError(w, http.StatusConflict, "processing_running", "processing already running")
		return
	}

	pruned, err := h.PhotoRepo.DeleteMissingFiles()
	if err != nil {
		log.Printf("rebuild: failed to prune missing files: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to prune missing files")
		return
	}
	if pruned > 0 {
		log.Printf("rebuild: pruned %d photo(s) with missing files", pruned)
	}

	photos, err := h.PhotoRepo.ListAll()
	if err != nil {
		log.Printf("rebuild: failed to list photos: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to list photos")
		return
	}

	var jobs []workers.PhotoJob
	for _, photo := range photos {
		if _, statErr := os.Stat(photo.FilePath); statErr != nil {
			continue
		}
		jobs = append(jobs, workers.PhotoJob{
			PhotoID:  photo.ID,
			FilePath: photo.FilePath,
			OrigName: photo.OrigName,
		})
	}

	if len(jobs) == 0 {
		writeJSON(w, http.StatusOK, RebuildResponse{Message: "No photos to rebuild", PrunedPhotos: pruned})
		return
	}

	if err := h.Processor.Submit(jobs); err != nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "queue_full", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, RebuildResponse{
		Message:      fmt.Sprintf("Rebuild started for %d photo(s)", len(jobs)),
		QueuedJobs:   len(jobs),
		PrunedPhotos: pruned,
	})
}
