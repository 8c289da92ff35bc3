package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/facelens/facelensbackend/config"
	"github.com/facelens/facelensbackend/media"
	"github.com/facelens/facelensbackend/repository"
	"github.com/facelens/facelensbackend/utils"
	"github.com/facelens/facelensbackend/workers"
)

const maxUploadMemory = 64 << 20 // 64 MiB before spilling to disk

// UploadHandler accepts photo uploads and enqueues them as one batch
type UploadHandler struct {
	Cfg       config.Config
	PhotoRepo repository.PhotoRepositoryInterface
	Processor *workers.PhotoProcessor
	Detector  media.Detector
}

// UploadResponse reports how many files were accepted into the batch
type UploadResponse struct {
	Accepted   int    `json:"accepted"`
	QueuedJobs int    `json:"queued_jobs"`
	Message    string `json:"message"`
}

// UploadPhotos handles POST /api/photos: a multipart form with one or more
// image files. Files are stored under their content hash; bytes already in the
// store are skipped. All accepted files become a single job batch.
func (h *UploadHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	// the detector must be available before a batch is accepted
	if err := h.Detector.Available(); err != nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "detector_unavailable", err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_multipart_form", "failed to parse multipart form: "+err.Error())
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "no_files", "no files received")
		return
	}

	var jobs []workers.PhotoJob
	accepted := 0
	for _, header := range files {
		if !utils.IsRasterImage(header.Filename) {
			continue
		}

		destPath, photoID, err := h.savePhotoFile(header)
		if err != nil {
			log.Printf("upload: failed to save %s: %v", header.Filename, err)
			WriteAPIError(w, http.StatusInternalServerError, "upload_failed", fmt.Sprintf("failed to save %s", header.Filename))
			return
		}

		exists, err := h.PhotoRepo.Exists(photoID)
		if err != nil {
			log.Printf("upload: failed to check photo %s: %v", photoID, err)
			WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to check for existing photo")
			return
		}
		if exists {
			continue
		}

		jobs = append(jobs, workers.PhotoJob{
			PhotoID:  photoID,
			FilePath: destPath,
			OrigName: header.Filename,
		})
		accepted++
	}

	if len(jobs) > 0 {
		if err := h.Processor.Submit(jobs); err != nil {
			WriteAPIError(w, http.StatusServiceUnavailable, "queue_full", err.Error())
			return
		}
	}

	writeJSON(w, http.StatusAccepted, UploadResponse{
		Accepted:   accepted,
		QueuedJobs: len(jobs),
		Message:    "Processing queued",
	})
}

// savePhotoFile streams the uploaded part to the photos directory under its
// content hash and returns (destination path, photo id)
func (h *UploadHandler) savePhotoFile(header *multipart.FileHeader) (string, string, error) {
	src, err := header.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", "", fmt.Errorf("failed to read uploaded file: %w", err)
	}

	photoID := utils.ContentHash(data)
	ext := strings.ToLower(filepath.Ext(header.Filename))
	destPath := filepath.Join(h.Cfg.PhotosPath, photoID+ext)

	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		if err := os.WriteFile(destPath, data, 0644); err != nil {
			return "", "", fmt.Errorf("failed to write photo file %s: %w", destPath, err)
		}
	}
	return destPath, photoID, nil
}
