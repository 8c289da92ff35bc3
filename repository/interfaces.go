package repository

import (
	"github.com/facelens/facelensbackend/models"
)

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	// CreateWithFaces persists a photo row and all of its faces in a single
	// transaction. A no-face photo is persisted with an empty face slice.
	CreateWithFaces(photo *models.Photo, faces []models.Face) error
	Exists(id string) (bool, error)
	GetByID(id string) (*models.Photo, error)
	ListAll() ([]models.Photo, error)
	// CountStats returns (total photos, photos with the no-face flag set)
	CountStats() (int64, int64, error)
	// DeleteMissingFiles prunes photos whose backing file no longer exists,
	// together with their faces. Returns the number of photos removed.
	DeleteMissingFiles() (int64, error)
}

// FaceRepositoryInterface defines the methods for face data operations
type FaceRepositoryInterface interface {
	// ListAll returns every stored face across all photos
	ListAll() ([]models.Face, error)
	// ClearGroups removes the group label from every face
	ClearGroups() error
	UpdateGroup(faceID uint, groupID string) error
	Count() (int64, error)
}
