package repository

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/models"
)

// PhotoRepository handles database operations for Photo entities
type PhotoRepository struct {
	DB *gorm.DB
}

var _ PhotoRepositoryInterface = (*PhotoRepository)(nil)

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// CreateWithFaces persists the photo row and its face rows in one transaction,
// so a photo never becomes visible without its faces. Re-ingesting an existing
// photo id (a rebuild) replaces the previous row and its faces.
func (r *PhotoRepository) CreateWithFaces(photo *models.Photo, faces []models.Face) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", photo.ID).Delete(&models.Face{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", photo.ID).Delete(&models.Photo{}).Error; err != nil {
			return err
		}
		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		if len(faces) == 0 {
			return nil
		}
		for i := range faces {
			faces[i].PhotoID = photo.ID
		}
		return tx.Create(&faces).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create photo %s with %d face(s): %w", photo.ID, len(faces), err)
	}
	return nil
}

// Exists reports whether a photo with the given content hash is already stored
func (r *PhotoRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Photo{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check photo existence for %s: %w", id, err)
	}
	return count > 0, nil
}

// GetByID retrieves a photo by its content hash
func (r *PhotoRepository) GetByID(id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.First(&photo, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by ID %s: %w", id, err)
	}
	return &photo, nil
}

// ListAll retrieves all photos ordered by creation time
func (r *PhotoRepository) ListAll() ([]models.Photo, error) {
	var photos []models.Photo
	err := r.DB.Order("created_at").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// CountStats returns the total photo count and how many of them had no face
func (r *PhotoRepository) CountStats() (int64, int64, error) {
	var total, noFace int64
	if err := r.DB.Model(&models.Photo{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count photos: %w", err)
	}
	if err := r.DB.Model(&models.Photo{}).Where("no_face = ?", true).Count(&noFace).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count no-face photos: %w", err)
	}
	return total, noFace, nil
}

// DeleteMissingFiles removes photos whose backing file was deleted manually,
// along with their faces
func (r *PhotoRepository) DeleteMissingFiles() (int64, error) {
	photos, err := r.ListAll()
	if err != nil {
		return 0, err
	}

	var missing []string
	for _, p := range photos {
		if _, statErr := os.Stat(p.FilePath); os.IsNotExist(statErr) {
			missing = append(missing, p.ID)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}

	err = r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id IN ?", missing).Delete(&models.Face{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", missing).Delete(&models.Photo{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete %d missing photo(s): %w", len(missing), err)
	}
	return int64(len(missing)), nil
}
