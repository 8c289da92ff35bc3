package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/models"
)

// FaceRepository handles database operations for Face entities
type FaceRepository struct {
	DB *gorm.DB
}

var _ FaceRepositoryInterface = (*FaceRepository)(nil)

// NewFaceRepository creates a new instance of FaceRepository
func NewFaceRepository(db *gorm.DB) *FaceRepository {
	return &FaceRepository{DB: db}
}

// ListAll returns every stored face, ordered by id so reclustering always
// enumerates faces in insertion order
func (r *FaceRepository) ListAll() ([]models.Face, error) {
	var faces []models.Face
	err := r.DB.Order("id").Find(&faces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list faces: %w", err)
	}
	return faces, nil
}

// ClearGroups removes the group label from every face. Reclustering clears
// first and assigns afterwards, so a crash mid-pass leaves faces unlabeled but
// never mislabeled.
func (r *FaceRepository) ClearGroups() error {
	err := r.DB.Model(&models.Face{}).Where("group_id IS NOT NULL").Update("group_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear face groups: %w", err)
	}
	return nil
}

// UpdateGroup assigns a group label to a single face
func (r *FaceRepository) UpdateGroup(faceID uint, groupID string) error {
	result := r.DB.Model(&models.Face{}).Where("id = ?", faceID).Update("group_id", groupID)
	if result.Error != nil {
		return fmt.Errorf("failed to update group for face ID %d: %w", faceID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total number of stored faces
func (r *FaceRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&models.Face{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count faces: %w", err)
	}
	return count, nil
}
