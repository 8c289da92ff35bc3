// Package mock provides an in-memory implementation of the repository
// interfaces for testing.
package mock

import (
	"os"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/models"
	"github.com/facelens/facelensbackend/repository"
)

// Store is an in-memory photo/face store implementing both repository
// interfaces. Error injection fields let tests simulate persistence failures.
type Store struct {
	mu         sync.RWMutex
	photos     map[string]models.Photo
	faces      []models.Face
	nextFaceID uint

	// Error injection
	CreateErr      error
	ListFacesErr   error
	ClearGroupsErr error
	UpdateGroupErr error
	CountErr       error
}

// PhotoRepo is the store viewed through the photo repository interface
type PhotoRepo struct{ *Store }

// FaceRepo is the store viewed through the face repository interface
type FaceRepo struct{ *Store }

// ListAll returns every stored face in insertion order
func (f FaceRepo) ListAll() ([]models.Face, error) {
	return f.Store.ListAllFaces()
}

var (
	_ repository.PhotoRepositoryInterface = PhotoRepo{}
	_ repository.FaceRepositoryInterface  = FaceRepo{}
)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		photos:     make(map[string]models.Photo),
		nextFaceID: 1,
	}
}

// PhotoRepository returns the store's photo repository view
func (s *Store) PhotoRepository() PhotoRepo { return PhotoRepo{s} }

// FaceRepository returns the store's face repository view
func (s *Store) FaceRepository() FaceRepo { return FaceRepo{s} }

// CreateWithFaces persists a photo and its faces together, replacing any
// previous entry with the same id
func (s *Store) CreateWithFaces(photo *models.Photo, faces []models.Face) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.photos[photo.ID]; ok {
		kept := s.faces[:0]
		for _, f := range s.faces {
			if f.PhotoID != photo.ID {
				kept = append(kept, f)
			}
		}
		s.faces = kept
	}
	s.photos[photo.ID] = *photo
	for i := range faces {
		faces[i].ID = s.nextFaceID
		faces[i].PhotoID = photo.ID
		s.nextFaceID++
		s.faces = append(s.faces, faces[i])
	}
	return nil
}

// Exists reports whether a photo id is stored
func (s *Store) Exists(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.photos[id]
	return ok, nil
}

// GetByID retrieves a stored photo
func (s *Store) GetByID(id string) (*models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &photo, nil
}

// ListAll returns all photos ordered by creation time then id
func (s *Store) ListAll() ([]models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photos := make([]models.Photo, 0, len(s.photos))
	for _, p := range s.photos {
		photos = append(photos, p)
	}
	sort.Slice(photos, func(i, j int) bool {
		if photos[i].CreatedAt != photos[j].CreatedAt {
			return photos[i].CreatedAt < photos[j].CreatedAt
		}
		return photos[i].ID < photos[j].ID
	})
	return photos, nil
}

// CountStats returns (total photos, photos with the no-face flag)
func (s *Store) CountStats() (int64, int64, error) {
	if s.CountErr != nil {
		return 0, 0, s.CountErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var noFace int64
	for _, p := range s.photos {
		if p.NoFace {
			noFace++
		}
	}
	return int64(len(s.photos)), noFace, nil
}

// DeleteMissingFiles prunes photos whose file is gone, with their faces
func (s *Store) DeleteMissingFiles() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, p := range s.photos {
		if _, err := os.Stat(p.FilePath); os.IsNotExist(err) {
			delete(s.photos, id)
			kept := s.faces[:0]
			for _, f := range s.faces {
				if f.PhotoID != id {
					kept = append(kept, f)
				}
			}
			s.faces = kept
			removed++
		}
	}
	return removed, nil
}

// ListAllFaces returns every face in insertion (id) order
func (s *Store) ListAllFaces() ([]models.Face, error) {
	if s.ListFacesErr != nil {
		return nil, s.ListFacesErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	faces := make([]models.Face, len(s.faces))
	copy(faces, s.faces)
	return faces, nil
}

// ClearGroups removes every group label
func (s *Store) ClearGroups() error {
	if s.ClearGroupsErr != nil {
		return s.ClearGroupsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.faces {
		s.faces[i].GroupID = nil
	}
	return nil
}

// UpdateGroup assigns a group label to one face
func (s *Store) UpdateGroup(faceID uint, groupID string) error {
	if s.UpdateGroupErr != nil {
		return s.UpdateGroupErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.faces {
		if s.faces[i].ID == faceID {
			label := groupID
			s.faces[i].GroupID = &label
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Count returns the number of stored faces
func (s *Store) Count() (int64, error) {
	if s.CountErr != nil {
		return 0, s.CountErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.faces)), nil
}

// Faces returns a copy of the stored faces for assertions
func (s *Store) Faces() []models.Face {
	faces, _ := s.ListAllFaces()
	return faces
}

// Photos returns a copy of the stored photos for assertions
func (s *Store) Photos() []models.Photo {
	photos, _ := s.ListAll()
	return photos
}
