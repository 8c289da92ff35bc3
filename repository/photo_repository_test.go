package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/facelens/facelensbackend/database"
	"github.com/facelens/facelensbackend/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.InitGormDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// writeBackingFile creates a real file so DeleteMissingFiles keeps the photo
func writeBackingFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really a jpeg"), 0644))
	return path
}

func testFace(model string, embedding ...float32) models.Face {
	f := models.Face{X1: 1, Y1: 2, X2: 30, Y2: 40, ModelType: model}
	f.SetEmbedding(embedding)
	return f
}

func TestCreateWithFacesPersistsBoth(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)

	photo := models.Photo{ID: "hash-a", FilePath: "/photos/a.jpg", OrigName: "a.jpg", Width: 640, Height: 480}
	faces := []models.Face{
		testFace(models.ModelArcFace, 1, 0, 0),
		testFace(models.ModelArcFace, 0, 1, 0),
	}
	require.NoError(t, repo.CreateWithFaces(&photo, faces))

	got, err := repo.GetByID("hash-a")
	require.NoError(t, err)
	assert.Equal(t, "a.jpg", got.OrigName)
	assert.Equal(t, 640, got.Width)
	assert.False(t, got.NoFace)

	var stored []models.Face
	require.NoError(t, db.Where("photo_id = ?", "hash-a").Order("id").Find(&stored).Error)
	require.Len(t, stored, 2)
	assert.Equal(t, []float32{1, 0, 0}, stored[0].GetEmbedding())
	assert.Nil(t, stored[0].GroupID, "new faces start unlabeled")
}

func TestCreateWithFacesNoFacePhoto(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)

	photo := models.Photo{ID: "hash-empty", FilePath: "/photos/empty.jpg", OrigName: "empty.jpg", NoFace: true}
	require.NoError(t, repo.CreateWithFaces(&photo, nil))

	total, noFace, err := repo.CountStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), noFace)
}

// Re-ingesting the same photo id, as a rebuild does, replaces the old row and
// its faces instead of piling up duplicates
func TestCreateWithFacesReplacesExistingPhoto(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)

	photo := models.Photo{ID: "hash-dup", FilePath: "/photos/d.jpg", OrigName: "d.jpg"}
	require.NoError(t, repo.CreateWithFaces(&photo, []models.Face{
		testFace(models.ModelArcFace, 1, 0),
		testFace(models.ModelArcFace, 0, 1),
	}))

	again := models.Photo{ID: "hash-dup", FilePath: "/photos/d.jpg", OrigName: "d.jpg", Width: 800}
	require.NoError(t, repo.CreateWithFaces(&again, []models.Face{
		testFace(models.ModelArcFace, 1, 1),
	}))

	got, err := repo.GetByID("hash-dup")
	require.NoError(t, err)
	assert.Equal(t, 800, got.Width)

	var faceCount int64
	require.NoError(t, db.Model(&models.Face{}).Where("photo_id = ?", "hash-dup").Count(&faceCount).Error)
	assert.Equal(t, int64(1), faceCount, "old faces must not survive the re-ingest")

	total, _, err := repo.CountStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestExists(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)

	ok, err := repo.Exists("nope")
	require.NoError(t, err)
	assert.False(t, ok)

	photo := models.Photo{ID: "hash-x", FilePath: "/photos/x.jpg", OrigName: "x.jpg", NoFace: true}
	require.NoError(t, repo.CreateWithFaces(&photo, nil))

	ok, err = repo.Exists("hash-x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetByIDNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)

	_, err := repo.GetByID("missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteMissingFilesPrunesPhotosAndFaces(t *testing.T) {
	db := setupDB(t)
	repo := NewPhotoRepository(db)
	dir := t.TempDir()

	kept := models.Photo{ID: "hash-kept", FilePath: writeBackingFile(t, dir, "kept.jpg"), OrigName: "kept.jpg"}
	require.NoError(t, repo.CreateWithFaces(&kept, []models.Face{testFace(models.ModelArcFace, 1, 0)}))

	gone := models.Photo{ID: "hash-gone", FilePath: filepath.Join(dir, "gone.jpg"), OrigName: "gone.jpg"}
	require.NoError(t, repo.CreateWithFaces(&gone, []models.Face{testFace(models.ModelArcFace, 0, 1)}))

	pruned, err := repo.DeleteMissingFiles()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	_, err = repo.GetByID("hash-gone")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	var orphanFaces int64
	require.NoError(t, db.Model(&models.Face{}).Where("photo_id = ?", "hash-gone").Count(&orphanFaces).Error)
	assert.Zero(t, orphanFaces, "faces must not outlive their photo")

	total, _, err := repo.CountStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
