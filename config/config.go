package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultPhotosSubDir = "photos"
	DefaultTmpSubDir    = "tmp"
)

const (
	defaultJobQueueSize    = 100
	defaultPreviewMaxWidth = 1600
)

type Config struct {
	// data storage root (photos, database and settings file all live under it)
	DataDirectory string

	// database path
	DatabasePath string

	// media storage configuration
	PhotosPath string // originals, named by content hash
	TmpPath    string // upload staging

	// clustering threshold settings file
	SettingsPath string

	// detector service base URL
	DetectorURL string

	// worker settings
	JobQueueSize int

	// photo preview settings
	PreviewMaxWidth int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dataDir := getEnvOrDefault("DATA_DIRECTORY", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for data directory '%s': %w", dataDir, err)
	}

	dbPath := getEnvOrDefault("DATABASE_PATH", filepath.Join(absDataDir, "app.db"))

	photosSubDir := getEnvOrDefault("PHOTOS_SUBDIR", DefaultPhotosSubDir)
	absPhotosPath := filepath.Join(absDataDir, photosSubDir)

	tmpSubDir := getEnvOrDefault("TMP_SUBDIR", DefaultTmpSubDir)
	absTmpPath := filepath.Join(absDataDir, tmpSubDir)

	settingsPath := getEnvOrDefault("SETTINGS_PATH", filepath.Join(absDataDir, "settings.json"))

	detectorURL := getEnvOrDefault("DETECTOR_URL", "http://localhost:8000")

	queueSize := getEnvIntOrDefault("JOB_QUEUE_SIZE", defaultJobQueueSize)
	previewMaxWidth := getEnvIntOrDefault("PREVIEW_MAX_WIDTH", defaultPreviewMaxWidth)

	cfg := Config{
		DataDirectory:   absDataDir,
		DatabasePath:    dbPath,
		PhotosPath:      absPhotosPath,
		TmpPath:         absTmpPath,
		SettingsPath:    settingsPath,
		DetectorURL:     detectorURL,
		JobQueueSize:    queueSize,
		PreviewMaxWidth: previewMaxWidth,
	}

	return cfg, nil
}
