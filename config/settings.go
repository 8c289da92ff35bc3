package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
)

const (
	defaultCosineThreshold    = 0.6
	defaultEuclideanThreshold = 0.6
)

// Thresholds holds the clustering thresholds, one per embedding space.
// The cosine value is a minimum similarity, the euclidean value a maximum distance.
type Thresholds struct {
	Cosine    float64 `json:"cosine_threshold"`
	Euclidean float64 `json:"euclidean_threshold"`
}

// Settings is the mutable runtime configuration shared between the settings API
// and the clustering worker. Values are persisted to a JSON file so threshold
// changes survive restarts; a change takes effect on the next clustering pass.
type Settings struct {
	path string
	mu   sync.RWMutex
	t    Thresholds
}

func getEnvFloatOrDefault(envVar string, defaultVal float64) float64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %g. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// LoadSettings builds runtime settings from env defaults, overridden by the
// settings file if one exists. A missing or unreadable file is not an error.
func LoadSettings(path string) *Settings {
	s := &Settings{
		path: path,
		t: Thresholds{
			Cosine:    getEnvFloatOrDefault("COSINE_THRESHOLD", defaultCosineThreshold),
			Euclidean: getEnvFloatOrDefault("EUCLIDEAN_THRESHOLD", defaultEuclideanThreshold),
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read settings file %s: %v", path, err)
		}
		return s
	}

	var loaded Thresholds
	if err := json.Unmarshal(data, &loaded); err != nil {
		log.Printf("Warning: failed to parse settings file %s, keeping defaults: %v", path, err)
		return s
	}
	if loaded.Cosine > 0 {
		s.t.Cosine = loaded.Cosine
	}
	if loaded.Euclidean > 0 {
		s.t.Euclidean = loaded.Euclidean
	}
	return s
}

// Thresholds returns the current threshold pair.
func (s *Settings) Thresholds() Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.t
}

// SetThresholds replaces both thresholds and persists them.
func (s *Settings) SetThresholds(t Thresholds) error {
	s.mu.Lock()
	s.t = t
	s.mu.Unlock()
	return s.save(t)
}

func (s *Settings) save(t Thresholds) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", s.path, err)
	}
	return nil
}
