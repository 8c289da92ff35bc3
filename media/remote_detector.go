package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const availabilityTimeout = 5 * time.Second

// RemoteDetector talks to a face detection/embedding HTTP service. The service
// accepts a multipart image upload and returns the detected faces with their
// embedding vectors, bounding boxes and model tag.
type RemoteDetector struct {
	baseURL string
	client  *http.Client
}

var _ Detector = (*RemoteDetector)(nil)

// NewRemoteDetector creates a detector client for the given base URL
func NewRemoteDetector(baseURL string) *RemoteDetector {
	d := &RemoteDetector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
	if err := d.Available(); err != nil {
		log.Printf("detector: not available at startup: %v", err)
	} else {
		log.Printf("detector: service reachable at %s", d.baseURL)
	}
	return d
}

// Available probes the detector's health endpoint. The returned error carries
// a diagnostic suitable for surfacing directly in the worker status.
func (d *RemoteDetector) Available() error {
	ctx, cancel := context.WithTimeout(context.Background(), availabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("detector service unavailable: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("detector service unreachable at %s: %v — is the embedding service running?", d.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detector service at %s returned status %d", d.baseURL, resp.StatusCode)
	}
	return nil
}

// detectorFace mirrors one face object in the service response
type detectorFace struct {
	Embedding []float32 `json:"embedding"`
	BBox      []int     `json:"bbox"` // [x1, y1, x2, y2]
	ModelType string    `json:"model_type"`
}

// detectorResponse mirrors the service's detection response
type detectorResponse struct {
	FacesCount int            `json:"faces_count"`
	Faces      []detectorFace `json:"faces"`
}

// Detect uploads the image and returns all detected faces
func (d *RemoteDetector) Detect(ctx context.Context, imageData []byte) ([]DetectedFace, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create detect request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read detect response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var detResp detectorResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse detect response: %w", err)
	}

	faces := make([]DetectedFace, 0, len(detResp.Faces))
	for _, f := range detResp.Faces {
		if len(f.BBox) != 4 {
			return nil, fmt.Errorf("detector returned malformed bbox with %d value(s)", len(f.BBox))
		}
		faces = append(faces, DetectedFace{
			Embedding: f.Embedding,
			X1:        f.BBox[0],
			Y1:        f.BBox[1],
			X2:        f.BBox[2],
			Y2:        f.BBox[3],
			ModelType: f.ModelType,
		})
	}
	return faces, nil
}
