package media

import "context"

// DetectedFace is one face returned by the detector capability: a fixed-length
// embedding, a bounding box in source-image pixel coordinates and the model
// type tag that fixes the face's embedding space for life.
type DetectedFace struct {
	Embedding      []float32
	X1, Y1, X2, Y2 int
	ModelType      string
}

// Detector is the external face detection/embedding capability. The pipeline
// never runs detection in-process; it talks to whatever implements this.
type Detector interface {
	// Available returns nil when the detector can serve requests, otherwise a
	// human-readable diagnostic. It is queried before a batch is accepted and
	// again before a batch is processed.
	Available() error

	// Detect returns zero or more faces for the full image
	Detect(ctx context.Context, imageData []byte) ([]DetectedFace, error)
}
