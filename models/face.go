package models

import "math"

// Model type tags identifying the embedding space a face vector belongs to.
// Faces are only ever compared for clustering within the same model type.
const (
	ModelArcFace = "arcface" // cosine space, unit-normalized vectors
	ModelDlib    = "dlib"    // euclidean space
)

// Face represents a detected face and its embedding vector.
// It corresponds to the 'faces' table.
type Face struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	PhotoID       string  `gorm:"not null;index" json:"photo_id"`
	EmbeddingData []byte  `gorm:"not null;column:embedding_data" json:"-"` // fixed-width float32 vector as BLOB
	X1            int     `gorm:"not null" json:"x1"`
	Y1            int     `gorm:"not null" json:"y1"`
	X2            int     `gorm:"not null" json:"x2"`
	Y2            int     `gorm:"not null" json:"y2"`
	ModelType     string  `gorm:"not null" json:"model_type"`
	GroupID       *string `gorm:"index" json:"group_id,omitempty"` // Nullable until a clustering pass assigns it

	Photo *Photo `gorm:"foreignKey:PhotoID" json:"photo,omitempty"` // Belongs to Photo
}

// TableName explicitly sets the table name for GORM.
func (Face) TableName() string {
	return "faces"
}

// GetEmbedding converts the BLOB data to []float32
func (f *Face) GetEmbedding() []float32 {
	if len(f.EmbeddingData) == 0 {
		return nil
	}

	embedding := make([]float32, len(f.EmbeddingData)/4) // 4 bytes per float32
	for i := 0; i < len(embedding); i++ {
		offset := i * 4
		bits := uint32(f.EmbeddingData[offset]) |
			uint32(f.EmbeddingData[offset+1])<<8 |
			uint32(f.EmbeddingData[offset+2])<<16 |
			uint32(f.EmbeddingData[offset+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

// SetEmbedding converts []float32 to BLOB data
func (f *Face) SetEmbedding(embedding []float32) {
	if len(embedding) == 0 {
		f.EmbeddingData = nil
		return
	}

	f.EmbeddingData = make([]byte, len(embedding)*4) // 4 bytes per float32
	for i, val := range embedding {
		offset := i * 4
		bits := math.Float32bits(val)
		f.EmbeddingData[offset] = byte(bits)
		f.EmbeddingData[offset+1] = byte(bits >> 8)
		f.EmbeddingData[offset+2] = byte(bits >> 16)
		f.EmbeddingData[offset+3] = byte(bits >> 24)
	}
}
