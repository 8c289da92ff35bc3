package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	var f Face
	in := []float32{0.5, -1.25, 3.0e-7, 512, 0}
	f.SetEmbedding(in)

	assert.Len(t, f.EmbeddingData, len(in)*4)
	assert.Equal(t, in, f.GetEmbedding())
}

func TestEmbeddingEmpty(t *testing.T) {
	var f Face
	f.SetEmbedding(nil)
	assert.Nil(t, f.EmbeddingData)
	assert.Nil(t, f.GetEmbedding())
}
