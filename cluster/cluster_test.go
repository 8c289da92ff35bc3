package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facelens/facelensbackend/models"
)

// labelsByFace flattens assignments into a faceID -> groupID lookup
func labelsByFace(t *testing.T, assignments []Assignment) map[uint]string {
	t.Helper()
	labels := make(map[uint]string, len(assignments))
	for _, a := range assignments {
		_, dup := labels[a.FaceID]
		require.False(t, dup, "face %d assigned twice", a.FaceID)
		labels[a.FaceID] = a.GroupID
	}
	return labels
}

// samePartition reports whether two assignment sets describe the same grouping
// of the same faces, ignoring the actual label values
func samePartition(a, b map[uint]string) bool {
	if len(a) != len(b) {
		return false
	}
	for f1 := range a {
		for f2 := range a {
			if (a[f1] == a[f2]) != (b[f1] == b[f2]) {
				return false
			}
		}
	}
	return true
}

func distinctGroups(labels map[uint]string) int {
	seen := make(map[string]bool)
	for _, g := range labels {
		seen[g] = true
	}
	return len(seen)
}

func arcfaceFaces(embeddings ...[]float32) []FaceVector {
	faces := make([]FaceVector, len(embeddings))
	for i, e := range embeddings {
		faces[i] = FaceVector{FaceID: uint(i + 1), Embedding: e, ModelType: models.ModelArcFace}
	}
	return faces
}

func dlibFaces(embeddings ...[]float32) []FaceVector {
	faces := make([]FaceVector, len(embeddings))
	for i, e := range embeddings {
		faces[i] = FaceVector{FaceID: uint(i + 1), Embedding: e, ModelType: models.ModelDlib}
	}
	return faces
}

func TestAssignGroupsEmptyInput(t *testing.T) {
	assert.Nil(t, AssignGroups(nil, 0.6, 0.6))
	assert.Nil(t, AssignGroups([]FaceVector{}, 0.6, 0.6))
}

func TestEveryFaceGetsExactlyOneLabel(t *testing.T) {
	faces := []FaceVector{
		{FaceID: 1, Embedding: []float32{1, 0}, ModelType: models.ModelArcFace},
		{FaceID: 2, Embedding: []float32{0, 1}, ModelType: models.ModelArcFace},
		{FaceID: 3, Embedding: []float32{1, 1}, ModelType: models.ModelDlib},
		{FaceID: 4, Embedding: []float32{9, 9}, ModelType: models.ModelDlib},
	}
	assignments := AssignGroups(faces, 0.6, 0.6)
	labels := labelsByFace(t, assignments)
	require.Len(t, labels, 4)
	for _, g := range labels {
		assert.NotEmpty(t, g)
	}
}

// Faces within threshold of each other only transitively through a chain of
// first-fit matches still land in one group: B pulls the centroid toward C,
// so C matches the cluster even though A and C are not pairwise similar.
func TestCosineChainingThroughCentroidDrift(t *testing.T) {
	// unit vectors at 0deg, 35deg and 50deg; threshold 0.8 (~36.9deg)
	a := []float32{1, 0}
	b := []float32{0.8192, 0.5736} // cos(35deg) vs a ~ 0.819
	c := []float32{0.6428, 0.7660} // cos(50deg) vs a ~ 0.643, below threshold

	labels := labelsByFace(t, AssignGroups(arcfaceFaces(a, b, c), 0.8, 0.6))
	assert.Equal(t, labels[1], labels[2], "b should match a's cluster directly")
	assert.Equal(t, labels[1], labels[3], "c should chain in via the drifted centroid")
	assert.Equal(t, 1, distinctGroups(labels))
}

func TestCosineDeterministicShapeFreshLabels(t *testing.T) {
	faces := arcfaceFaces(
		[]float32{1, 0},
		[]float32{0.9, 0.1},
		[]float32{0, 1},
		[]float32{-1, 0},
	)
	first := labelsByFace(t, AssignGroups(faces, 0.7, 0.6))
	second := labelsByFace(t, AssignGroups(faces, 0.7, 0.6))

	assert.True(t, samePartition(first, second), "same input order must produce the same partition shape")
	// labels are minted fresh on every pass
	for f, g := range first {
		assert.NotEqual(t, g, second[f], "labels must not be reused across passes")
	}
}

// Permuting the input can change cluster membership because centroids drift
// with assignment order. The divergence itself must be reproducible.
func TestEuclideanOrderDependence(t *testing.T) {
	a := FaceVector{FaceID: 1, Embedding: []float32{0, 0}, ModelType: models.ModelDlib}
	b := FaceVector{FaceID: 2, Embedding: []float32{0.9, 0}, ModelType: models.ModelDlib}
	c := FaceVector{FaceID: 3, Embedding: []float32{1.7, 0}, ModelType: models.ModelDlib}

	forward := labelsByFace(t, AssignGroups([]FaceVector{a, b, c}, 0.6, 1.0))
	// a and b cluster (distance 0.9), centroid moves to 0.45, c is 1.25 away
	assert.Equal(t, forward[1], forward[2])
	assert.NotEqual(t, forward[1], forward[3])

	reverse := labelsByFace(t, AssignGroups([]FaceVector{c, b, a}, 0.6, 1.0))
	// c and b cluster (distance 0.8), centroid moves to 1.3, a is 1.3 away... exactly
	assert.Equal(t, reverse[3], reverse[2])

	assert.False(t, samePartition(forward, reverse), "permuted input is expected to diverge")

	// and the divergence is reproducible, not flaky
	forward2 := labelsByFace(t, AssignGroups([]FaceVector{a, b, c}, 0.6, 1.0))
	reverse2 := labelsByFace(t, AssignGroups([]FaceVector{c, b, a}, 0.6, 1.0))
	assert.True(t, samePartition(forward, forward2))
	assert.True(t, samePartition(reverse, reverse2))
}

// First-fit means the earliest cluster crossing the bar wins, even when a
// later cluster is strictly closer.
func TestFirstFitPrefersEarliestClusterNotClosest(t *testing.T) {
	a := FaceVector{FaceID: 1, Embedding: []float32{0, 0}, ModelType: models.ModelDlib}
	b := FaceVector{FaceID: 2, Embedding: []float32{2, 0}, ModelType: models.ModelDlib}
	// c is distance 1.2 from a's cluster and 0.8 from b's; both within 1.5
	c := FaceVector{FaceID: 3, Embedding: []float32{1.2, 0}, ModelType: models.ModelDlib}

	labels := labelsByFace(t, AssignGroups([]FaceVector{a, b, c}, 0.6, 1.5))
	assert.Equal(t, labels[1], labels[3], "c must join the earliest matching cluster, not the closest")
	assert.NotEqual(t, labels[2], labels[3])
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	t.Run("cosine similarity exactly at threshold matches", func(t *testing.T) {
		labels := labelsByFace(t, AssignGroups(arcfaceFaces(
			[]float32{1, 0},
			[]float32{1, 0},
		), 1.0, 0.6))
		assert.Equal(t, 1, distinctGroups(labels))
	})

	t.Run("euclidean distance exactly at threshold matches", func(t *testing.T) {
		// distance is exactly 5
		labels := labelsByFace(t, AssignGroups(dlibFaces(
			[]float32{0, 0},
			[]float32{3, 4},
		), 0.6, 5.0))
		assert.Equal(t, 1, distinctGroups(labels))
	})

	t.Run("euclidean distance just above threshold opens a new cluster", func(t *testing.T) {
		labels := labelsByFace(t, AssignGroups(dlibFaces(
			[]float32{0, 0},
			[]float32{3, 4},
		), 0.6, 4.999))
		assert.Equal(t, 2, distinctGroups(labels))
	})
}

// Unit-normalizing a cosine embedding before storage must not change its
// assignment: the clusterer normalizes on the way in anyway.
func TestCosineNormalizationIdempotent(t *testing.T) {
	raw := [][]float32{
		{10, 0, 0},
		{9, 1, 0},
		{0, 0, 3},
	}
	scaled := labelsByFace(t, AssignGroups(arcfaceFaces(raw...), 0.8, 0.6))

	normalized := make([][]float32, len(raw))
	for i, e := range raw {
		normalized[i] = normalize(e)
	}
	unit := labelsByFace(t, AssignGroups(arcfaceFaces(normalized...), 0.8, 0.6))

	assert.True(t, samePartition(scaled, unit))
}

func TestModelTypesNeverMix(t *testing.T) {
	faces := []FaceVector{
		{FaceID: 1, Embedding: []float32{1, 0}, ModelType: models.ModelArcFace},
		{FaceID: 2, Embedding: []float32{1, 0}, ModelType: models.ModelDlib},
	}
	// identical vectors but disjoint embedding spaces
	labels := labelsByFace(t, AssignGroups(faces, 0.5, 5.0))
	assert.NotEqual(t, labels[1], labels[2])
}

// Anything that is not the euclidean engine clusters in the cosine space,
// so an unrecognized tag still groups within itself.
func TestUnknownModelTypeUsesCosineSpace(t *testing.T) {
	faces := []FaceVector{
		{FaceID: 1, Embedding: []float32{1, 0}, ModelType: "clip"},
		{FaceID: 2, Embedding: []float32{1, 0}, ModelType: "clip"},
	}
	labels := labelsByFace(t, AssignGroups(faces, 0.9, 0.6))
	assert.Equal(t, 1, distinctGroups(labels))
}

func TestTinyEuclideanThresholdIsolatesEveryFace(t *testing.T) {
	labels := labelsByFace(t, AssignGroups(dlibFaces(
		[]float32{0, 0},
		[]float32{10, 0},
		[]float32{20, 0},
	), 0.6, 0.5))
	assert.Equal(t, 3, distinctGroups(labels))
}
