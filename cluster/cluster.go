// Package cluster implements the online nearest-centroid grouping of face
// embeddings. It is a pure in-memory algorithm: the caller fetches faces from
// the store, runs AssignGroups and writes the labels back.
//
// Matching is greedy first-fit, not best-fit: open clusters are scanned in
// creation order and a face joins the first one crossing the threshold, even
// when a later cluster would be closer. Centroids are incremental running
// means, so the final partition depends on input order. Both properties are
// deliberate and must not be "fixed".
package cluster

import (
	"math"

	"github.com/google/uuid"

	"github.com/facelens/facelensbackend/models"
)

// FaceVector is one face as seen by the clusterer: its store identity, its
// embedding and the model type tag selecting the embedding space.
type FaceVector struct {
	FaceID    uint
	Embedding []float32
	ModelType string
}

// Assignment maps a face to the opaque group label it was assigned.
type Assignment struct {
	FaceID  uint
	GroupID string
}

// centroidCluster tracks one open cluster while a pass is running
type centroidCluster struct {
	groupID  string
	centroid []float32
	count    int
}

// AssignGroups clusters the given faces and returns one assignment per face.
// Faces are partitioned by model type first; the two embedding spaces are
// never compared against each other. cosineThreshold is a minimum dot-product
// similarity over unit vectors, euclideanThreshold a maximum L2 distance.
// Thresholds are trusted as-is; validation is the caller's job.
//
// For a fixed input order the partition shape is deterministic, though group
// labels are minted fresh on every call.
func AssignGroups(faces []FaceVector, cosineThreshold, euclideanThreshold float64) []Assignment {
	if len(faces) == 0 {
		return nil
	}

	// partition by model type, preserving first-seen order of both the types
	// and the faces within each type
	byModel := make(map[string][]FaceVector)
	var modelOrder []string
	for _, f := range faces {
		if _, seen := byModel[f.ModelType]; !seen {
			modelOrder = append(modelOrder, f.ModelType)
		}
		byModel[f.ModelType] = append(byModel[f.ModelType], f)
	}

	assignments := make([]Assignment, 0, len(faces))
	for _, model := range modelOrder {
		if model == models.ModelDlib {
			assignments = append(assignments, clusterEuclidean(byModel[model], euclideanThreshold)...)
		} else {
			assignments = append(assignments, clusterCosine(byModel[model], cosineThreshold)...)
		}
	}
	return assignments
}

// clusterCosine assigns faces in the cosine space. Embeddings are
// unit-normalized before comparison; similarity is the plain dot product
// against the running centroid and a face matches on similarity >= threshold.
func clusterCosine(faces []FaceVector, threshold float64) []Assignment {
	var clusters []centroidCluster
	results := make([]Assignment, 0, len(faces))

	for _, face := range faces {
		emb := normalize(face.Embedding)

		assigned := false
		for i := range clusters {
			sim := dot(emb, clusters[i].centroid)
			if float64(sim) >= threshold {
				absorb(&clusters[i], emb)
				results = append(results, Assignment{FaceID: face.FaceID, GroupID: clusters[i].groupID})
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, newCluster(emb))
			results = append(results, Assignment{FaceID: face.FaceID, GroupID: clusters[len(clusters)-1].groupID})
		}
	}
	return results
}

// clusterEuclidean assigns faces in the euclidean space. No normalization;
// a face matches on L2 distance <= threshold.
func clusterEuclidean(faces []FaceVector, threshold float64) []Assignment {
	var clusters []centroidCluster
	results := make([]Assignment, 0, len(faces))

	for _, face := range faces {
		emb := face.Embedding

		assigned := false
		for i := range clusters {
			dist := euclideanDistance(emb, clusters[i].centroid)
			if float64(dist) <= threshold {
				absorb(&clusters[i], emb)
				results = append(results, Assignment{FaceID: face.FaceID, GroupID: clusters[i].groupID})
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, newCluster(emb))
			results = append(results, Assignment{FaceID: face.FaceID, GroupID: clusters[len(clusters)-1].groupID})
		}
	}
	return results
}

// newCluster opens a cluster seeded with a single member. The label is a
// freshly minted opaque token, unrelated to any previous pass.
func newCluster(emb []float32) centroidCluster {
	centroid := make([]float32, len(emb))
	copy(centroid, emb)
	return centroidCluster{
		groupID:  uuid.New().String(),
		centroid: centroid,
		count:    1,
	}
}

// absorb folds one embedding into the cluster's running mean:
// new = (old*count + emb) / (count+1)
func absorb(c *centroidCluster, emb []float32) {
	n := float32(c.count)
	for i := range c.centroid {
		c.centroid[i] = (c.centroid[i]*n + emb[i]) / (n + 1)
	}
	c.count++
}

// normalize returns a unit-length copy of the embedding. Zero vectors are
// returned unchanged, matching the detector's own normalization guard.
func normalize(emb []float32) []float32 {
	var norm float32
	for _, v := range emb {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))

	out := make([]float32, len(emb))
	if norm == 0 {
		copy(out, emb)
		return out
	}
	for i, v := range emb {
		out[i] = v / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func euclideanDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(math.Sqrt(float64(sum)))
}
