package rag

import (
	"fmt"
	"math"
	"sort"
)

const (
	NumRelevantChunks   = 3
	SimilarityThreshold = 0.7
)

// CosineSimilarity returns 0 when either vector has zero magnitude.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("vectors cannot be empty")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same dimension")
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		magA += float64(a[i] * a[i])
		magB += float64(b[i] * b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, nil
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB))), nil
}

type ScoredChunk struct {
	Index      int     `json:"index"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// TopChunks ranks chunks by similarity to query, keeping at most k at or
// above threshold.
func TopChunks(query []float32, chunks []Chunked, k int, threshold float32) []ScoredChunk {
	var scored []ScoredChunk
	for i, c := range chunks {
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil || sim < threshold {
			continue
		}
		scored = append(scored, ScoredChunk{Index: i, Content: c.Content, Similarity: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
