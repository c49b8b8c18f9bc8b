// Package vectorindex provides an append-only in-memory vector index with
// brute-force cosine similarity search.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"paperscout/internal/text"
)

type entry struct {
	vector []float32
	norm   float64
	frag   text.Fragment
}

// Result is one search hit. Score is the cosine similarity to the query,
// higher is more similar.
type Result struct {
	Fragment text.Fragment
	Score    float32
}

// Index holds fragments and their vectors in memory. The vector dimension is
// fixed by the first Add; all contents are lost when the process exits.
type Index struct {
	mu      sync.RWMutex
	dim     int
	entries []entry
}

func New() *Index {
	return &Index{}
}

// Add appends fragments with their vectors. The two slices must be the same
// length and every vector must match the index dimension. Validation happens
// before any write, so a failed Add leaves the index unchanged.
func (idx *Index) Add(fragments []text.Fragment, vectors [][]float32) error {
	if len(fragments) != len(vectors) {
		return fmt.Errorf("got %d fragments but %d vectors", len(fragments), len(vectors))
	}
	if len(fragments) == 0 {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	dim := idx.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("vectors must be non-empty")
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, index expects %d", i, len(v), dim)
		}
	}

	for i, v := range vectors {
		idx.entries = append(idx.entries, entry{
			vector: v,
			norm:   norm(v),
			frag:   fragments[i],
		})
	}
	idx.dim = dim
	return nil
}

// Search returns up to k entries most similar to the query vector, best
// first. An empty index, a non-positive k, a zero-norm query or a query
// whose dimension does not match the index yields nil.
func (idx *Index) Search(query []float32, k int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 || len(idx.entries) == 0 {
		return nil
	}
	if len(query) != idx.dim {
		return nil
	}
	qnorm := norm(query)
	if qnorm == 0 {
		return nil
	}

	results := make([]Result, 0, len(idx.entries))
	for _, e := range idx.entries {
		if e.norm == 0 {
			continue
		}
		score := dot(query, e.vector) / (qnorm * e.norm)
		results = append(results, Result{Fragment: e.frag, Score: float32(score)})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k < len(results) {
		results = results[:k]
	}
	return results
}

// Len reports the number of indexed fragments.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// IsEmpty reports whether nothing has been indexed yet.
func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
