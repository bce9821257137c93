package domain

import "math"

// Embedding is a fixed-length vector representation of a content unit.
type Embedding []float32

// Dimensions returns the vector length.
func (e Embedding) Dimensions() int {
	return len(e)
}

// IsEmpty reports whether the embedding carries no values.
func (e Embedding) IsEmpty() bool {
	return len(e) == 0
}

// Norm returns the Euclidean length of the vector.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalized returns a unit-length copy. A zero vector is returned unchanged.
func (e Embedding) Normalized() Embedding {
	norm := e.Norm()
	out := make(Embedding, len(e))
	if norm == 0 {
		copy(out, e)
		return out
	}
	for i, v := range e {
		out[i] = float32(float64(v) / norm)
	}
	return out
}

// CosineSimilarity returns the cosine similarity of two vectors in [-1, 1].
// Mismatched lengths or zero vectors yield 0.
func CosineSimilarity(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
