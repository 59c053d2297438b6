// Package vectorstore holds the vector math shared by index implementations.
package vectorstore

import "math"

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 when either norm is zero.
// Both vectors must have the same length; callers check dimensions first.
func CosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// clamp rounding drift so identical vectors score exactly within [-1, 1]
	return math.Max(-1, math.Min(1, sim))
}
