package embedding

import (
	"hash/fnv"
	"strings"

	"ai-devguide-be/pkg/utils"
	"ai-devguide-be/pkg/vector"
)

// HashDimensions is the size of vectors produced by HashEmbedding.
const HashDimensions = 64

// HashEmbedding derives a unit-length pseudo-embedding from text without any
// remote call. Every lowercase word is hashed into one of dims buckets, so texts
// sharing vocabulary land close together. Same text, same vector.
func HashEmbedding(text string, dims int) []float32 {
	if dims <= 0 {
		dims = HashDimensions
	}
	vec := make([]float32, dims)

	words := utils.Tokenize(text)
	if len(words) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return vec
		}
		words = []string{trimmed}
	}

	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum32()
		vec[sum%uint32(dims)] += 1
		// second bucket from the high bits spreads short vocabularies further
		vec[(sum>>16)%uint32(dims)] += 0.5
	}

	return vector.Normalize(vec)
}

// Fallback is the vector the Adapter substitutes for text when the provider
// is unavailable.
func Fallback(text string) []float32 {
	return HashEmbedding(Truncate(text), HashDimensions)
}

// SameDimensions reports whether every vector has the length of the first one
// and none is empty.
func SameDimensions(vecs ...[]float32) bool {
	for _, v := range vecs {
		if len(v) == 0 || len(v) != len(vecs[0]) {
			return false
		}
	}
	return true
}
