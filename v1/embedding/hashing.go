package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// DefaultHashingDimensions is the vector size of the hashing provider when
// none is configured.
const DefaultHashingDimensions = 256

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashingEmbedder is a local, deterministic embedder based on feature hashing.
//
// Each lower-cased word is hashed (FNV-1a) into one of Dimensions buckets with
// a hash-derived sign; the resulting bag-of-words vector is L2-normalised.
// Texts sharing words end up close under cosine distance and identical texts
// have identical vectors. It has no semantic knowledge and is meant for
// tests, demos and offline use.
type HashingEmbedder struct {
	dimensions int
}

var _ Provider = (*HashingEmbedder)(nil)

// NewHashingEmbedder returns an embedder producing vectors of the given size.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashingDimensions
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed never fails; the context is only checked for cancellation.
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *HashingEmbedder) Dimensions() int {
	return h.dimensions
}

func (h *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, h.dimensions)

	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		// keeps the vector non-zero so cosine distance stays defined
		tokens = []string{strings.TrimSpace(text)}
	}

	for _, tok := range tokens {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(tok))
		sum := hasher.Sum64()

		idx := int(sum % uint64(h.dimensions))
		if sum>>63 == 1 {
			v[idx]--
		} else {
			v[idx]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// opposite signs cancelled out
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
