package kb

import (
	"context"
	"hash/fnv"
	"math/rand"
)

// FallbackDim is the vector size produced when no embedding backend is
// configured. Matches the hosted model's output so the two are swappable.
const FallbackDim = 384

// Embedder produces vector embeddings for text. Implemented by the Cohere
// client and by FallbackEmbedder.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// FallbackEmbedder generates deterministic pseudo-random vectors when no
// embedding backend is configured. Each text is seeded from its own FNV-1a
// hash, so the same text always embeds to the same vector regardless of
// batch composition.
type FallbackEmbedder struct{}

// Embed returns one FallbackDim-length vector per input text. Never fails.
func (FallbackEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(t))
		rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // not cryptographic, reproducibility is the point
		vec := make([]float32, FallbackDim)
		for j := range vec {
			vec[j] = float32(rng.NormFloat64())
		}
		out[i] = vec
	}
	return out, nil
}
