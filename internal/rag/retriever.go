package rag

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// Embedder turns text into a vector. Embedding computation happens in the
// external model service; this package only orchestrates.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MemoryRetriever keeps embedded document chunks in memory and ranks them by
// cosine similarity against the query embedding.
type MemoryRetriever struct {
	embedder Embedder
	logger   *logging.Logger

	mu   sync.RWMutex
	docs []embeddedDoc
}

type embeddedDoc struct {
	snippet   Snippet
	embedding []float32
}

// NewMemoryRetriever creates an in-memory retriever.
func NewMemoryRetriever(embedder Embedder, logger *logging.Logger) *MemoryRetriever {
	if embedder == nil {
		panic("rag: embedder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryRetriever{embedder: embedder, logger: logger}
}

// AddDocuments embeds and stores the provided chunks.
func (r *MemoryRetriever) AddDocuments(ctx context.Context, chunks []Snippet) error {
	for _, chunk := range chunks {
		vec, err := r.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.docs = append(r.docs, embeddedDoc{snippet: chunk, embedding: vec})
		r.mu.Unlock()
	}
	r.logger.Info("documents indexed", "chunks", len(chunks))
	return nil
}

// Len reports how many chunks are indexed.
func (r *MemoryRetriever) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}

// Retrieve returns the topK most similar snippets for the query.
func (r *MemoryRetriever) Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error) {
	if topK <= 0 {
		topK = 3
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.docs) == 0 {
		return nil, nil
	}

	type scored struct {
		score   float64
		snippet Snippet
	}
	results := make([]scored, 0, len(r.docs))
	for _, doc := range r.docs {
		results = append(results, scored{
			score:   cosineSimilarity(queryVec, doc.embedding),
			snippet: doc.snippet,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	limit := topK
	if len(results) < limit {
		limit = len(results)
	}

	out := make([]Snippet, limit)
	for i := 0; i < limit; i++ {
		out[i] = results[i].snippet
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var normA float64
	var normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
