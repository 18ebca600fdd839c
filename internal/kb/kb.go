// Package kb builds and queries the evidence index: a small embedding-based
// store over security runbooks and guidance documents, used to attach
// supporting snippets to triage verdicts. The corpus is tens of chunks, so
// search is a linear cosine scan over the full index.
package kb

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linnemanlabs/go-core/log"
)

// fallbackChunk seeds the index when no knowledge files are present, so
// Search never runs against an empty index.
const fallbackChunk = "OWASP LLM Top10: Prompt Injection, Data Exfiltration, Insecure Output Handling, " +
	"Over-permissioned Tools, Data Poisoning, SSRF via tools, etc."

// Index owns the knowledge corpus: it chunks source documents, embeds them,
// and answers nearest-neighbor queries against the file-backed store.
type Index struct {
	store    *FileStore
	embedder Embedder
	dir      string
	logger   log.Logger
}

// New creates an Index reading knowledge files from dir and persisting via store.
func New(store *FileStore, embedder Embedder, dir string, logger log.Logger) *Index {
	if logger == nil {
		logger = log.Nop()
	}
	return &Index{store: store, embedder: embedder, dir: dir, logger: logger}
}

// Build reads every .md/.txt file under the knowledge dir, splits each on
// blank-line boundaries into non-empty chunks, embeds the chunks, and
// replaces the stored index wholesale. With no knowledge files the index
// holds exactly the built-in fallback chunk.
func (ix *Index) Build(ctx context.Context) error {
	chunks, err := ix.loadChunks()
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		chunks = []string{fallbackChunk}
	}

	vecs, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("kb: embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("kb: embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	docs := make([]Document, len(chunks))
	for i, ch := range chunks {
		docs[i] = Document{Text: ch, Vec: vecs[i]}
	}
	if err := ix.store.Replace(docs); err != nil {
		return err
	}

	ix.logger.Info(ctx, "knowledge index rebuilt", "docs", len(docs), "dir", ix.dir)
	return nil
}

// Search embeds the query and returns the texts of the k most similar
// documents, descending by cosine similarity with ties kept in index order.
// A missing index is built transparently first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	docs, ok, err := ix.store.Docs()
	if err != nil {
		return nil, err
	}
	if !ok || len(docs) == 0 {
		if err := ix.Build(ctx); err != nil {
			return nil, err
		}
		if docs, _, err = ix.store.Docs(); err != nil {
			return nil, err
		}
	}

	qvs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("kb: embed query: %w", err)
	}
	qv := qvs[0]

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(docs))
	for i, d := range docs {
		ranked[i] = scored{idx: i, score: cosine(qv, d.Vec)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, 0, k)
	for _, r := range ranked[:k] {
		out = append(out, docs[r.idx].Text)
	}
	return out, nil
}

func (ix *Index) loadChunks() ([]string, error) {
	if ix.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(ix.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kb: read knowledge dir: %w", err)
	}

	var chunks []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ix.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("kb: read %s: %w", e.Name(), err)
		}
		for _, raw := range strings.Split(string(data), "\n\n") {
			if ch := strings.TrimSpace(raw); ch != "" {
				chunks = append(chunks, ch)
			}
		}
	}
	return chunks, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
