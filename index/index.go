// Package index implements the in-memory lexical search engine: an inverted
// keyword index over document chunks with bag-of-words overlap ranking.
// This is deliberately not TF-IDF or BM25; the score of a chunk is the number
// of distinct query tokens whose posting lists contain it, normalized by the
// query token count.
package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"assistant/types"
)

const snapshotFile = "index.gob"

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Index is the inverted index plus the chunk store it resolves into.
// Safe for concurrent use.
type Index struct {
	mu       sync.RWMutex
	postings map[string][]string    // token -> chunk ids, first-seen order, no duplicates
	chunks   map[string]types.Chunk // chunk id -> chunk
	order    []string               // chunk ids in ingestion order
}

func New() *Index {
	return &Index{
		postings: make(map[string][]string),
		chunks:   make(map[string]types.Chunk),
	}
}

// Tokenize lowercases, strips punctuation, splits on whitespace and drops
// stop words. Deterministic and idempotent.
func Tokenize(text string) []string {
	text = nonWord.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, w := range fields {
		if _, stop := stopWords[w]; !stop {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// Ingest stores the chunks and indexes their content, returning the assigned
// chunk ids. Chunks without an id get a fresh one.
func (ix *Index) Ingest(chunks []types.Chunk) []string {
	if len(chunks) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		ix.chunks[c.ID] = c
		ix.order = append(ix.order, c.ID)
		ids = append(ids, c.ID)

		for _, tok := range Tokenize(c.Content) {
			if !containsID(ix.postings[tok], c.ID) {
				ix.postings[tok] = append(ix.postings[tok], c.ID)
			}
		}
	}
	return ids
}

// Search ranks chunks by query-token overlap and returns up to topK copies
// annotated with their score. Ties keep the order in which chunks first
// matched, which for a single-token query is ingestion order. Returns nil if
// the index is empty.
func (ix *Index) Search(query string, topK int) []types.Chunk {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.order) == 0 {
		return nil
	}

	queryTokens := Tokenize(query)

	counts := make(map[string]int)
	var matched []string // ids in order of first match
	for _, tok := range queryTokens {
		for _, id := range ix.postings[tok] {
			if counts[id] == 0 {
				matched = append(matched, id)
			}
			counts[id]++
		}
	}

	queryLen := len(queryTokens)
	if queryLen == 0 {
		queryLen = 1
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return counts[matched[i]] > counts[matched[j]]
	})
	if topK > 0 && topK < len(matched) {
		matched = matched[:topK]
	}

	results := make([]types.Chunk, 0, len(matched))
	for _, id := range matched {
		c := ix.chunks[id] // value copy, callers never alias index storage
		c.Score = float64(counts[id]) / float64(queryLen)
		results = append(results, c)
	}
	return results
}

// Size returns the number of indexed chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.order)
}

// Clear drops all index state.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.postings = make(map[string][]string)
	ix.chunks = make(map[string]types.Chunk)
	ix.order = nil
}

// snapshot is the single serialized unit written by Persist.
type snapshot struct {
	Postings map[string][]string
	Chunks   map[string]types.Chunk
	Order    []string
}

// Persist writes the index state to dir as one gob snapshot.
func (ix *Index) Persist(dir string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, snapshotFile))
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	s := snapshot{Postings: ix.postings, Chunks: ix.chunks, Order: ix.order}
	if err := gob.NewEncoder(f).Encode(s); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}

// Restore loads a snapshot previously written by Persist. The restored index
// is behaviorally identical to the one saved.
func Restore(dir string) (*Index, error) {
	f, err := os.Open(filepath.Join(dir, snapshotFile))
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var s snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	ix := New()
	if s.Postings != nil {
		ix.postings = s.Postings
	}
	if s.Chunks != nil {
		ix.chunks = s.Chunks
	}
	ix.order = s.Order
	return ix, nil
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
