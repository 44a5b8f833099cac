package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assistant/types"
)

func textChunk(id, content string) types.Chunk {
	return types.Chunk{
		ID:      id,
		Content: content,
		Metadata: types.ChunkMeta{
			Source:    "test.txt",
			ChunkType: types.ChunkParagraphGroup,
		},
	}
}

func TestTokenize(t *testing.T) {
	t.Run("deterministic and idempotent", func(t *testing.T) {
		text := "The quick brown fox, the LAZY dog!"
		first := Tokenize(text)
		second := Tokenize(text)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"quick", "brown", "fox", "lazy", "dog"}, first)
	})

	t.Run("drops stop words", func(t *testing.T) {
		tokens := Tokenize("what is the meaning of all this")
		for _, tok := range tokens {
			_, stop := stopWords[tok]
			assert.False(t, stop, "stop word %q in output", tok)
		}
		assert.Equal(t, []string{"meaning"}, tokens)
	})

	t.Run("punctuation becomes whitespace", func(t *testing.T) {
		assert.Equal(t, []string{"foo", "bar"}, Tokenize("foo-bar"))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("the and of"))
	})
}

func TestIngest(t *testing.T) {
	t.Run("returns assigned ids", func(t *testing.T) {
		ix := New()
		ids := ix.Ingest([]types.Chunk{
			textChunk("c1", "neural networks"),
			textChunk("c2", "gradient descent"),
		})
		assert.Equal(t, []string{"c1", "c2"}, ids)
		assert.Equal(t, 2, ix.Size())
	})

	t.Run("generates missing ids", func(t *testing.T) {
		ix := New()
		ids := ix.Ingest([]types.Chunk{textChunk("", "some content")})
		require.Len(t, ids, 1)
		assert.NotEmpty(t, ids[0])
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		ix := New()
		assert.Nil(t, ix.Ingest(nil))
		assert.Equal(t, 0, ix.Size())
	})

	t.Run("no duplicate postings for repeated tokens", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{textChunk("c1", "cat cat cat")})
		assert.Equal(t, []string{"c1"}, ix.postings["cat"])
	})
}

func TestSearch(t *testing.T) {
	t.Run("empty index returns nothing", func(t *testing.T) {
		ix := New()
		assert.Nil(t, ix.Search("anything", 5))
	})

	t.Run("unique term ranks its chunk first", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{
			textChunk("c1", "photosynthesis converts light into energy"),
			textChunk("c2", "mitochondria produce energy"),
			textChunk("c3", "unrelated content entirely"),
		})
		results := ix.Search("photosynthesis", 5)
		require.NotEmpty(t, results)
		assert.Equal(t, "c1", results[0].ID)
		assert.Equal(t, 1.0, results[0].Score)
	})

	t.Run("score normalized by query length", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{textChunk("c1", "alpha beta")})
		results := ix.Search("alpha gamma", 5)
		require.Len(t, results, 1)
		assert.InDelta(t, 0.5, results[0].Score, 1e-9)
	})

	t.Run("score monotonic in matched tokens", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{
			textChunk("one", "alpha"),
			textChunk("two", "alpha beta"),
			textChunk("three", "alpha beta gamma"),
		})
		results := ix.Search("alpha beta gamma", 5)
		require.Len(t, results, 3)
		assert.Equal(t, "three", results[0].ID)
		assert.Equal(t, "two", results[1].ID)
		assert.Equal(t, "one", results[2].ID)
		assert.True(t, results[0].Score >= results[1].Score)
		assert.True(t, results[1].Score >= results[2].Score)
	})

	t.Run("equal scores keep ingestion order", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{
			textChunk("first", "shared keyword here"),
			textChunk("second", "shared keyword there"),
		})
		results := ix.Search("shared", 5)
		require.Len(t, results, 2)
		assert.Equal(t, "first", results[0].ID)
		assert.Equal(t, "second", results[1].ID)
		assert.Equal(t, results[0].Score, results[1].Score)
	})

	t.Run("topK respected", func(t *testing.T) {
		ix := New()
		var chunks []types.Chunk
		for i := 0; i < 10; i++ {
			chunks = append(chunks, textChunk(fmt.Sprintf("c%d", i), "common term"))
		}
		ix.Ingest(chunks)

		assert.Len(t, ix.Search("common", 3), 3)
		assert.Len(t, ix.Search("common", 20), 10)
	})

	t.Run("results are copies", func(t *testing.T) {
		ix := New()
		ix.Ingest([]types.Chunk{textChunk("c1", "original content")})
		results := ix.Search("original", 5)
		require.Len(t, results, 1)
		results[0].Content = "mutated"

		again := ix.Search("original", 5)
		require.Len(t, again, 1)
		assert.Equal(t, "original content", again[0].Content)
	})
}

func TestPersistRestore(t *testing.T) {
	ix := New()
	tableIdx := 0
	ix.Ingest([]types.Chunk{
		textChunk("c1", "quantum entanglement experiments"),
		textChunk("c2", "classical mechanics experiments"),
		{
			ID:      "c3",
			Content: "Table content:\ncell | value\n",
			Metadata: types.ChunkMeta{
				Source:     "paper.pdf",
				ChunkType:  types.ChunkTable,
				Page:       2,
				TableIndex: &tableIdx,
			},
		},
	})

	dir := t.TempDir()
	require.NoError(t, ix.Persist(dir))

	restored, err := Restore(dir)
	require.NoError(t, err)

	for _, query := range []string{"quantum", "experiments", "cell value", "nothing matches here"} {
		want := ix.Search(query, 5)
		got := restored.Search(query, 5)
		assert.Equal(t, want, got, "query %q", query)
	}
	assert.Equal(t, ix.Size(), restored.Size())
}

func TestRestoreMissingSnapshot(t *testing.T) {
	_, err := Restore(t.TempDir())
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	ix := New()
	ix.Ingest([]types.Chunk{textChunk("c1", "something searchable")})
	ix.Clear()
	assert.Equal(t, 0, ix.Size())
	assert.Nil(t, ix.Search("searchable", 5))
}
