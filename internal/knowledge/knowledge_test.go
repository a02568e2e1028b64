package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
)

// keywordEmbedder embeds text as normalized keyword counts.
type keywordEmbedder struct {
	axes  []string
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(e.axes))
		lower := strings.ToLower(t)
		for j, axis := range e.axes {
			v[j] = float32(strings.Count(lower, axis))
		}
		out[i] = ai.Normalize(v)
	}
	return out, nil
}

func newTestStore(t *testing.T) (*Store, *Collections) {
	t.Helper()
	ctx := context.Background()

	store, err := Open(filepath.Join(t.TempDir(), "wissen.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cols, err := NewCollections(ctx, store, DefaultCollection, 3)
	require.NoError(t, err)
	return store, cols
}

func seed(t *testing.T, store *Store, emb ai.Embedder, collection, source string, contents ...string) {
	t.Helper()
	ctx := context.Background()

	vecs, err := emb.Embed(ctx, contents)
	require.NoError(t, err)

	chunks := make([]Chunk, len(contents))
	for i, c := range contents {
		chunks[i] = Chunk{Index: i, Content: c, Embedding: vecs[i]}
	}
	require.NoError(t, store.ReplaceSource(ctx, collection, source, chunks))
}

func TestEmbeddingEncoding(t *testing.T) {
	v := []float32{0.5, -1.25, 3}
	assert.Equal(t, v, decodeEmbedding(encodeEmbedding(v)))
	assert.Nil(t, encodeEmbedding(nil))
	assert.Nil(t, decodeEmbedding(nil))
}

func TestStore_ReplaceSource(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}

	seed(t, store, emb, DefaultCollection, "/docs/a.md", "eins", "zwei", "drei")
	n, err := store.CountChunks(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	seed(t, store, emb, DefaultCollection, "/docs/a.md", "nur noch einer")
	n, err = store.CountChunks(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	seed(t, store, emb, DefaultCollection, "/docs/b.md", "anderes dokument")
	docs, err := store.CountSources(ctx, DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 2, docs)

	require.NoError(t, store.DeleteSource(ctx, DefaultCollection, "/docs/a.md"))
	chunks, err := store.Chunks(ctx, DefaultCollection)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "/docs/b.md", chunks[0].Source)
	assert.Len(t, chunks[0].Embedding, 3)
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	store, cols := newTestStore(t)

	active, err := cols.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollection, active)

	created, err := cols.Create(ctx, "recht", 0)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = cols.Create(ctx, "recht", 0)
	require.NoError(t, err)
	assert.False(t, created, "second create reports existing")

	_, err = cols.Create(ctx, "  ", 0)
	assert.ErrorIs(t, err, ErrInvalidName)

	list, err := cols.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, DefaultCollection, list[0].Name)
	assert.True(t, list[0].Active)
	assert.Equal(t, "recht", list[1].Name)
	assert.Equal(t, 3, list[1].VectorSize)

	assert.ErrorIs(t, cols.Switch(ctx, "gibtsnicht"), ErrCollectionNotFound)
	require.NoError(t, cols.Switch(ctx, "recht"))

	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}
	seed(t, store, emb, "recht", "/docs/gesetz.txt", "paragraph eins", "paragraph zwei")

	info, err := cols.Info(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "recht", info.Name)
	assert.True(t, info.Active)
	assert.Equal(t, 2, info.Chunks)
	assert.Equal(t, 1, info.Documents)

	_, err = cols.Info(ctx, "gibtsnicht")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	err = cols.Delete(ctx, "recht", false)
	assert.ErrorIs(t, err, ErrActiveCollection)

	require.NoError(t, cols.Delete(ctx, "recht", true))
	active, err = cols.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollection, active)

	n, err := store.CountChunks(ctx, "recht")
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, cols.Delete(ctx, "recht", false), ErrCollectionNotFound)
}

func TestCollections_ActiveSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wissen.db")

	store, err := Open(path, nil)
	require.NoError(t, err)
	cols, err := NewCollections(ctx, store, "", 3)
	require.NoError(t, err)
	_, err = cols.Create(ctx, "notizen", 0)
	require.NoError(t, err)
	require.NoError(t, cols.Switch(ctx, "notizen"))
	require.NoError(t, store.Close())

	store, err = Open(path, nil)
	require.NoError(t, err)
	defer store.Close()
	cols, err = NewCollections(ctx, store, "", 3)
	require.NoError(t, err)

	active, err := cols.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "notizen", active)
}

func TestStore_MatchTermsFoldsUmlauts(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{axes: []string{"katze"}}

	for _, fts := range []bool{true, false} {
		store, _ := newTestStore(t)
		seed(t, store, emb, DefaultCollection, "/docs/a.md",
			"Über die Katze", "Ein Hund", "ÄRGER mit Öl")
		store.fts = store.fts && fts

		got, err := store.MatchTerms(ctx, DefaultCollection, []string{"über", "ärger"}, 10)
		require.NoError(t, err)
		require.Len(t, got, 2, "fts=%v", store.fts)

		got, err = store.MatchTerms(ctx, DefaultCollection, []string{"über", "ärger"}, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"über", "die", "größe", "der", "katze"}, Tokens("Über die Größe der KATZE, katze!"))
	assert.Empty(t, Tokens("ab c"))
}

func TestFuseRRF(t *testing.T) {
	sem := []Result{{ChunkID: 1}, {ChunkID: 2}}
	ft := []Result{{ChunkID: 2}, {ChunkID: 3}}

	fused := topResults(fuseRRF([][]Result{sem, ft}, 60), 10)
	require.Len(t, fused, 3)

	assert.Equal(t, int64(2), fused[0].ChunkID)
	assert.InDelta(t, 1.0/62+1.0/61, fused[0].Score, 1e-12)
	assert.Equal(t, int64(1), fused[1].ChunkID)
	assert.InDelta(t, 1.0/61, fused[1].Score, 1e-12)
	assert.Equal(t, int64(3), fused[2].ChunkID)
	assert.InDelta(t, 1.0/62, fused[2].Score, 1e-12)
}

func TestSearch_Strategies(t *testing.T) {
	ctx := context.Background()
	store, cols := newTestStore(t)
	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}

	seed(t, store, emb, DefaultCollection, "/docs/tiere.md",
		"Die Katze schläft auf dem Sofa.",
		"Katze und Hund spielen im Garten.",
		"Das Auto steht in der Garage.",
	)

	s := NewSearcher(store, cols, emb, SearchConfig{MinScore: DefaultMinScore}, nil)

	t.Run("fulltext", func(t *testing.T) {
		results, err := s.SearchWith(ctx, StrategyFullText, "katze hund", 5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Contains(t, results[0].Content, "Hund")
		assert.InDelta(t, 1.0, results[0].Score, 1e-9)
		assert.InDelta(t, 0.5, results[1].Score, 1e-9)
	})

	t.Run("semantic", func(t *testing.T) {
		results, err := s.SearchWith(ctx, StrategySemantic, "auto", 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Content, "Garage")
		assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	})

	t.Run("hybrid", func(t *testing.T) {
		results, err := s.Search(ctx, "katze hund", 3)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Contains(t, results[0].Content, "Hund", "ranked first by both lists")
		for i := 1; i < len(results); i++ {
			assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		results, err := s.Search(ctx, "   ", 3)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := s.SearchWith(ctx, Strategy("bm25"), "katze", 3)
		assert.Error(t, err)
	})
}

func TestSearch_MinScore(t *testing.T) {
	ctx := context.Background()
	store, cols := newTestStore(t)
	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}

	seed(t, store, emb, DefaultCollection, "/docs/a.md", "katze", "katze hund maus")

	s := NewSearcher(store, cols, emb, SearchConfig{Strategy: StrategyFullText, MinScore: 0.6}, nil)
	results, err := s.Search(ctx, "katze hund maus", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "katze hund maus", results[0].Content)
}

func TestSearch_CacheInvalidate(t *testing.T) {
	ctx := context.Background()
	store, cols := newTestStore(t)
	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}

	seed(t, store, emb, DefaultCollection, "/docs/a.md", "katze eins")
	s := NewSearcher(store, cols, emb, SearchConfig{Strategy: StrategyFullText}, nil)

	first, err := s.Search(ctx, "katze", 5)
	require.NoError(t, err)
	require.Len(t, first, 1)

	seed(t, store, emb, DefaultCollection, "/docs/b.md", "katze zwei")

	cached, err := s.Search(ctx, "katze", 5)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	s.Invalidate()
	fresh, err := s.Search(ctx, "katze", 5)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestSearch_SemanticWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	store, cols := newTestStore(t)
	emb := &keywordEmbedder{axes: []string{"katze", "hund", "auto"}}
	seed(t, store, emb, DefaultCollection, "/docs/a.md", "katze eins")

	s := NewSearcher(store, cols, nil, SearchConfig{}, nil)

	_, err := s.SearchWith(ctx, StrategySemantic, "katze", 3)
	assert.Error(t, err)

	results, err := s.Search(ctx, "katze", 3)
	require.NoError(t, err)
	assert.Len(t, results, 1, "hybrid degrades to full-text")
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{
		"":              StrategyHybrid,
		"hybrid_rrf":    StrategyHybrid,
		"Semantic":      StrategySemantic,
		"pure_fulltext": StrategyFullText,
	} {
		got, err := ParseStrategy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseStrategy("bm25")
	assert.Error(t, err)
}
