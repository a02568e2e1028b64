package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("markdown raw", func(t *testing.T) {
		p := filepath.Join(dir, "notiz.md")
		writeFile(t, p, "# Titel\n\nInhalt")
		text, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, "# Titel\n\nInhalt", text)
	})

	t.Run("text strips bom", func(t *testing.T) {
		p := filepath.Join(dir, "bom.txt")
		writeFile(t, p, "\xef\xbb\xbfHallo")
		text, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, "Hallo", text)
	})

	t.Run("html body text", func(t *testing.T) {
		p := filepath.Join(dir, "seite.HTML")
		writeFile(t, p, `<html><head><title>T</title><style>p{}</style></head>
<body><h1>Überschrift</h1><script>alert(1)</script><p>Ein   Absatz.</p></body></html>`)
		text, err := Load(p)
		require.NoError(t, err)
		assert.Contains(t, text, "Überschrift")
		assert.Contains(t, text, "Ein Absatz.")
		assert.NotContains(t, text, "alert")
		assert.NotContains(t, text, "p{}")
	})

	t.Run("unsupported", func(t *testing.T) {
		p := filepath.Join(dir, "bild.png")
		writeFile(t, p, "png")
		_, err := Load(p)
		assert.ErrorIs(t, err, ErrUnsupported)
		assert.False(t, Supported(p))
	})
}

func TestChunker_Split(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		c := NewChunker(100, 20)
		assert.Equal(t, []string{"kurz"}, c.Split("  kurz  "))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, NewChunker(100, 20).Split("   \n "))
	})

	t.Run("breaks at sentence end", func(t *testing.T) {
		c := NewChunker(40, 10)
		text := "Das ist der erste Satz hier. Und jetzt kommt ein zweiter Satz mit mehr Text."
		chunks := c.Split(text)
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.Equal(t, "Das ist der erste Satz hier.", chunks[0])
	})

	t.Run("windows overlap and cover the text", func(t *testing.T) {
		c := NewChunker(50, 10)
		text := strings.Repeat("äöü", 60)
		chunks := c.Split(text)
		require.Greater(t, len(chunks), 1)
		for _, ch := range chunks {
			assert.LessOrEqual(t, len([]rune(ch)), 50)
		}
		assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
		assert.Equal(t, string([]rune(chunks[0])[40:]), string([]rune(chunks[1])[:10]))
	})

	t.Run("defaults", func(t *testing.T) {
		c := NewChunker(0, -1)
		assert.Equal(t, DefaultChunkSize, c.Size)
		assert.Equal(t, DefaultChunkOverlap, c.Overlap)
		assert.Less(t, NewChunker(10, 50).Overlap, 10)
	})
}

type countingEmbedder struct {
	fail bool
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.fail {
		return nil, errors.New("embedding service down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type invalidations struct{ n int }

func (i *invalidations) Invalidate() { i.n++ }

func newPipeline(t *testing.T, emb *countingEmbedder) (*Pipeline, *knowledge.Store, *invalidations) {
	t.Helper()
	ctx := context.Background()

	store, err := knowledge.Open(filepath.Join(t.TempDir(), "wissen.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cols, err := knowledge.NewCollections(ctx, store, knowledge.DefaultCollection, 2)
	require.NoError(t, err)

	inv := &invalidations{}
	return NewPipeline(store, cols, emb, NewChunker(50, 10), inv, nil), store, inv
}

func TestPipeline_IngestDirectory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "Erstes Dokument.")
	writeFile(t, filepath.Join(dir, "b.md"), "Zweites Dokument.")
	writeFile(t, filepath.Join(dir, "c.png"), "kein text")
	writeFile(t, filepath.Join(dir, "sub", "d.txt"), "Unterordner.")
	writeFile(t, filepath.Join(dir, ".hidden", "e.txt"), "versteckt")

	p, store, inv := newPipeline(t, &countingEmbedder{})

	st, err := p.IngestDirectory(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 2, Chunks: 2}, st)
	assert.Equal(t, 1, inv.n)

	st, err = p.IngestDirectory(ctx, dir, true)
	require.NoError(t, err)
	assert.Equal(t, Stats{Files: 3, Chunks: 3}, st)

	n, err := store.CountChunks(ctx, knowledge.DefaultCollection)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "re-ingesting replaces chunks")
}

func TestPipeline_IngestDirectory_FallsBackToRecursive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2024", "bericht.txt"), "Jahresbericht.")
	writeFile(t, filepath.Join(dir, "2025", "plan.md"), "Planung.")

	p, _, _ := newPipeline(t, &countingEmbedder{})

	st, err := p.IngestDirectory(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Files)
}

func TestPipeline_IngestFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	long := filepath.Join(dir, "lang.txt")
	writeFile(t, long, strings.Repeat("Ein Satz über Wissen. ", 20))

	p, store, _ := newPipeline(t, &countingEmbedder{})

	st, err := p.IngestFile(ctx, long)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Files)
	assert.Greater(t, st.Chunks, 1)

	chunks, err := store.Chunks(ctx, knowledge.DefaultCollection)
	require.NoError(t, err)
	require.Len(t, chunks, st.Chunks)
	assert.Equal(t, long, chunks[0].Source)
	assert.Len(t, chunks[0].Embedding, 2)

	_, err = p.IngestFile(ctx, filepath.Join(dir, "fehlt.txt"))
	assert.Error(t, err)

	_, err = p.IngestFile(ctx, dir)
	assert.Error(t, err)

	png := filepath.Join(dir, "bild.png")
	writeFile(t, png, "x")
	_, err = p.IngestFile(ctx, png)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestPipeline_EmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "Inhalt.")

	p, store, inv := newPipeline(t, &countingEmbedder{fail: true})

	st, err := p.IngestDirectory(ctx, dir, false)
	require.NoError(t, err)
	assert.Equal(t, Stats{FailedFiles: 1, FailedChunks: 1}, st)
	assert.Zero(t, inv.n)

	n, err := store.CountChunks(ctx, knowledge.DefaultCollection)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.txt"), "b")
	writeFile(t, filepath.Join(dir, "a.md"), "a")
	writeFile(t, filepath.Join(dir, "x", "c.htm"), "<p>c</p>")

	files, err := DiscoverFiles(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.txt")}, files)

	files, err = DiscoverFiles(dir, true)
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = DiscoverFiles(filepath.Join(dir, "fehlt"), false)
	assert.Error(t, err)
}
