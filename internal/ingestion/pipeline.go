package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

const (
	embedBatchSize = 32
	maxConcurrency = 4
)

// Stats counts the outcome of one ingestion run.
type Stats struct {
	Files        int
	FailedFiles  int
	Chunks       int
	FailedChunks int
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.FailedFiles += o.FailedFiles
	s.Chunks += o.Chunks
	s.FailedChunks += o.FailedChunks
}

// Invalidator is notified after the stored chunks changed.
type Invalidator interface {
	Invalidate()
}

// Pipeline loads, chunks, embeds and stores documents into the active
// collection.
type Pipeline struct {
	store       *knowledge.Store
	collections *knowledge.Collections
	embedder    ai.Embedder
	chunker     Chunker
	invalidator Invalidator
	logger      *zap.Logger
}

// NewPipeline creates a Pipeline. A nil embedder stores chunks without
// vectors; they are then found by full-text search only.
func NewPipeline(store *knowledge.Store, collections *knowledge.Collections, embedder ai.Embedder,
	chunker Chunker, invalidator Invalidator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:       store,
		collections: collections,
		embedder:    embedder,
		chunker:     chunker,
		invalidator: invalidator,
		logger:      logger,
	}
}

// IngestFile ingests a single document.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stats{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Stats{}, fmt.Errorf("%s is a directory", path)
	}
	if !Supported(path) {
		return Stats{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return p.ingest(ctx, []string{path})
}

// IngestDirectory ingests the supported documents of dir. Without
// recursive only top-level files are read, unless there are none, in
// which case subdirectories are searched as well.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string, recursive bool) (Stats, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Stats{}, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return Stats{}, fmt.Errorf("%s is not a directory", dir)
	}

	files, err := DiscoverFiles(dir, recursive)
	if err != nil {
		return Stats{}, err
	}
	if len(files) == 0 && !recursive {
		if files, err = DiscoverFiles(dir, true); err != nil {
			return Stats{}, err
		}
	}
	if len(files) == 0 {
		p.logger.Info("No supported documents found", zap.String("dir", dir))
		return Stats{}, nil
	}
	return p.ingest(ctx, files)
}

// DiscoverFiles lists the supported documents below dir in lexical order.
// Hidden files and directories are skipped.
func DiscoverFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func (p *Pipeline) ingest(ctx context.Context, files []string) (Stats, error) {
	collection, err := p.collections.Active(ctx)
	if err != nil {
		return Stats{}, err
	}

	var (
		mu    sync.Mutex
		total Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for _, path := range files {
		path := path
		g.Go(func() error {
			st, err := p.ingestOne(gctx, collection, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				p.logger.Warn("Failed to ingest file", zap.String("path", path), zap.Error(err))
				st.FailedFiles++
			} else {
				st.Files++
			}

			mu.Lock()
			total.add(st)
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()

	if total.Chunks > 0 && p.invalidator != nil {
		p.invalidator.Invalidate()
	}

	p.logger.Info("Ingestion finished",
		zap.String("collection", collection),
		zap.Int("files", total.Files),
		zap.Int("failed_files", total.FailedFiles),
		zap.Int("chunks", total.Chunks),
		zap.Int("failed_chunks", total.FailedChunks))

	return total, err
}

// ingestOne replaces the stored chunks of one document. Chunks whose
// embedding batch failed are counted and left out.
func (p *Pipeline) ingestOne(ctx context.Context, collection, path string) (Stats, error) {
	var st Stats

	abs, err := filepath.Abs(path)
	if err != nil {
		return st, err
	}

	text, err := Load(abs)
	if err != nil {
		return st, err
	}

	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		return st, fmt.Errorf("%s has no text content", abs)
	}

	chunks := make([]knowledge.Chunk, 0, len(pieces))
	for start := 0; start < len(pieces); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		end := min(start+embedBatchSize, len(pieces))
		batch := pieces[start:end]

		var vecs [][]float32
		if p.embedder != nil {
			vecs, err = p.embedder.Embed(ctx, batch)
			if err == nil && len(vecs) != len(batch) {
				err = fmt.Errorf("got %d embeddings for %d chunks", len(vecs), len(batch))
			}
			if err != nil {
				p.logger.Warn("Embedding batch failed",
					zap.String("path", abs), zap.Int("batch_start", start), zap.Error(err))
				st.FailedChunks += len(batch)
				continue
			}
		}

		for i, content := range batch {
			c := knowledge.Chunk{Index: start + i, Content: content}
			if vecs != nil {
				c.Embedding = vecs[i]
			}
			chunks = append(chunks, c)
		}
	}

	if len(chunks) == 0 {
		return st, fmt.Errorf("no chunk of %s could be embedded", abs)
	}

	if err := p.store.ReplaceSource(ctx, collection, abs, chunks); err != nil {
		return st, err
	}
	st.Chunks = len(chunks)
	return st, nil
}
