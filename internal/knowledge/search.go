package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
)

// Strategy selects how Search ranks chunks.
type Strategy string

const (
	StrategySemantic Strategy = "pure_semantic"
	StrategyFullText Strategy = "pure_fulltext"
	StrategyHybrid   Strategy = "hybrid_rrf"
)

// ParseStrategy accepts the configured names and the short forms
// semantic, fulltext and hybrid.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hybrid", string(StrategyHybrid):
		return StrategyHybrid, nil
	case "semantic", string(StrategySemantic):
		return StrategySemantic, nil
	case "fulltext", string(StrategyFullText):
		return StrategyFullText, nil
	}
	return "", fmt.Errorf("unknown search strategy %q", name)
}

const (
	DefaultRRFK     = 60
	DefaultMinScore = 0.01
	// minFetch is the smallest candidate list each side of a hybrid
	// search contributes.
	minFetch = 50
)

// Result is one ranked chunk.
type Result struct {
	ChunkID int64
	Source  string
	Index   int
	Content string
	Score   float64
}

// SearchConfig tunes a Searcher.
type SearchConfig struct {
	Strategy Strategy
	RRFK     int
	MinScore float64
}

// Searcher ranks chunks of the active collection.
type Searcher struct {
	store       *Store
	collections *Collections
	embedder    ai.Embedder
	cfg         SearchConfig
	cache       *cache.Cache
	logger      *zap.Logger
}

// NewSearcher creates a Searcher. embedder may be nil, in which case
// semantic ranking is unavailable and hybrid falls back to full-text.
func NewSearcher(store *Store, collections *Collections, embedder ai.Embedder, cfg SearchConfig, logger *zap.Logger) *Searcher {
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyHybrid
	}
	if cfg.RRFK <= 0 {
		cfg.RRFK = DefaultRRFK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{
		store:       store,
		collections: collections,
		embedder:    embedder,
		cfg:         cfg,
		cache:       cache.New(5*time.Minute, 10*time.Minute),
		logger:      logger,
	}
}

// Invalidate drops cached results. Call it after the chunk set changes.
func (s *Searcher) Invalidate() {
	s.cache.Flush()
}

// Search ranks with the configured strategy.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	return s.SearchWith(ctx, s.cfg.Strategy, query, topK)
}

// SearchWith ranks with an explicit strategy.
func (s *Searcher) SearchWith(ctx context.Context, strategy Strategy, query string, topK int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" || topK <= 0 {
		return nil, nil
	}

	collection, err := s.collections.Active(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%s|%d|%s", collection, strategy, topK, query)
	if cached, ok := s.cache.Get(key); ok {
		return append([]Result(nil), cached.([]Result)...), nil
	}

	var results []Result
	switch strategy {
	case StrategySemantic:
		results, err = s.semantic(ctx, collection, query, topK)
	case StrategyFullText:
		results, err = s.fullText(ctx, collection, query, topK)
	case StrategyHybrid:
		results, err = s.hybrid(ctx, collection, query, topK)
	default:
		return nil, fmt.Errorf("unknown search strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	results = filterScore(results, s.cfg.MinScore)
	s.cache.SetDefault(key, results)
	s.logger.Debug("Search finished",
		zap.String("strategy", string(strategy)),
		zap.String("collection", collection),
		zap.Int("results", len(results)))
	return append([]Result(nil), results...), nil
}

func (s *Searcher) semantic(ctx context.Context, collection, query string, topK int) ([]Result, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("semantic search: no embedder configured")
	}
	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	qv := vecs[0]

	chunks, err := s.store.Chunks(ctx, collection)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Embedding) != len(qv) {
			continue
		}
		results = append(results, resultOf(c, ai.Cosine(qv, c.Embedding)))
	}
	return topResults(results, topK), nil
}

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokens returns the distinct lowercase words of s with three or more
// letters, in order of first appearance.
func Tokens(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tokenRe.FindAllString(strings.ToLower(s), -1) {
		if len([]rune(t)) < 3 || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// fullText scores candidates by the share of query tokens they contain.
func (s *Searcher) fullText(ctx context.Context, collection, query string, topK int) ([]Result, error) {
	terms := Tokens(query)
	if len(terms) == 0 {
		return nil, nil
	}

	candidates, err := s.store.MatchTerms(ctx, collection, terms, max(topK*10, 200))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		have := make(map[string]bool)
		for _, t := range Tokens(c.Content) {
			have[t] = true
		}
		overlap := 0
		for _, t := range terms {
			if have[t] {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		results = append(results, resultOf(c, float64(overlap)/float64(len(terms))))
	}
	return topResults(results, topK), nil
}

// hybrid fuses the semantic and full-text rankings with reciprocal rank
// fusion: score = sum of 1/(k+rank) over both lists.
func (s *Searcher) hybrid(ctx context.Context, collection, query string, topK int) ([]Result, error) {
	fetch := max(topK*2, minFetch)

	var lists [][]Result
	if s.embedder != nil {
		sem, err := s.semantic(ctx, collection, query, fetch)
		if err != nil {
			s.logger.Warn("Semantic search failed, using full-text only", zap.Error(err))
		} else {
			lists = append(lists, sem)
		}
	}
	ft, err := s.fullText(ctx, collection, query, fetch)
	if err != nil {
		return nil, err
	}
	lists = append(lists, ft)

	return topResults(fuseRRF(lists, s.cfg.RRFK), topK), nil
}

func fuseRRF(lists [][]Result, k int) []Result {
	fused := make(map[int64]*Result)
	var order []int64
	for _, list := range lists {
		for rank, r := range list {
			r := r
			score := 1 / float64(k+rank+1)
			if f, ok := fused[r.ChunkID]; ok {
				f.Score += score
				continue
			}
			r.Score = score
			fused[r.ChunkID] = &r
			order = append(order, r.ChunkID)
		}
	}

	out := make([]Result, 0, len(order))
	for _, id := range order {
		out = append(out, *fused[id])
	}
	return out
}

func resultOf(c Chunk, score float64) Result {
	return Result{ChunkID: c.ID, Source: c.Source, Index: c.Index, Content: c.Content, Score: score}
}

// topResults sorts by descending score, ties by chunk id, and keeps n.
func topResults(results []Result, n int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > n {
		results = results[:n]
	}
	return results
}

func filterScore(results []Result, threshold float64) []Result {
	if threshold <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if r.Score >= threshold {
			out = append(out, r)
		}
	}
	return out
}
