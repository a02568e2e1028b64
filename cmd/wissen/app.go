package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/ai"
	"github.com/Lin-Jiong-HDU/wissen/internal/ai/ollama"
	"github.com/Lin-Jiong-HDU/wissen/internal/ai/openai"
	"github.com/Lin-Jiong-HDU/wissen/internal/conversation"
	"github.com/Lin-Jiong-HDU/wissen/internal/core"
	"github.com/Lin-Jiong-HDU/wissen/internal/core/security"
	"github.com/Lin-Jiong-HDU/wissen/internal/ingestion"
	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
	"github.com/Lin-Jiong-HDU/wissen/internal/organizer"
	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

// backend is the language model side: chat, embeddings and health.
type backend interface {
	ai.Provider
	ai.Embedder
	ai.Pinger
}

// app holds everything a command needs, built once from the config.
type app struct {
	cfg         *storage.Config
	logger      *zap.Logger
	backend     backend
	store       *knowledge.Store
	collections *knowledge.Collections
	searcher    *knowledge.Searcher
	pipeline    *ingestion.Pipeline
}

func newBackend(cfg storage.AIConfig) (backend, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second

	switch cfg.Provider {
	case "", "ollama":
		return ollama.NewClient(cfg.BaseURL, cfg.Model, cfg.EmbeddingModel).WithTimeout(timeout), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("ai.api_key is required for provider openai (set it in ~/.wissen/config.yaml or WISSEN_AI_API_KEY)")
		}
		return openai.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL).
			WithEmbeddingModel(cfg.EmbeddingModel).
			WithTimeout(timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg := storage.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("config not initialized")
	}

	b, err := newBackend(cfg.AI)
	if err != nil {
		return nil, err
	}

	strategy, err := knowledge.ParseStrategy(cfg.Retrieval.Strategy)
	if err != nil {
		return nil, err
	}

	store, err := knowledge.Open(cfg.Knowledge.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge store: %w", err)
	}

	collections, err := knowledge.NewCollections(ctx, store, cfg.Knowledge.Collection, cfg.AI.EmbeddingDimension)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to prepare collections: %w", err)
	}

	searcher := knowledge.NewSearcher(store, collections, b, knowledge.SearchConfig{
		Strategy: strategy,
		RRFK:     cfg.Retrieval.RRFK,
		MinScore: cfg.Retrieval.MinScore,
	}, logger)

	pipeline := ingestion.NewPipeline(store, collections, b,
		ingestion.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap), searcher, logger)

	return &app{
		cfg:         cfg,
		logger:      logger,
		backend:     b,
		store:       store,
		collections: collections,
		searcher:    searcher,
		pipeline:    pipeline,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close knowledge store", zap.Error(err))
	}
}

// conversation builds the answer layer for session. Streaming writes to
// stream when it is not nil.
func (a *app) conversation(session *storage.Session, stream io.Writer) (*conversation.Manager, error) {
	configDir, err := storage.GetConfigDir()
	if err != nil {
		return nil, err
	}
	promptsDir := filepath.Join(configDir, "prompts")
	if err := conversation.EnsureDefaultPrompts(promptsDir); err != nil {
		return nil, fmt.Errorf("failed to initialize prompts: %w", err)
	}

	return conversation.NewManager(a.backend, session, conversation.Config{
		Prompts:      conversation.NewPromptLoader(promptsDir),
		Storage:      conversation.NewFileStorage(filepath.Join(configDir, "conversations")),
		Retriever:    a.searcher,
		Collections:  a.collections,
		TopK:         a.cfg.Retrieval.TopK,
		HistoryLimit: a.cfg.Chat.MaxHistory,
		Stream:       stream,
		Logger:       a.logger,
	}), nil
}

// executor builds the command executor for session.
func (a *app) executor(session *storage.Session, authorizer core.Authorizer, answerer core.Answerer, progress io.Writer) *core.Executor {
	policy := a.cfg.Security
	return core.NewExecutor(session, core.Config{
		Security:    security.NewSecurityController(&policy),
		Authorizer:  authorizer,
		Collections: a.collections,
		Indexer:     a.pipeline,
		Themes:      organizer.NewThemeOrganizer(a.backend, 0, a.logger),
		Knowledge:   organizer.NewKnowledgeOrganizer(a.searcher, a.logger),
		Answerer:    answerer,
		VectorSize:  a.cfg.AI.EmbeddingDimension,
		Progress:    progress,
		Logger:      a.logger,
	})
}
