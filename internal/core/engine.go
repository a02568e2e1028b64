package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Lin-Jiong-HDU/wissen/internal/router"
)

// Engine handles one chat line from input to status: route, then execute.
type Engine struct {
	executor *Executor
	logger   *zap.Logger
}

// NewEngine creates a new engine
func NewEngine(executor *Executor, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		executor: executor,
		logger:   logger,
	}
}

// Process routes input and executes the command. The command is returned
// so the caller can tell a conversational answer from a command status.
func (e *Engine) Process(ctx context.Context, input string) (router.Command, string) {
	start := time.Now()
	cmd := router.Route(input)

	status := e.executor.Execute(ctx, cmd)

	e.logger.Info("Processed input",
		zap.String("intent", string(cmd.Intent())),
		zap.String("summary", cmd.Summary()),
		zap.Duration("took", time.Since(start)))
	return cmd, status
}

// Conversational reports whether cmd is answered by the language model
// rather than executed.
func Conversational(cmd router.Command) bool {
	switch cmd.(type) {
	case router.Greeting, router.MetaQuestion, router.RagFallback:
		return true
	}
	return false
}
