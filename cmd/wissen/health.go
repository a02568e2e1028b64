package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lin-Jiong-HDU/wissen/internal/storage"
)

const healthTimeout = 15 * time.Second

type healthCheck struct {
	name string
	run  func(ctx context.Context) (string, error)
}

type healthResult struct {
	detail string
	err    error
}

func getHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Sprachmodell, Embeddings und Wissensdatenbank prüfen",
		Args:  cobra.NoArgs,
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	checks := a.healthChecks()
	results := runHealthChecks(ctx, checks)

	out := cmd.OutOrStdout()
	failed := 0
	for i, check := range checks {
		r := results[i]
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "❌ %-18s %v\n", check.name, r.err)
			continue
		}
		fmt.Fprintf(out, "✅ %-18s %s\n", check.name, r.detail)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

// runHealthChecks runs all checks concurrently. A failing check does not
// cancel the others.
func runHealthChecks(ctx context.Context, checks []healthCheck) []healthResult {
	results := make([]healthResult, len(checks))
	var g errgroup.Group
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			detail, err := check.run(ctx)
			results[i] = healthResult{detail: detail, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *app) healthChecks() []healthCheck {
	return []healthCheck{
		{"Konfiguration", func(context.Context) (string, error) {
			dir, err := storage.GetConfigDir()
			if err != nil {
				return "", err
			}
			probe, err := os.CreateTemp(dir, ".health-*")
			if err != nil {
				return "", fmt.Errorf("config directory not writable: %w", err)
			}
			probe.Close()
			_ = os.Remove(probe.Name())
			return filepath.Join(dir, storage.ConfigFileName+"."+storage.ConfigFileType), nil
		}},
		{"Wissensdatenbank", func(ctx context.Context) (string, error) {
			active, err := a.collections.Active(ctx)
			if err != nil {
				return "", err
			}
			n, err := a.store.CountChunks(ctx, active)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("'%s' mit %d Chunks", active, n), nil
		}},
		{"Sprachmodell", func(ctx context.Context) (string, error) {
			if err := a.backend.Ping(ctx); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%s)", a.cfg.AI.Model, a.cfg.AI.Provider), nil
		}},
		{"Embeddings", func(ctx context.Context) (string, error) {
			vectors, err := a.backend.Embed(ctx, []string{"wissen"})
			if err != nil {
				return "", err
			}
			if len(vectors) != 1 {
				return "", fmt.Errorf("expected 1 vector, got %d", len(vectors))
			}
			if want := a.cfg.AI.EmbeddingDimension; want > 0 && len(vectors[0]) != want {
				return "", fmt.Errorf("dimension %d, configured %d", len(vectors[0]), want)
			}
			return fmt.Sprintf("%s, %d Dimensionen", a.cfg.AI.EmbeddingModel, len(vectors[0])), nil
		}},
	}
}
