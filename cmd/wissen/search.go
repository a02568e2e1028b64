package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

var (
	searchStrategy    string
	searchTopK        int
	searchShowContent bool
)

func getSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <anfrage>",
		Short: "Die aktive Wissensdatenbank durchsuchen",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearch,
	}
	cmd.Flags().StringVar(&searchStrategy, "strategy", "", "hybrid, semantic oder fulltext")
	cmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "Anzahl der Treffer")
	cmd.Flags().BoolVar(&searchShowContent, "show-sources", false, "Textausschnitt jedes Treffers zeigen")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	query := strings.Join(args, " ")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategy, err := knowledge.ParseStrategy(searchStrategy)
	if err != nil {
		return err
	}
	if searchStrategy == "" {
		strategy, _ = knowledge.ParseStrategy(a.cfg.Retrieval.Strategy)
	}
	topK := searchTopK
	if topK <= 0 {
		topK = a.cfg.Retrieval.TopK
	}

	results, err := a.searcher.SearchWith(ctx, strategy, query, topK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintf(out, "🔍 Keine Treffer für %q\n", query)
		return nil
	}

	fmt.Fprintf(out, "🔍 %d Treffer für %q (%s):\n", len(results), query, strategy)
	for i, r := range results {
		fmt.Fprintf(out, "%2d. %s #%d (Score: %.4f)\n", i+1, r.Source, r.Index, r.Score)
		if searchShowContent {
			fmt.Fprintf(out, "    %s\n", preview(r.Content, 200))
		}
	}
	return nil
}

// preview flattens text to one line of at most limit runes.
func preview(text string, limit int) string {
	flat := []rune(strings.Join(strings.Fields(text), " "))
	if len(flat) <= limit {
		return string(flat)
	}
	return string(flat[:limit]) + "..."
}
