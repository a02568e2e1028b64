package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lin-Jiong-HDU/wissen/internal/knowledge"
)

var collectionForce bool

func getCollectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections"},
		Short:   "Wissensdatenbanken verwalten",
	}

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Wissensdatenbank anlegen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				created, err := a.collections.Create(cmd.Context(), args[0], a.cfg.AI.EmbeddingDimension)
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(cmd.OutOrStdout(), "⚠️ Wissensdatenbank '%s' existiert bereits\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Wissensdatenbank '%s' wurde erstellt\n", args[0])
				return nil
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Wissensdatenbanken auflisten",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				infos, err := a.collections.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, info := range infos {
					marker := "  "
					if info.Active {
						marker = "👉"
					}
					fmt.Fprintf(out, "%s %-20s %6d Chunks %5d Dokumente\n", marker, info.Name, info.Chunks, info.Documents)
				}
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Wissensdatenbank löschen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				err := a.collections.Delete(cmd.Context(), args[0], collectionForce)
				if errors.Is(err, knowledge.ErrActiveCollection) {
					return fmt.Errorf("%w: switch first or pass --force", err)
				}
				if err != nil {
					return err
				}
				a.searcher.Invalidate()
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Wissensdatenbank '%s' wurde gelöscht\n", args[0])
				return nil
			})
		},
	}
	del.Flags().BoolVarP(&collectionForce, "force", "f", false, "auch die aktive Wissensdatenbank löschen")

	info := &cobra.Command{
		Use:   "info [name]",
		Short: "Details einer Wissensdatenbank",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				} else {
					active, err := a.collections.Active(cmd.Context())
					if err != nil {
						return err
					}
					name = active
				}
				info, err := a.collections.Info(cmd.Context(), name)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "📊 %s\n", info.Name)
				fmt.Fprintf(out, "   Chunks:           %d\n", info.Chunks)
				fmt.Fprintf(out, "   Dokumente:        %d\n", info.Documents)
				fmt.Fprintf(out, "   Vector-Dimension: %d\n", info.VectorSize)
				fmt.Fprintf(out, "   Erstellt:         %s\n", info.CreatedAt.Format("02.01.2006 15:04"))
				fmt.Fprintf(out, "   Aktiv:            %t\n", info.Active)
				return nil
			})
		},
	}

	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Aktive Wissensdatenbank wechseln",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if err := a.collections.Switch(cmd.Context(), args[0]); err != nil {
					return err
				}
				a.searcher.Invalidate()
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Verwende jetzt Wissensdatenbank '%s'\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, del, info, use)
	return cmd
}

// withApp builds the app for one command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
