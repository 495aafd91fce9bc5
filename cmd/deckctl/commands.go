package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/collection"
	"github.com/evade6ix/gundamwebsite/internal/deck"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	imagepkg "github.com/evade6ix/gundamwebsite/internal/image"
	"github.com/evade6ix/gundamwebsite/internal/remote"
	"github.com/evade6ix/gundamwebsite/internal/session"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSearchCmd(a *app) *cobra.Command {
	var q cards.Query
	cmd := &cobra.Command{
		Use:   "search [name words...]",
		Short: "Search the card catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			q.Name = strings.Join(args, " ")
			p, err := a.catalog.Search(ctx, q)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range p.Cards {
				fmt.Fprintf(w, "%-10s %s\n", c.ID, c.Name)
			}
			fmt.Fprintf(w, "page %d/%d\n", p.Page, p.TotalPages)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&q.Sets, "set", nil, "Filter by set name or id")
	cmd.Flags().StringSliceVar(&q.Types, "type", nil, "Filter by card type")
	cmd.Flags().StringSliceVar(&q.Rarities, "rarity", nil, "Filter by rarity")
	cmd.Flags().IntVar(&q.Page, "page", 1, "Result page")
	cmd.Flags().IntVar(&q.Limit, "limit", cards.DefaultLimit, "Results per page")
	return cmd
}

func newCardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "card <id>",
		Short: "Show one catalog card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			c, err := a.catalog.GetCard(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		},
	}
}

func (a *app) persistence() *remote.Persistence {
	return remote.NewPersistence(a.cfg.APIURL, a.client, a.sess)
}

func newDeckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "List, show and export saved decks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your decks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			ds, err := deck.NewEngine(a.persistence(), a.joiner, a.logger).ListDecks(ctx)
			if err != nil {
				return err
			}
			sort.Slice(ds, func(i, j int) bool { return ds[i].Name < ds[j].Name })
			for _, d := range ds {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %2d cards\n", d.Name, d.Total())
			}
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a deck with card detail and color/type totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			d, err := deck.LoadDetail(ctx, a.persistence(), a.joiner, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s (%d cards)\n", d.Deck.Name, d.Stats.Total)
			for _, e := range d.Cards {
				fmt.Fprintf(w, "  %dx %-10s %s\n", e.Count, e.ID, e.Card.Name)
			}
			fmt.Fprintf(w, "colors: %s\n", formatCounts(d.Stats.Colors))
			fmt.Fprintf(w, "types:  %s\n", formatCounts(d.Stats.Types))
			return nil
		},
	}

	var outDir string
	var withImage bool
	export := &cobra.Command{
		Use:   "export <name>",
		Short: "Export a deck as text, and optionally as a PNG image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			d, err := deck.LoadDetail(ctx, a.persistence(), a.joiner, args[0])
			if err != nil {
				return err
			}
			text := deck.ExportDeckText(d.Deck)
			if outDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			} else {
				p, err := util.WriteFile(outDir, fileName(d.Deck.Name)+".txt", []byte(text+"\n"))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if !withImage {
				return nil
			}
			if outDir == "" {
				outDir = "."
			}
			tiles := imagepkg.Tiles(ctx, a.client, d.Cards, a.cfg.EnrichConcurrency, a.logger)
			b, err := imagepkg.EncodePNG(imagepkg.ComposeDeckImage(tiles, nil))
			if err != nil {
				return err
			}
			p, err := util.WriteFile(outDir, fileName(d.Deck.Name)+".png", b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	export.Flags().StringVarP(&outDir, "out", "o", "", "Write files to this directory instead of stdout")
	export.Flags().BoolVar(&withImage, "image", false, "Also render the deck image")

	cmd.AddCommand(list, show, export)
	return cmd
}

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Share and view card collections",
	}

	engine := func() *collection.Engine {
		return collection.NewEngine(collection.Deps{
			Store:   a.persistence(),
			Sharer:  remote.NewShare(a.cfg.APIURL, a.client, a.sess),
			Catalog: a.catalog,
			Joiner:  a.joiner,
			Logger:  a.logger,
		})
	}

	share := &cobra.Command{
		Use:   "share",
		Short: "Print the public link to your collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			s, err := engine().Share(ctx, a.cfg.PublicOrigin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.URL)
			return nil
		},
	}

	var outDir string
	var size int
	qr := &cobra.Command{
		Use:   "qr",
		Short: "Write a QR code PNG of your collection's share link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			s, err := engine().Share(ctx, a.cfg.PublicOrigin)
			if err != nil {
				return err
			}
			b, err := imagepkg.GenerateQRPNG(s.URL, size)
			if err != nil {
				return err
			}
			p, err := util.WriteFile(outDir, "collection-"+s.ID+".png", b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}
	qr.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	qr.Flags().IntVar(&size, "size", imagepkg.DefaultQRSize, fmt.Sprintf("QR edge length in pixels (max %d)", imagepkg.MaxQRSize))

	view := &cobra.Command{
		Use:   "view <shareId>",
		Short: "Show a shared collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			r := remote.NewShare(a.cfg.APIURL, a.client, session.Anonymous)
			v, err := collection.ViewShared(ctx, r, a.joiner, args[0])
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), v.Cards)
			fmt.Fprintf(cmd.OutOrStdout(), "total %d\n", v.Total)
			return nil
		},
	}

	cmd.AddCommand(share, qr, view)
	return cmd
}

func printEntries(w io.Writer, es []enrich.Entry) {
	for _, e := range es {
		name := e.Card.Name
		if name == "" {
			name = "(unknown card)"
		}
		fmt.Fprintf(w, "%3d  %-10s %s\n", e.Count, e.ID, name)
	}
}

func formatCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

// fileName keeps deck names usable as file names.
func fileName(name string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return r.Replace(strings.TrimSpace(name))
}
