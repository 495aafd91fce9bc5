package main

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/config"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/session"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

// app is the state shared by every subcommand once the root has run.
type app struct {
	load    func() (config.Config, error)
	cfg     config.Config
	logger  *zap.Logger
	client  *http.Client
	catalog cards.Catalog
	joiner  *enrich.Joiner
	sess    session.Session

	token   string
	verbose bool
	timeout time.Duration
}

// newRootCmd wires the command tree. load defaults to config.Load.
func newRootCmd(load func() (config.Config, error)) *cobra.Command {
	if load == nil {
		load = config.Load
	}
	a := &app{load: load}

	root := &cobra.Command{
		Use:   "deckctl",
		Short: "Browse the card catalog and manage decks and collections",
		Long: `deckctl talks to the same catalog, persistence and share services as
the web gateway.

Protected commands need a bearer token via --token or GUNDAM_TOKEN.
Set GUNDAM_CATALOG_DATA_DIR to browse a CSV catalog offline.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.token, "token", "", "Bearer token (or set GUNDAM_TOKEN)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", time.Minute, "Operation timeout")

	root.AddCommand(newSearchCmd(a), newCardCmd(a), newDeckCmd(a), newCollectionCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	if a.logger, err = logging.New(level, cfg.LogJSON); err != nil {
		return err
	}

	a.client = util.NewHTTPClient(cfg.HTTPTimeout)
	if cfg.CatalogDataDir != "" {
		all, err := cards.LoadCardsFromDataDir(cfg.CatalogDataDir)
		if err != nil {
			return err
		}
		a.catalog = cards.NewMemoryCatalog(all)
	} else {
		a.catalog = cards.NewClient(cfg.CatalogURL, a.client, a.logger)
	}
	a.joiner = enrich.NewJoiner(a.catalog, cfg.EnrichConcurrency, a.logger)

	token := a.token
	if token == "" {
		token = cfg.Token
	}
	a.sess = session.Anonymous
	if token != "" {
		if a.sess, err = session.FromToken(token, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}
