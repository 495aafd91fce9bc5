// Package collection manages an owner's card collection: an uncapped ledger
// synced to the persistence service after every mutation, catalog browsing in
// two modes, and share-link provisioning.
package collection

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/syncagent"
)

// Store is the owner's collection on the persistence service.
type Store interface {
	GetCollection(ctx context.Context) ([]ledger.Item, error)
	PutCollection(ctx context.Context, items []ledger.Item) error
}

// Sharer provisions the public share id of the owner's collection.
// Repeated calls may return the same id.
type Sharer interface {
	CreateOrGetShareID(ctx context.Context) (string, error)
}

type Mode int

const (
	// ModeBrowse searches the whole catalog.
	ModeBrowse Mode = iota
	// ModeCollection only shows cards present in the ledger.
	ModeCollection
)

func (m Mode) String() string {
	if m == ModeCollection {
		return "collection"
	}
	return "browse"
}

// ParseMode accepts "browse" and "collection"; anything else is browse.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "collection") {
		return ModeCollection
	}
	return ModeBrowse
}

// ErrStale is returned by a load that was superseded by another load.
var ErrStale = errors.New("collection view changed while loading")

// Deps are the collaborators of an Engine.
type Deps struct {
	Store   Store
	Sharer  Sharer
	Catalog cards.Catalog
	Joiner  *enrich.Joiner
	Logger  *zap.Logger
}

type Engine struct {
	deps   Deps
	logger *zap.Logger
	agent  *syncagent.Agent
	ledger *ledger.Ledger

	mu   sync.Mutex
	mode Mode
	gen  uint64
}

// NewEngine returns an engine with an empty ledger in browse mode. Pushes go
// through a SyncAgent bound to deps.Store.
func NewEngine(deps Deps, opts ...syncagent.Option) *Engine {
	logger := logging.OrNop(deps.Logger)
	return &Engine{
		deps:   deps,
		logger: logger,
		agent:  syncagent.New(deps.Store.PutCollection, logger, opts...),
		ledger: ledger.New(nil),
	}
}

// Load hydrates the ledger from the persistence service.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	items, err := e.deps.Store.GetCollection(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.logger.Debug("discarding superseded collection load")
		return ErrStale
	}
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	e.ledger.Hydrate(ledger.SeedsFromItems(items))
	return nil
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) SetMode(m Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

// ToggleMode flips between browse and collection-only and returns the new mode.
func (e *Engine) ToggleMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeBrowse {
		e.mode = ModeCollection
	} else {
		e.mode = ModeBrowse
	}
	return e.mode
}

// BrowseResult is a page of cards plus the owned count of each card shown.
type BrowseResult struct {
	cards.Page
	Mode   string         `json:"mode"`
	Counts map[string]int `json:"counts"`
}

// Browse lists cards for the current mode. Browse mode is a plain catalog
// search. Collection-only mode looks up the ids in the ledger and filters
// and paginates them locally; an empty ledger yields an empty page without
// calling the catalog.
func (e *Engine) Browse(ctx context.Context, q cards.Query) (BrowseResult, error) {
	mode := e.Mode()
	res := BrowseResult{Mode: mode.String(), Counts: map[string]int{}}

	switch mode {
	case ModeCollection:
		ids := e.ledger.IDs()
		if len(ids) == 0 {
			res.Page = cards.Paginate(nil, 1, q.Limit)
			return res, nil
		}
		found, err := cards.Lookup(ctx, e.deps.Catalog, ids)
		if err != nil {
			return BrowseResult{}, fmt.Errorf("look up collection cards: %w", err)
		}
		found = cards.Filter(found, cards.FilterOptions{
			FreeWords: q.Name,
			Sets:      q.Sets,
			Types:     q.Types,
			Rarities:  q.Rarities,
		})
		res.Page = cards.Paginate(found, q.Page, q.Limit)
	default:
		p, err := e.deps.Catalog.Search(ctx, q)
		if err != nil {
			return BrowseResult{}, err
		}
		res.Page = p
	}

	for _, c := range res.Cards {
		if n := e.ledger.Count(c.ID); n > 0 {
			res.Counts[c.ID] = n
		}
	}
	return res, nil
}

// AddOne adds a copy of card and immediately pushes the full collection.
func (e *Engine) AddOne(ctx context.Context, card cards.Card) (ledger.Entry, *syncagent.Result, error) {
	en, err := e.ledger.AddOne(card)
	if err != nil {
		return ledger.Entry{}, nil, err
	}
	return en, e.push(ctx), nil
}

// RemoveOne removes a copy of id and immediately pushes the full collection.
func (e *Engine) RemoveOne(ctx context.Context, id string) (ledger.Entry, *syncagent.Result, error) {
	en, err := e.ledger.RemoveOne(id)
	if err != nil {
		return ledger.Entry{}, nil, err
	}
	return en, e.push(ctx), nil
}

func (e *Engine) push(ctx context.Context) *syncagent.Result {
	return e.agent.Push(ctx, e.ledger.Payload())
}

// Wait blocks until every push issued by this engine has settled.
func (e *Engine) Wait() {
	e.agent.Wait()
}

func (e *Engine) TotalCount() int {
	return e.ledger.TotalCount()
}

func (e *Engine) Entries() []ledger.Entry {
	return e.ledger.Entries()
}

// View enriches the owner's collection for display.
func (e *Engine) View(ctx context.Context) []enrich.Entry {
	return e.deps.Joiner.Join(ctx, enrich.FromEntries(e.ledger.Entries()))
}

// Share is a provisioned share link.
type Share struct {
	ID  string `json:"shareId"`
	URL string `json:"url"`
}

// Share requests the collection's share id and builds its public URL.
func (e *Engine) Share(ctx context.Context, origin string) (Share, error) {
	id, err := e.deps.Sharer.CreateOrGetShareID(ctx)
	if err != nil {
		return Share{}, fmt.Errorf("share collection: %w", err)
	}
	s := Share{ID: id, URL: ShareURL(origin, id)}
	e.logger.Info("collection shared", zap.String("share_id", id))
	return s, nil
}

// ShareURL is <origin>/collection/view/<shareId>.
func ShareURL(origin, shareID string) string {
	return strings.TrimRight(origin, "/") + "/collection/view/" + url.PathEscape(shareID)
}
