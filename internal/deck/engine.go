package deck

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/enrich"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/logging"
)

// Store is the owner's deck set on the persistence service. Decks are
// addressed by name.
type Store interface {
	ListDecks(ctx context.Context) ([]Deck, error)
	// GetDeck returns a NotFound error for an unknown name.
	GetDeck(ctx context.Context, name string) (Deck, error)
	CreateDeck(ctx context.Context, d Deck) error
	UpdateDeck(ctx context.Context, name string, d Deck) error
	DeleteDeck(ctx context.Context, name string) error
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// ErrStale is returned by a load whose result arrived after the engine
// moved on to another deck. The result was discarded.
var ErrStale = errors.New("deck view changed while loading")

// Engine is the deck builder: one ledger under deck legality plus the
// create/edit/save/delete lifecycle.
type Engine struct {
	store  Store
	joiner *enrich.Joiner
	logger *zap.Logger
	now    func() time.Time

	ledger *ledger.Ledger

	mu        sync.Mutex
	mode      Mode
	original  string
	createdAt time.Time
	gen       uint64
}

func NewEngine(store Store, joiner *enrich.Joiner, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		joiner: joiner,
		logger: logging.OrNop(logger),
		now:    time.Now,
		ledger: NewLedger(),
	}
}

// CreateNew starts an empty deck in create mode.
func (e *Engine) CreateNew() {
	e.mu.Lock()
	e.gen++
	e.mode = ModeCreate
	e.original = ""
	e.createdAt = time.Time{}
	e.mu.Unlock()
	e.ledger.Reset()
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// OriginalName is the name edits are addressed to; empty in create mode.
func (e *Engine) OriginalName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.original
}

func (e *Engine) current(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen == gen
}

// LoadForEdit fetches the named deck, hydrates the ledger from its ids and
// counts, and returns the enriched view. NotFound errors pass through so the
// caller can send the user back to the deck list.
func (e *Engine) LoadForEdit(ctx context.Context, name string) ([]enrich.Entry, error) {
	d, gen, err := e.open(ctx, name)
	if err != nil {
		return nil, err
	}
	view := e.joiner.Join(ctx, enrich.FromItems(d.Cards))
	if !e.current(gen) {
		return nil, ErrStale
	}
	return view, nil
}

// OpenForEdit is LoadForEdit without the catalog join, for callers that
// replace the contents before saving.
func (e *Engine) OpenForEdit(ctx context.Context, name string) error {
	_, _, err := e.open(ctx, name)
	return err
}

func (e *Engine) open(ctx context.Context, name string) (Deck, uint64, error) {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	d, err := e.store.GetDeck(ctx, name)
	if !e.current(gen) {
		e.logger.Debug("discarding superseded deck load", zap.String("deck", name))
		return Deck{}, gen, ErrStale
	}
	if err != nil {
		return Deck{}, gen, fmt.Errorf("load deck %q: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return Deck{}, gen, ErrStale
	}
	e.ledger.Hydrate(ledger.SeedsFromItems(d.Cards))
	e.mode = ModeEdit
	e.original = d.Name
	if e.original == "" {
		e.original = name
	}
	e.createdAt = d.CreatedAt
	return d, gen, nil
}

func (e *Engine) AddOne(card cards.Card) (ledger.Entry, error) {
	return e.ledger.AddOne(card)
}

func (e *Engine) RemoveOne(id string) (ledger.Entry, error) {
	return e.ledger.RemoveOne(id)
}

// Rebuild replaces the ledger with items, adding every copy one at a time
// under deck legality. The first rejected copy stops the rebuild.
func (e *Engine) Rebuild(items []ledger.Item) error {
	e.ledger.Reset()
	for _, it := range items {
		for n := 0; n < it.Count; n++ {
			if _, err := e.ledger.AddOne(cards.Card{ID: it.ID, Name: it.Name}); err != nil {
				return fmt.Errorf("card %s: %w", it.ID, err)
			}
		}
	}
	return nil
}

func (e *Engine) TotalCount() int {
	return e.ledger.TotalCount()
}

func (e *Engine) Entries() []ledger.Entry {
	return e.ledger.Entries()
}

// View enriches the current ledger for display.
func (e *Engine) View(ctx context.Context) []enrich.Entry {
	return e.joiner.Join(ctx, enrich.FromEntries(e.ledger.Entries()))
}

// Save validates locally, then creates or updates the deck. Validation
// failures never reach the store. An edit is addressed by the name the deck
// was loaded under; on success the new name becomes the address.
func (e *Engine) Save(ctx context.Context, name, description string) (Deck, error) {
	name = strings.TrimSpace(name)
	if err := ValidateSave(name, e.ledger.TotalCount()); err != nil {
		return Deck{}, err
	}

	e.mu.Lock()
	mode, original, createdAt, gen := e.mode, e.original, e.createdAt, e.gen
	e.mu.Unlock()

	d := Deck{
		Name:        name,
		Description: strings.TrimSpace(description),
		Cards:       e.ledger.Payload(),
		CreatedAt:   createdAt,
	}

	switch mode {
	case ModeCreate:
		d.CreatedAt = e.now().UTC()
		if err := e.store.CreateDeck(ctx, d); err != nil {
			return Deck{}, fmt.Errorf("create deck %q: %w", name, err)
		}
	case ModeEdit:
		if err := e.store.UpdateDeck(ctx, original, d); err != nil {
			return Deck{}, fmt.Errorf("update deck %q: %w", original, err)
		}
	}

	e.mu.Lock()
	if e.gen == gen {
		e.mode = ModeEdit
		e.original = name
		e.createdAt = d.CreatedAt
	}
	e.mu.Unlock()

	e.logger.Info("deck saved",
		zap.String("deck", name),
		zap.String("mode", mode.String()),
		zap.Int("cards", d.Total()))
	return d, nil
}

// Delete removes the named deck. When the engine was editing that deck it
// drops its reference and starts over in create mode.
func (e *Engine) Delete(ctx context.Context, name string) error {
	if err := e.store.DeleteDeck(ctx, name); err != nil {
		return fmt.Errorf("delete deck %q: %w", name, err)
	}
	if e.OriginalName() == name {
		e.CreateNew()
	}
	e.logger.Info("deck deleted", zap.String("deck", name))
	return nil
}

// ListDecks returns the owner's decks.
func (e *Engine) ListDecks(ctx context.Context) ([]Deck, error) {
	ds, err := e.store.ListDecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	return ds, nil
}

// Detail is the read-only deck page.
type Detail struct {
	Deck  Deck           `json:"deck"`
	Cards []enrich.Entry `json:"cards"`
	Stats Stats          `json:"stats"`
}

// LoadDetail fetches and enriches a deck without touching any builder state.
func LoadDetail(ctx context.Context, store Store, joiner *enrich.Joiner, name string) (Detail, error) {
	d, err := store.GetDeck(ctx, name)
	if err != nil {
		return Detail{}, fmt.Errorf("load deck %q: %w", name, err)
	}
	es := joiner.Join(ctx, enrich.FromItems(d.Cards))
	return Detail{Deck: d, Cards: es, Stats: Aggregate(es)}, nil
}
