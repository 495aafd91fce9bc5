// Package ledger implements the quantity ledger shared by decks and
// collections: card id -> (cached card, count), with an optional legality
// predicate consulted before every addition.
//
// Invariant: every entry has Count >= 1. An entry whose count would reach
// zero is deleted.
package ledger

import (
	"sort"
	"sync"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/cards"
)

// Entry is one card line. Card is whatever was known when the card was
// inserted or hydrated and may be stale.
type Entry struct {
	CardID string     `json:"id"`
	Count  int        `json:"count"`
	Card   cards.Card `json:"card"`
}

// Item is the minimal persisted form of an entry.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Count int    `json:"count"`
}

// Seed hydrates one entry. Card is optional cached metadata.
type Seed struct {
	ID    string
	Count int
	Card  *cards.Card
}

// SeedsFromItems converts persisted items into hydration seeds.
func SeedsFromItems(items []Item) []Seed {
	out := make([]Seed, 0, len(items))
	for _, it := range items {
		out = append(out, Seed{ID: it.ID, Count: it.Count, Card: &cards.Card{ID: it.ID, Name: it.Name}})
	}
	return out
}

// Legality decides whether card may be added to l. A non-nil error is the
// rejection reason and blocks the mutation. It is called with the ledger
// lock held and must only use the read accessors passed to it.
type Legality func(v View, card cards.CardRef) error

// View is the read-only face of a ledger handed to a Legality predicate.
type View interface {
	Count(id string) int
	TotalCount() int
	Len() int
}

// Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	legality Legality
	entries  map[string]*Entry
}

// New returns an empty ledger. A nil legality allows every addition.
func New(legality Legality) *Ledger {
	return &Ledger{legality: legality, entries: map[string]*Entry{}}
}

// lockedView reads entries without taking the lock again.
type lockedView struct{ l *Ledger }

func (v lockedView) Count(id string) int { return v.l.countLocked(id) }
func (v lockedView) TotalCount() int     { return v.l.totalLocked() }
func (v lockedView) Len() int            { return len(v.l.entries) }

// AddOne inserts card with count 1, or increments its count by exactly one.
// A legality rejection leaves the ledger unchanged and is returned as a
// validation error carrying the predicate's reason.
func (l *Ledger) AddOne(card cards.Card) (Entry, error) {
	if card.ID == "" {
		return Entry{}, apperrors.Validation("card id is required")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.legality != nil {
		if err := l.legality(lockedView{l}, card.Ref()); err != nil {
			if apperrors.IsValidation(err) {
				return Entry{}, err
			}
			return Entry{}, apperrors.Validation(err.Error())
		}
	}

	e, ok := l.entries[card.ID]
	if !ok {
		e = &Entry{CardID: card.ID, Card: card}
		l.entries[card.ID] = e
	}
	e.Count++
	return *e, nil
}

// RemoveOne decrements id's count, deleting the entry when it reaches zero.
// The returned entry has the new count (0 when deleted). An absent id is a
// NotFound error and a no-op.
func (l *Ledger) RemoveOne(id string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return Entry{}, apperrors.NotFound(id + " is not in the ledger")
	}
	e.Count--
	out := *e
	if e.Count < 1 {
		delete(l.entries, id)
	}
	return out, nil
}

func (l *Ledger) Count(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.countLocked(id)
}

func (l *Ledger) countLocked(id string) int {
	if e, ok := l.entries[id]; ok {
		return e.Count
	}
	return 0
}

// TotalCount is the sum of all counts.
func (l *Ledger) TotalCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalLocked()
}

func (l *Ledger) totalLocked() int {
	n := 0
	for _, e := range l.entries {
		n += e.Count
	}
	return n
}

// Len is the number of distinct card ids.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Hydrate replaces the ledger content wholesale. Seeds with a count below
// one are dropped and repeated ids are summed. Legality is not consulted:
// hydrated state is whatever the persistence service holds.
func (l *Ledger) Hydrate(seeds []Seed) {
	next := make(map[string]*Entry, len(seeds))
	for _, s := range seeds {
		if s.ID == "" || s.Count < 1 {
			continue
		}
		if e, ok := next[s.ID]; ok {
			e.Count += s.Count
			continue
		}
		e := &Entry{CardID: s.ID, Count: s.Count, Card: cards.Card{ID: s.ID}}
		if s.Card != nil {
			e.Card = *s.Card
			e.Card.ID = s.ID
		}
		next[s.ID] = e
	}

	l.mu.Lock()
	l.entries = next
	l.mu.Unlock()
}

// Reset empties the ledger.
func (l *Ledger) Reset() {
	l.Hydrate(nil)
}

// Entries returns a copy of all entries sorted by card id.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out
}

// IDs returns the card ids present, sorted.
func (l *Ledger) IDs() []string {
	es := l.Entries()
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.CardID
	}
	return out
}

// Payload strips entries down to the {id, name, count} triples the
// persistence service stores.
func (l *Ledger) Payload() []Item {
	es := l.Entries()
	out := make([]Item, len(es))
	for i, e := range es {
		out[i] = Item{ID: e.CardID, Name: e.Card.Name, Count: e.Count}
	}
	return out
}
