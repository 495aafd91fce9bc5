// Package enrich joins saved (id, count) snapshots with live catalog detail.
package enrich

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/logging"
)

// DefaultConcurrency bounds in-flight catalog lookups per join.
const DefaultConcurrency = 8

// Raw is one saved line: id and count, plus a name when the snapshot has one.
type Raw struct {
	ID    string
	Name  string
	Count int
}

// Entry is a display record. Count always comes from the raw snapshot.
// Enriched is false when the catalog lookup failed and Card holds only the
// raw fields.
type Entry struct {
	ID       string     `json:"id"`
	Count    int        `json:"count"`
	Card     cards.Card `json:"card"`
	Enriched bool       `json:"enriched"`
}

// FromItems adapts persisted items.
func FromItems(items []ledger.Item) []Raw {
	out := make([]Raw, len(items))
	for i, it := range items {
		out[i] = Raw{ID: it.ID, Name: it.Name, Count: it.Count}
	}
	return out
}

// FromEntries adapts live ledger entries.
func FromEntries(es []ledger.Entry) []Raw {
	out := make([]Raw, len(es))
	for i, e := range es {
		out[i] = Raw{ID: e.CardID, Name: e.Card.Name, Count: e.Count}
	}
	return out
}

type Joiner struct {
	catalog cards.Catalog
	limit   int
	logger  *zap.Logger
}

// NewJoiner returns a joiner issuing at most limit concurrent lookups
// (DefaultConcurrency when limit < 1).
func NewJoiner(catalog cards.Catalog, limit int, logger *zap.Logger) *Joiner {
	if limit < 1 {
		limit = DefaultConcurrency
	}
	return &Joiner{catalog: catalog, limit: limit, logger: logging.OrNop(logger)}
}

// Join looks every entry up concurrently and waits for all lookups to
// settle. A failed or missing lookup degrades that entry to its raw fields;
// the join itself never fails. Output order follows raws.
func (j *Joiner) Join(ctx context.Context, raws []Raw) []Entry {
	out := make([]Entry, len(raws))
	var g errgroup.Group
	g.SetLimit(j.limit)

	for i, r := range raws {
		out[i] = rawEntry(r)
		g.Go(func() error {
			detail, err := j.catalog.GetCard(ctx, r.ID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					j.logger.Debug("card missing from catalog", zap.String("card_id", r.ID))
				} else {
					j.logger.Warn("card lookup failed", zap.String("card_id", r.ID), zap.Error(err))
				}
				return nil
			}
			out[i] = merge(r, detail)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func rawEntry(r Raw) Entry {
	return Entry{ID: r.ID, Count: r.Count, Card: cards.Card{ID: r.ID, Name: r.Name}}
}

// merge overlays detail on r. Detail wins for every field it carries;
// id and count stay with the raw entry.
func merge(r Raw, detail cards.Card) Entry {
	c := detail
	c.ID = r.ID
	if c.Name == "" {
		c.Name = r.Name
	}
	return Entry{ID: r.ID, Count: r.Count, Card: c, Enriched: true}
}

// Total sums counts.
func Total(es []Entry) int {
	n := 0
	for _, e := range es {
		n += e.Count
	}
	return n
}
