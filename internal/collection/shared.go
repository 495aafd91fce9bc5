package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/evade6ix/gundamwebsite/internal/enrich"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
)

// Snapshot is the publicly resolvable copy of a collection taken when it
// was shared. It is not kept in sync with the collection afterwards.
type Snapshot struct {
	ShareID   string        `json:"shareId"`
	Cards     []ledger.Item `json:"cards"`
	CreatedAt time.Time     `json:"created_at,omitempty"`
}

// Resolver looks up share snapshots without authentication. Unknown and
// expired ids are NotFound errors.
type Resolver interface {
	Resolve(ctx context.Context, shareID string) (Snapshot, error)
}

// SharedView is the read-only shared-collection page.
type SharedView struct {
	ShareID string         `json:"shareId"`
	Cards   []enrich.Entry `json:"cards"`
	Total   int            `json:"total"`
}

// ViewShared resolves shareID and enriches its cards with live catalog
// detail. It re-resolves on every call.
func ViewShared(ctx context.Context, r Resolver, j *enrich.Joiner, shareID string) (SharedView, error) {
	snap, err := r.Resolve(ctx, shareID)
	if err != nil {
		return SharedView{}, fmt.Errorf("resolve share %q: %w", shareID, err)
	}
	es := j.Join(ctx, enrich.FromItems(snap.Cards))
	return SharedView{ShareID: shareID, Cards: es, Total: enrich.Total(es)}, nil
}
