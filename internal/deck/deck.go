package deck

import (
	"strings"
	"time"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/cards"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
)

// Deck construction limits.
const (
	MaxCopies = 4
	MaxCards  = 50
	MinCards  = 10
)

// Deck is addressed by Name within its owner's decks.
type Deck struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Cards       []ledger.Item `json:"cards"`
	CreatedAt   time.Time     `json:"created_at"`
	Owner       string        `json:"owner,omitempty"`
}

// Total is the number of cards in the deck.
func (d Deck) Total() int {
	n := 0
	for _, c := range d.Cards {
		n += c.Count
	}
	return n
}

// Legality rejects an addition once the deck is full or the card is at its
// copy limit. The deck cap is checked first.
func Legality(v ledger.View, card cards.CardRef) error {
	if v.TotalCount() >= MaxCards {
		return apperrors.Validation(apperrors.ReasonDeckLimit)
	}
	if v.Count(card.ID) >= MaxCopies {
		return apperrors.Validation(apperrors.ReasonMaxCopies)
	}
	return nil
}

// NewLedger returns an empty ledger bound to deck legality.
func NewLedger() *ledger.Ledger {
	return ledger.New(Legality)
}

// ValidateSave reports why a deck with this name and total cannot be saved.
func ValidateSave(name string, total int) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validation("deck name is required")
	}
	if total < MinCards {
		return apperrors.Validation("deck must have at least 10 cards")
	}
	return nil
}
