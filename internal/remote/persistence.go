// Package remote holds the REST clients for the persistence and share
// services. Every client is bound to a session at construction.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/evade6ix/gundamwebsite/internal/deck"
	"github.com/evade6ix/gundamwebsite/internal/ledger"
	"github.com/evade6ix/gundamwebsite/internal/session"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

// Persistence stores the owner's collection and decks.
type Persistence struct {
	BaseURL string
	HTTP    *http.Client
	Session session.Session
}

func NewPersistence(base string, hc *http.Client, s session.Session) *Persistence {
	if hc == nil {
		hc = util.NewHTTPClient(0)
	}
	return &Persistence{BaseURL: strings.TrimRight(base, "/"), HTTP: hc, Session: s}
}

// Account is the /auth/me document.
type Account struct {
	Name       string        `json:"name,omitempty"`
	Email      string        `json:"email,omitempty"`
	Collection []ledger.Item `json:"collection"`
	Decks      []deck.Deck   `json:"decks"`
}

func (p *Persistence) do(ctx context.Context, method, path string, body, out any) error {
	if err := p.Session.Require(); err != nil {
		return err
	}
	return util.DoJSON(ctx, p.HTTP, util.Request{
		Method:        method,
		URL:           p.BaseURL + path,
		Authorization: p.Session.AuthorizationHeader(),
		Body:          body,
	}, out)
}

func deckPath(name string) string {
	return "/auth/users/decks/" + url.PathEscape(name)
}

// Me fetches the owner's account document.
func (p *Persistence) Me(ctx context.Context) (Account, error) {
	var a Account
	if err := p.do(ctx, http.MethodGet, "/auth/me", nil, &a); err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (p *Persistence) GetCollection(ctx context.Context) ([]ledger.Item, error) {
	a, err := p.Me(ctx)
	if err != nil {
		return nil, err
	}
	if a.Collection == nil {
		return []ledger.Item{}, nil
	}
	return a.Collection, nil
}

// PutCollection replaces the stored collection with items.
func (p *Persistence) PutCollection(ctx context.Context, items []ledger.Item) error {
	if items == nil {
		items = []ledger.Item{}
	}
	body := struct {
		Cards []ledger.Item `json:"cards"`
	}{items}
	if err := p.do(ctx, http.MethodPut, "/auth/collection", body, nil); err != nil {
		return fmt.Errorf("put collection: %w", err)
	}
	return nil
}

func (p *Persistence) ListDecks(ctx context.Context) ([]deck.Deck, error) {
	a, err := p.Me(ctx)
	if err != nil {
		return nil, err
	}
	if a.Decks == nil {
		return []deck.Deck{}, nil
	}
	return a.Decks, nil
}

func (p *Persistence) GetDeck(ctx context.Context, name string) (deck.Deck, error) {
	var resp struct {
		Deck deck.Deck `json:"deck"`
	}
	if err := p.do(ctx, http.MethodGet, deckPath(name), nil, &resp); err != nil {
		return deck.Deck{}, err
	}
	return resp.Deck, nil
}

func (p *Persistence) CreateDeck(ctx context.Context, d deck.Deck) error {
	return p.do(ctx, http.MethodPost, "/auth/decks", d, nil)
}

// UpdateDeck replaces the deck stored under name; d.Name may differ (rename).
func (p *Persistence) UpdateDeck(ctx context.Context, name string, d deck.Deck) error {
	return p.do(ctx, http.MethodPut, deckPath(name), d, nil)
}

func (p *Persistence) DeleteDeck(ctx context.Context, name string) error {
	return p.do(ctx, http.MethodDelete, deckPath(name), nil, nil)
}
