package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
	"github.com/evade6ix/gundamwebsite/internal/logging"
	"github.com/evade6ix/gundamwebsite/internal/util"
)

// DefaultLimit is the page size the catalog uses when none is given.
const DefaultLimit = 20

// MaxLimit caps the page size of any search.
const MaxLimit = 100

// ClampLimit maps a requested page size into [1, MaxLimit]; values below
// one mean DefaultLimit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Query is a paginated catalog search.
type Query struct {
	Name     string
	Sets     []string
	Types    []string
	Rarities []string
	Page     int
	Limit    int
}

// Page is one page of search results.
type Page struct {
	Cards      []Card `json:"cards"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total,omitempty"`
}

// Facets lists the distinct filter values the catalog knows about.
type Facets struct {
	Sets     []string `json:"sets"`
	Types    []string `json:"types"`
	Rarities []string `json:"rarities"`
}

// Catalog is the read-only card catalog service.
type Catalog interface {
	Search(ctx context.Context, q Query) (Page, error)
	// GetCard returns a NotFound error when id is unknown.
	GetCard(ctx context.Context, id string) (Card, error)
	Filters(ctx context.Context) (Facets, error)
}

// Client talks to the catalog over REST.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

func NewClient(base string, hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = util.NewHTTPClient(0)
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    hc,
		Logger:  logging.OrNop(logger),
	}
}

func (c *Client) Search(ctx context.Context, q Query) (Page, error) {
	v := url.Values{}
	if q.Name != "" {
		v.Set("name", q.Name)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	q.Limit = ClampLimit(q.Limit)
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if len(q.Sets) > 0 {
		v.Set("set", strings.Join(q.Sets, ","))
	}
	if len(q.Types) > 0 {
		v.Set("type", strings.Join(q.Types, ","))
	}
	if len(q.Rarities) > 0 {
		v.Set("rarity", strings.Join(q.Rarities, ","))
	}

	var p Page
	err := util.DoJSON(ctx, c.HTTP, util.Request{Method: http.MethodGet, URL: c.BaseURL + "/cards?" + v.Encode()}, &p)
	if err != nil {
		return Page{}, fmt.Errorf("search cards: %w", err)
	}
	if p.Page < 1 {
		p.Page = q.Page
	}
	if p.TotalPages < 1 {
		p.TotalPages = 1
	}
	if p.Cards == nil {
		p.Cards = []Card{}
	}
	return p, nil
}

// GetCard fetches one card. The catalog answers unknown ids either with 404
// or with 200 and {"error": "..."}; both are NotFound.
func (c *Client) GetCard(ctx context.Context, id string) (Card, error) {
	var raw json.RawMessage
	err := util.DoJSON(ctx, c.HTTP, util.Request{Method: http.MethodGet, URL: c.BaseURL + "/card/" + url.PathEscape(id)}, &raw)
	if err != nil {
		return Card{}, fmt.Errorf("get card %s: %w", id, err)
	}

	var probe struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(raw, &probe)

	var card Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return Card{}, apperrors.Transport("decode card "+id, err)
	}
	if card.ID == "" {
		msg := probe.Error
		if msg == "" {
			msg = "card not found"
		}
		return Card{}, apperrors.NotFound(fmt.Sprintf("%s: %s", id, msg))
	}
	return card, nil
}

func (c *Client) Filters(ctx context.Context) (Facets, error) {
	var f Facets
	if err := util.DoJSON(ctx, c.HTTP, util.Request{Method: http.MethodGet, URL: c.BaseURL + "/filters"}, &f); err != nil {
		return Facets{}, fmt.Errorf("get filters: %w", err)
	}
	return f, nil
}

// lookupConcurrency bounds Lookup's fan-out.
const lookupConcurrency = 8

// Lookup fetches the given ids concurrently. Unknown ids are skipped; any
// other failure aborts the lookup. Results follow the order of ids.
func Lookup(ctx context.Context, cat Catalog, ids []string) ([]Card, error) {
	found := make([]*Card, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			card, err := cat.GetCard(gctx, id)
			if apperrors.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			found[i] = &card
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Card, 0, len(ids))
	for _, c := range found {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func distinctSorted(vals []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range vals {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
