package cards

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/evade6ix/gundamwebsite/internal/apperrors"
)

func parseListCell(s string) string {
	s = strings.ReplaceAll(s, "／", "/")
	parts := strings.Split(s, "/")
	out := []string{}
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" && t != "-" {
			out = append(out, t)
		}
	}
	return strings.Join(out, " / ")
}

// LoadCardsFromDataDir loads catalog CSV exports from a data directory.
// It expects cards.csv; custom_cards.csv is optional. Ids already loaded are
// not overwritten by later files.
func LoadCardsFromDataDir(dataDir string) ([]Card, error) {
	files := []string{
		filepath.Join(dataDir, "cards.csv"),
		filepath.Join(dataDir, "custom_cards.csv"),
	}

	var all []Card
	seen := map[string]bool{}
	var found bool
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			// skip missing files
			continue
		}
		found = true
		cs, err := loadSingleCSV(f)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
		for _, c := range cs {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			all = append(all, c)
		}
	}
	if !found {
		return nil, fmt.Errorf("no input CSVs found in %s", dataDir)
	}
	return all, nil
}

func loadSingleCSV(path string) ([]Card, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ParseCSV(fp)
}

// ParseCSV reads cards from CSV with a header row. Columns are matched by
// name; unknown columns are ignored and rows without an id are dropped.
func ParseCSV(r io.Reader) ([]Card, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.TrimSpace(h)] = i
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Card{}
	for _, row := range rows[1:] {
		c := Card{
			ID:       get(row, "id"),
			Name:     get(row, "name"),
			Rarity:   get(row, "rarity"),
			Color:    get(row, "color"),
			CardType: get(row, "cardType"),
			Cost:     get(row, "cost"),
			Level:    get(row, "level"),
			AP:       get(row, "ap"),
			HP:       get(row, "hp"),
			Zone:     get(row, "zone"),
			Trait:    parseListCell(get(row, "trait")),
			Link:     get(row, "link"),
			Effect:   get(row, "effect"),
			Set:      SetRef{ID: get(row, "set_id"), Name: get(row, "set_name")},
		}
		if c.ID == "" {
			continue
		}
		c.Images = normalizeImages(
			&ImageSet{Small: get(row, "image_small"), Large: get(row, "image_large")},
			get(row, "image_url"),
		)
		out = append(out, c)
	}
	return out, nil
}

// MemoryCatalog serves a fixed card list. It backs offline mode and tests.
type MemoryCatalog struct {
	cards []Card
	byID  map[string]Card
}

func NewMemoryCatalog(cards []Card) *MemoryCatalog {
	m := &MemoryCatalog{cards: cards, byID: make(map[string]Card, len(cards))}
	for _, c := range cards {
		m.byID[c.ID] = c
	}
	return m
}

func (m *MemoryCatalog) Search(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, apperrors.Transport("search cards", err)
	}
	out := Filter(m.cards, FilterOptions{
		FreeWords: q.Name,
		Sets:      q.Sets,
		Types:     q.Types,
		Rarities:  q.Rarities,
	})
	return Paginate(out, q.Page, q.Limit), nil
}

func (m *MemoryCatalog) GetCard(ctx context.Context, id string) (Card, error) {
	if err := ctx.Err(); err != nil {
		return Card{}, apperrors.Transport("get card "+id, err)
	}
	c, ok := m.byID[id]
	if !ok {
		return Card{}, apperrors.NotFound(id + ": card not found")
	}
	return c, nil
}

func (m *MemoryCatalog) Filters(ctx context.Context) (Facets, error) {
	var sets, types, rarities []string
	for _, c := range m.cards {
		sets = append(sets, c.Set.Name)
		types = append(types, c.CardType)
		rarities = append(rarities, c.Rarity)
	}
	return Facets{
		Sets:     distinctSorted(sets),
		Types:    distinctSorted(types),
		Rarities: distinctSorted(rarities),
	}, nil
}
