package cards

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleCards() []Card {
	return []Card{
		{ID: "GD01-001", Name: "Gundam", Color: "Blue", CardType: "UNIT", Rarity: "LR", Set: SetRef{ID: "GD01", Name: "Newtype Rising"}},
		{ID: "GD01-010", Name: "Zaku II", Color: "Green", CardType: "UNIT", Rarity: "C", Set: SetRef{ID: "GD01", Name: "Newtype Rising"}},
		{ID: "GD01-050", Name: "Char's Zaku II", Color: "Red", CardType: "UNIT", Rarity: "R", Set: SetRef{ID: "GD01", Name: "Newtype Rising"}},
		{ID: "ST01-015", Name: "White Base", Color: "Blue / White", CardType: "BASE", Rarity: "R", Set: SetRef{ID: "ST01", Name: "Heroic Beginnings"}},
	}
}

func ids(cs []Card) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	all := sampleCards()

	assert.Equal(t, []string{"GD01-010", "GD01-050"}, ids(Filter(all, FilterOptions{FreeWords: "zaku"})))
	assert.Equal(t, []string{"GD01-050"}, ids(Filter(all, FilterOptions{FreeWords: "ZAKU char's"})))
	assert.Equal(t, []string{"ST01-015"}, ids(Filter(all, FilterOptions{Types: []string{"BASE"}})))
	assert.Equal(t, []string{"GD01-050", "ST01-015"}, ids(Filter(all, FilterOptions{Rarities: []string{"R"}})))
	assert.Equal(t, []string{"ST01-015"}, ids(Filter(all, FilterOptions{Sets: []string{"ST01"}})))
	assert.Equal(t, []string{"GD01-001", "ST01-015"}, ids(Filter(all, FilterOptions{Colors: []string{"Blue"}})))
	assert.Len(t, Filter(all, FilterOptions{}), 4)
	assert.Empty(t, Filter(all, FilterOptions{FreeWords: "Sazabi"}))
}

func TestPaginate(t *testing.T) {
	var cs []Card
	for i := 0; i < 45; i++ {
		cs = append(cs, Card{ID: fmt.Sprintf("C%02d", i)})
	}

	p := Paginate(cs, 1, 20)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 45, p.Total)
	assert.Len(t, p.Cards, 20)

	p = Paginate(cs, 3, 20)
	assert.Len(t, p.Cards, 5)
	assert.Equal(t, "C40", p.Cards[0].ID)

	p = Paginate(cs, 99, 20)
	assert.Equal(t, 3, p.Page)

	// oversized limits are capped, never overflow
	p = Paginate(cs, 1, math.MaxInt)
	assert.Len(t, p.Cards, 45)
	assert.Equal(t, 1, p.TotalPages)

	p = Paginate(cs[:2], math.MaxInt, math.MaxInt)
	assert.Equal(t, 1, p.Page)
	assert.Len(t, p.Cards, 2)

	p = Paginate(nil, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Cards)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-5))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxLimit, ClampLimit(math.MaxInt))
}
