package deck

import "github.com/evade6ix/gundamwebsite/internal/enrich"

// Fallback buckets for cards the catalog could not describe.
const (
	NoColor = "Colorless"
	NoType  = "Unknown"
)

// Stats are count-weighted totals over an enriched deck.
type Stats struct {
	Total  int            `json:"total"`
	Colors map[string]int `json:"colors"`
	Types  map[string]int `json:"types"`
}

// Aggregate folds enriched entries into per-color and per-card-type totals.
func Aggregate(es []enrich.Entry) Stats {
	s := Stats{Colors: map[string]int{}, Types: map[string]int{}}
	for _, e := range es {
		color := e.Card.Color
		if color == "" {
			color = NoColor
		}
		typ := e.Card.CardType
		if typ == "" {
			typ = NoType
		}
		s.Colors[color] += e.Count
		s.Types[typ] += e.Count
		s.Total += e.Count
	}
	return s
}
