package cards

import "strings"

// FilterOptions narrows a card list locally. Empty fields match everything.
type FilterOptions struct {
	// FreeWords must all appear (case-insensitively) in the card name.
	FreeWords string
	Sets      []string
	Types     []string
	Rarities  []string
	Colors    []string
}

func containsAny(hay []string, needles []string) bool {
	for _, n := range needles {
		for _, h := range hay {
			if strings.Contains(h, n) {
				return true
			}
		}
	}
	return false
}

func equalsAny(v string, options []string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

func Filter(cards []Card, opt FilterOptions) []Card {
	kw := strings.Fields(strings.ToLower(opt.FreeWords))
	out := []Card{}
	for _, c := range cards {
		if len(opt.Sets) > 0 && !equalsAny(c.Set.Name, opt.Sets) && !equalsAny(c.Set.ID, opt.Sets) {
			continue
		}
		if len(opt.Types) > 0 && !equalsAny(c.CardType, opt.Types) {
			continue
		}
		if len(opt.Rarities) > 0 && !equalsAny(c.Rarity, opt.Rarities) {
			continue
		}
		// multi-color cards carry "Blue / White"
		if len(opt.Colors) > 0 && !containsAny([]string{c.Color}, opt.Colors) {
			continue
		}
		if len(kw) > 0 {
			name := strings.ToLower(c.Name)
			ok := true
			for _, k := range kw {
				if !strings.Contains(name, k) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// Paginate slices cards into 1-based pages of limit cards. Out of range
// pages are clamped; an empty list has one empty page.
func Paginate(cards []Card, page, limit int) Page {
	limit = ClampLimit(limit)
	total := len(cards)
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{Cards: cards[start:end], Page: page, TotalPages: totalPages, Total: total}
}
