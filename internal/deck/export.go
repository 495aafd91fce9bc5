package deck

import (
	"sort"
	"strconv"
	"strings"
)

// ExportDeckText renders a deck as "# name" followed by "Nxid" lines in id order.
func ExportDeckText(d Deck) string {
	lines := []string{}
	if d.Name != "" {
		lines = append(lines, "# "+d.Name)
	}
	items := append(d.Cards[:0:0], d.Cards...)
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	for _, it := range items {
		if it.Count < 1 {
			continue
		}
		lines = append(lines, strconv.Itoa(it.Count)+"x"+it.ID)
	}
	return strings.Join(lines, "\n")
}
