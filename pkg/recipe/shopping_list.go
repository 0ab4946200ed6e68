package recipe

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Zimnyaja/foodgram/domain"
)

// RenderShoppingList formats aggregated cart rows as the plain-text file
// served by the download endpoint, one "name — amount unit" line per
// ingredient, sorted by name.
func RenderShoppingList(items []domain.ShoppingListItem) string {
	sorted := make([]domain.ShoppingListItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	b.WriteString("Shopping list:\n\n")
	for _, item := range sorted {
		b.WriteString(item.Name)
		b.WriteString(" — ")
		b.WriteString(strconv.FormatFloat(item.Amount, 'f', -1, 64))
		b.WriteString(" ")
		b.WriteString(item.MeasurementUnit)
		b.WriteString("\n")
	}
	return b.String()
}
