package itinerary

import (
	"itinera/pkg/model"
	"itinera/pkg/scorer"
)

// AttachProducts fills slots that have a resolved place but no products with
// scored candidates from the catalog. Planner-supplied products are kept as
// they are. It returns how many slots received matcher products.
func AttachProducts(days []model.GeneratedDay, products []model.CatalogProduct) int {
	matched := 0
	for d := range days {
		for s := range days[d].Slots {
			slot := &days[d].Slots[s]
			if slot.Place == nil || len(slot.Products) > 0 {
				continue
			}
			cands := scorer.Match(slot.Place, slot.StartTime, products)
			if len(cands) == 0 {
				continue
			}
			slot.Products = scorer.Products(cands)
			slot.ProductSource = model.SourceMatcher
			matched++
		}
	}
	return matched
}
