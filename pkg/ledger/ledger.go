// Package ledger tracks which products a traveler added to the trip and which
// they turned down during one planning session.
package ledger

import (
	"sort"
	"sync"
	"time"

	"itinera/pkg/config"
	"itinera/pkg/model"
)

// Ledger is the selection state of one planning session. It is created with the
// session and dropped with it; nothing here is persisted.
type Ledger struct {
	mu sync.Mutex

	maxPerDay     int
	maxDismissals int
	now           func() time.Time

	selected   []model.SelectedProduct
	dismissed  []model.DismissedProduct
	confirmed  bool
	modifiedAt time.Time
}

// New creates an empty ledger. now may be nil.
func New(cfg config.LedgerConfig, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	maxPerDay := cfg.MaxPerDay
	if maxPerDay < 1 {
		maxPerDay = 2
	}
	maxDismissals := cfg.MaxDismissalsBeforeHide
	if maxDismissals < 1 {
		maxDismissals = 2
	}
	return &Ledger{maxPerDay: maxPerDay, maxDismissals: maxDismissals, now: now}
}

// Add selects a product for a day. It reports false and leaves the ledger
// unchanged when the product is already selected for that day, the day is
// full, or the ledger has been confirmed.
func (l *Ledger) Add(p model.CatalogProduct, day int, anchorID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.confirmed || l.indexLocked(p.ID, day) >= 0 || l.countLocked(day) >= l.maxPerDay {
		return false
	}
	ts := l.now()
	l.selected = append(l.selected, model.SelectedProduct{
		Product:    p,
		DayNumber:  day,
		AnchorID:   anchorID,
		SelectedAt: ts,
	})
	l.modifiedAt = ts
	return true
}

// Remove unselects a product and records the removal as a dismissal.
// It reports false when the product was not selected for that day.
func (l *Ledger) Remove(productID string, day int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.confirmed {
		return false
	}
	i := l.indexLocked(productID, day)
	if i < 0 {
		return false
	}
	l.selected = append(l.selected[:i], l.selected[i+1:]...)
	l.dismissLocked(productID, day)
	return true
}

// Dismiss records that a suggestion was turned down without being selected.
func (l *Ledger) Dismiss(productID string, day int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.confirmed {
		l.dismissLocked(productID, day)
	}
}

func (l *Ledger) dismissLocked(productID string, day int) {
	ts := l.now()
	l.dismissed = append(l.dismissed, model.DismissedProduct{
		ProductID:   productID,
		DayNumber:   day,
		DismissedAt: ts,
	})
	l.modifiedAt = ts
}

// ShouldShowSuggestions reports whether more products may be offered for a day.
func (l *Ledger) ShouldShowSuggestions(day int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	dismissals := 0
	for _, d := range l.dismissed {
		if d.DayNumber == day {
			dismissals++
		}
	}
	return dismissals < l.maxDismissals && l.countLocked(day) < l.maxPerDay
}

// Selected returns the selections of one day in selection order.
func (l *Ledger) Selected(day int) []model.SelectedProduct {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []model.SelectedProduct
	for _, s := range l.selected {
		if s.DayNumber == day {
			out = append(out, s)
		}
	}
	return out
}

// Dismissed returns all dismissal records in order.
func (l *Ledger) Dismissed() []model.DismissedProduct {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.DismissedProduct(nil), l.dismissed...)
}

// TotalPrice sums the prices of all selected products in minor units.
func (l *Ledger) TotalPrice() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, s := range l.selected {
		total += s.Product.Price
	}
	return total
}

// Cart groups the selections by day, days ascending.
func (l *Ledger) Cart() model.Cart {
	l.mu.Lock()
	defer l.mu.Unlock()

	byDay := make(map[int]*model.CartDay)
	var days []int
	cart := model.Cart{Days: []model.CartDay{}, Confirmed: l.confirmed}

	for _, s := range l.selected {
		cd, ok := byDay[s.DayNumber]
		if !ok {
			cd = &model.CartDay{DayNumber: s.DayNumber}
			byDay[s.DayNumber] = cd
			days = append(days, s.DayNumber)
		}
		cd.Items = append(cd.Items, s)
		cd.Subtotal += s.Product.Price
		cart.Total += s.Product.Price
	}

	sort.Ints(days)
	for _, d := range days {
		cart.Days = append(cart.Days, *byDay[d])
	}
	if !l.modifiedAt.IsZero() {
		ts := l.modifiedAt
		cart.UpdatedAt = &ts
	}
	return cart
}

// Confirm marks the ledger as checked out and freezes it. It reports false
// when the ledger was already confirmed or holds nothing.
func (l *Ledger) Confirm() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.confirmed || len(l.selected) == 0 {
		return false
	}
	l.confirmed = true
	l.modifiedAt = l.now()
	return true
}

// Confirmed reports whether checkout completed.
func (l *Ledger) Confirmed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.confirmed
}

// Reset clears all selections and dismissals, e.g. when a new itinerary replaces the old one.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.selected = nil
	l.dismissed = nil
	l.confirmed = false
	l.modifiedAt = time.Time{}
}

func (l *Ledger) indexLocked(productID string, day int) int {
	for i, s := range l.selected {
		if s.Product.ID == productID && s.DayNumber == day {
			return i
		}
	}
	return -1
}

func (l *Ledger) countLocked(day int) int {
	n := 0
	for _, s := range l.selected {
		if s.DayNumber == day {
			n++
		}
	}
	return n
}
