package api

import (
	"net/http"
	"strconv"

	"itinera/pkg/model"
)

type cartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Day       int    `json:"day" validate:"required,min=1"`
	AnchorID  string `json:"anchor_place_id,omitempty"`
}

type cartResponse struct {
	Cart            model.Cart `json:"cart"`
	Changed         bool       `json:"changed"`
	ShowSuggestions bool       `json:"show_suggestions"`
}

// HandleCart returns the selections grouped by day.
func (h *SessionHandler) HandleCart(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Ledger.Cart())
}

// HandleAdd selects a product of the current itinerary's city for a day.
// Caps and duplicates are not errors: the response reports changed=false.
func (h *SessionHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req cartRequest
	if !h.decodeCart(w, r, &req) {
		return
	}
	it := s.Itinerary()
	if it == nil {
		writeError(w, r, newError(CodeConflict, "no itinerary generated yet"))
		return
	}
	if _, found := it.Day(req.Day); !found {
		writeError(w, r, newError(CodeValidation, "no such day"))
		return
	}
	p, found := findProduct(it, req.ProductID)
	if !found {
		writeError(w, r, newError(CodeNotFound, "product is not offered in this itinerary"))
		return
	}

	changed := s.Ledger.Add(p, req.Day, req.AnchorID)
	writeJSON(w, http.StatusOK, cartResponse{
		Cart:            s.Ledger.Cart(),
		Changed:         changed,
		ShowSuggestions: s.Ledger.ShouldShowSuggestions(req.Day),
	})
}

// HandleRemove unselects a product; the removal counts as a dismissal.
func (h *SessionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || day < 1 {
		writeError(w, r, newError(CodeValidation, "day query parameter is required"))
		return
	}
	changed := s.Ledger.Remove(r.PathValue("productID"), day)
	writeJSON(w, http.StatusOK, cartResponse{
		Cart:            s.Ledger.Cart(),
		Changed:         changed,
		ShowSuggestions: s.Ledger.ShouldShowSuggestions(day),
	})
}

// HandleDismiss records a suggestion the traveler turned down.
func (h *SessionHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req cartRequest
	if !h.decodeCart(w, r, &req) {
		return
	}
	s.Ledger.Dismiss(req.ProductID, req.Day)
	writeJSON(w, http.StatusOK, map[string]bool{"show_suggestions": s.Ledger.ShouldShowSuggestions(req.Day)})
}

// HandleSuggestions reports whether suggestions should still be shown for a day.
func (h *SessionHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.session(w, r)
	if !ok {
		return
	}
	day, err := strconv.Atoi(r.URL.Query().Get("day"))
	if err != nil || day < 1 {
		writeError(w, r, newError(CodeValidation, "day query parameter is required"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":              day,
		"show_suggestions": s.Ledger.ShouldShowSuggestions(day),
	})
}

// HandleConfirm is the checkout callback: it freezes the ledger.
func (h *SessionHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.session(w, r)
	if !ok {
		return
	}
	cart, confirmed := h.gen.Confirm(r.Context(), sid, s)
	if !confirmed {
		writeError(w, r, newError(CodeConflict, "cart is empty or already confirmed"))
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *SessionHandler) decodeCart(w http.ResponseWriter, r *http.Request, req *cartRequest) bool {
	if err := decodeJSON(w, r, req); err != nil {
		writeError(w, r, err)
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

// findProduct looks a product up among those attached to the itinerary's slots.
func findProduct(it *model.Itinerary, productID string) (model.CatalogProduct, bool) {
	for _, d := range it.Days {
		for _, s := range d.Slots {
			for _, p := range s.Products {
				if p.ID == productID {
					return p, true
				}
			}
		}
	}
	return model.CatalogProduct{}, false
}
