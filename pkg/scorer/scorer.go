// Package scorer attaches add-on products to slots the planner left bare.
// Scoring is pure: same place, start time and catalog give the same result.
package scorer

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"itinera/pkg/logging"
	"itinera/pkg/model"
)

// MaxCandidates is how many products a slot can carry.
const MaxCandidates = 3

// Candidate is a scored product for one slot.
type Candidate struct {
	Product      model.CatalogProduct
	Score        int
	ScoreDetails string
}

// BucketForStart maps a slot start time ("HH:MM") onto a time-of-day bucket.
// Boundaries: <12 morning, <14 lunch, <17 afternoon, <18 aperitivo, <21 dinner, else evening.
func BucketForStart(start string) (model.TimeBucket, bool) {
	hh, _, ok := strings.Cut(start, ":")
	if !ok {
		return "", false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	switch {
	case hour < 12:
		return model.BucketMorning, true
	case hour < 14:
		return model.BucketLunch, true
	case hour < 17:
		return model.BucketAfternoon, true
	case hour < 18:
		return model.BucketAperitivo, true
	case hour < 21:
		return model.BucketDinner, true
	}
	return model.BucketEvening, true
}

// Calculate scores one product against a place. bucket may be empty when the
// slot's start time is unknown.
func Calculate(place *model.CatalogPlace, product *model.CatalogProduct, bucket model.TimeBucket) (score int, logs []string) {
	if bucket != "" {
		for _, b := range product.TimeBuckets {
			if b == bucket {
				score += 2
				logs = append(logs, fmt.Sprintf("Time bucket (%s): +2", bucket))
				break
			}
		}
	}

	typeScore, typeLog := calculateTypeAffinity(place.Type, product.Type)
	if typeScore > 0 {
		score += typeScore
		logs = append(logs, typeLog)
	}

	// Weak fallback so attractions always get some candidates.
	if score == 0 && place.Type == model.PlaceAttraction {
		score = 1
		logs = append(logs, "Attraction baseline: +1")
	}

	return score, logs
}

func calculateTypeAffinity(pt model.PlaceType, prod model.ProductType) (int, string) {
	switch pt {
	case model.PlaceAttraction:
		if prod == model.ProductGuidedTour || prod == model.ProductTicket {
			return 3, fmt.Sprintf("Attraction x %s: +3", prod)
		}
	case model.PlaceRestaurant:
		if prod == model.ProductTasting || prod == model.ProductDiningExperience {
			return 3, fmt.Sprintf("Restaurant x %s: +3", prod)
		}
	case model.PlaceView:
		if prod == model.ProductPhotoExperience {
			return 2, "View x photo_experience: +2"
		}
	case model.PlaceExperience:
		if prod == model.ProductWorkshop {
			return 2, "Experience x workshop: +2"
		}
	}
	return 0, ""
}

// Match returns up to MaxCandidates products for a slot, highest score first.
// Ties keep catalog order; zero scores are dropped.
func Match(place *model.CatalogPlace, startTime string, products []model.CatalogProduct) []Candidate {
	if place == nil || len(products) == 0 {
		return nil
	}
	bucket, _ := BucketForStart(startTime)

	var cands []Candidate
	for i := range products {
		score, logs := Calculate(place, &products[i], bucket)
		if score <= 0 {
			continue
		}
		cands = append(cands, Candidate{
			Product:      products[i],
			Score:        score,
			ScoreDetails: strings.Join(logs, "\n"),
		})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	if len(cands) > MaxCandidates {
		cands = cands[:MaxCandidates]
	}

	for _, c := range cands {
		logging.Trace(slog.Default(), "Product scored",
			"place", place.ID, "product", c.Product.ID, "score", c.Score, "details", c.ScoreDetails)
	}
	return cands
}

// Products strips the scoring details.
func Products(cands []Candidate) []model.CatalogProduct {
	if len(cands) == 0 {
		return nil
	}
	out := make([]model.CatalogProduct, len(cands))
	for i, c := range cands {
		out[i] = c.Product
	}
	return out
}
