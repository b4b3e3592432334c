package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"itinera/pkg/catalog"
	"itinera/pkg/llm"
	"itinera/pkg/llm/prompts"
	"itinera/pkg/model"
	"itinera/pkg/tracker"
)

// Intent is the llm profile name used for plan requests.
const Intent = "itinerary"

// Ceiling is the activities-per-day band derived from the rhythm score.
type Ceiling struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// ActivityCeiling maps rhythm 1..5 onto the activity band:
// calm trips get at most 2, rhythm 3 gets 3-4, packed trips 4-5.
func ActivityCeiling(rhythm int) Ceiling {
	switch {
	case rhythm <= 2:
		return Ceiling{Min: 1, Max: 2}
	case rhythm == 3:
		return Ceiling{Min: 3, Max: 4}
	default:
		return Ceiling{Min: 4, Max: 5}
	}
}

// Requester sends one plan request per call. It never retries.
type Requester struct {
	provider llm.Provider
	prompts  *prompts.Manager
	tracker  *tracker.Tracker
}

// NewRequester creates a requester.
func NewRequester(p llm.Provider, pm *prompts.Manager, t *tracker.Tracker) *Requester {
	return &Requester{provider: p, prompts: pm, tracker: t}
}

// placeBrief is a place trimmed to the fields that matter for scheduling.
type placeBrief struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Zone          string   `json:"zone,omitempty"`
	LocalOneLiner string   `json:"oneLiner,omitempty"`
	DurationMin   int      `json:"durationMin,omitempty"`
	PriceTier     int      `json:"priceTier,omitempty"`
	Cuisine       string   `json:"cuisine,omitempty"`
	IndoorOutdoor string   `json:"indoorOutdoor,omitempty"`
	CrowdLevel    int      `json:"crowdLevel,omitempty"`
	LocalScore    int      `json:"localScore,omitempty"`
	BestTimes     []string `json:"bestTimes,omitempty"`
}

type productBrief struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Pitch       string   `json:"pitch,omitempty"`
	Type        string   `json:"type"`
	Price       int64    `json:"price"`
	DurationMin int      `json:"durationMin,omitempty"`
	TimeBuckets []string `json:"timeBuckets,omitempty"`
}

type zoneBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// promptData feeds planner/system.tmpl and planner/request.tmpl.
type promptData struct {
	City      model.City
	Prefs     model.TripPreferences
	Ceiling   Ceiling
	PartySize int
	Places    []placeBrief
	Products  []productBrief
	Zones     []zoneBrief
}

func buildPromptData(prefs model.TripPreferences, snap *catalog.Snapshot) promptData {
	d := promptData{
		City:      snap.City,
		Prefs:     prefs,
		Ceiling:   ActivityCeiling(prefs.Rhythm),
		PartySize: prefs.PartySize(),
	}
	for i := range snap.Places {
		p := &snap.Places[i]
		d.Places = append(d.Places, placeBrief{
			ID:            p.ID,
			Name:          p.Name,
			Type:          string(p.Type),
			Zone:          snap.ZoneName(p.ZoneID),
			LocalOneLiner: p.LocalOneLiner,
			DurationMin:   p.DurationMin,
			PriceTier:     p.PriceTier,
			Cuisine:       p.Cuisine,
			IndoorOutdoor: p.IndoorOutdoor,
			CrowdLevel:    p.CrowdLevel,
			LocalScore:    p.LocalScore,
			BestTimes:     p.BestTimes,
		})
	}
	for i := range snap.Products {
		p := &snap.Products[i]
		b := productBrief{
			ID:          p.ID,
			Title:       p.Title,
			Pitch:       p.Pitch,
			Type:        string(p.Type),
			Price:       p.Price,
			DurationMin: p.DurationMin,
		}
		for _, tb := range p.TimeBuckets {
			b.TimeBuckets = append(b.TimeBuckets, string(tb))
		}
		d.Products = append(d.Products, b)
	}
	for _, z := range snap.Zones {
		d.Zones = append(d.Zones, zoneBrief{ID: z.ID, Name: z.Name, Description: z.Description})
	}
	return d
}

// Request asks the planner for a plan and parses it. Errors carry one of the
// llm error kinds or ErrSchemaInvalid.
func (r *Requester) Request(ctx context.Context, prefs model.TripPreferences, snap *catalog.Snapshot) (*Plan, error) {
	data := buildPromptData(prefs, snap)

	system, err := r.prompts.Render("planner/system.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	prompt, err := r.prompts.Render("planner/request.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render request prompt: %w", err)
	}

	start := time.Now()
	raw, err := r.provider.GenerateJSON(ctx, llm.Request{
		Name:   Intent,
		System: system,
		Prompt: prompt,
		Schema: Schema(),
	})
	if err != nil {
		slog.Warn("Planner request failed", "city", snap.City.ID, "duration", time.Since(start), "error", err)
		return nil, err
	}

	plan, err := Parse(raw)
	if err != nil {
		r.track(tracker.SchemaInvalid)
		slog.Warn("Planner response rejected", "city", snap.City.ID, "error", err)
		return nil, err
	}
	r.track(tracker.Success)

	slog.Info("Plan received",
		"city", snap.City.ID,
		"days", len(plan.Days),
		"duration", time.Since(start))
	return plan, nil
}

func (r *Requester) track(o tracker.Outcome) {
	if r.tracker != nil {
		r.tracker.TrackAPI("planner", o)
	}
}
