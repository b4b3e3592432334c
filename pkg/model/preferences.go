package model

// Composition describes who is travelling.
type Composition string

const (
	CompositionSolo    Composition = "solo"
	CompositionCouple  Composition = "couple"
	CompositionFamily  Composition = "family"
	CompositionFriends Composition = "friends"
)

// TripPreferences is the questionnaire outcome for one generation run.
// It is treated as immutable once a run starts.
type TripPreferences struct {
	CityID      string      `json:"city_id" validate:"required"`
	Days        int         `json:"days" validate:"required,min=1,max=14"`
	Composition Composition `json:"composition" validate:"required,oneof=solo couple family friends"`
	Adults      int         `json:"adults,omitempty" validate:"gte=0,lte=20"`
	Children    int         `json:"children,omitempty" validate:"gte=0,lte=20"`

	// Interests are ranked, most important first.
	Interests []string `json:"interests,omitempty" validate:"max=10"`

	// Rhythm is the intensity of the trip, 1 (calm) to 5 (packed).
	Rhythm    int      `json:"rhythm" validate:"required,min=1,max=5"`
	StartTime string   `json:"start_time,omitempty" validate:"omitempty,oneof=early normal late"`
	MealStyle string   `json:"meal_style,omitempty"`
	Cuisines  []string `json:"cuisines,omitempty"`

	// Budget tier, 1 (thrifty) to 3 (premium).
	Budget              int      `json:"budget" validate:"required,min=1,max=3"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty"`
	ActivityStyle       string   `json:"activity_style,omitempty"`
	WalkingTolerance    string   `json:"walking_tolerance,omitempty" validate:"omitempty,oneof=low medium high"`
	Transport           string   `json:"transport,omitempty"`
	Wishes              string   `json:"wishes,omitempty" validate:"max=1000"`
	Exclusions          []string `json:"exclusions,omitempty"`
}

// PartySize returns the number of travellers, inferring it from the composition when
// no explicit counts were given.
func (p *TripPreferences) PartySize() int {
	if n := p.Adults + p.Children; n > 0 {
		return n
	}
	switch p.Composition {
	case CompositionSolo:
		return 1
	case CompositionCouple:
		return 2
	case CompositionFamily:
		return 4
	default:
		return 3
	}
}
