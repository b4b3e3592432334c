package model

// PlaceType classifies a catalog place.
type PlaceType string

const (
	PlaceAttraction PlaceType = "attraction"
	PlaceRestaurant PlaceType = "restaurant"
	PlaceBar        PlaceType = "bar"
	PlaceClub       PlaceType = "club"
	PlaceExperience PlaceType = "experience"
	PlaceView       PlaceType = "view"
	PlaceZone       PlaceType = "zone"
)

// ProductType classifies a bookable add-on.
type ProductType string

const (
	ProductGuidedTour       ProductType = "guided_tour"
	ProductTasting          ProductType = "tasting"
	ProductWorkshop         ProductType = "workshop"
	ProductDiningExperience ProductType = "dining_experience"
	ProductTransport        ProductType = "transport"
	ProductPhotoExperience  ProductType = "photo_experience"
	ProductTicket           ProductType = "ticket"
)

// TimeBucket is a coarse time-of-day label used to match products to slots.
type TimeBucket string

const (
	BucketMorning   TimeBucket = "morning"
	BucketLunch     TimeBucket = "lunch"
	BucketAfternoon TimeBucket = "afternoon"
	BucketAperitivo TimeBucket = "aperitivo"
	BucketDinner    TimeBucket = "dinner"
	BucketEvening   TimeBucket = "evening"
)

// StatusApproved is the only catalog status the engine ever reads.
const StatusApproved = "approved"

// City is the target destination of a generation run.
type City struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Country string   `json:"country,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// Zone is a named neighbourhood of a city.
type Zone struct {
	ID          string `json:"id" validate:"required"`
	CityID      string `json:"city_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

// CatalogPlace is an approved point of interest. Coordinates are nullable and not trusted.
type CatalogPlace struct {
	ID            string    `json:"id" validate:"required"`
	CityID        string    `json:"city_id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Type          PlaceType `json:"type" validate:"required,oneof=attraction restaurant bar club experience view zone"`
	ZoneID        string    `json:"zone_id,omitempty"`
	Address       string    `json:"address,omitempty"`
	LocalOneLiner string    `json:"local_one_liner,omitempty"`
	DurationMin   int       `json:"duration_min,omitempty" validate:"gte=0"`
	PriceTier     int       `json:"price_tier,omitempty" validate:"gte=0,lte=4"`
	Cuisine       string    `json:"cuisine,omitempty"`
	IndoorOutdoor string    `json:"indoor_outdoor,omitempty" validate:"omitempty,oneof=indoor outdoor both"`
	CrowdLevel    int       `json:"crowd_level,omitempty" validate:"gte=0,lte=5"`
	LocalScore    int       `json:"local_score,omitempty" validate:"gte=0,lte=10"`
	BestTimes     []string  `json:"best_times,omitempty"`
	Lat           *float64  `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng           *float64  `json:"lng,omitempty" validate:"omitempty,longitude"`
}

// HasCoordinates reports whether both lat and lng are stored.
func (p *CatalogPlace) HasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// CatalogProduct is an approved bookable add-on. Price is in minor currency units.
type CatalogProduct struct {
	ID          string       `json:"id" validate:"required"`
	CityID      string       `json:"city_id" validate:"required"`
	Title       string       `json:"title" validate:"required"`
	Pitch       string       `json:"pitch,omitempty"`
	Price       int64        `json:"price" validate:"gte=0"`
	DurationMin int          `json:"duration_min,omitempty" validate:"gte=0"`
	Type        ProductType  `json:"type" validate:"required,oneof=guided_tour tasting workshop dining_experience transport photo_experience ticket"`
	TimeBuckets []TimeBucket `json:"time_buckets,omitempty" validate:"dive,oneof=morning lunch afternoon aperitivo dinner evening"`
}
