package model

// DestinationCount is how many destinations a valid recommendation carries.
const DestinationCount = 5

// Destination is one AI-generated recommendation card. Never persisted.
type Destination struct {
	Country          string   `json:"country"`
	Region           string   `json:"region"`
	DailyBudgetRange string   `json:"estimated_daily_budget_eur_range"`
	BestMonths       []string `json:"best_months"`
	WeatherSummary   string   `json:"weather_summary"`
	AccommodationFit string   `json:"accommodation_fit"`
	TravelStyleFit   string   `json:"travel_style_fit"`
	TopActivities    []string `json:"top_activities"`
	Pros             []string `json:"pros"`
	Cons             []string `json:"cons"`
	WhyMatch         string   `json:"why_match"`
}

// Recommendations is the body of POST /api/recommendations.
type Recommendations struct {
	SchemaVersion string        `json:"schema_version"`
	Destinations  []Destination `json:"destinations"`
}
