package model

// Questionnaire is the recommendation request payload. It is also what the
// questionnaire hands to the results view.
type Questionnaire struct {
	Who           string   `json:"who"`
	TravelType    string   `json:"travel_type"`
	Accommodation string   `json:"accommodation"`
	Activities    []string `json:"activities"`
	Budget        string   `json:"budget"`
	Weather       string   `json:"weather"`
	Season        string   `json:"season"`
}

// Complete reports whether every scalar answer is set and at least one
// activity is selected.
func (q Questionnaire) Complete() bool {
	for _, v := range q.scalars() {
		if v == "" {
			return false
		}
	}
	return len(q.Activities) > 0
}

func (q Questionnaire) scalars() []string {
	return []string{q.Who, q.TravelType, q.Accommodation, q.Budget, q.Weather, q.Season}
}

// Option is one selectable answer: the wire value plus a display label.
type Option struct {
	Value string
	Label string
}

// Question describes one questionnaire field.
type Question struct {
	Key     string
	Title   string
	Multi   bool
	Options []Option
}

// Questions is the questionnaire in display order.
var Questions = []Question{
	{Key: "who", Title: "Who is travelling?", Options: []Option{
		{"solo", "Solo"}, {"couple", "Couple"},
	}},
	{Key: "travel_type", Title: "Travel type", Options: []Option{
		{"backpacking", "Backpacking"}, {"staying_in_one_place", "Staying in one place"},
	}},
	{Key: "accommodation", Title: "Accommodation", Options: []Option{
		{"camping", "Camping"}, {"hostels", "Hostels"}, {"hotels", "Hotels"},
	}},
	{Key: "activities", Title: "Favorite activities (choose at least one)", Multi: true, Options: []Option{
		{"hiking", "Hiking"}, {"surfing", "Surfing"}, {"local_cuisine", "Local cuisine"},
		{"local_culture", "Local culture"}, {"canoeing", "Canoeing"},
	}},
	{Key: "budget", Title: "Budget", Options: []Option{
		{"very_low", "Very low"}, {"medium", "Medium"}, {"luxurious", "Luxurious"},
	}},
	{Key: "weather", Title: "Weather preference", Options: []Option{
		{"sunny_dry", "Sunny & dry"}, {"sunny_humid", "Sunny & humid"}, {"cool", "Cool"}, {"rainy", "Rainy"},
	}},
	{Key: "season", Title: "Preferred season", Options: []Option{
		{"winter", "Winter"}, {"spring", "Spring"}, {"summer", "Summer"}, {"autumn", "Autumn"},
	}},
}

// Get returns the scalar answer for key. Activities are read via HasActivity.
func (q Questionnaire) Get(key string) string {
	switch key {
	case "who":
		return q.Who
	case "travel_type":
		return q.TravelType
	case "accommodation":
		return q.Accommodation
	case "budget":
		return q.Budget
	case "weather":
		return q.Weather
	case "season":
		return q.Season
	}
	return ""
}

// Set stores a scalar answer. Unknown keys and "activities" are ignored.
func (q *Questionnaire) Set(key, value string) {
	switch key {
	case "who":
		q.Who = value
	case "travel_type":
		q.TravelType = value
	case "accommodation":
		q.Accommodation = value
	case "budget":
		q.Budget = value
	case "weather":
		q.Weather = value
	case "season":
		q.Season = value
	}
}

// HasActivity reports whether value is among the selected activities.
func (q Questionnaire) HasActivity(value string) bool {
	for _, a := range q.Activities {
		if a == value {
			return true
		}
	}
	return false
}

// ToggleActivity adds value to the selection, or removes it if present.
func (q *Questionnaire) ToggleActivity(value string) {
	for i, a := range q.Activities {
		if a == value {
			q.Activities = append(q.Activities[:i:i], q.Activities[i+1:]...)
			return
		}
	}
	q.Activities = append(q.Activities, value)
}
