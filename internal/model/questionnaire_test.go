package model

import "testing"

func completePayload() Questionnaire {
	return Questionnaire{
		Who:           "solo",
		TravelType:    "relax",
		Accommodation: "hotel",
		Activities:    []string{"hiking"},
		Budget:        "mid",
		Season:        "summer",
		Weather:       "mild",
	}
}

func TestQuestionnaireComplete(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *Questionnaire)
		want   bool
	}{
		{"all answered", func(q *Questionnaire) {}, true},
		{"missing weather", func(q *Questionnaire) { q.Weather = "" }, false},
		{"missing who", func(q *Questionnaire) { q.Who = "" }, false},
		{"missing travel type", func(q *Questionnaire) { q.TravelType = "" }, false},
		{"missing accommodation", func(q *Questionnaire) { q.Accommodation = "" }, false},
		{"missing budget", func(q *Questionnaire) { q.Budget = "" }, false},
		{"missing season", func(q *Questionnaire) { q.Season = "" }, false},
		{"no activities", func(q *Questionnaire) { q.Activities = nil }, false},
		{"empty activities", func(q *Questionnaire) { q.Activities = []string{} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := completePayload()
			tt.mutate(&q)
			if got := q.Complete(); got != tt.want {
				t.Fatalf("Complete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToggleActivity(t *testing.T) {
	var q Questionnaire
	q.ToggleActivity("hiking")
	q.ToggleActivity("surfing")
	if !q.HasActivity("hiking") || !q.HasActivity("surfing") {
		t.Fatalf("expected both activities selected, got %v", q.Activities)
	}
	q.ToggleActivity("hiking")
	if q.HasActivity("hiking") {
		t.Fatalf("expected hiking to be removed, got %v", q.Activities)
	}
	if len(q.Activities) != 1 || q.Activities[0] != "surfing" {
		t.Fatalf("expected [surfing], got %v", q.Activities)
	}
}

func TestSetAndGetCoverEveryScalarQuestion(t *testing.T) {
	var q Questionnaire
	for _, question := range Questions {
		if question.Multi {
			continue
		}
		q.Set(question.Key, question.Options[0].Value)
		if got := q.Get(question.Key); got != question.Options[0].Value {
			t.Fatalf("Get(%q) = %q, want %q", question.Key, got, question.Options[0].Value)
		}
	}
	q.ToggleActivity("hiking")
	if !q.Complete() {
		t.Fatalf("expected questionnaire answered through Set to be complete: %+v", q)
	}
}
