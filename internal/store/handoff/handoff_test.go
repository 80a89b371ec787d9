package handoff

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Makepad-fr/destinai/internal/model"
)

func sample() model.Questionnaire {
	return model.Questionnaire{
		Who:           "couple",
		TravelType:    "backpacking",
		Accommodation: "hostels",
		Activities:    []string{"hiking", "local_cuisine"},
		Budget:        "medium",
		Weather:       "sunny_dry",
		Season:        "spring",
	}
}

func exercise(t *testing.T, s Store) {
	t.Helper()
	if _, ok, err := s.Get(); ok || err != nil {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}
	q := sample()
	if err := s.Put(q); err != nil {
		t.Fatalf("Put: %v", err)
	}
	q.Activities[0] = "surfing"

	got, ok, err := s.Get()
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, sample()) {
		t.Fatalf("stored payload changed: %+v", got)
	}
	if _, ok, _ := s.Get(); !ok {
		t.Fatal("Get must not consume the payload")
	}

	replacement := sample()
	replacement.Season = "winter"
	if err := s.Put(replacement); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, _, _ := s.Get(); got.Season != "winter" {
		t.Fatalf("Put must replace, got %+v", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := s.Get(); ok {
		t.Fatal("expected empty store after Clear")
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestFile(t *testing.T) {
	exercise(t, NewFile(filepath.Join(t.TempDir(), "session")))
}

func TestFileCorrupt(t *testing.T) {
	f := NewFile(t.TempDir())
	if err := os.WriteFile(f.Path(), []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.Get(); err == nil {
		t.Fatal("expected an unmarshal error")
	}
}
