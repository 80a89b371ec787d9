package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/view"
)

type resultsLoadedMsg struct {
	recs model.Recommendations
	err  error
}

type favoriteSavedMsg struct {
	country string
	err     error
}

var resultKeys = struct {
	Up, Down, Save, Retry, Back, Favorites, Quit key.Binding
}{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next")),
	Save:      key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "save to favorites")),
	Retry:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
	Back:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "questionnaire")),
	Favorites: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorites")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

type resultsScreen struct {
	deps     Deps
	payload  model.Questionnaire
	req      view.Request
	cards    []model.Destination
	saves    *view.SaveStates
	selected int
}

func newResultsScreen(deps Deps) *resultsScreen {
	return &resultsScreen{deps: deps, saves: view.NewSaveStates()}
}

// Init reads the handed-off questionnaire. Without one there is nothing to
// fetch and the user goes back to the questionnaire.
func (s *resultsScreen) Init() tea.Cmd {
	q, ok, err := s.deps.Handoff.Get()
	if err != nil {
		s.deps.Log.Warn("read questionnaire", zap.Error(err))
	}
	if !ok || err != nil {
		return navigate(RouteQuestionnaire)
	}
	s.payload = q
	return s.load()
}

func (s *resultsScreen) Keys() []key.Binding {
	if s.req.Phase == view.Failed {
		return []key.Binding{resultKeys.Retry, resultKeys.Back, resultKeys.Favorites, resultKeys.Quit}
	}
	save := resultKeys.Save
	if len(s.cards) > 0 {
		save.SetEnabled(!s.saves.Disabled(s.cards[s.selected].Country))
	}
	return []key.Binding{resultKeys.Up, resultKeys.Down, save, resultKeys.Back, resultKeys.Favorites, resultKeys.Quit}
}

func (s *resultsScreen) load() tea.Cmd {
	s.req.Begin("Generating recommendations...")
	client, q := s.deps.Client, s.payload
	return async(func(ctx context.Context) (model.Recommendations, error) {
		return client.Recommend(ctx, q)
	}, func(r model.Recommendations, err error) tea.Msg {
		return resultsLoadedMsg{recs: r, err: err}
	})
}

func (s *resultsScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsLoadedMsg:
		if view.Unauthorized(msg.err) {
			return s, signedOut(true)
		}
		if msg.err != nil {
			s.deps.Log.Warn("load results failed", zap.Error(msg.err))
			s.cards = nil
			s.req.Fail(view.LoadMessage(msg.err))
			return s, nil
		}
		s.cards = msg.recs.Destinations
		s.selected = 0
		s.req.Succeed("")
		return s, nil
	case favoriteSavedMsg:
		if view.Unauthorized(msg.err) {
			return s, signedOut(true)
		}
		if msg.err != nil {
			s.deps.Log.Warn("save favorite failed", zap.String("country", msg.country), zap.Error(msg.err))
		}
		s.saves.Resolve(msg.country, view.ClassifySave(msg.err))
		return s, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, resultKeys.Quit):
			return s, tea.Quit
		case key.Matches(msg, resultKeys.Back):
			return s, navigate(RouteQuestionnaire)
		case key.Matches(msg, resultKeys.Favorites):
			return s, navigate(RouteFavorites)
		case key.Matches(msg, resultKeys.Retry):
			if s.req.Phase != view.Failed {
				return s, nil
			}
			return s, s.load()
		}
		if s.req.Phase != view.Loaded || len(s.cards) == 0 {
			return s, nil
		}
		switch {
		case key.Matches(msg, resultKeys.Up):
			s.selected = (s.selected - 1 + len(s.cards)) % len(s.cards)
		case key.Matches(msg, resultKeys.Down):
			s.selected = (s.selected + 1) % len(s.cards)
		case key.Matches(msg, resultKeys.Save):
			return s, s.save(s.cards[s.selected].Country)
		}
	}
	return s, nil
}

// save creates a favorite for country unless its card is saving or saved.
func (s *resultsScreen) save(country string) tea.Cmd {
	if !s.saves.Begin(country) {
		return nil
	}
	client := s.deps.Client
	return async(func(ctx context.Context) (string, error) {
		_, err := client.CreateFavorite(ctx, country)
		return country, err
	}, func(_ string, err error) tea.Msg {
		return favoriteSavedMsg{country: country, err: err}
	})
}

func (s *resultsScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Your recommendations"))
	b.WriteString("\n\n")

	switch s.req.Phase {
	case view.Loading, view.Idle:
		b.WriteString(mutedStyle.Render(firstNonEmpty(s.req.Status, "Loading...")))
		return b.String()
	case view.Failed:
		b.WriteString(errorStyle.Render(s.req.Status))
		b.WriteString("\n" + mutedStyle.Render("Press r to try again."))
		return b.String()
	}

	for i, d := range s.cards {
		if i > 0 {
			b.WriteString("\n")
		}
		if i == s.selected {
			b.WriteString(s.card(d))
		} else {
			fmt.Fprintf(&b, "  %s  %s  %s\n", titleStyle.Render(orDash(d.Country)), mutedStyle.Render(orDash(d.Region)), s.saveLabel(d.Country))
		}
	}
	return b.String()
}

func (s *resultsScreen) saveLabel(country string) string {
	msg := s.saves.Message(country)
	switch s.saves.State(country) {
	case view.SaveSaved:
		return successStyle.Render(msg)
	case view.SaveSaving:
		return pendingStyle.Render(msg)
	}
	if strings.HasPrefix(msg, "Could not") || strings.Contains(msg, "limit") {
		return errorStyle.Render(msg)
	}
	return msg
}

func (s *resultsScreen) card(d model.Destination) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", selectedStyle.Render(">"), titleStyle.Render(orDash(d.Country)))
	field := func(label, value string) {
		fmt.Fprintf(&b, "    %s %s\n", mutedStyle.Render(label+":"), orDash(value))
	}
	field("Region", d.Region)
	field("Estimated daily budget", d.DailyBudgetRange)
	field("Best months", strings.Join(d.BestMonths, ", "))
	field("Weather", d.WeatherSummary)
	field("Accommodation fit", d.AccommodationFit)
	field("Travel style fit", d.TravelStyleFit)
	field("Why it matches", d.WhyMatch)
	section := func(label string, values []string) {
		fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(label))
		if len(values) == 0 {
			b.WriteString("      • —\n")
			return
		}
		for _, v := range values {
			fmt.Fprintf(&b, "      • %s\n", v)
		}
	}
	section("Top activities", d.TopActivities)
	section("Pros", d.Pros)
	section("Cons", d.Cons)

	action := accentStyle.Render("[ Save to favorites ]")
	if s.saves.Disabled(d.Country) {
		action = mutedStyle.Render("[ Save to favorites ]")
	}
	fmt.Fprintf(&b, "    %s  %s\n", action, s.saveLabel(d.Country))
	return b.String()
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
