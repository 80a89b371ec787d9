package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/model"
	"github.com/Makepad-fr/destinai/internal/view"
)

type recommendedMsg struct {
	q   model.Questionnaire
	err error
}

var askKeys = struct {
	Up, Down, Left, Right, Pick, Submit, Favorites, Quit key.Binding
}{
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "question")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "question")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "option")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "option")),
	Pick:      key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "select")),
	Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "get recommendations")),
	Favorites: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorites")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
}

type questionnaireScreen struct {
	deps    Deps
	answers model.Questionnaire
	req     view.Request

	row    int
	option []int // highlighted option per question
}

func newQuestionnaireScreen(deps Deps) *questionnaireScreen {
	return &questionnaireScreen{
		deps:   deps,
		option: make([]int, len(model.Questions)),
	}
}

func (s *questionnaireScreen) Init() tea.Cmd { return nil }

func (s *questionnaireScreen) Keys() []key.Binding {
	submit := askKeys.Submit
	submit.SetEnabled(s.canSubmit())
	return []key.Binding{askKeys.Up, askKeys.Down, askKeys.Left, askKeys.Right, askKeys.Pick, submit, askKeys.Favorites, askKeys.Quit}
}

// canSubmit is recomputed from the answers on every call.
func (s *questionnaireScreen) canSubmit() bool {
	return s.answers.Complete() && !s.req.Busy()
}

func (s *questionnaireScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recommendedMsg:
		return s, s.recommended(msg)
	case tea.KeyMsg:
		if s.req.Busy() {
			return s, nil
		}
		q := model.Questions[s.row]
		switch {
		case key.Matches(msg, askKeys.Quit):
			return s, tea.Quit
		case key.Matches(msg, askKeys.Favorites):
			return s, navigate(RouteFavorites)
		case key.Matches(msg, askKeys.Up):
			s.row = (s.row - 1 + len(model.Questions)) % len(model.Questions)
		case key.Matches(msg, askKeys.Down):
			s.row = (s.row + 1) % len(model.Questions)
		case key.Matches(msg, askKeys.Left):
			s.option[s.row] = (s.option[s.row] - 1 + len(q.Options)) % len(q.Options)
		case key.Matches(msg, askKeys.Right):
			s.option[s.row] = (s.option[s.row] + 1) % len(q.Options)
		case key.Matches(msg, askKeys.Pick):
			s.pick(q, q.Options[s.option[s.row]].Value)
		case key.Matches(msg, askKeys.Submit):
			return s, s.submit()
		}
	}
	return s, nil
}

func (s *questionnaireScreen) pick(q model.Question, value string) {
	if q.Multi {
		s.answers.ToggleActivity(value)
	} else {
		s.answers.Set(q.Key, value)
	}
	if s.req.Variant == view.Error {
		s.req = view.Request{}
	}
}

func (s *questionnaireScreen) submit() tea.Cmd {
	if !s.answers.Complete() {
		s.req.Invalid(view.MsgIncomplete)
		return nil
	}
	s.req.Begin("Generating recommendations...")
	client, q := s.deps.Client, s.answers
	q.Activities = append([]string(nil), q.Activities...)
	return async(func(ctx context.Context) (model.Questionnaire, error) {
		_, err := client.Recommend(ctx, q)
		return q, err
	}, func(q model.Questionnaire, err error) tea.Msg {
		return recommendedMsg{q: q, err: err}
	})
}

func (s *questionnaireScreen) recommended(msg recommendedMsg) tea.Cmd {
	err := msg.err
	if view.Unauthorized(err) {
		return signedOut(true)
	}
	// A 2xx with the wrong count still proceeds; results re-fetches and
	// reports it there.
	if errors.Is(err, api.ErrBadResults) {
		err = nil
	}
	if err != nil {
		s.deps.Log.Warn("recommendations failed", zap.Error(err))
		s.req.Fail(view.LoadMessage(err))
		return nil
	}
	if err := s.deps.Handoff.Put(msg.q); err != nil {
		s.deps.Log.Warn("store questionnaire", zap.Error(err))
		s.req.Fail(view.MsgUnavailable)
		return nil
	}
	s.req.Succeed("")
	return navigate(RouteResults)
}

func (s *questionnaireScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Plan a trip"))
	b.WriteString("\n\n")
	for i, q := range model.Questions {
		cursor := "  "
		title := q.Title
		if i == s.row {
			cursor = selectedStyle.Render("> ")
			title = accentStyle.Render(title)
		}
		b.WriteString(cursor + title + "\n    ")
		opts := make([]string, 0, len(q.Options))
		for j, o := range q.Options {
			var mark string
			if q.Multi {
				mark = boxUnchecked
				if s.answers.HasActivity(o.Value) {
					mark = boxChecked
				}
			} else {
				mark = radioOff
				if s.answers.Get(q.Key) == o.Value {
					mark = radioOn
				}
			}
			label := fmt.Sprintf("%s %s", mark, o.Label)
			if i == s.row && j == s.option[i] {
				label = selectedStyle.Render(label)
			}
			opts = append(opts, label)
		}
		b.WriteString(strings.Join(opts, "  "))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if s.canSubmit() {
		b.WriteString(successStyle.Render("[ Get recommendations ]"))
	} else {
		b.WriteString(mutedStyle.Render("[ Get recommendations ]"))
	}
	if line := statusLine(s.req.Status, s.req.Variant == view.Error); line != "" {
		b.WriteString("\n\n" + line)
	}
	return b.String()
}
