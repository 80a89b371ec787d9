// Package tui is the interactive destinai client: login, favorites,
// questionnaire and results screens inside one Bubble Tea program.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/store/handoff"
)

// Route names a screen.
type Route int

const (
	RouteLogin Route = iota
	RouteFavorites
	RouteQuestionnaire
	RouteResults
)

func (r Route) String() string {
	switch r {
	case RouteFavorites:
		return "Favorites"
	case RouteQuestionnaire:
		return "Questionnaire"
	case RouteResults:
		return "Results"
	default:
		return "Login"
	}
}

// SessionStore persists the session cookie between runs.
type SessionStore interface {
	Set(token string, expires *time.Time) error
	Delete() error
}

// Deps is what the screens share. Client and Handoff are required.
type Deps struct {
	Client   *api.Client
	Handoff  handoff.Store
	Session  SessionStore
	Log      *zap.Logger
	PageSize int
	Theme    string
}

// screen is one page of the client. A fresh screen is built each time it is
// entered, so per-screen state (guards, save states) never outlives it.
type screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (screen, tea.Cmd)
	View() string
	Keys() []key.Binding
}

type navigateMsg struct{ to Route }

func navigate(to Route) tea.Cmd {
	return func() tea.Msg { return navigateMsg{to: to} }
}

// signedOutMsg ends the local session: a 401 anywhere or an explicit logout.
type signedOutMsg struct{ expired bool }

func signedOut(expired bool) tea.Cmd {
	return func() tea.Msg { return signedOutMsg{expired: expired} }
}

// async runs fn as a command. A panic in fn is turned into an error so the
// screen always receives its result message.
func async[T any](fn func(ctx context.Context) (T, error), done func(T, error) tea.Msg) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				msg = done(zero, fmt.Errorf("%w: panic: %v", api.ErrUnavailable, r))
			}
		}()
		v, err := fn(context.Background())
		return done(v, err)
	}
}

// App is the root model. It owns the active screen and routes between them.
type App struct {
	deps   Deps
	route  Route
	active screen
	help   help.Model
	notice string

	width, height int
}

func New(deps Deps, start Route) App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Handoff == nil {
		deps.Handoff = handoff.NewMemory()
	}
	setTheme(deps.Theme)
	a := App{deps: deps, help: help.New()}
	a.route = start
	a.active = a.build(start)
	return a
}

// Run starts the program on the alternate screen and blocks until it quits.
func Run(deps Deps, start Route) error {
	p := tea.NewProgram(New(deps, start), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a App) Route() Route { return a.route }

func (a App) build(r Route) screen {
	switch r {
	case RouteFavorites:
		return newFavoritesScreen(a.deps)
	case RouteQuestionnaire:
		return newQuestionnaireScreen(a.deps)
	case RouteResults:
		return newResultsScreen(a.deps)
	default:
		return newLoginScreen(a.deps)
	}
}

func (a App) Init() tea.Cmd { return a.active.Init() }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
	case navigateMsg:
		return a.enter(msg.to)
	case signedOutMsg:
		if a.deps.Session != nil {
			if err := a.deps.Session.Delete(); err != nil {
				a.deps.Log.Warn("delete session", zap.Error(err))
			}
		}
		a.deps.Client.SetSession("")
		m, cmd := a.enter(RouteLogin)
		app := m.(App)
		if msg.expired {
			app.notice = "Your session has ended. Please sign in again."
		}
		return app, cmd
	}

	var cmd tea.Cmd
	a.active, cmd = a.active.Update(msg)
	return a, cmd
}

func (a App) enter(r Route) (tea.Model, tea.Cmd) {
	a.deps.Log.Debug("navigate", zap.Stringer("from", a.route), zap.Stringer("to", r))
	a.route = r
	a.notice = ""
	a.active = a.build(r)
	if a.width > 0 {
		a.active, _ = a.active.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	return a, a.active.Init()
}

func (a App) View() string {
	var b strings.Builder
	b.WriteString(a.header())
	b.WriteString("\n\n")
	if a.notice != "" {
		b.WriteString(pendingStyle.Render(a.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(a.active.View())
	b.WriteString("\n\n")
	b.WriteString(a.help.ShortHelpView(a.active.Keys()))
	return panelString(b.String())
}

func (a App) header() string {
	tabs := []Route{RouteFavorites, RouteQuestionnaire, RouteResults}
	parts := []string{titleStyle.Render("destinai")}
	if a.route == RouteLogin {
		return parts[0] + "  " + accentStyle.Render("Sign in")
	}
	for _, r := range tabs {
		if r == a.route {
			parts = append(parts, accentStyle.Render(r.String()))
		} else {
			parts = append(parts, mutedStyle.Render(r.String()))
		}
	}
	return strings.Join(parts, "  ")
}
