package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/api"
	"github.com/Makepad-fr/destinai/internal/view"
)

type otpRequestedMsg struct {
	email string
	err   error
}

type otpVerifiedMsg struct {
	login api.Login
	err   error
}

var (
	loginKeys = struct {
		Next, Submit, Back key.Binding
	}{
		Next:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "request a new code")),
	}
)

// newInput returns a text input with a steady cursor.
func newInput(prompt, placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

type loginScreen struct {
	deps Deps
	flow view.LoginFlow
	req  view.Request

	email       textinput.Model
	verifyEmail textinput.Model
	code        textinput.Model
	token       textinput.Model
	focus       int
}

func newLoginScreen(deps Deps) *loginScreen {
	s := &loginScreen{
		deps:        deps,
		email:       newInput("Email  > ", "you@example.com", 254),
		verifyEmail: newInput("Email  > ", "you@example.com", 254),
		code:        newInput("Code   > ", "6-digit code", 12),
		token:       newInput("Token  > ", "or paste the link token", 512),
	}
	s.email.Focus()
	return s
}

func (s *loginScreen) Init() tea.Cmd { return nil }

func (s *loginScreen) Keys() []key.Binding {
	if s.flow.Step == view.StepVerify {
		return []key.Binding{loginKeys.Next, loginKeys.Submit, loginKeys.Back}
	}
	return []key.Binding{loginKeys.Submit}
}

// fields of the current step, in focus order.
func (s *loginScreen) fields() []*textinput.Model {
	if s.flow.Step == view.StepRequest {
		return []*textinput.Model{&s.email}
	}
	return []*textinput.Model{&s.verifyEmail, &s.code, &s.token}
}

func (s *loginScreen) setFocus(i int) {
	fs := s.fields()
	s.focus = (i + len(fs)) % len(fs)
	for j, f := range fs {
		if j == s.focus {
			f.Focus()
		} else {
			f.Blur()
		}
	}
}

func (s *loginScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case otpRequestedMsg:
		return s, s.requested(msg)
	case otpVerifiedMsg:
		return s, s.verified(msg)
	case tea.KeyMsg:
		if s.req.Busy() {
			return s, nil
		}
		switch {
		case key.Matches(msg, loginKeys.Submit):
			if s.flow.Step == view.StepRequest {
				return s, s.submitRequest()
			}
			return s, s.submitVerify()
		case key.Matches(msg, loginKeys.Back) && s.flow.Step == view.StepVerify:
			s.retry()
			return s, nil
		case msg.String() == "tab":
			s.setFocus(s.focus + 1)
			return s, nil
		case msg.String() == "shift+tab":
			s.setFocus(s.focus - 1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	f := s.fields()[s.focus]
	*f, cmd = f.Update(msg)
	return s, cmd
}

func (s *loginScreen) submitRequest() tea.Cmd {
	email, ok := view.ValidateRequest(s.email.Value())
	if !ok {
		s.req.Invalid(view.MsgCheckInput)
		return nil
	}
	s.req.Begin("Sending your code...")
	client := s.deps.Client
	return async(func(ctx context.Context) (string, error) {
		return email, client.RequestOTP(ctx, email)
	}, func(email string, err error) tea.Msg {
		return otpRequestedMsg{email: email, err: err}
	})
}

func (s *loginScreen) requested(msg otpRequestedMsg) tea.Cmd {
	if msg.err != nil {
		s.deps.Log.Warn("otp request failed", zap.Error(msg.err))
		s.req.Fail(view.Message(msg.err))
		return nil
	}
	s.flow.Sent(msg.email)
	s.verifyEmail.SetValue(s.flow.LastEmail)
	s.code.SetValue("")
	s.token.SetValue("")
	s.email.Blur()
	s.setFocus(1)
	s.req.Succeed("Code sent. Check your email to continue.")
	return nil
}

func (s *loginScreen) submitVerify() tea.Cmd {
	in, ok := view.ValidateVerify(s.verifyEmail.Value(), s.code.Value(), s.token.Value())
	if !ok {
		s.req.Invalid(view.MsgCheckInput)
		return nil
	}
	s.req.Begin("Verifying your code...")
	client := s.deps.Client
	return async(func(ctx context.Context) (api.Login, error) {
		return client.VerifyOTP(ctx, in.Email, in.Code, in.Token)
	}, func(l api.Login, err error) tea.Msg {
		return otpVerifiedMsg{login: l, err: err}
	})
}

func (s *loginScreen) verified(msg otpVerifiedMsg) tea.Cmd {
	if msg.err != nil {
		s.deps.Log.Warn("otp verify failed", zap.Error(msg.err))
		s.req.Fail(view.Message(msg.err))
		return nil
	}
	s.req.Succeed("")
	if s.deps.Session != nil {
		if err := s.deps.Session.Set(s.deps.Client.SessionToken(), msg.login.Expires); err != nil {
			s.deps.Log.Warn("persist session", zap.Error(err))
		}
	}
	s.deps.Log.Info("signed in", zap.String("email", msg.login.User.Email))
	return navigate(RouteFavorites)
}

func (s *loginScreen) retry() {
	s.flow.Retry()
	s.req = view.Request{}
	s.email.SetValue(s.flow.LastEmail)
	s.email.CursorEnd()
	s.setFocus(0)
}

func (s *loginScreen) View() string {
	var b strings.Builder
	if s.flow.Step == view.StepRequest {
		b.WriteString(titleStyle.Render("Sign in with a one-time code"))
		b.WriteString("\n\n")
		b.WriteString(s.email.View())
	} else {
		b.WriteString(titleStyle.Render("Enter the code from your email"))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Fill in either the code or the token, not both."))
		b.WriteString("\n\n")
		b.WriteString(s.verifyEmail.View() + "\n")
		b.WriteString(s.code.View() + "\n")
		b.WriteString(s.token.View())
	}
	if line := statusLine(s.req.Status, s.req.Variant == view.Error); line != "" {
		b.WriteString("\n\n" + line)
	}
	return b.String()
}
