package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/Makepad-fr/destinai/internal/store/credstore"
	"github.com/Makepad-fr/destinai/internal/view"
)

// doAuthLogin signs in. With --code or --token the verify step runs
// directly; otherwise a code is requested and read from stdin.
func (e *env) doAuthLogin(args []string) int {
	fs := e.flags("auth login")
	code := fs.String("code", "", "one-time code from the email")
	token := fs.String("token", "", "long-form token from the email link")
	pos, err := parseArgs(fs, args)
	if err != nil || len(pos) != 1 {
		e.out.Fail("usage: destinai auth login <email> [--code C | --token T]")
		return 2
	}
	if *code != "" && *token != "" {
		e.out.Fail("use either --code or --token, not both")
		return 2
	}

	email, ok := view.ValidateRequest(pos[0])
	if !ok {
		e.out.Fail(view.MsgCheckInput)
		return 2
	}

	if *code == "" && *token == "" {
		e.out.Pending("Sending your code...")
		if err := e.client.RequestOTP(e.ctx(), email); err != nil {
			e.log.Warn("request code failed", zap.Error(err))
			e.out.Fail(view.Message(err))
			return 1
		}
		e.out.OK("Code sent. Check your email to continue.")
		line, err := e.readLine("Code: ")
		if err != nil {
			e.out.Fail("no code entered")
			return 1
		}
		*code = line
	}

	in, ok := view.ValidateVerify(email, *code, *token)
	if !ok {
		e.out.Fail(view.MsgCheckInput)
		return 2
	}
	e.out.Pending("Verifying your code...")
	login, err := e.client.VerifyOTP(e.ctx(), in.Email, in.Code, in.Token)
	if err != nil {
		e.log.Warn("verify code failed", zap.Error(err))
		e.out.Fail(view.Message(err))
		return 1
	}
	if err := e.creds.Set(e.client.SessionToken(), login.Expires); err != nil {
		e.out.Fail("save session: " + err.Error())
		return 1
	}
	e.out.OK("logged in as " + firstNonEmpty(login.User.Email, in.Email))
	return 0
}

// doAuthLogout is best effort: the local session is dropped even when the
// server cannot be reached.
func (e *env) doAuthLogout() int {
	ti, _ := e.creds.Get()
	if ti == nil {
		e.out.OK("not logged in")
		return 0
	}
	if err := e.client.Logout(e.ctx()); err != nil {
		e.log.Warn("logout failed", zap.Error(err))
	}
	if ti.Source == credstore.SourceEnv {
		e.out.Info("session comes from " + credstore.EnvSession + "; unset it to stay logged out")
	}
	if err := e.creds.Delete(); err != nil {
		e.out.Fail("logout: " + err.Error())
		return 1
	}
	e.out.OK("logged out")
	return 0
}

func (e *env) doAuthStatus() int {
	ti, err := e.creds.Get()
	if err != nil {
		e.out.Fail("auth: " + err.Error())
		return 1
	}
	if ti == nil {
		e.out.Fail("not logged in")
		return 1
	}
	lines := []string{
		e.out.Title("Session"),
		"source:  " + ti.Source,
	}
	if !ti.CreatedAt.IsZero() {
		lines = append(lines, "saved:   "+ti.CreatedAt.Local().Format(time.RFC3339))
	}
	if ti.ExpiresAt != nil {
		lines = append(lines, "expires: "+ti.ExpiresAt.Local().Format(time.RFC3339))
		if ti.Expired(time.Now()) {
			e.out.Panel(lines...)
			e.out.Fail("session expired. Run: destinai auth login <email>")
			return 1
		}
	}
	e.out.Panel(lines...)

	s, err := e.client.Session(e.ctx())
	if err != nil {
		return e.failRequest("session", err, view.MsgUnavailable)
	}
	if !s.Authenticated || s.User == nil {
		e.out.Fail("session expired. Run: destinai auth login <email>")
		return 1
	}
	e.out.OK("logged in as " + s.User.Email)
	return 0
}

// doAuthWhoAmI prints the token claims when the session is a JWT and falls
// back to asking the server for opaque tokens.
func (e *env) doAuthWhoAmI() int {
	ti, err := e.creds.Get()
	if err != nil || ti == nil {
		e.out.Fail("not logged in")
		return 1
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(ti.Token, claims); err == nil {
		keys := make([]string, 0, len(claims))
		for k := range claims {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := []string{e.out.Title("Token claims (unverified)")}
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, claims[k]))
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			lines = append(lines, "expires: "+exp.Local().Format(time.RFC3339))
		}
		e.out.Panel(lines...)
		return 0
	}

	s, err := e.client.Session(e.ctx())
	if err != nil {
		return e.failRequest("session", err, view.MsgUnavailable)
	}
	if !s.Authenticated || s.User == nil {
		e.out.Fail("session expired. Run: destinai auth login <email>")
		return 1
	}
	e.out.Panel(
		e.out.Title("Signed in"),
		"email: "+s.User.Email,
		"id:    "+s.User.ID.String(),
	)
	return 0
}

func firstNonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
