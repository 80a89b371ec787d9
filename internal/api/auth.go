package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Makepad-fr/destinai/internal/model"
)

// RequestOTP asks the server to email a one-time code.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	r := request{
		method: http.MethodPost,
		path:   "/api/auth/otp/request",
		body:   map[string]string{"email": email},
	}
	_, err := c.do(ctx, r, nil)
	return err
}

// Login is the result of a successful verify. Expires is nil for a
// browser-session cookie.
type Login struct {
	User    model.User
	Expires *time.Time
}

// VerifyOTP exchanges a code, or the long-form token from the email link,
// for a session. Exactly one of code and token is sent; code wins when both
// are given. On success the session cookie is re-seeded so that it is sent
// even when the server marks it Secure on a plain-http base URL.
func (c *Client) VerifyOTP(ctx context.Context, email, code, token string) (Login, error) {
	payload := map[string]string{"email": email}
	if code != "" {
		payload["code"] = code
	} else {
		payload["token"] = token
	}
	var out struct {
		Status string     `json:"status"`
		User   model.User `json:"user"`
	}
	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/otp/verify", body: payload}, &out)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			apiErr.Kind = ErrInvalidCode
		}
		return Login{}, err
	}
	login := Login{User: out.User}
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie && ck.Value != "" {
			c.SetSession(ck.Value)
			login.Expires = cookieExpiry(ck, time.Now())
		}
	}
	return login, nil
}

// cookieExpiry prefers Max-Age over Expires, as browsers do.
func cookieExpiry(ck *http.Cookie, now time.Time) *time.Time {
	switch {
	case ck.MaxAge > 0:
		t := now.Add(time.Duration(ck.MaxAge) * time.Second)
		return &t
	case !ck.Expires.IsZero():
		t := ck.Expires
		return &t
	}
	return nil
}

// Logout ends the session on the server and always drops the local cookie.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout"}, nil)
	c.SetSession("")
	return err
}

// Session reports whether the current cookie is still accepted.
func (c *Client) Session(ctx context.Context) (model.Session, error) {
	var s model.Session
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/auth/session"}, &s); err != nil {
		return model.Session{}, err
	}
	return s, nil
}
