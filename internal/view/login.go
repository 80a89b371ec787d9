package view

import (
	"regexp"
	"strings"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail applies the same loose shape check as the server form.
func ValidEmail(email string) bool {
	return emailRegexp.MatchString(strings.TrimSpace(email))
}

// Step of the two-step login.
type Step int

const (
	StepRequest Step = iota
	StepVerify
)

// LoginFlow is the request-code → verify-code state.
type LoginFlow struct {
	Step      Step
	LastEmail string
}

// Sent moves to Verify after the server accepted the OTP request.
func (f *LoginFlow) Sent(email string) {
	f.LastEmail = strings.TrimSpace(email)
	f.Step = StepVerify
}

// Retry goes back to Request, keeping the remembered email.
func (f *LoginFlow) Retry() {
	f.Step = StepRequest
}

// ValidateRequest checks the request step input. It returns the trimmed
// email and false when no request must be sent.
func ValidateRequest(email string) (string, bool) {
	email = strings.TrimSpace(email)
	return email, ValidEmail(email)
}

// VerifyInput is the trimmed verify step input.
type VerifyInput struct {
	Email string
	Code  string
	Token string
}

// ValidateVerify requires a valid email and exactly one of code or token.
func ValidateVerify(email, code, token string) (VerifyInput, bool) {
	in := VerifyInput{
		Email: strings.TrimSpace(email),
		Code:  strings.TrimSpace(code),
		Token: strings.TrimSpace(token),
	}
	if !ValidEmail(in.Email) {
		return in, false
	}
	return in, (in.Code == "") != (in.Token == "")
}
