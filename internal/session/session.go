package session

import (
	"fmt"
	"time"

	"github.com/accessfit/accessfit-gateway/internal/dashboard"
	"github.com/accessfit/accessfit-gateway/internal/fitness"
)

// Session is the one persisted blob: the logged-in user, the gateway token
// that identifies the browser, and the tab the user last looked at.
type Session struct {
	Token     string        `json:"token"`
	User      fitness.User  `json:"user"`
	ActiveTab dashboard.Tab `json:"active_tab"`
	CreatedAt time.Time     `json:"created_at"`
}

// StaleSessionError marks a persisted session that can no longer be
// trusted: missing id, unknown role, or an unparsable blob. The policy is
// always discard and start logged out, never guess.
type StaleSessionError struct {
	Reason string
}

func (e *StaleSessionError) Error() string {
	return fmt.Sprintf("stale session: %s", e.Reason)
}

func (s Session) validate() error {
	if s.Token == "" {
		return &StaleSessionError{Reason: "missing token"}
	}
	if s.User.ID == 0 {
		return &StaleSessionError{Reason: "missing user id"}
	}
	if !s.User.Role.Valid() {
		return &StaleSessionError{Reason: fmt.Sprintf("unknown role %q", s.User.Role)}
	}
	return nil
}
