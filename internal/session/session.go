package session

import (
	"context"
	"errors"
)

// State is the conversation position for one user.
type State string

const (
	StateNone               State = ""
	StateChoosingBroker     State = "choosing_broker"
	StateAwaitingClientID   State = "awaiting_client_id"
	StateAwaitingScreenshot State = "awaiting_screenshot"
)

// Session holds the transient selections of one workflow run. It is
// discarded on completion, cancellation, or expiry.
type Session struct {
	State    State  `json:"state"`
	Broker   string `json:"broker,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// ErrNoSession is returned when the user has no active workflow.
var ErrNoSession = errors.New("no active session")

// Store keeps sessions keyed by Telegram user id.
type Store interface {
	Get(ctx context.Context, tgUserID int64) (*Session, error)
	Set(ctx context.Context, tgUserID int64, s *Session) error
	Clear(ctx context.Context, tgUserID int64) error
}
