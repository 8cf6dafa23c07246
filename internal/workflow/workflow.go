package workflow

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vip-access-bot/internal/models"
	"vip-access-bot/internal/session"
)

// Store is the slice of the account store the workflow needs.
type Store interface {
	UpsertUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, tgUserID int64) (*models.User, error)
	IsBanned(ctx context.Context, tgUserID int64) (bool, error)
	HasPending(ctx context.Context, tgUserID int64, broker string) (bool, error)
	HasApproved(ctx context.Context, tgUserID int64, broker string) (bool, error)
	HasAnyApproved(ctx context.Context, tgUserID int64) (bool, error)
	CreateSubmission(ctx context.Context, sub *models.Submission) error
}

// Verifier answers ownership checks for brokers with a partner API.
type Verifier interface {
	Verify(ctx context.Context, broker, clientID string) bool
}

// LinkIssuer produces the invite link handed out on auto-approval.
type LinkIssuer interface {
	IssueLink(ctx context.Context, broker string) (string, error)
}

// Options are the workflow knobs unified from the source revisions.
type Options struct {
	// RequireAdminApproval routes submissions through screenshot + admin
	// decision instead of calling the verifier synchronously.
	RequireAdminApproval bool
	// OneTimeGlobalVerification treats any approved submission as full
	// verification; /start short-circuits for such users.
	OneTimeGlobalVerification bool
	// Cooldown is the minimum wait between successive submissions.
	Cooldown time.Duration
}

// Engine drives the verification conversation. State lives in the session
// store keyed by user id. The pending-submission check and the insert are
// two separate operations; two near-simultaneous submissions from the same
// user can both pass the check. That race is inherited behavior, kept
// deliberately (a partial unique index would change it).
type Engine struct {
	store    Store
	sessions session.Store
	verifier Verifier
	links    LinkIssuer
	opts     Options
	now      func() time.Time
	log      zerolog.Logger
}

func NewEngine(store Store, sessions session.Store, verifier Verifier, links LinkIssuer, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		store:    store,
		sessions: sessions,
		verifier: verifier,
		links:    links,
		opts:     opts,
		now:      time.Now,
		log:      log.With().Str("component", "workflow").Logger(),
	}
}

// StartResult tells the bot layer how to respond to /start.
type StartResult struct {
	// Silent means the user is banned; the workflow ends without a reply.
	Silent bool
	// AlreadyVerified short-circuits under one-time global verification.
	AlreadyVerified bool
	// Brokers to offer when the workflow begins.
	Brokers []string
}

// Start enters the workflow: upserts the user and opens broker selection.
func (e *Engine) Start(ctx context.Context, user *models.User) (*StartResult, error) {
	banned, err := e.store.IsBanned(ctx, user.TgUserID)
	if err != nil {
		return nil, err
	}
	if banned {
		return &StartResult{Silent: true}, nil
	}

	if err := e.store.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	if e.opts.OneTimeGlobalVerification {
		verified, err := e.store.HasAnyApproved(ctx, user.TgUserID)
		if err != nil {
			return nil, err
		}
		if verified {
			return &StartResult{AlreadyVerified: true}, nil
		}
	}

	if err := e.sessions.Set(ctx, user.TgUserID, &session.Session{State: session.StateChoosingBroker}); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(models.Brokers()))
	for _, b := range models.Brokers() {
		names = append(names, b.Name)
	}
	return &StartResult{Brokers: names}, nil
}

// ChooseOutcome classifies the broker-selection step.
type ChooseOutcome int

const (
	ChooseAsk ChooseOutcome = iota // proceed, ask for the client id
	ChooseUnknownBroker
	ChooseAlreadyApproved
	ChooseAlreadyPending
	ChooseNoSession
	ChooseBanned // silent end, like a banned /start
)

// ChooseBroker handles the "broker:<Name>" callback.
func (e *Engine) ChooseBroker(ctx context.Context, tgUserID int64, broker string) (ChooseOutcome, error) {
	sess, err := e.sessions.Get(ctx, tgUserID)
	if err == session.ErrNoSession || (err == nil && sess.State != session.StateChoosingBroker) {
		return ChooseNoSession, nil
	}
	if err != nil {
		return 0, err
	}

	if _, ok := models.BrokerByName(broker); !ok {
		return ChooseUnknownBroker, nil
	}

	// A ban issued mid-conversation ends the workflow here, silently.
	banned, err := e.store.IsBanned(ctx, tgUserID)
	if err != nil {
		return 0, err
	}
	if banned {
		_ = e.sessions.Clear(ctx, tgUserID)
		return ChooseBanned, nil
	}

	approved, err := e.store.HasApproved(ctx, tgUserID, broker)
	if err != nil {
		return 0, err
	}
	if approved {
		_ = e.sessions.Clear(ctx, tgUserID)
		return ChooseAlreadyApproved, nil
	}

	pending, err := e.store.HasPending(ctx, tgUserID, broker)
	if err != nil {
		return 0, err
	}
	if pending {
		_ = e.sessions.Clear(ctx, tgUserID)
		return ChooseAlreadyPending, nil
	}

	sess.State = session.StateAwaitingClientID
	sess.Broker = broker
	if err := e.sessions.Set(ctx, tgUserID, sess); err != nil {
		return 0, err
	}
	return ChooseAsk, nil
}

// ClientIDOutcome classifies the client-id step.
type ClientIDOutcome int

const (
	ClientIDNoSession ClientIDOutcome = iota
	ClientIDInvalid                   // re-prompt, state unchanged
	ClientIDCooldown                  // re-prompt with remaining wait
	ClientIDNeedScreenshot
	ClientIDApproved // auto-approve path succeeded
	ClientIDVerifyFailed
)

// ClientIDResult carries step data alongside the outcome.
type ClientIDResult struct {
	Outcome           ClientIDOutcome
	Broker            string
	CooldownRemaining time.Duration
	InviteLink        string
}

// SubmitClientID handles text input while a client id is awaited.
func (e *Engine) SubmitClientID(ctx context.Context, tgUserID int64, text string) (*ClientIDResult, error) {
	sess, err := e.sessions.Get(ctx, tgUserID)
	if err == session.ErrNoSession || (err == nil && sess.State != session.StateAwaitingClientID) {
		return &ClientIDResult{Outcome: ClientIDNoSession}, nil
	}
	if err != nil {
		return nil, err
	}

	clientID, ok := models.NormalizeClientID(sess.Broker, text)
	if !ok {
		return &ClientIDResult{Outcome: ClientIDInvalid, Broker: sess.Broker}, nil
	}

	if remaining, onCooldown := e.cooldownRemaining(ctx, tgUserID); onCooldown {
		return &ClientIDResult{Outcome: ClientIDCooldown, Broker: sess.Broker, CooldownRemaining: remaining}, nil
	}

	if e.opts.RequireAdminApproval {
		sess.State = session.StateAwaitingScreenshot
		sess.ClientID = clientID
		if err := e.sessions.Set(ctx, tgUserID, sess); err != nil {
			return nil, err
		}
		return &ClientIDResult{Outcome: ClientIDNeedScreenshot, Broker: sess.Broker}, nil
	}

	// Single-step variant: verify synchronously, approve in place.
	broker := sess.Broker
	_ = e.sessions.Clear(ctx, tgUserID)

	if !e.verifier.Verify(ctx, broker, clientID) {
		return &ClientIDResult{Outcome: ClientIDVerifyFailed, Broker: broker}, nil
	}

	sub := &models.Submission{
		TgUserID:      tgUserID,
		Broker:        broker,
		ClientID:      clientID,
		Status:        models.StatusApproved,
		LastTradeDate: e.now().Format("2006-01-02"),
	}
	if err := e.store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	link, err := e.links.IssueLink(ctx, broker)
	if err != nil {
		e.log.Error().Err(err).Str("broker", broker).Msg("invite link unavailable")
		link = ""
	}
	return &ClientIDResult{Outcome: ClientIDApproved, Broker: broker, InviteLink: link}, nil
}

// ScreenshotOutcome classifies the screenshot step.
type ScreenshotOutcome int

const (
	ScreenshotNoSession ScreenshotOutcome = iota
	ScreenshotSubmitted
)

// SubmitScreenshot finishes the admin-approval flow. fileID may be empty
// when the user explicitly skips the screenshot.
func (e *Engine) SubmitScreenshot(ctx context.Context, tgUserID int64, fileID string) (ScreenshotOutcome, *models.Submission, error) {
	sess, err := e.sessions.Get(ctx, tgUserID)
	if err == session.ErrNoSession || (err == nil && sess.State != session.StateAwaitingScreenshot) {
		return ScreenshotNoSession, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}

	sub := &models.Submission{
		TgUserID:         tgUserID,
		Broker:           sess.Broker,
		ClientID:         sess.ClientID,
		ScreenshotFileID: fileID,
		Status:           models.StatusPending,
	}
	if err := e.store.CreateSubmission(ctx, sub); err != nil {
		return 0, nil, err
	}

	_ = e.sessions.Clear(ctx, tgUserID)
	return ScreenshotSubmitted, sub, nil
}

// InScreenshotState reports whether the user is currently expected to send
// a photo or skip. The bot layer uses it to re-prompt on other input.
func (e *Engine) InScreenshotState(ctx context.Context, tgUserID int64) bool {
	sess, err := e.sessions.Get(ctx, tgUserID)
	return err == nil && sess.State == session.StateAwaitingScreenshot
}

// Cancel aborts the workflow from any state.
func (e *Engine) Cancel(ctx context.Context, tgUserID int64) error {
	return e.sessions.Clear(ctx, tgUserID)
}

// cooldownRemaining reports how long the user must still wait. The result
// is clamped at zero.
func (e *Engine) cooldownRemaining(ctx context.Context, tgUserID int64) (time.Duration, bool) {
	if e.opts.Cooldown <= 0 {
		return 0, false
	}
	u, err := e.store.GetUser(ctx, tgUserID)
	if err != nil || u.LastSubmitAt.IsZero() {
		return 0, false
	}
	elapsed := e.now().Sub(u.LastSubmitAt)
	if elapsed >= e.opts.Cooldown {
		return 0, false
	}
	return e.opts.Cooldown - elapsed, true
}
