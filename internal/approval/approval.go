package approval

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"vip-access-bot/internal/models"
	"vip-access-bot/internal/storage"
)

var (
	// ErrNotFound means the submission id does not exist. No mutation happens.
	ErrNotFound = errors.New("submission not found")
	// ErrUnauthorized means the actor is not on the admin allow-list. The
	// bot layer stays silent on it.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAlreadyDecided guards against double-approving the same
	// submission: only pending submissions can be decided, so re-approval
	// never issues a second invite.
	ErrAlreadyDecided = errors.New("submission already decided")
)

// Outcome is an admin's verdict on a submission.
type Outcome string

const (
	Approve Outcome = "approve"
	Reject  Outcome = "reject"
)

// LinkMode selects how invite links are produced on approval.
type LinkMode string

const (
	// LinkStatic hands out the per-broker link stored by /setgroup.
	LinkStatic LinkMode = "static"
	// LinkSingleUse mints a fresh member-limited link per approval.
	LinkSingleUse LinkMode = "single_use"
)

// Store is the slice of the account store the engine needs.
type Store interface {
	GetSubmission(ctx context.Context, id int64) (*models.Submission, error)
	SetStatus(ctx context.Context, id int64, status models.SubmissionStatus) error
	GetVIPLink(ctx context.Context, broker string) (string, error)
}

// InviteMinter creates single-use channel invite links.
type InviteMinter interface {
	MintInviteLink(ctx context.Context, broker string) (string, error)
}

// AdminChecker reports allow-list membership.
type AdminChecker interface {
	IsAdmin(id int64) bool
}

// Service applies admin decisions and issues invite links.
type Service struct {
	store  Store
	minter InviteMinter
	admins AdminChecker
	mode   LinkMode
	log    zerolog.Logger
}

func NewService(store Store, minter InviteMinter, admins AdminChecker, mode LinkMode, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		minter: minter,
		admins: admins,
		mode:   mode,
		log:    log.With().Str("component", "approval").Logger(),
	}
}

// Decision is what the bot layer delivers to the submitting user.
type Decision struct {
	Submission *models.Submission
	Outcome    Outcome
	// InviteLink is set on approval; empty when no link is configured yet.
	InviteLink string
}

// Decide applies an admin verdict to a pending submission.
func (s *Service) Decide(ctx context.Context, adminID int64, submissionID int64, outcome Outcome) (*Decision, error) {
	if !s.admins.IsAdmin(adminID) {
		return nil, ErrUnauthorized
	}

	sub, err := s.store.GetSubmission(ctx, submissionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusPending {
		return nil, ErrAlreadyDecided
	}

	switch outcome {
	case Approve:
		if err := s.store.SetStatus(ctx, submissionID, models.StatusApproved); err != nil {
			return nil, err
		}
		sub.Status = models.StatusApproved

		link, err := s.IssueLink(ctx, sub.Broker)
		if err != nil {
			// Approval stands even when the link cannot be produced;
			// the admin can /setgroup and the user can ask again.
			s.log.Error().Err(err).Str("broker", sub.Broker).Msg("invite link unavailable")
			link = ""
		}
		s.log.Info().Int64("submission", submissionID).Int64("admin", adminID).Msg("submission approved")
		return &Decision{Submission: sub, Outcome: Approve, InviteLink: link}, nil

	case Reject:
		if err := s.store.SetStatus(ctx, submissionID, models.StatusRejected); err != nil {
			return nil, err
		}
		sub.Status = models.StatusRejected
		s.log.Info().Int64("submission", submissionID).Int64("admin", adminID).Msg("submission rejected")
		return &Decision{Submission: sub, Outcome: Reject}, nil

	default:
		return nil, errors.New("unknown outcome")
	}
}

// IssueLink produces the invite link for a broker according to the
// configured mode. Also used by the auto-approve workflow path.
func (s *Service) IssueLink(ctx context.Context, broker string) (string, error) {
	if s.mode == LinkSingleUse && s.minter != nil {
		return s.minter.MintInviteLink(ctx, broker)
	}
	link, err := s.store.GetVIPLink(ctx, broker)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return link, err
}
