package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vip-access-bot/internal/models"
)

const dateLayout = "2006-01-02"

func toDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Store is the slice of the account store the sweep needs.
type Store interface {
	ListApprovedByBroker(ctx context.Context, broker string) ([]models.Submission, error)
	SetLastTradeDate(ctx context.Context, id int64, date string) error
	SetStatus(ctx context.Context, id int64, status models.SubmissionStatus) error
}

// ActivitySource yields the latest trade date per client id.
type ActivitySource interface {
	TradeActivity(ctx context.Context) map[string]time.Time
}

// Kicker removes a user from the VIP channel (kick, not ban: remove then
// immediately re-admit) and best-effort notifies them.
type Kicker interface {
	KickFromChannel(ctx context.Context, tgUserID int64) error
	NotifyKicked(tgUserID int64, daysInactive int)
}

// Service runs the periodic inactivity revocation. One user's failure never
// aborts the rest of the sweep.
type Service struct {
	store    Store
	activity ActivitySource
	kicker   Kicker
	kickDays int
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	today  func() time.Time
	log    zerolog.Logger
}

func NewService(store Store, activity ActivitySource, kicker Kicker, kickDays int, log zerolog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		store:    store,
		activity: activity,
		kicker:   kicker,
		kickDays: kickDays,
		interval: 24 * time.Hour,
		ctx:      ctx,
		cancel:   cancel,
		today:    time.Now,
		log:      log.With().Str("component", "sweep").Logger(),
	}
}

// Start launches the daily sweep loop.
func (s *Service) Start() {
	s.log.Info().Dur("interval", s.interval).Msg("starting inactivity sweep")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Run(s.ctx)
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight run to finish.
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Info().Msg("inactivity sweep stopped")
}

// Run executes one sweep pass. Also invoked directly by /kick_inactive.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().Msg("inactivity check started")

	activity := s.activity.TradeActivity(ctx)
	today := s.today()
	kicked := 0

	for _, b := range models.Brokers() {
		if !b.HasTradeActivity {
			continue
		}

		subs, err := s.store.ListApprovedByBroker(ctx, b.Name)
		if err != nil {
			s.log.Error().Err(err).Str("broker", b.Name).Msg("cannot list approved submissions")
			continue
		}

		for _, sub := range subs {
			if s.process(ctx, sub, activity, today) {
				kicked++
			}
		}
	}

	s.log.Info().Int("kicked", kicked).Msg("inactivity check complete")
}

// process handles one approved submission and reports whether it was kicked.
func (s *Service) process(ctx context.Context, sub models.Submission, activity map[string]time.Time, today time.Time) bool {
	var lastTrade time.Time

	if t, ok := activity[sub.ClientID]; ok {
		lastTrade = t
		if err := s.store.SetLastTradeDate(ctx, sub.ID, t.Format(dateLayout)); err != nil {
			s.log.Error().Err(err).Int64("submission", sub.ID).Msg("cannot persist trade date")
		}
	} else if sub.LastTradeDate != "" {
		t, err := time.Parse(dateLayout, sub.LastTradeDate)
		if err != nil {
			return false
		}
		lastTrade = t
	}

	// No trade date was ever known: absence of data is not inactivity.
	if lastTrade.IsZero() {
		return false
	}

	// Feed timestamps carry a time of day; the inactivity rule counts
	// calendar days, so both sides are truncated to midnight first.
	daysInactive := int(toDate(today).Sub(toDate(lastTrade)).Hours() / 24)
	if daysInactive <= s.kickDays {
		return false
	}

	if err := s.kicker.KickFromChannel(ctx, sub.TgUserID); err != nil {
		s.log.Error().Err(err).Int64("user", sub.TgUserID).Msg("cannot kick user")
		return false
	}
	if err := s.store.SetStatus(ctx, sub.ID, models.StatusKickedInactive); err != nil {
		s.log.Error().Err(err).Int64("submission", sub.ID).Msg("cannot mark submission kicked")
	}
	s.kicker.NotifyKicked(sub.TgUserID, daysInactive)
	s.log.Info().Int64("user", sub.TgUserID).Int("days_inactive", daysInactive).Msg("user kicked for inactivity")
	return true
}
