package report

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrBlocked marks a delivery failure caused by the recipient blocking the
// bot. The sender implementation maps platform errors to it.
var ErrBlocked = errors.New("recipient blocked the bot")

// Sender delivers one text message.
type Sender interface {
	SendText(chatID int64, text string) error
}

// RecipientSource lists broadcast targets.
type RecipientSource interface {
	ListRecipients(ctx context.Context) ([]int64, error)
}

// BroadcastResult is the final tally reported to the initiating admin.
type BroadcastResult struct {
	Sent    int
	Blocked int
	Failed  int
}

// Broadcaster fans a message out to every known, non-banned user.
// Sends run sequentially with a fixed delay to respect outbound rate
// limits; per-recipient failures never abort the remaining sends.
type Broadcaster struct {
	store  RecipientSource
	sender Sender
	delay  time.Duration
	log    zerolog.Logger
}

func NewBroadcaster(store RecipientSource, sender Sender, delay time.Duration, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		store:  store,
		sender: sender,
		delay:  delay,
		log:    log.With().Str("component", "broadcast").Logger(),
	}
}

func (b *Broadcaster) Broadcast(ctx context.Context, text string) (*BroadcastResult, error) {
	ids, err := b.store.ListRecipients(ctx)
	if err != nil {
		return nil, err
	}

	res := &BroadcastResult{}
	for i, id := range ids {
		if i > 0 && b.delay > 0 {
			time.Sleep(b.delay)
		}

		err := b.sender.SendText(id, text)
		switch {
		case err == nil:
			res.Sent++
		case errors.Is(err, ErrBlocked):
			res.Blocked++
		default:
			b.log.Warn().Err(err).Int64("user", id).Msg("broadcast delivery failed")
			res.Failed++
		}
	}

	b.log.Info().Int("sent", res.Sent).Int("blocked", res.Blocked).Int("failed", res.Failed).Msg("broadcast complete")
	return res, nil
}
