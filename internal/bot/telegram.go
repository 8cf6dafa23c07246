package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vip-access-bot/internal/report"
)

// SendText implements report.Sender. Forbidden responses (user blocked the
// bot) map to report.ErrBlocked so the broadcaster can count them apart.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.Code == http.StatusForbidden {
		return report.ErrBlocked
	}
	if strings.Contains(err.Error(), "Forbidden") {
		return report.ErrBlocked
	}
	return err
}

// KickFromChannel implements sweep.Kicker: ban then immediately unban, so
// the user is removed but free to rejoin through a fresh invite.
func (b *Bot) KickFromChannel(ctx context.Context, tgUserID int64) error {
	member := tgbotapi.ChatMemberConfig{
		ChatID: b.cfg.Telegram.VIPChannelID,
		UserID: tgUserID,
	}
	if _, err := b.api.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("ban failed: %w", err)
	}
	if _, err := b.api.Request(tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("unban failed: %w", err)
	}
	return nil
}

// NotifyKicked implements sweep.Kicker. Best effort only.
func (b *Bot) NotifyKicked(tgUserID int64, daysInactive int) {
	b.reply(tgUserID, fmt.Sprintf(
		"⚠️ *Alert:* You have been removed from the VIP group because you "+
			"have not traded for the last *%d days*.\n\n"+
			"Start trading again and press /start to rejoin.", daysInactive))
}

// MintInviteLink implements approval.InviteMinter: a fresh single-use,
// member-limited invite to the VIP channel.
func (b *Bot) MintInviteLink(ctx context.Context, broker string) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: b.cfg.Telegram.VIPChannelID},
		MemberLimit: 1,
	}
	resp, err := b.api.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("createChatInviteLink failed: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("cannot parse invite link: %w", err)
	}
	return link.InviteLink, nil
}

// downloadPhoto fetches the largest resolution of a photo message.
func (b *Bot) downloadPhoto(ctx context.Context, photos []tgbotapi.PhotoSize) ([]byte, error) {
	if len(photos) == 0 {
		return nil, errors.New("no photo")
	}
	fileID := photos[len(photos)-1].FileID

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
