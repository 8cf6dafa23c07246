package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vip-access-bot/internal/approval"
	"vip-access-bot/internal/models"
)

// Admin commands from unknown identities are silently ignored: the bot
// never reveals that an admin surface exists.

func (b *Bot) cmdSetGroup(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) != 2 {
		b.replyPlain(msg.Chat.ID, "Usage: /setgroup <Broker> <Link>")
		return
	}
	broker, link := args[0], args[1]

	if _, ok := models.BrokerByName(broker); !ok {
		b.replyPlain(msg.Chat.ID, "Unknown broker. See /brokers.")
		return
	}
	if err := b.store.SetVIPLink(ctx, broker, link); err != nil {
		b.log.Error().Err(err).Msg("setgroup failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not save the link.")
		return
	}
	b.replyPlain(msg.Chat.ID, fmt.Sprintf("✅ Link set for %s", broker))
}

func (b *Bot) cmdStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	st, err := b.store.Stats(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("stats failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not read stats.")
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📊 *Stats*\nUsers: %d\nPending: %d\nApproved: %d\nRejected: %d\nKicked (inactive): %d",
		st.Users, st.Pending, st.Approved, st.Rejected, st.KickedInactive))
}

func (b *Bot) cmdBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.replyPlain(msg.Chat.ID, "Usage: /broadcast <text>")
		return
	}

	b.replyPlain(msg.Chat.ID, "⏳ Broadcasting...")
	res, err := b.broadcaster.Broadcast(ctx, text)
	if err != nil {
		b.log.Error().Err(err).Msg("broadcast failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Broadcast failed.")
		return
	}
	b.replyPlain(msg.Chat.ID, fmt.Sprintf("✅ Done. Sent: %d, blocked: %d, failed: %d", res.Sent, res.Blocked, res.Failed))
}

func (b *Bot) cmdExport(ctx context.Context, msg *tgbotapi.Message, format string) {
	if !b.isAdmin(msg) {
		return
	}

	b.replyPlain(msg.Chat.ID, fmt.Sprintf("⏳ Generating %s file...", strings.ToUpper(format)))

	var name string
	var data []byte
	var rows int
	switch format {
	case "xlsx":
		f, err := b.exporter.XLSX(ctx)
		if err != nil {
			b.log.Error().Err(err).Msg("xlsx export failed")
			b.replyPlain(msg.Chat.ID, "⚠️ Export failed.")
			return
		}
		name, data, rows = f.Name, f.Data, f.Rows
	default:
		f, err := b.exporter.CSV(ctx)
		if err != nil {
			b.log.Error().Err(err).Msg("csv export failed")
			b.replyPlain(msg.Chat.ID, "⚠️ Export failed.")
			return
		}
		name, data, rows = f.Name, f.Data, f.Rows
	}

	if rows == 0 {
		b.replyPlain(msg.Chat.ID, "❌ No data found.")
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = "✅ Here is the complete user data."
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error().Err(err).Msg("document send failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not deliver the file.")
	}
}

func (b *Bot) cmdBan(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) < 1 {
		b.replyPlain(msg.Chat.ID, "Usage: /ban <id> [reason]")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.replyPlain(msg.Chat.ID, "Usage: /ban <id> [reason]")
		return
	}
	reason := strings.Join(args[1:], " ")

	if err := b.store.Ban(ctx, id, reason); err != nil {
		b.log.Error().Err(err).Msg("ban failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not ban the user.")
		return
	}
	b.replyPlain(msg.Chat.ID, fmt.Sprintf("✅ User %d banned.", id))
}

func (b *Bot) cmdUnban(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		b.replyPlain(msg.Chat.ID, "Usage: /unban <id>")
		return
	}
	if err := b.store.Unban(ctx, id); err != nil {
		b.log.Error().Err(err).Msg("unban failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not unban the user.")
		return
	}
	b.replyPlain(msg.Chat.ID, fmt.Sprintf("✅ User %d unbanned.", id))
}

func (b *Bot) cmdPending(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	subs, err := b.store.ListPending(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("pending list failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Could not read pending submissions.")
		return
	}
	if len(subs) == 0 {
		b.replyPlain(msg.Chat.ID, "No pending submissions.")
		return
	}

	var sb strings.Builder
	sb.WriteString("⏳ *Pending submissions*\n")
	for _, sub := range subs {
		sb.WriteString(submissionLine(sub.ID, sub.Broker, sub.ClientID, sub.TgUserID))
		sb.WriteString("\n")
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) cmdFind(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	key := strings.TrimSpace(msg.CommandArguments())
	if key == "" {
		b.replyPlain(msg.Chat.ID, "Usage: /find <client id or user id>")
		return
	}

	subs, err := b.store.Find(ctx, key)
	if err != nil {
		b.log.Error().Err(err).Msg("find failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Search failed.")
		return
	}
	if len(subs) == 0 {
		b.replyPlain(msg.Chat.ID, "Nothing found.")
		return
	}

	var sb strings.Builder
	for _, sub := range subs {
		sb.WriteString(fmt.Sprintf("%s — %s\n", submissionLine(sub.ID, sub.Broker, sub.ClientID, sub.TgUserID), sub.Status))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) cmdBrokers(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	var sb strings.Builder
	sb.WriteString("🏦 *Brokers*\n")
	for _, broker := range models.Brokers() {
		link, err := b.store.GetVIPLink(ctx, broker.Name)
		if err != nil || link == "" {
			link = "(no link)"
		}
		api := "manual review"
		if broker.HasAPI {
			api = "auto-verify"
		}
		sb.WriteString(fmt.Sprintf("• %s — %s — %s\n", broker.Name, api, link))
	}
	b.reply(msg.Chat.ID, sb.String())
}

func (b *Bot) cmdKickInactive(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg) {
		return
	}

	b.replyPlain(msg.Chat.ID, "⏳ Running inactivity check...")
	b.sweeper.Run(ctx)
	b.replyPlain(msg.Chat.ID, "✅ Check complete.")
}

// onDecision applies an approve/reject callback and notifies the user.
func (b *Bot) onDecision(ctx context.Context, q *tgbotapi.CallbackQuery, outcome approval.Outcome, rawID string) {
	if q.From == nil || q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return
	}

	decision, err := b.approvals.Decide(ctx, q.From.ID, id, outcome)
	switch {
	case errors.Is(err, approval.ErrUnauthorized):
		// Deliberately silent.
		return
	case errors.Is(err, approval.ErrNotFound):
		b.replyPlain(chatID, fmt.Sprintf("Submission #%d not found.", id))
		return
	case errors.Is(err, approval.ErrAlreadyDecided):
		b.replyPlain(chatID, fmt.Sprintf("Submission #%d was already decided.", id))
		return
	case err != nil:
		b.log.Error().Err(err).Int64("submission", id).Msg("decision failed")
		b.replyPlain(chatID, "⚠️ Could not apply the decision.")
		return
	}

	sub := decision.Submission
	if decision.Outcome == approval.Approve {
		b.editOrReply(chatID, q.Message.MessageID,
			fmt.Sprintf("✅ Approved %s", submissionLine(sub.ID, sub.Broker, sub.ClientID, sub.TgUserID)))

		link := decision.InviteLink
		if link == "" {
			link = "Link coming soon..."
		}
		b.reply(sub.TgUserID, fmt.Sprintf(
			"🎉 *Approved!*\n✅ Broker: %s\n\n🔗 *VIP Link:*\n%s\n\n"+
				"⚠️ *Note:* Active trading is required. *15 days inactivity = Auto Kick.*\n\n"+
				"🔓 *AI Mentor Unlocked!* Send me charts anytime.", sub.Broker, link))
		return
	}

	b.editOrReply(chatID, q.Message.MessageID,
		fmt.Sprintf("❌ Rejected %s", submissionLine(sub.ID, sub.Broker, sub.ClientID, sub.TgUserID)))
	b.reply(sub.TgUserID, fmt.Sprintf(
		"❌ Your *%s* submission was rejected. You can try again with /start.", sub.Broker))
}
