package bot

import (
	"context"
	"fmt"
	"math"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vip-access-bot/internal/models"
	"vip-access-bot/internal/workflow"
)

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	from := msg.From
	if from == nil {
		return
	}

	res, err := b.engine.Start(ctx, &models.User{
		TgUserID:  from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		b.log.Error().Err(err).Int64("user", from.ID).Msg("start failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Something went wrong. Please try again later.")
		return
	}

	switch {
	case res.Silent:
		// Banned users get nothing.
	case res.AlreadyVerified:
		b.reply(msg.Chat.ID, "✅ You are already verified. The AI Mentor is unlocked — send me charts anytime.")
	default:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(res.Brokers))
		for _, name := range res.Brokers {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(name, "broker:"+name),
			))
		}
		m := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf(
			"👋 *Namaste %s!*\n\nVIP Club Access & AI Mentor.\nSelect your Broker to verify:", from.FirstName))
		m.ParseMode = tgbotapi.ModeMarkdown
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		if _, err := b.api.Send(m); err != nil {
			b.log.Warn().Err(err).Msg("start reply failed")
		}
	}
}

func (b *Bot) cmdCancel(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if err := b.engine.Cancel(ctx, msg.From.ID); err != nil {
		b.log.Warn().Err(err).Msg("cancel failed")
	}
	b.replyPlain(msg.Chat.ID, "Cancelled.")
}

func (b *Bot) cmdHelp(msg *tgbotapi.Message) {
	b.reply(msg.Chat.ID,
		"*VIP Club Access & AI Mentor*\n\n"+
			"/start — verify your broker account and join the VIP group\n"+
			"/ai — ask the AI Mentor (verified users only)\n"+
			"/cancel — abort the current step\n\n"+
			"Once verified, just send me a chart screenshot or a question.")
}

func (b *Bot) cmdAI(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	verified, err := b.store.HasAnyApproved(ctx, msg.From.ID)
	if err != nil {
		b.log.Error().Err(err).Msg("mentor gate check failed")
		return
	}
	if !verified {
		b.reply(msg.Chat.ID, "🔒 Locked. Verify first with /start.")
		return
	}
	b.reply(msg.Chat.ID, "🔓 AI Mentor is unlocked. Send me a chart screenshot or a question.")
}

func (b *Bot) onBrokerChosen(ctx context.Context, q *tgbotapi.CallbackQuery, broker string) {
	if q.From == nil || q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	outcome, err := b.engine.ChooseBroker(ctx, q.From.ID, broker)
	if err != nil {
		b.log.Error().Err(err).Msg("broker choice failed")
		b.replyPlain(chatID, "⚠️ Something went wrong. Please try again later.")
		return
	}

	switch outcome {
	case workflow.ChooseAsk:
		b.reply(chatID, fmt.Sprintf("👉 Enter your *%s Account ID*:", broker))
	case workflow.ChooseAlreadyApproved:
		b.reply(chatID, fmt.Sprintf("✅ You are already verified with *%s*.", broker))
	case workflow.ChooseAlreadyPending:
		b.reply(chatID, fmt.Sprintf("⏳ Your *%s* submission is still under review.", broker))
	case workflow.ChooseUnknownBroker, workflow.ChooseNoSession, workflow.ChooseBanned:
		// Stale keyboard or banned user; nothing to say.
	}
}

// handleMessage routes non-command input: a client id mid-workflow, a
// screenshot (or skip) mid-workflow, or a mentor request.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	if b.engine.InScreenshotState(ctx, userID) {
		b.handleScreenshotStep(ctx, msg)
		return
	}

	if msg.Text != "" {
		res, err := b.engine.SubmitClientID(ctx, userID, msg.Text)
		if err != nil {
			b.log.Error().Err(err).Msg("client id step failed")
			b.replyPlain(msg.Chat.ID, "⚠️ Something went wrong. Please try again later.")
			return
		}
		if res.Outcome != workflow.ClientIDNoSession {
			b.renderClientIDResult(msg, res)
			return
		}
	}

	b.handleMentorship(ctx, msg)
}

func (b *Bot) renderClientIDResult(msg *tgbotapi.Message, res *workflow.ClientIDResult) {
	switch res.Outcome {
	case workflow.ClientIDInvalid:
		broker, _ := models.BrokerByName(res.Broker)
		if broker.Pattern != nil && strings.Contains(broker.Pattern.String(), `\d`) {
			b.reply(msg.Chat.ID, "❌ Numbers only. Try again:")
		} else {
			b.reply(msg.Chat.ID, "❌ Invalid account ID format. Try again:")
		}
	case workflow.ClientIDCooldown:
		wait := int(math.Ceil(res.CooldownRemaining.Seconds()))
		b.reply(msg.Chat.ID, fmt.Sprintf("⏳ Please wait *%d seconds* before submitting again.", wait))
	case workflow.ClientIDNeedScreenshot:
		b.reply(msg.Chat.ID, "📸 Send a screenshot of your account dashboard, or type *skip*.")
	case workflow.ClientIDVerifyFailed:
		b.reply(msg.Chat.ID, "❌ Verification Failed. ID not found under our IB.")
	case workflow.ClientIDApproved:
		link := res.InviteLink
		if link == "" {
			link = "Link coming soon..."
		}
		b.reply(msg.Chat.ID, fmt.Sprintf(
			"🎉 *Verified!*\n✅ Broker: %s\n\n🔗 *VIP Link:*\n%s\n\n"+
				"⚠️ *Note:* Active trading is required. *15 days inactivity = Auto Kick.*\n\n"+
				"🔓 *AI Mentor Unlocked!* Send me charts anytime.", res.Broker, link))
	}
}

func (b *Bot) handleScreenshotStep(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	var fileID string
	switch {
	case len(msg.Photo) > 0:
		fileID = msg.Photo[len(msg.Photo)-1].FileID
	case strings.EqualFold(strings.TrimSpace(msg.Text), "skip"):
		// explicit skip, no screenshot attached
	default:
		b.reply(msg.Chat.ID, "📸 Send a screenshot, or type *skip*.")
		return
	}

	outcome, sub, err := b.engine.SubmitScreenshot(ctx, userID, fileID)
	if err != nil {
		b.log.Error().Err(err).Msg("screenshot step failed")
		b.replyPlain(msg.Chat.ID, "⚠️ Something went wrong. Please try again later.")
		return
	}
	if outcome != workflow.ScreenshotSubmitted {
		return
	}

	b.reply(msg.Chat.ID, "✅ Submitted! An admin will review your request shortly.")
	b.notifyAdmins(msg.From, sub)
}

// notifyAdmins fans the new submission out to every admin with an inline
// approve/reject control. One admin's delivery failure never blocks the rest.
func (b *Bot) notifyAdmins(from *tgbotapi.User, sub *models.Submission) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("approve:%d", sub.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("reject:%d", sub.ID)),
		),
	)
	text := fmt.Sprintf(
		"🆕 *New submission* %s\nFrom: %s %s (@%s)",
		submissionLine(sub.ID, sub.Broker, sub.ClientID, sub.TgUserID),
		from.FirstName, from.LastName, from.UserName)

	for _, adminID := range b.cfg.Telegram.AdminIDs {
		m := tgbotapi.NewMessage(adminID, text)
		m.ParseMode = tgbotapi.ModeMarkdown
		m.ReplyMarkup = keyboard
		if _, err := b.api.Send(m); err != nil {
			b.log.Warn().Err(err).Int64("admin", adminID).Msg("admin notify failed")
			continue
		}
		if sub.ScreenshotFileID != "" {
			photo := tgbotapi.NewPhoto(adminID, tgbotapi.FileID(sub.ScreenshotFileID))
			if _, err := b.api.Send(photo); err != nil {
				b.log.Warn().Err(err).Int64("admin", adminID).Msg("screenshot forward failed")
			}
		}
	}
}

// handleMentorship serves the AI mentor to verified users.
func (b *Bot) handleMentorship(ctx context.Context, msg *tgbotapi.Message) {
	userText := msg.Text
	if userText == "" {
		userText = msg.Caption
	}
	if userText == "" && len(msg.Photo) == 0 {
		return
	}

	verified, err := b.store.HasAnyApproved(ctx, msg.From.ID)
	if err != nil {
		b.log.Error().Err(err).Msg("mentor gate check failed")
		return
	}
	if !verified {
		b.reply(msg.Chat.ID, "🔒 Locked. Verify first.")
		return
	}
	if !b.mentor.Enabled() {
		b.replyPlain(msg.Chat.ID, "⚠️ AI Mentor is not available right now.")
		return
	}

	status, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, "🧠 Analyzing..."))
	if err != nil {
		b.log.Warn().Err(err).Msg("status message failed")
		return
	}
	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		b.log.Debug().Err(err).Msg("chat action failed")
	}

	var image []byte
	if len(msg.Photo) > 0 {
		image, err = b.downloadPhoto(ctx, msg.Photo)
		if err != nil {
			b.log.Warn().Err(err).Msg("photo download failed")
			b.editOrReply(msg.Chat.ID, status.MessageID, "⚠️ Could not read the image. Please try again.")
			return
		}
	}

	answer, err := b.mentor.Analyze(ctx, userText, image)
	if err != nil {
		b.log.Error().Err(err).Msg("mentor request failed")
		b.editOrReply(msg.Chat.ID, status.MessageID, "⚠️ AI error. Please try again later.")
		return
	}
	b.editOrReply(msg.Chat.ID, status.MessageID, answer)
}
