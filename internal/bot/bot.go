package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vip-access-bot/internal/ai"
	"vip-access-bot/internal/approval"
	"vip-access-bot/internal/common/config"
	"vip-access-bot/internal/report"
	"vip-access-bot/internal/storage"
	"vip-access-bot/internal/sweep"
	"vip-access-bot/internal/workflow"
)

// Bot wires Telegram updates to the workflow, approval, sweep, and
// reporting services. One update is handled at a time.
type Bot struct {
	api         *tgbotapi.BotAPI
	cfg         *config.Config
	store       *storage.Store
	engine      *workflow.Engine
	approvals   *approval.Service
	sweeper     *sweep.Service
	exporter    *report.Exporter
	broadcaster *report.Broadcaster
	mentor      *ai.Mentor
	log         zerolog.Logger
}

type Deps struct {
	Config      *config.Config
	Store       *storage.Store
	Engine      *workflow.Engine
	Approvals   *approval.Service
	Sweeper     *sweep.Service
	Exporter    *report.Exporter
	Broadcaster *report.Broadcaster
	Mentor      *ai.Mentor
}

func New(api *tgbotapi.BotAPI, deps Deps, log zerolog.Logger) *Bot {
	return &Bot{
		api:         api,
		cfg:         deps.Config,
		store:       deps.Store,
		engine:      deps.Engine,
		approvals:   deps.Approvals,
		sweeper:     deps.Sweeper,
		exporter:    deps.Exporter,
		broadcaster: deps.Broadcaster,
		mentor:      deps.Mentor,
		log:         log.With().Str("component", "bot").Logger(),
	}
}

// Run blocks on the long-poll update loop until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Str("username", b.api.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg)
	case "cancel":
		b.cmdCancel(ctx, msg)
	case "help":
		b.cmdHelp(msg)
	case "ai":
		b.cmdAI(ctx, msg)
	case "setgroup":
		b.cmdSetGroup(ctx, msg)
	case "stats":
		b.cmdStats(ctx, msg)
	case "broadcast":
		b.cmdBroadcast(ctx, msg)
	case "export_csv", "export_data":
		b.cmdExport(ctx, msg, "csv")
	case "export_xlsx":
		b.cmdExport(ctx, msg, "xlsx")
	case "ban":
		b.cmdBan(ctx, msg)
	case "unban":
		b.cmdUnban(ctx, msg)
	case "pending":
		b.cmdPending(ctx, msg)
	case "find":
		b.cmdFind(ctx, msg)
	case "brokers":
		b.cmdBrokers(ctx, msg)
	case "kick_inactive":
		b.cmdKickInactive(ctx, msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Always answer so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("callback answer failed")
	}

	data := q.Data
	switch {
	case strings.HasPrefix(data, "broker:"):
		b.onBrokerChosen(ctx, q, strings.TrimPrefix(data, "broker:"))
	case strings.HasPrefix(data, "approve:"):
		b.onDecision(ctx, q, approval.Approve, strings.TrimPrefix(data, "approve:"))
	case strings.HasPrefix(data, "reject:"):
		b.onDecision(ctx, q, approval.Reject, strings.TrimPrefix(data, "reject:"))
	}
}

// registerCommands publishes the user menu globally and the admin menu per
// admin chat.
func (b *Bot) registerCommands() {
	userCmds := []tgbotapi.BotCommand{
		{Command: "start", Description: "Start verification"},
		{Command: "ai", Description: "Use AI Mentor"},
		{Command: "help", Description: "Show help"},
		{Command: "cancel", Description: "Cancel current step"},
	}
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(userCmds...)); err != nil {
		b.log.Warn().Err(err).Msg("cannot set user commands")
	}

	adminCmds := append(userCmds,
		tgbotapi.BotCommand{Command: "setgroup", Description: "Set VIP link: /setgroup <Broker> <Link>"},
		tgbotapi.BotCommand{Command: "pending", Description: "List pending submissions"},
		tgbotapi.BotCommand{Command: "find", Description: "Find submissions: /find <id>"},
		tgbotapi.BotCommand{Command: "brokers", Description: "List brokers and links"},
		tgbotapi.BotCommand{Command: "stats", Description: "Show stats"},
		tgbotapi.BotCommand{Command: "broadcast", Description: "Message all users"},
		tgbotapi.BotCommand{Command: "export_csv", Description: "Download data (CSV)"},
		tgbotapi.BotCommand{Command: "export_xlsx", Description: "Download data (XLSX)"},
		tgbotapi.BotCommand{Command: "ban", Description: "Ban user: /ban <id> [reason]"},
		tgbotapi.BotCommand{Command: "unban", Description: "Unban user: /unban <id>"},
		tgbotapi.BotCommand{Command: "kick_inactive", Description: "Run inactivity check"},
	)
	for _, adminID := range b.cfg.Telegram.AdminIDs {
		scoped := tgbotapi.NewSetMyCommandsWithScope(tgbotapi.NewBotCommandScopeChat(adminID), adminCmds...)
		if _, err := b.api.Request(scoped); err != nil {
			b.log.Warn().Err(err).Int64("admin", adminID).Msg("cannot set admin commands")
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

func (b *Bot) replyPlain(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Warn().Err(err).Int64("chat", chatID).Msg("send failed")
	}
}

// editOrReply edits a progress message in place, falling back to a fresh
// message when the edit is refused (e.g. markdown the API dislikes).
func (b *Bot) editOrReply(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err != nil {
		plain := tgbotapi.NewEditMessageText(chatID, messageID, text)
		if _, err := b.api.Send(plain); err != nil {
			b.replyPlain(chatID, text)
		}
	}
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	return msg.From != nil && b.cfg.IsAdmin(msg.From.ID)
}

func submissionLine(id int64, broker, clientID string, tgUserID int64) string {
	return fmt.Sprintf("#%d • %s • `%s` • user %d", id, broker, clientID, tgUserID)
}
