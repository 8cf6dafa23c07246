package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"vip-access-bot/internal/ai"
	"vip-access-bot/internal/approval"
	"vip-access-bot/internal/bot"
	"vip-access-bot/internal/common/config"
	"vip-access-bot/internal/common/logger"
	"vip-access-bot/internal/models"
	"vip-access-bot/internal/platform/sqlite"
	"vip-access-bot/internal/report"
	"vip-access-bot/internal/session"
	"vip-access-bot/internal/storage"
	"vip-access-bot/internal/sweep"
	"vip-access-bot/internal/verifier"
	"vip-access-bot/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger.Init("vip-access-bot", cfg.Debug)
	log.Info().Bool("debug", cfg.Debug).Msg("starting vip-access-bot")

	// Database
	dbClient, err := sqlite.NewClient(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer dbClient.Close()

	store := storage.NewStore(dbClient.DB())

	brokerNames := make([]string, 0, len(models.Brokers()))
	for _, b := range models.Brokers() {
		brokerNames = append(brokerNames, b.Name)
	}
	if err := store.SeedVIPLinks(context.Background(), brokerNames); err != nil {
		log.Fatal().Err(err).Msg("failed to seed vip links")
	}

	// Sessions: redis when configured, in-process otherwise.
	var sessions session.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		sessions = session.NewRedisStore(rdb)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis sessions enabled")
	} else {
		sessions = session.NewMemoryStore()
	}

	// Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram bot")
	}
	api.Debug = cfg.Debug
	log.Info().Str("username", api.Self.UserName).Msg("telegram bot authorized")

	// Services
	verify := verifier.NewClient(verifier.Credentials{
		XMToken:       cfg.Brokers.XMToken,
		VantageUserID: cfg.Brokers.VantageUserID,
		VantageSecret: cfg.Brokers.VantageSecret,
	}, log.Logger)

	mentor := ai.NewMentor(cfg.AI.OpenAIKey, cfg.AI.Model)
	exporter := report.NewExporter(store)

	// The bot doubles as the Telegram-side implementation of the invite
	// minter, kicker, and broadcast sender.
	var tgBot *bot.Bot

	minter := approval.InviteMinter(minterFunc(func(ctx context.Context, broker string) (string, error) {
		return tgBot.MintInviteLink(ctx, broker)
	}))
	approvals := approval.NewService(store, minter, cfg, approval.LinkMode(cfg.Workflow.InviteLinkMode), log.Logger)

	engine := workflow.NewEngine(store, sessions, verify, approvals, workflow.Options{
		RequireAdminApproval:      cfg.Workflow.RequireAdminApproval,
		OneTimeGlobalVerification: cfg.Workflow.OneTimeGlobalVerification,
		Cooldown:                  time.Duration(cfg.Workflow.CooldownSeconds) * time.Second,
	}, log.Logger)

	kicker := kickerFuncs{
		kick:   func(ctx context.Context, id int64) error { return tgBot.KickFromChannel(ctx, id) },
		notify: func(id int64, days int) { tgBot.NotifyKicked(id, days) },
	}
	sweeper := sweep.NewService(store, verify, kicker, cfg.Workflow.InactivityKickDays, log.Logger)

	broadcaster := report.NewBroadcaster(store, senderFunc(func(chatID int64, text string) error {
		return tgBot.SendText(chatID, text)
	}), time.Duration(cfg.Workflow.BroadcastDelayMs)*time.Millisecond, log.Logger)

	tgBot = bot.New(api, bot.Deps{
		Config:      cfg,
		Store:       store,
		Engine:      engine,
		Approvals:   approvals,
		Sweeper:     sweeper,
		Exporter:    exporter,
		Broadcaster: broadcaster,
		Mentor:      mentor,
	}, log.Logger)

	// Keep-alive HTTP server for platform liveness probing.
	go startHealthServer(cfg, dbClient)

	sweeper.Start()
	defer sweeper.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tgBot.Run(ctx)
	log.Info().Msg("bot stopped")
}

func startHealthServer(cfg *config.Config, dbClient *sqlite.Client) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Bot is alive!")
	})
	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbClient.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "error": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now().UTC()})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("health server listening")
	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("health server stopped")
	}
}

// Small adapters so the bot can be constructed after the services that
// call back into it.

type minterFunc func(ctx context.Context, broker string) (string, error)

func (f minterFunc) MintInviteLink(ctx context.Context, broker string) (string, error) {
	return f(ctx, broker)
}

type senderFunc func(chatID int64, text string) error

func (f senderFunc) SendText(chatID int64, text string) error { return f(chatID, text) }

type kickerFuncs struct {
	kick   func(ctx context.Context, id int64) error
	notify func(id int64, days int)
}

func (k kickerFuncs) KickFromChannel(ctx context.Context, id int64) error { return k.kick(ctx, id) }
func (k kickerFuncs) NotifyKicked(id int64, days int)                     { k.notify(id, days) }
