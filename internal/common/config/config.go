package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config is built once at startup and passed by reference. Nothing re-reads
// the environment after Load.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port int `env:"PORT" envDefault:"10000"`
	}

	Database struct {
		Path string `env:"DB_PATH" envDefault:"vip_bot.db"`
	}

	Redis struct {
		// Addr empty means sessions live in process memory.
		Addr     string `env:"REDIS_ADDR" envDefault:""`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken     string  `env:"BOT_TOKEN,required"`
		VIPChannelID int64   `env:"VIP_CHANNEL_ID" envDefault:"0"`
		AdminIDs     []int64 `env:"ADMIN_IDS" envSeparator:","`
	}

	Brokers struct {
		XMToken       string `env:"XM_TOKEN" envDefault:""`
		VantageUserID int    `env:"VANTAGE_USER_ID" envDefault:"0"`
		VantageSecret string `env:"VANTAGE_SECRET" envDefault:""`
	}

	AI struct {
		OpenAIKey string `env:"OPENAI_API_KEY" envDefault:""`
		Model     string `env:"AI_MODEL" envDefault:"gpt-4o-mini"`
	}

	Workflow struct {
		RequireAdminApproval      bool   `env:"REQUIRE_ADMIN_APPROVAL" envDefault:"true"`
		OneTimeGlobalVerification bool   `env:"ONE_TIME_GLOBAL_VERIFICATION" envDefault:"false"`
		InviteLinkMode            string `env:"INVITE_LINK_MODE" envDefault:"static"` // static | single_use
		CooldownSeconds           int    `env:"SUBMIT_COOLDOWN_SECONDS" envDefault:"120"`
		InactivityKickDays        int    `env:"INACTIVITY_KICK_DAYS" envDefault:"15"`
		BroadcastDelayMs          int    `env:"BROADCAST_DELAY_MS" envDefault:"50"`
	}
}

func Load() (*Config, error) {
	// .env is optional; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsAdmin reports whether id is on the configured admin allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Telegram.AdminIDs {
		if a == id {
			return true
		}
	}
	return false
}
