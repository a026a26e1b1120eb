package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	// Platform names also scope wallet names. Changing one makes existing
	// wallets unreachable.
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"

	WalletHathor = "hathor"
	WalletLedger = "ledger"
	WalletMemory = "memory"
)

type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN"`
	// Prefix for text commands; slash commands need none.
	Prefix           string   `env:"DISCORD_PREFIX" envDefault:"/"`
	PublicChannelIDs []string `env:"DISCORD_PUBLIC_CHANNEL_IDS" envSeparator:","`
	// GuildID limits slash command registration to one guild, handy in development.
	GuildID string `env:"DISCORD_GUILD_ID"`
}

type TelegramConfig struct {
	Token   string  `env:"TELEGRAM_ACCESS_TOKEN"`
	Prefix  string  `env:"TELEGRAM_PREFIX" envDefault:"/"`
	ChatIDs []int64 `env:"TELEGRAM_CHAT_IDS" envSeparator:","`
	// SendRate is the number of messages per second the bot sends.
	SendRate float64 `env:"TELEGRAM_SEND_RATE" envDefault:"20"`
}

type HathorConfig struct {
	URL     string `env:"HATHOR_HEADLESS_URL" envDefault:"http://localhost:8000"`
	APIKey  string `env:"HATHOR_API_KEY"`
	SeedKey string `env:"HATHOR_SEED_KEY"`
	Network string `env:"HATHOR_NETWORK" envDefault:"mainnet"`
}

type DatabaseConfig struct {
	Type       string `env:"DB_TYPE" envDefault:"sqlite"` // "sqlite" or "postgres"
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./hathordice.db"`
	URL        string `env:"DATABASE_URL"`
	Host       string `env:"DB_HOST"`
	Port       int    `env:"DB_PORT" envDefault:"5432"`
	User       string `env:"DB_USER"`
	Password   string `env:"DB_PASSWORD"`
	Name       string `env:"DB_NAME" envDefault:"postgres"`
	SSLMode    string `env:"DB_SSLMODE" envDefault:"require"`
}

type LedgerConfig struct {
	SeedBets  decimal.Decimal `env:"LEDGER_SEED_BETS" envDefault:"0"`
	SeedBonus decimal.Decimal `env:"LEDGER_SEED_BONUS" envDefault:"0"`
}

type Config struct {
	BotName        string   `env:"BOT_NAME" envDefault:"HathorDice Bot"`
	CurrencySymbol string   `env:"CURRENCY_SYMBOL" envDefault:"HTR"`
	Platforms      []string `env:"PLATFORMS" envSeparator:"," envDefault:"discord,telegram"`
	LogEnv         string   `env:"LOG_ENV" envDefault:"prod"`

	InitialBonus decimal.Decimal `env:"INITIAL_BONUS" envDefault:"5.00"`
	BetDelay     time.Duration   `env:"BET_DELAY" envDefault:"3s"`
	OddsFile     string          `env:"ODDS_FILE"`

	WalletBackend string `env:"WALLET_BACKEND" envDefault:"hathor"`

	APIAddr       string `env:"API_ADDR"`
	APIKey        string `env:"API_KEY"`
	BetWebhookURL string `env:"BET_WEBHOOK_URL"`

	Discord  DiscordConfig
	Telegram TelegramConfig
	Hathor   HathorConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads .env when present, then the environment, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the credentials required by the enabled platforms and backend.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Platforms) == 0 {
		errs = append(errs, errors.New("PLATFORMS is empty"))
	}
	for _, p := range c.Platforms {
		switch p {
		case PlatformDiscord:
			if c.Discord.Token == "" {
				errs = append(errs, errors.New("DISCORD_TOKEN is required for the discord platform"))
			}
		case PlatformTelegram:
			if c.Telegram.Token == "" {
				errs = append(errs, errors.New("TELEGRAM_ACCESS_TOKEN is required for the telegram platform"))
			}
			if c.Telegram.SendRate <= 0 {
				errs = append(errs, errors.New("TELEGRAM_SEND_RATE must be positive"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown platform %q", p))
		}
	}

	switch c.WalletBackend {
	case WalletHathor:
		if c.Hathor.SeedKey == "" {
			errs = append(errs, errors.New("HATHOR_SEED_KEY is required for the hathor wallet backend"))
		}
	case WalletLedger, WalletMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown WALLET_BACKEND %q", c.WalletBackend))
	}

	if c.InitialBonus.IsNegative() || !c.InitialBonus.Equal(c.InitialBonus.Truncate(2)) {
		errs = append(errs, fmt.Errorf("INITIAL_BONUS %s must be a non-negative amount with 2 decimals at most", c.InitialBonus))
	}
	if c.BetDelay < 0 {
		errs = append(errs, errors.New("BET_DELAY must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) PlatformEnabled(name string) bool {
	return slices.Contains(c.Platforms, name)
}

// DBType normalizes DB_TYPE; anything but postgres is sqlite.
func (d *DatabaseConfig) DBType() string {
	if strings.EqualFold(d.Type, "postgres") {
		return "postgres"
	}
	return "sqlite"
}

// ConnString is the driver connection string for DBType.
func (d *DatabaseConfig) ConnString() (string, error) {
	if d.DBType() == "sqlite" {
		return d.SQLitePath, nil
	}

	// a full DATABASE_URL wins, e.g. a Supabase pooler URL
	if d.URL != "" {
		return d.URL, nil
	}

	if d.Host == "" {
		return "", errors.New("DB_HOST is required for PostgreSQL, or use DATABASE_URL")
	}
	if d.User == "" {
		return "", errors.New("DB_USER is required for PostgreSQL")
	}
	if d.Password == "" {
		return "", errors.New("DB_PASSWORD is required for PostgreSQL")
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode), nil
}

// IsChannelAllowed reports whether a Discord channel is allow-listed for public play.
func (d *DiscordConfig) IsChannelAllowed(channelID string) bool {
	return slices.Contains(d.PublicChannelIDs, channelID)
}

// IsChatAllowed reports whether a Telegram group chat is allow-listed for public play.
func (t *TelegramConfig) IsChatAllowed(chatID int64) bool {
	return slices.Contains(t.ChatIDs, chatID)
}
