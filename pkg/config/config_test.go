package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "d")
	t.Setenv("TELEGRAM_ACCESS_TOKEN", "t")
	t.Setenv("HATHOR_SEED_KEY", "default")

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.BotName != "HathorDice Bot" || cfg.CurrencySymbol != "HTR" {
		t.Errorf("unexpected names %q %q", cfg.BotName, cfg.CurrencySymbol)
	}
	if !cfg.InitialBonus.Equal(decimal.RequireFromString("5")) {
		t.Errorf("initial bonus = %s", cfg.InitialBonus)
	}
	if cfg.BetDelay != 3*time.Second {
		t.Errorf("bet delay = %s", cfg.BetDelay)
	}
	if !cfg.PlatformEnabled(PlatformDiscord) || !cfg.PlatformEnabled(PlatformTelegram) {
		t.Errorf("platforms = %v", cfg.Platforms)
	}
	if cfg.Discord.Prefix != "/" || cfg.Telegram.Prefix != "/" {
		t.Errorf("prefixes %q %q", cfg.Discord.Prefix, cfg.Telegram.Prefix)
	}
}

func TestParseEnvLists(t *testing.T) {
	t.Setenv("PLATFORMS", "telegram")
	t.Setenv("TELEGRAM_ACCESS_TOKEN", "t")
	t.Setenv("TELEGRAM_CHAT_IDS", "-1001,42")
	t.Setenv("DISCORD_PUBLIC_CHANNEL_IDS", "123,456")
	t.Setenv("WALLET_BACKEND", "ledger")
	t.Setenv("LEDGER_SEED_BETS", "1000.50")

	cfg := &Config{}
	if err := ParseEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !cfg.Telegram.IsChatAllowed(-1001) || cfg.Telegram.IsChatAllowed(7) {
		t.Errorf("chat ids = %v", cfg.Telegram.ChatIDs)
	}
	if !cfg.Discord.IsChannelAllowed("456") || cfg.Discord.IsChannelAllowed("") {
		t.Errorf("channel ids = %v", cfg.Discord.PublicChannelIDs)
	}
	if cfg.PlatformEnabled(PlatformDiscord) {
		t.Error("discord should be disabled")
	}
	if !cfg.Ledger.SeedBets.Equal(decimal.RequireFromString("1000.5")) {
		t.Errorf("seed bets = %s", cfg.Ledger.SeedBets)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing discord token", map[string]string{"PLATFORMS": "discord", "WALLET_BACKEND": "memory"}, "DISCORD_TOKEN"},
		{"missing telegram token", map[string]string{"PLATFORMS": "telegram", "WALLET_BACKEND": "memory"}, "TELEGRAM_ACCESS_TOKEN"},
		{"unknown platform", map[string]string{"PLATFORMS": "twitter", "WALLET_BACKEND": "memory"}, "unknown platform"},
		{"missing seed", map[string]string{"PLATFORMS": "discord", "DISCORD_TOKEN": "d"}, "HATHOR_SEED_KEY"},
		{"unknown backend", map[string]string{"PLATFORMS": "discord", "DISCORD_TOKEN": "d", "WALLET_BACKEND": "paper"}, "WALLET_BACKEND"},
		{"bonus precision", map[string]string{"PLATFORMS": "discord", "DISCORD_TOKEN": "d", "WALLET_BACKEND": "memory", "INITIAL_BONUS": "0.125"}, "INITIAL_BONUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := &Config{}
			if err := ParseEnv(cfg); err != nil {
				t.Fatal(err)
			}
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestConnString(t *testing.T) {
	sqlite := DatabaseConfig{Type: "", SQLitePath: "./x.db"}
	if conn, err := sqlite.ConnString(); err != nil || conn != "./x.db" || sqlite.DBType() != "sqlite" {
		t.Fatalf("sqlite: %q %v", conn, err)
	}

	pg := DatabaseConfig{Type: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "dice", SSLMode: "disable"}
	conn, err := pg.ConnString()
	if err != nil {
		t.Fatal(err)
	}
	if conn != "host=db port=5432 user=u password=p dbname=dice sslmode=disable" {
		t.Fatalf("postgres: %q", conn)
	}

	pg.URL = "postgres://u:p@db/dice"
	if conn, _ := pg.ConnString(); conn != pg.URL {
		t.Fatalf("DATABASE_URL should win, got %q", conn)
	}

	if _, err := (&DatabaseConfig{Type: "postgres"}).ConnString(); err == nil {
		t.Fatal("expected an error without DB_HOST")
	}
}
