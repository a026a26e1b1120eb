package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"hathordice/internal/api"
	"hathordice/internal/commands"
	"hathordice/internal/database"
	"hathordice/internal/games"
	"hathordice/internal/logger"
	"hathordice/internal/metrics"
	"hathordice/internal/odds"
	"hathordice/internal/platform/discord"
	"hathordice/internal/platform/telegram"
	"hathordice/internal/users"
	"hathordice/internal/wallet"
	"hathordice/internal/webhook"
	"hathordice/pkg/config"
)

type frontend interface {
	Start(ctx context.Context) error
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	zl, err := logger.New("hathordice", cfg.LogEnv)
	if err != nil {
		log.Fatal("Cannot build logger: ", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	table := odds.Default()
	if cfg.OddsFile != "" {
		table, err = odds.LoadFile(cfg.OddsFile)
		if err != nil {
			zl.Fatal("invalid odds catalog", zap.String("file", cfg.OddsFile), zap.Error(err))
		}
	}

	wallets, memory, closeWallets, err := openWallets(cfg, zl)
	if err != nil {
		zl.Fatal("cannot open wallet backend", zap.String("backend", cfg.WalletBackend), zap.Error(err))
	}
	defer closeWallets()

	rec := metrics.New()
	hook := webhook.NewSender(cfg.BetWebhookURL, zl.Named("webhook"))
	if hook != nil {
		if err := hook.TestWebhook(ctx); err != nil {
			zl.Warn("bet webhook not reachable", zap.Error(err))
		}
	}

	var (
		pools     []*wallet.Pool
		frontends []frontend
	)
	for _, platform := range cfg.Platforms {
		plog := zl.Named(platform)

		bets, err := startPool(ctx, wallets, memory, platform+"-bets", cfg.Ledger.SeedBets, plog)
		if err != nil {
			zl.Fatal("cannot start bets pool", zap.String("platform", platform), zap.Error(err))
		}
		bonus, err := startPool(ctx, wallets, memory, platform+"-bonus", cfg.Ledger.SeedBonus, plog)
		if err != nil {
			zl.Fatal("cannot start bonus pool", zap.String("platform", platform), zap.Error(err))
		}
		pools = append(pools, bets, bonus)

		registry := users.NewRegistry(platform, wallets, bonus, cfg.InitialBonus, plog.Named("users"))
		dice := games.NewDice(table, bets, games.DiceOptions{
			Delay:     cfg.BetDelay,
			Log:       plog.Named("dice"),
			OnSettled: onSettled(platform, bets, rec, hook),
		})

		var fe frontend
		switch platform {
		case config.PlatformDiscord:
			router := newRouter(cfg, cfg.Discord.Prefix, platform, registry, dice, rec, plog)
			fe, err = discord.New(cfg.Discord, router, table, plog)
		case config.PlatformTelegram:
			router := newRouter(cfg, cfg.Telegram.Prefix, platform, registry, dice, rec, plog)
			fe, err = telegram.New(cfg.Telegram, router, plog)
		}
		if err != nil {
			zl.Fatal("cannot create front end", zap.String("platform", platform), zap.Error(err))
		}
		if err := fe.Start(ctx); err != nil {
			zl.Fatal("cannot start front end", zap.String("platform", platform), zap.Error(err))
		}
		frontends = append(frontends, fe)
	}

	if cfg.APIAddr != "" {
		srv := api.NewServer(table, pools, rec, cfg.APIKey, zl.Named("api"))
		go func() {
			if err := srv.Start(ctx, cfg.APIAddr); err != nil {
				zl.Error("API server failed", zap.Error(err))
			}
		}()
	} else {
		zl.Info("API is disabled, set API_ADDR to enable it")
	}

	zl.Info("Bot is now running. Press CTRL-C to exit.")
	<-ctx.Done()

	for _, fe := range frontends {
		if err := fe.Close(); err != nil {
			zl.Warn("error closing front end", zap.Error(err))
		}
	}
}

func newRouter(cfg *config.Config, prefix, platform string, registry *users.Registry, dice *games.Dice, rec *metrics.Recorder, log *zap.Logger) *commands.Router {
	return commands.NewRouter(commands.Options{
		BotName:  cfg.BotName,
		Currency: cfg.CurrencySymbol,
		Prefix:   prefix,
		Platform: platform,
		Registry: registry,
		Dice:     dice,
		Metrics:  rec,
		Log:      log.Named("router"),
	})
}

// openWallets builds the configured backend. memory is non-nil only for the
// memory backend, so pools can be seeded.
func openWallets(cfg *config.Config, log *zap.Logger) (wallet.Factory, *wallet.Memory, func(), error) {
	switch cfg.WalletBackend {
	case config.WalletHathor:
		h := wallet.NewHathor(wallet.HathorConfig{
			BaseURL: cfg.Hathor.URL,
			APIKey:  cfg.Hathor.APIKey,
			SeedKey: cfg.Hathor.SeedKey,
			Network: cfg.Hathor.Network,
		}, log.Named("hathor"))
		return h, nil, func() {}, nil

	case config.WalletLedger:
		conn, err := cfg.Database.ConnString()
		if err != nil {
			return nil, nil, nil, err
		}
		db, err := database.Open(cfg.Database.DBType(), conn, log.Named("database"))
		if err != nil {
			return nil, nil, nil, err
		}
		seeds := make(map[string]decimal.Decimal)
		for _, p := range cfg.Platforms {
			seeds[p+"-bets"] = cfg.Ledger.SeedBets
			seeds[p+"-bonus"] = cfg.Ledger.SeedBonus
		}
		return wallet.NewLedger(db, seeds), nil, func() { _ = db.Close() }, nil

	case config.WalletMemory:
		m := wallet.NewMemory()
		return m, m, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown wallet backend %q", cfg.WalletBackend)
}

func startPool(ctx context.Context, wallets wallet.Factory, memory *wallet.Memory, name string, seed decimal.Decimal, log *zap.Logger) (*wallet.Pool, error) {
	w := wallets.Open(name)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	addr, err := w.Address(ctx)
	if err != nil {
		return nil, err
	}
	if memory != nil && seed.IsPositive() {
		memory.Fund(addr, seed)
	}
	balance, err := w.Balance(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("pool ready", zap.String("pool", name), zap.String("address", addr), zap.String("balance", balance.StringFixed(2)))
	return wallet.NewPool(name, w), nil
}

func onSettled(platform string, bets *wallet.Pool, rec *metrics.Recorder, hook *webhook.Sender) func(*users.User, games.Bet) {
	return func(u *users.User, bet games.Bet) {
		hook.SendBetNotification(webhook.Payload{
			BetID:      bet.ID,
			Platform:   platform,
			UserID:     u.ID(),
			Multiplier: bet.Odds.Label(),
			Amount:     bet.Amount.String(),
			Prize:      bet.Prize.String(),
			Roll:       bet.Roll,
			MinRoll:    bet.MinRoll,
			Won:        bet.Won,
			Balance:    bet.Balance.StringFixed(2),
		})
		go func() {
			if b, err := bets.Balance(context.Background()); err == nil {
				rec.Pool(bets.Name(), b)
			}
		}()
	}
}
