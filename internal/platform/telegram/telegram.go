// Package telegram connects the command router to Telegram over long polling.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hathordice/internal/commands"
	"hathordice/pkg/config"
)

var botCommands = []tgbotapi.BotCommand{
	{Command: "help", Description: "Show all commands"},
	{Command: "odds", Description: "Accepted multipliers, odds and bet limits"},
	{Command: "deposit", Description: "[DM only] Show your deposit address"},
	{Command: "balance", Description: "[DM only] Show your balance"},
	{Command: "withdraw", Description: "[DM only] withdraw <amount> <address>"},
	{Command: "bet", Description: "[public only] bet <multiplier> <amount>"},
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type conversation struct {
	api     sender
	limiter *rate.Limiter
	msg     *tgbotapi.Message
	self    tgbotapi.User
	cfg     *config.TelegramConfig
	log     *zap.Logger
}

func (c *conversation) Content() string {
	return normalizeCommand(c.msg.Text, c.self.UserName)
}

func (c *conversation) IsDirect() bool          { return c.msg.Chat != nil && c.msg.Chat.IsPrivate() }
func (c *conversation) IsPublicDedicated() bool { return c.msg.Chat != nil && c.cfg.IsChatAllowed(c.msg.Chat.ID) }

func (c *conversation) IsFromSelf() bool {
	return c.msg.From != nil && c.msg.From.ID == c.self.ID
}

func (c *conversation) UID() string {
	if c.msg.From == nil {
		return ""
	}
	return strconv.FormatInt(c.msg.From.ID, 10)
}

func (c *conversation) FormatCmd(cmd string) string {
	return "*/" + cmd + "*"
}

func (c *conversation) Respond(ctx context.Context, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	c.log.Debug("send", zap.Int64("chat", c.msg.Chat.ID), zap.String("text", text))
	msg := tgbotapi.NewMessage(c.msg.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := c.api.Send(msg)
	return err
}

// normalizeCommand strips the "@BotName" suffix Telegram adds to commands in
// groups. Commands addressed to another bot become empty.
func normalizeCommand(text, botName string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	first, rest, _ := strings.Cut(text, " ")
	cmd, target, addressed := strings.Cut(first, "@")
	if !addressed {
		return text
	}
	if !strings.EqualFold(target, botName) {
		return ""
	}
	if rest == "" {
		return cmd
	}
	return cmd + " " + rest
}

// Bot is the Telegram front end.
type Bot struct {
	api     *tgbotapi.BotAPI
	router  *commands.Router
	cfg     config.TelegramConfig
	limiter *rate.Limiter
	log     *zap.Logger
	done    chan struct{}
}

func New(cfg config.TelegramConfig, router *commands.Router, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	log.Info("logged in", zap.String("username", api.Self.UserName))

	return &Bot{
		api:     api,
		router:  router,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		log:     log,
		done:    make(chan struct{}),
	}, nil
}

// Start publishes the command list and polls for updates until ctx is done or
// Close is called. Every message is handled on its own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		b.log.Warn("cannot publish command list", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					go b.handleMessage(ctx, update.Message)
				}
			case <-ctx.Done():
				return
			case <-b.done:
				return
			}
		}
	}()
	return nil
}

func (b *Bot) Close() error {
	b.api.StopReceivingUpdates()
	close(b.done)
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	c := &conversation{api: b.api, limiter: b.limiter, msg: msg, self: b.api.Self, cfg: &b.cfg, log: b.log}
	b.log.Debug("recv", zap.Int64("chat", msg.Chat.ID), zap.String("text", msg.Text))
	b.router.Handle(ctx, c)
}
