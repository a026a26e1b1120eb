// Package discord connects the command router to Discord text messages and
// slash commands.
package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"hathordice/internal/commands"
	"hathordice/internal/odds"
	"hathordice/pkg/config"
)

func formatCmd(cmd string) string {
	return "`/" + cmd + "`"
}

type messageConversation struct {
	session *discordgo.Session
	msg     *discordgo.MessageCreate
	selfID  string
	cfg     *config.DiscordConfig
	log     *zap.Logger
}

func (c *messageConversation) Content() string         { return c.msg.Content }
func (c *messageConversation) IsDirect() bool          { return c.msg.GuildID == "" }
func (c *messageConversation) IsPublicDedicated() bool { return c.cfg.IsChannelAllowed(c.msg.ChannelID) }
func (c *messageConversation) FormatCmd(cmd string) string {
	return formatCmd(cmd)
}

func (c *messageConversation) IsFromSelf() bool {
	return c.msg.Author != nil && c.msg.Author.ID == c.selfID
}

func (c *messageConversation) UID() string {
	if c.msg.Author == nil {
		return ""
	}
	return c.msg.Author.ID
}

func (c *messageConversation) Respond(ctx context.Context, text string) error {
	c.log.Debug("send", zap.String("channel", c.msg.ChannelID), zap.String("text", text))
	_, err := c.session.ChannelMessageSend(c.msg.ChannelID, text, discordgo.WithContext(ctx))
	return err
}

// interactionConversation answers a slash command. The interaction is
// deferred on arrival; the first reply edits the deferred response and the
// following ones are follow-up messages.
type interactionConversation struct {
	session *discordgo.Session
	i       *discordgo.InteractionCreate
	content string
	cfg     *config.DiscordConfig
	log     *zap.Logger

	mu       sync.Mutex
	answered bool
}

func (c *interactionConversation) Content() string         { return c.content }
func (c *interactionConversation) IsDirect() bool          { return c.i.GuildID == "" }
func (c *interactionConversation) IsPublicDedicated() bool { return c.cfg.IsChannelAllowed(c.i.ChannelID) }
func (c *interactionConversation) IsFromSelf() bool        { return false }
func (c *interactionConversation) FormatCmd(cmd string) string {
	return formatCmd(cmd)
}

func (c *interactionConversation) UID() string {
	return interactionUser(c.i.Interaction)
}

func (c *interactionConversation) Respond(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Debug("send", zap.String("channel", c.i.ChannelID), zap.String("text", text))

	if !c.answered {
		if _, err := c.session.InteractionResponseEdit(c.i.Interaction, &discordgo.WebhookEdit{Content: &text}, discordgo.WithContext(ctx)); err != nil {
			return err
		}
		c.answered = true
		return nil
	}
	_, err := c.session.FollowupMessageCreate(c.i.Interaction, true, &discordgo.WebhookParams{Content: text}, discordgo.WithContext(ctx))
	return err
}

func interactionUser(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// commandLine rebuilds the text form of a slash command, e.g. "/bet 2x 10",
// so both entry points go through the same router.
func commandLine(prefix string, data discordgo.ApplicationCommandInteractionData) string {
	parts := []string{prefix + data.Name}
	for _, opt := range data.Options {
		parts = append(parts, fmt.Sprint(opt.Value))
	}
	return strings.Join(parts, " ")
}

// Bot is the Discord front end.
type Bot struct {
	session *discordgo.Session
	router  *commands.Router
	cfg     config.DiscordConfig
	table   *odds.Table
	log     *zap.Logger

	ctx        context.Context
	registered []*discordgo.ApplicationCommand
}

func New(cfg config.DiscordConfig, router *commands.Router, table *odds.Table, log *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	return &Bot{session: dg, router: router, cfg: cfg, table: table, log: log}, nil
}

// Start opens the gateway and registers the slash commands. Handlers run on
// discordgo's own goroutine per event and stop routing once ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx
	b.session.AddHandler(b.messageCreate)
	b.session.AddHandler(b.interactionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	b.log.Info("logged in", zap.String("user", b.session.State.User.String()))

	b.log.Info("registering slash commands")
	cmds, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.cfg.GuildID, SlashCommands(b.table), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.registered = cmds
	return nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.ctx.Err() != nil {
		return
	}
	c := &messageConversation{session: s, msg: m, selfID: s.State.User.ID, cfg: &b.cfg, log: b.log}
	// early ignore of our own messages
	if c.IsFromSelf() {
		return
	}
	b.log.Debug("recv", zap.String("channel", m.ChannelID), zap.String("text", m.Content))
	b.router.Handle(b.ctx, c)
}

func (b *Bot) interactionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand || b.ctx.Err() != nil {
		return
	}

	if i.GuildID != "" && !b.cfg.IsChannelAllowed(i.ChannelID) {
		err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "❌ This bot can only be used in designated channels.",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			b.log.Warn("cannot answer interaction", zap.Error(err))
		}
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.log.Warn("cannot defer interaction", zap.Error(err))
		return
	}

	c := &interactionConversation{
		session: s,
		i:       i,
		content: commandLine(b.cfg.Prefix, i.ApplicationCommandData()),
		cfg:     &b.cfg,
		log:     b.log,
	}
	b.log.Debug("recv", zap.String("channel", i.ChannelID), zap.String("text", c.content))
	b.router.Handle(b.ctx, c)
}
