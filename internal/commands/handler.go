package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hathordice/internal/games"
	"hathordice/internal/metrics"
	"hathordice/internal/users"
)

const failureReply = "😵 Something went wrong on my side, it will be handled manually. Sorry about that."

type Options struct {
	BotName  string
	Currency string
	// Prefix is the command prefix character, "/" on every platform so far.
	Prefix string
	// Platform labels logs and metrics.
	Platform string
	Registry *users.Registry
	Dice     *games.Dice
	Metrics  *metrics.Recorder
	Log      *zap.Logger
}

// Router turns conversations into commands. It keeps no state between
// messages; everything durable lives in users.User.
type Router struct {
	name     string
	currency string
	prefix   string
	platform string
	registry *users.Registry
	dice     *games.Dice
	metrics  *metrics.Recorder
	log      *zap.Logger
}

func NewRouter(opts Options) *Router {
	if opts.BotName == "" {
		opts.BotName = "HathorDice Bot"
	}
	if opts.Currency == "" {
		opts.Currency = "HTR"
	}
	if opts.Prefix == "" {
		opts.Prefix = "/"
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &Router{
		name:     opts.BotName,
		currency: opts.Currency,
		prefix:   opts.Prefix,
		platform: opts.Platform,
		registry: opts.Registry,
		dice:     opts.Dice,
		metrics:  opts.Metrics,
		log:      opts.Log,
	}
}

// Handle routes one message. It returns once the command is handled; adapters
// run it on its own goroutine per message.
func (r *Router) Handle(ctx context.Context, c Conversation) {
	if c.IsFromSelf() || !(c.IsDirect() || c.IsPublicDedicated()) {
		return
	}
	// channel posts and system messages carry no sender
	if c.UID() == "" {
		return
	}

	content := c.Content()
	if rest, ok := strings.CutPrefix(content, r.prefix); ok {
		content = rest
	} else if !c.IsDirect() {
		// public chatter that is not a command
		return
	}

	args := strings.Fields(content)
	if len(args) == 0 {
		r.dispatch(ctx, c, "", func() error { return r.cmdNotFound(ctx, c, "") })
		return
	}
	command := strings.ToLower(args[0])
	args = args[1:]

	switch command {
	case "start":
		r.dispatch(ctx, c, command, func() error { return r.cmdStart(ctx, c) })
	case "help":
		r.dispatch(ctx, c, command, func() error { return r.cmdHelp(ctx, c) })
	case "odds":
		r.dispatch(ctx, c, command, func() error { return r.cmdOdds(ctx, c) })
	case "deposit":
		r.directOnly(ctx, c, command, func() error { return r.cmdDeposit(ctx, c) })
	case "withdraw":
		r.directOnly(ctx, c, command, func() error { return r.cmdWithdraw(ctx, c, args) })
	case "balance":
		r.directOnly(ctx, c, command, func() error { return r.cmdBalance(ctx, c) })
	case "bet":
		if c.IsDirect() {
			r.dispatch(ctx, c, command, func() error {
				return r.reply(ctx, c, fmt.Sprintf("Please do %s on the public channel, can't do that in private.", c.FormatCmd(command)))
			})
			return
		}
		r.dispatch(ctx, c, command, func() error { return r.cmdBet(ctx, c, args) })
	default:
		r.dispatch(ctx, c, "unknown", func() error { return r.cmdNotFound(ctx, c, command) })
	}
}

func (r *Router) directOnly(ctx context.Context, c Conversation, command string, fn func() error) {
	if !c.IsDirect() {
		r.dispatch(ctx, c, command, func() error {
			return r.reply(ctx, c, fmt.Sprintf("Please DM me for %s, can't do that in public.", c.FormatCmd(command)))
		})
		return
	}
	r.dispatch(ctx, c, command, fn)
}

// dispatch runs a handler and turns any error or panic into the generic
// failure reply.
func (r *Router) dispatch(ctx context.Context, c Conversation, command string, fn func() error) {
	r.metrics.Command(r.platform, command)
	log := r.log.With(zap.String("command", command), zap.String("uid", c.UID()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("command panicked", zap.Any("panic", p), zap.Stack("stack"))
			r.fail(ctx, c, command)
		}
	}()

	if err := fn(); err != nil {
		log.Error("command failed", zap.Error(err))
		r.fail(ctx, c, command)
	}
}

func (r *Router) fail(ctx context.Context, c Conversation, command string) {
	r.metrics.Failure(r.platform, command)
	if err := c.Respond(ctx, failureReply); err != nil {
		r.log.Warn("cannot deliver failure reply", zap.String("uid", c.UID()), zap.Error(err))
	}
}

// reply sends text. A platform send failure is logged and does not fail the
// command, which may already have moved funds.
func (r *Router) reply(ctx context.Context, c Conversation, text string) error {
	if err := c.Respond(ctx, text); err != nil {
		r.log.Warn("cannot deliver reply", zap.String("uid", c.UID()), zap.Error(err))
	}
	return nil
}

func (r *Router) user(ctx context.Context, c Conversation) (*users.User, error) {
	u, err := r.registry.GetOrCreate(ctx, c.UID())
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", c.UID(), err)
	}
	r.metrics.UserCount(r.platform, r.registry.Len())
	return u, nil
}
