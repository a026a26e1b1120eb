package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

func (r *Router) cmdStart(ctx context.Context, c Conversation) error {
	return r.reply(ctx, c, fmt.Sprintf("Say %s to start", c.FormatCmd("help")))
}

func (r *Router) cmdHelp(ctx context.Context, c Conversation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, this is %s, I understand the following commands:\n", r.name)
	fmt.Fprintf(&b, "%s: show this help\n", c.FormatCmd("help"))
	fmt.Fprintf(&b, "%s: list of valid reward multipliers, odds, and bet limits for each multiplier\n", c.FormatCmd("odds"))
	fmt.Fprintf(&b, "%s: [DM only] respond with your deposit address\n", c.FormatCmd("deposit"))
	fmt.Fprintf(&b, "%s: [DM only] move your funds to the given address\n", c.FormatCmd("withdraw [amount] [address]"))
	fmt.Fprintf(&b, "%s: [DM only] show your balance\n", c.FormatCmd("balance"))
	fmt.Fprintf(&b, "%s: [public channel only] roll the dice", c.FormatCmd("bet [multiplier] [amount]"))
	return r.reply(ctx, c, b.String())
}

func (r *Router) cmdOdds(ctx context.Context, c Conversation) error {
	lines := []string{fmt.Sprintf("These are the accepted multipliers for %s:", c.FormatCmd("bet"))}
	for _, o := range r.dice.Table().All() {
		lines = append(lines, fmt.Sprintf("*%s*: %s%% of winning, min bet: %s %s, max bet: %s %s. You win when the rolled dice is less than %d",
			o.Label(), o.PercentProb(), o.MinBet(), r.currency, o.MaxBet(), r.currency, o.MinRoll()))
	}
	return r.reply(ctx, c, strings.Join(lines, "\n"))
}

// commandWord is what cmdNotFound is willing to repeat back.
var commandWord = regexp.MustCompile(`^[a-z0-9_]{0,32}$`)

func (r *Router) cmdNotFound(ctx context.Context, c Conversation, command string) error {
	if !commandWord.MatchString(command) {
		return r.reply(ctx, c, fmt.Sprintf("I don't understand that. Say %s if you need any.", c.FormatCmd("help")))
	}
	return r.reply(ctx, c, fmt.Sprintf("I don't understand %s. Say %s if you need any.", c.FormatCmd(command), c.FormatCmd("help")))
}
