package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"hathordice/internal/games"
)

func (r *Router) cmdBet(ctx context.Context, c Conversation, args []string) error {
	u, err := r.user(ctx, c)
	if err != nil {
		return err
	}

	bet, err := r.dice.Play(ctx, u, args, func(t games.Ticket) {
		_ = r.reply(ctx, c, fmt.Sprintf("All set! If it rolls less than %d (out of 100) you win %s %s. 🥁...",
			t.MinRoll, t.Prize, r.currency))
	})

	var rej *games.Rejection
	switch {
	case errors.As(err, &rej):
		r.metrics.Rejection(r.platform, rejectionReason(rej.Reason))
		return r.reply(ctx, c, r.rejectionText(c, rej))
	case errors.Is(err, games.ErrPayoutFailed) && bet != nil:
		r.metrics.Failure(r.platform, "bet")
		return r.reply(ctx, c, fmt.Sprintf("🥳 Rolled 🎲 %d. 🎉 You won! 🎉 The prize transfer failed, it will be handled manually (bet %s).", bet.Roll, bet.ID))
	case err != nil:
		return err
	}

	paid := decimal.Zero
	if bet.Won {
		paid = bet.Prize
	}
	r.metrics.Bet(r.platform, bet.Odds.Label(), bet.Outcome(), bet.Amount, paid)

	if bet.Won {
		return r.reply(ctx, c, fmt.Sprintf("🥳 Rolled 🎲 %d. 🎉 You won! 🎉 Your new balance is %s %s", bet.Roll, bet.Balance.StringFixed(2), r.currency))
	}
	return r.reply(ctx, c, fmt.Sprintf("😔 Rolled 🎲 %d. You lost! Better luck next time. Your new balance is %s %s", bet.Roll, bet.Balance.StringFixed(2), r.currency))
}

func (r *Router) rejectionText(c Conversation, rej *games.Rejection) string {
	switch {
	case errors.Is(rej, games.ErrBadArgs):
		return "You need to specify a multiplier and a betting amount."
	case errors.Is(rej, games.ErrUnknownMultiplier):
		return fmt.Sprintf("That multiplier isn't valid. Say %s to see the accepted ones.", c.FormatCmd("odds"))
	case errors.Is(rej, games.ErrBadAmount):
		return fmt.Sprintf("Amount must be a number with at most 2 decimal places, just like you would on a %s transaction.", r.currency)
	case errors.Is(rej, games.ErrBelowMin):
		return fmt.Sprintf("The minimum allowed bet for %s is %s %s.", rej.Odds.Label(), rej.Odds.MinBet(), r.currency)
	case errors.Is(rej, games.ErrAboveMax):
		return fmt.Sprintf("The maximum allowed bet for %s is %s %s.", rej.Odds.Label(), rej.Odds.MaxBet(), r.currency)
	case errors.Is(rej, games.ErrInsufficientFunds):
		return fmt.Sprintf("Your balance is %s %s, not enough for the desired bet.", rej.Balance.StringFixed(2), r.currency)
	case errors.Is(rej, games.ErrHouseCannotCover):
		return "😥 Sorry I can't cover that bet. Maybe try a smaller amount or ask the maintainers to give me more budget."
	}
	return failureReply
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, games.ErrBadArgs):
		return "bad_args"
	case errors.Is(err, games.ErrUnknownMultiplier):
		return "unknown_multiplier"
	case errors.Is(err, games.ErrBadAmount):
		return "bad_amount"
	case errors.Is(err, games.ErrBelowMin):
		return "below_min"
	case errors.Is(err, games.ErrAboveMax):
		return "above_max"
	case errors.Is(err, games.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, games.ErrHouseCannotCover):
		return "house_cannot_cover"
	}
	return "other"
}
