package commands

import (
	"context"
	"errors"
	"fmt"

	"hathordice/internal/wallet"

	"go.uber.org/zap"
)

const cannotWithdrawYet = "You cannot withdraw yet, please make at least one bet."

func (r *Router) cmdDeposit(ctx context.Context, c Conversation) error {
	u, err := r.user(ctx, c)
	if err != nil {
		return err
	}
	addr, err := u.Wallet().Address(ctx)
	if err != nil {
		return fmt.Errorf("deposit address: %w", err)
	}
	return r.reply(ctx, c, fmt.Sprintf("Send %s to this address to top up your balance:\n%s", r.currency, addr))
}

func (r *Router) cmdBalance(ctx context.Context, c Conversation) error {
	_ = r.reply(ctx, c, "I'll check it out, give me a sec.")
	u, err := r.user(ctx, c)
	if err != nil {
		return err
	}
	balance, err := u.Wallet().Balance(ctx)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	msg := fmt.Sprintf("Your balance is %s %s. ", balance.StringFixed(2), r.currency)
	if u.CanWithdraw() {
		msg += "You can withdraw anytime."
	} else {
		msg += cannotWithdrawYet
	}
	return r.reply(ctx, c, msg)
}

var errWithdrawRefused = errors.New("withdraw refused")

// cmdWithdraw handles "withdraw <amount> <address>". The user lock is held
// from the balance check to the transfer so a concurrent bet cannot spend
// the same funds.
func (r *Router) cmdWithdraw(ctx context.Context, c Conversation, args []string) error {
	u, err := r.user(ctx, c)
	if err != nil {
		return err
	}
	if !u.CanWithdraw() {
		return r.reply(ctx, c, cannotWithdrawYet)
	}
	if len(args) != 2 {
		return r.reply(ctx, c, fmt.Sprintf("Usage: %s", c.FormatCmd("withdraw [amount] [address]")))
	}

	amount, err := wallet.ParseAmount(args[0])
	if err != nil {
		return r.reply(ctx, c, fmt.Sprintf("Amount must be a number with at most 2 decimal places, just like you would on a %s transaction.", r.currency))
	}
	if !amount.IsPositive() {
		return r.reply(ctx, c, "Amount must be greater than zero.")
	}
	address := args[1]

	u.Lock()
	defer u.Unlock()

	w := u.Wallet()
	balance, err := w.Balance(ctx)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return r.reply(ctx, c, fmt.Sprintf("Your balance is %s %s, not enough to withdraw %s %s.",
			balance.StringFixed(2), r.currency, amount.StringFixed(2), r.currency))
	}

	if err := w.SendTo(context.WithoutCancel(ctx), address, amount); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", errWithdrawRefused, amount, address, err)
	}
	r.log.Info("withdraw sent", zap.String("user", u.ID()), zap.String("address", address), zap.String("amount", amount.String()))

	newBalance := balance.Sub(amount)
	if b, err := w.Balance(ctx); err == nil {
		newBalance = b
	}
	return r.reply(ctx, c, fmt.Sprintf("Sent %s %s. Your new balance is %s %s.",
		amount.StringFixed(2), r.currency, newBalance.StringFixed(2), r.currency))
}
