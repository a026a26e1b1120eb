// Package users keeps one User per chat identity for the lifetime of the process.
package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"hathordice/internal/wallet"
)

// User binds a chat identity to its wallet. The embedded mutex serializes the
// flows that move the user's funds (a wager, a withdrawal).
type User struct {
	sync.Mutex

	id     string
	wallet wallet.Wallet

	flagMu      sync.RWMutex
	canWithdraw bool
}

func (u *User) ID() string            { return u.id }
func (u *User) Wallet() wallet.Wallet { return u.wallet }

func (u *User) CanWithdraw() bool {
	u.flagMu.RLock()
	defer u.flagMu.RUnlock()
	return u.canWithdraw
}

// MarkSettled records a fully settled bet. The flag never goes back to false.
func (u *User) MarkSettled() {
	u.flagMu.Lock()
	u.canWithdraw = true
	u.flagMu.Unlock()
}

// Registry lazily creates users and funds new wallets from the bonus pool.
type Registry struct {
	prefix  string
	wallets wallet.Factory
	bonus   *wallet.Pool
	grant   decimal.Decimal
	log     *zap.Logger

	mu    sync.RWMutex
	users map[string]*User
	group singleflight.Group
}

// NewRegistry builds a registry whose identities are scoped by prefix
// (the platform, e.g. "discord").
func NewRegistry(prefix string, wallets wallet.Factory, bonus *wallet.Pool, grant decimal.Decimal, log *zap.Logger) *Registry {
	return &Registry{
		prefix:  prefix,
		wallets: wallets,
		bonus:   bonus,
		grant:   grant,
		log:     log,
		users:   make(map[string]*User),
	}
}

// GetOrCreate returns the User for uid, creating it on first use. Concurrent
// callers for the same uid share a single creation and observe the same User.
func (r *Registry) GetOrCreate(ctx context.Context, uid string) (*User, error) {
	r.mu.RLock()
	u, ok := r.users[uid]
	r.mu.RUnlock()
	if ok {
		return u, nil
	}

	v, err, _ := r.group.Do(uid, func() (any, error) {
		r.mu.RLock()
		u, ok := r.users[uid]
		r.mu.RUnlock()
		if ok {
			return u, nil
		}

		u, err := r.create(ctx, uid)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.users[uid] = u
		r.mu.Unlock()
		return u, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// Len is the number of users created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) create(ctx context.Context, uid string) (*User, error) {
	id := fmt.Sprintf("%s-%s", r.prefix, uid)
	w := r.wallets.Open(id)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("start wallet %s: %w", id, err)
	}
	u := &User{id: id, wallet: w}
	r.fund(ctx, u)
	r.log.Debug("user created", zap.String("user", id))
	return u, nil
}

// fund grants the initial bonus. Failure never blocks user creation and is
// not retried. Wallets that already moved funds, such as ones created
// before a restart, are not granted again.
func (r *Registry) fund(ctx context.Context, u *User) {
	if r.bonus == nil || !r.grant.IsPositive() {
		return
	}
	if hc, ok := u.wallet.(wallet.HistoryChecker); ok {
		seen, err := hc.HasHistory(ctx)
		if err != nil {
			r.log.Warn("bonus: cannot read wallet history, skipping grant", zap.String("user", u.id), zap.Error(err))
			return
		}
		if seen {
			r.log.Info("bonus: wallet already has history, skipping grant", zap.String("user", u.id))
			return
		}
	}
	addr, err := u.wallet.Address(ctx)
	if err != nil {
		r.log.Error("bonus: cannot get user address", zap.String("user", u.id), zap.Error(err))
		return
	}
	err = r.bonus.Grant(ctx, addr, r.grant)
	switch {
	case errors.Is(err, wallet.ErrPoolExhausted):
		r.log.Warn("bonus: no budget available for initial bonus", zap.String("user", u.id), zap.String("grant", r.grant.String()))
	case err != nil:
		r.log.Error("bonus: failed to send initial bonus", zap.String("user", u.id), zap.String("address", addr), zap.Error(err))
	default:
		r.log.Info("bonus: initial bonus sent", zap.String("user", u.id), zap.String("grant", r.grant.String()))
	}
}
