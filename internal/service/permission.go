package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/core"
	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/observability"
	"github.com/marketpay/fund-custody/internal/ratelimit"
	"github.com/marketpay/fund-custody/internal/repository"
)

const (
	passwordKeyPrefix = "fund:permission:password:"
	passwordErrorTTL  = 48 * time.Hour
)

// TradePermissionGuard validates that an account may participate in a trade:
// state must be NORMAL and, when a password is supplied, it must match the
// stored hash. Wrong attempts are counted per account per calendar day in a
// best-effort external counter; when the counter store is down the guard
// fails open (lockout disabled, trading unaffected).
type TradePermissionGuard struct {
	store    repository.Store
	accounts *FundAccountService
	counter  ratelimit.Counter
}

func NewTradePermissionGuard(store repository.Store, accounts *FundAccountService, counter ratelimit.Counter) *TradePermissionGuard {
	return &TradePermissionGuard{store: store, accounts: accounts, counter: counter}
}

// Check loads the account and verifies state and password. maxAttempts <= 0
// disables attempt counting. Reaching maxAttempts wrong attempts within one
// day freezes the account as a side effect.
func (g *TradePermissionGuard) Check(ctx context.Context, accountID int64, password string, maxAttempts int) (*models.FundAccount, error) {
	if password == "" {
		return nil, domain.ErrIllegalArgument.WithMessage("password missed")
	}
	account, err := g.store.FindFundAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.State != domain.AccountNormal {
		return nil, domain.ErrInvalidAccountState.WithMessage("fund account is " + account.State.Name())
	}

	hashed := core.HashPassword(password, account.SecretKey)
	if hashed != account.Password {
		if maxAttempts > 0 {
			attempts := g.incrAttempts(ctx, dailyKey(accountID))
			if attempts >= int64(maxAttempts) {
				g.freezeLockedAccount(ctx, account)
				observability.IncrementPasswordLockout()
				return nil, domain.ErrInvalidPassword.WithMessage("trade password incorrect, account locked")
			}
			if attempts == int64(maxAttempts)-1 {
				return nil, domain.ErrInvalidPassword.WithMessage("trade password incorrect, one more attempt will lock the account")
			}
		}
		return nil, domain.ErrInvalidPassword
	}

	if maxAttempts > 0 {
		g.clearAttempts(ctx, dailyKey(accountID))
	}
	return account, nil
}

// CheckState is the password-less variant used by flows where the account
// holder is not the actor, such as cancellation.
func (g *TradePermissionGuard) CheckState(ctx context.Context, accountID int64) (*models.FundAccount, error) {
	account, err := g.store.FindFundAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.State != domain.AccountNormal {
		return nil, domain.ErrInvalidAccountState.WithMessage("fund account is " + account.State.Name())
	}
	return account, nil
}

// CheckTradeEligibility applies the trade state machine to the account and,
// for sub-accounts, to the master it settles against.
func (g *TradePermissionGuard) CheckTradeEligibility(ctx context.Context, tx repository.Tx, account *models.FundAccount) error {
	if err := core.AccountTradeStateCheck(account); err != nil {
		return err
	}
	if account.ParentID != 0 {
		parent, err := tx.FindFundAccountByID(ctx, account.ParentID)
		if err != nil {
			return err
		}
		if err := core.AccountTradeStateCheck(parent); err != nil {
			return err
		}
	}
	return nil
}

// incrAttempts bumps the day's wrong-password count. Returns -1 when the
// counter store is unavailable so the caller treats attempts as unlimited.
func (g *TradePermissionGuard) incrAttempts(ctx context.Context, key string) int64 {
	count, err := g.counter.IncrAndGet(ctx, key, passwordErrorTTL)
	if err != nil {
		zap.L().Error("failed to increment password error count", zap.Error(err), zap.String("key", key))
		return -1
	}
	return count
}

func (g *TradePermissionGuard) clearAttempts(ctx context.Context, key string) {
	if err := g.counter.Remove(ctx, key); err != nil {
		zap.L().Error("failed to clear password error count", zap.Error(err), zap.String("key", key))
	}
}

// freezeLockedAccount is best-effort: the lockout error is returned to the
// caller regardless, and a racing state change just means the account is
// already being managed.
func (g *TradePermissionGuard) freezeLockedAccount(ctx context.Context, account *models.FundAccount) {
	if err := g.accounts.Freeze(ctx, account.AccountID); err != nil {
		zap.L().Warn("failed to freeze locked account",
			zap.Error(err), zap.Int64("account_id", account.AccountID))
	}
}

func dailyKey(accountID int64) string {
	return passwordKeyPrefix + time.Now().Format("20060102") + ":" + strconv.FormatInt(accountID, 10)
}
