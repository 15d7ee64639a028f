package core

import (
	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
)

// Account state machine: pure transition checks, no I/O. Each function
// validates that one requested transition is legal for the account's
// current state and returns a typed domain error otherwise.

// FreezeAccountCheck validates the account can be frozen.
func FreezeAccountCheck(account *models.FundAccount) error {
	if account.State == domain.AccountVoid {
		return domain.ErrInvalidAccountState.WithMessage("fund account is unregistered")
	}
	if account.State == domain.AccountFrozen {
		return domain.ErrInvalidAccountState.WithMessage("fund account is already frozen")
	}
	return nil
}

// UnfreezeAccountCheck validates the account can be unfrozen.
func UnfreezeAccountCheck(account *models.FundAccount) error {
	if account.State == domain.AccountVoid {
		return domain.ErrInvalidAccountState.WithMessage("fund account is unregistered")
	}
	if account.State != domain.AccountFrozen {
		return domain.ErrInvalidAccountState.WithMessage("fund account is not frozen")
	}
	return nil
}

// UnregisterAccountCheck validates the account can be unregistered.
// Currently unconditional: any state may transition to VOID. Product has
// not confirmed whether frozen accounts should be blocked here.
func UnregisterAccountCheck(account *models.FundAccount) error {
	return nil
}

// UpdateAccountCheck validates account details may still be changed.
func UpdateAccountCheck(account *models.FundAccount) error {
	if account.State == domain.AccountVoid {
		return domain.ErrInvalidAccountState.WithMessage("fund account is unregistered")
	}
	return nil
}

// UnregisterFundCheck rejects deleting an account that still holds funds.
func UnregisterFundCheck(fund *models.AccountFund) error {
	if fund.Balance > 0 {
		return domain.ErrOperationNotAllowed.WithMessage("cannot unregister an account holding funds")
	}
	return nil
}

// AccountTradeStateCheck validates the account is eligible to trade.
// Callers must apply the same check to the parent account of a sub-account;
// a sub-account cannot trade while its master is frozen or void.
func AccountTradeStateCheck(account *models.FundAccount) error {
	if account.State != domain.AccountNormal {
		return domain.ErrInvalidAccountState.WithMessage("fund account is " + account.State.Name())
	}
	return nil
}
