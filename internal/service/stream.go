package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
)

// FundStreamEngine turns a proposed fund transaction into persisted ledger
// entries and an updated balance. It exclusively owns ledger-entry creation:
// no other component writes fund activities.
type FundStreamEngine struct{}

func NewFundStreamEngine() *FundStreamEngine {
	return &FundStreamEngine{}
}

// Submit applies the transaction's movements against the master account's
// balance inside the caller's unit of work. One immutable ledger entry is
// written per movement, recording the running balance after that movement;
// the final balance is then written with a version-checked compare-and-set.
// A stale version fails with ConcurrentUpdate and the caller is expected to
// abort and retry the whole settlement.
func (e *FundStreamEngine) Submit(ctx context.Context, tx repository.Tx, transaction *domain.FundTransaction) (*domain.TransactionStatus, error) {
	if transaction.Empty() {
		return nil, domain.ErrIllegalArgument.WithMessage("no fund transaction")
	}

	masterID := transaction.MasterAccountID()
	fund, err := tx.FindAccountFundByID(ctx, masterID)
	if err != nil {
		return nil, err
	}

	balance := fund.Balance
	for _, movement := range transaction.Movements() {
		if movement.Amount <= 0 {
			return nil, domain.ErrIllegalArgument.WithMessage("fund movement amount must be positive")
		}
		if movement.Direction == domain.DirectionIncome {
			balance += movement.Amount
		} else {
			balance -= movement.Amount
		}
		// Movements are normalized income-first, so a negative running
		// balance here means the transaction's net effect overdraws the
		// account, not a transient ordering artifact.
		if balance < 0 {
			return nil, domain.ErrOperationNotAllowed.WithMessage("insufficient account balance")
		}

		activity := &models.FundActivity{
			ID:           uuid.NewString(),
			AccountID:    masterID,
			PaymentID:    transaction.PaymentID,
			TradeType:    transaction.TradeType,
			Direction:    movement.Direction,
			Amount:       movement.Amount,
			Balance:      balance,
			FundType:     movement.FundType,
			FundTypeName: movement.FundTypeName,
			CreatedAt:    transaction.When,
		}
		if err := tx.InsertFundActivity(ctx, activity); err != nil {
			return nil, err
		}
	}

	rows, err := tx.CompareAndSetAccountFund(ctx, repository.FundUpdate{
		AccountID:  masterID,
		Balance:    balance,
		Version:    fund.Version,
		ModifiedAt: transaction.When,
	})
	if err != nil {
		return nil, err
	}
	if err := requireVersionMatch("account_fund", rows); err != nil {
		return nil, err
	}

	return &domain.TransactionStatus{
		AccountID: transaction.AccountID,
		PaymentID: transaction.PaymentID,
		Balance:   balance,
		When:      transaction.When,
	}, nil
}
