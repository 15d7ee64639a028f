package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/observability"
	"github.com/marketpay/fund-custody/internal/repository"
)

// ReconciliationService verifies ledger integrity invariants.
type ReconciliationService struct {
	store repository.Store
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(store repository.Store) *ReconciliationService {
	return &ReconciliationService{store: store}
}

// Run checks every master account fund against its latest ledger entry: the
// running balance recorded by the newest activity must equal the account
// fund balance. Accounts with no ledger history are skipped.
func (s *ReconciliationService) Run(ctx context.Context) error {
	funds, err := s.store.ListAccountFunds(ctx)
	if err != nil {
		return fmt.Errorf("list account funds: %w", err)
	}

	mismatched := 0
	for _, fund := range funds {
		latest, err := s.store.FindLatestFundActivity(ctx, fund.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrObjectNotFound) {
				continue
			}
			return fmt.Errorf("load latest activity for account %d: %w", fund.AccountID, err)
		}
		if latest.Balance != fund.Balance {
			mismatched++
			observability.IncrementLedgerImbalance(strconv.FormatInt(fund.AccountID, 10))
			zap.L().Error("CRITICAL: ledger imbalance detected",
				zap.Int64("account_id", fund.AccountID),
				zap.Int64("fund_balance", fund.Balance),
				zap.Int64("ledger_balance", latest.Balance))
		}
	}

	if mismatched == 0 {
		zap.L().Info("Ledger Balanced", zap.Int("accounts_checked", len(funds)))
	}
	return nil
}
