package service

import (
	"context"
	"strings"
	"time"

	"github.com/marketpay/fund-custody/internal/core"
	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
	"github.com/marketpay/fund-custody/internal/sequence"
)

// FundAccountService exclusively owns FundAccount and AccountFund mutation.
// Every state or password change is version-gated: a stale version at write
// time fails with ConcurrentUpdate instead of silently overwriting.
type FundAccountService struct {
	store  repository.Store
	engine *FundStreamEngine
	keygen sequence.KeyGenerator
}

func NewFundAccountService(store repository.Store, engine *FundStreamEngine, keygen sequence.KeyGenerator) *FundAccountService {
	return &FundAccountService{store: store, engine: engine, keygen: keygen}
}

// CreateAccount registers a fund account under the given merchant and
// returns the assigned account id. Master accounts receive a zero-balance
// AccountFund; sub-accounts share their master's fund.
func (s *FundAccountService) CreateAccount(ctx context.Context, mchID int64, registration *domain.RegisterAccount) (int64, error) {
	if registration.CustomerID == 0 {
		return 0, domain.ErrIllegalArgument.WithMessage("customerId missed")
	}
	if strings.TrimSpace(registration.Name) == "" {
		return 0, domain.ErrIllegalArgument.WithMessage("name missed")
	}
	if registration.Password == "" {
		return 0, domain.ErrIllegalArgument.WithMessage("password missed")
	}

	secretKey, err := core.NewSecretKey()
	if err != nil {
		return 0, domain.ErrOperationFailed.WithMessage("generate secret key failed")
	}

	now := time.Now()
	account := &models.FundAccount{
		AccountID:  s.keygen.NextInt(),
		ParentID:   registration.ParentID,
		CustomerID: registration.CustomerID,
		MchID:      mchID,
		Name:       registration.Name,
		Mobile:     registration.Mobile,
		State:      domain.AccountNormal,
		SecretKey:  secretKey,
		Password:   core.HashPassword(registration.Password, secretKey),
		CreatedAt:  now,
		ModifiedAt: now,
	}

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		if registration.ParentID != 0 {
			parent, err := tx.FindFundAccountByID(ctx, registration.ParentID)
			if err != nil {
				return err
			}
			if parent.ParentID != 0 {
				return domain.ErrOperationNotAllowed.WithMessage("parent must be a master account")
			}
			if parent.MchID != mchID {
				return domain.ErrOperationNotAllowed.WithMessage("parent account belongs to another merchant")
			}
			if err := core.UpdateAccountCheck(parent); err != nil {
				return err
			}
			return tx.InsertFundAccount(ctx, account)
		}

		if err := tx.InsertFundAccount(ctx, account); err != nil {
			return err
		}
		return tx.InsertAccountFund(ctx, &models.AccountFund{
			AccountID:  account.AccountID,
			Balance:    0,
			Version:    0,
			CreatedAt:  now,
			ModifiedAt: now,
		})
	})
	if err != nil {
		return 0, err
	}
	return account.AccountID, nil
}

// Freeze moves a NORMAL account into FROZEN.
func (s *FundAccountService) Freeze(ctx context.Context, accountID int64) error {
	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		account, err := tx.FindFundAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := core.FreezeAccountCheck(account); err != nil {
			return err
		}
		return s.setAccountState(ctx, tx, account, domain.AccountFrozen)
	})
}

// Unfreeze moves a FROZEN account back into NORMAL.
func (s *FundAccountService) Unfreeze(ctx context.Context, accountID int64) error {
	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		account, err := tx.FindFundAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := core.UnfreezeAccountCheck(account); err != nil {
			return err
		}
		return s.setAccountState(ctx, tx, account, domain.AccountNormal)
	})
}

// Unregister marks the account VOID. Irreversible; rejected while the
// account's master fund still holds a balance.
func (s *FundAccountService) Unregister(ctx context.Context, mchID, accountID int64) error {
	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		account, err := tx.FindFundAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account.MchID != mchID {
			return domain.ErrOperationNotAllowed.WithMessage("account belongs to another merchant")
		}
		if err := core.UnregisterAccountCheck(account); err != nil {
			return err
		}
		if account.ParentID == 0 {
			subs, err := tx.ListFundAccountsByParentID(ctx, account.AccountID)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				if sub.State != domain.AccountVoid {
					return domain.ErrOperationNotAllowed.WithMessage("account still has active sub-accounts")
				}
			}
		}
		fund, err := tx.FindAccountFundByID(ctx, account.MasterAccountID())
		if err != nil {
			return err
		}
		if err := core.UnregisterFundCheck(fund); err != nil {
			return err
		}
		return s.setAccountState(ctx, tx, account, domain.AccountVoid)
	})
}

// ResetPassword replaces the trade password hash, keyed by the account's
// existing secret key.
func (s *FundAccountService) ResetPassword(ctx context.Context, accountID int64, password string) error {
	if password == "" {
		return domain.ErrIllegalArgument.WithMessage("password missed")
	}
	return s.store.RunInTx(ctx, func(tx repository.Tx) error {
		account, err := tx.FindFundAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := core.UpdateAccountCheck(account); err != nil {
			return err
		}
		hashed := core.HashPassword(password, account.SecretKey)
		rows, err := tx.CompareAndSetAccount(ctx, repository.AccountUpdate{
			AccountID:  account.AccountID,
			Password:   &hashed,
			Version:    account.Version,
			ModifiedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		return requireVersionMatch("account", rows)
	})
}

// FindByID loads one fund account.
func (s *FundAccountService) FindByID(ctx context.Context, accountID int64) (*models.FundAccount, error) {
	return s.store.FindFundAccountByID(ctx, accountID)
}

// FindFundByID resolves the account's master and returns its balance record.
func (s *FundAccountService) FindFundByID(ctx context.Context, accountID int64) (*models.AccountFund, error) {
	account, err := s.store.FindFundAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.store.FindAccountFundByID(ctx, account.MasterAccountID())
}

// Statement returns a page of the master account's ledger, newest first.
func (s *FundAccountService) Statement(ctx context.Context, accountID int64, page, pageSize int) ([]models.FundActivity, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	account, err := s.store.FindFundAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	offset := (page - 1) * pageSize
	return s.store.ListFundActivities(ctx, account.MasterAccountID(), pageSize, offset)
}

// Deposit credits the account's master fund and records the ledger entry.
func (s *FundAccountService) Deposit(ctx context.Context, accountID, amount int64) (*domain.TransactionStatus, error) {
	if amount <= 0 {
		return nil, domain.ErrIllegalArgument.WithMessage("deposit amount must be positive")
	}
	var status *domain.TransactionStatus
	err := s.store.RunInTx(ctx, func(tx repository.Tx) error {
		account, err := tx.FindFundAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if err := core.AccountTradeStateCheck(account); err != nil {
			return err
		}
		transaction := domain.OpenTransaction(s.keygen.NextID(), account.AccountID, account.ParentID, domain.TradeDeposit, time.Now())
		transaction.Income(amount, domain.FundTrade)
		status, err = s.engine.Submit(ctx, tx, transaction)
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (s *FundAccountService) setAccountState(ctx context.Context, tx repository.Tx, account *models.FundAccount, state domain.AccountState) error {
	rows, err := tx.CompareAndSetAccount(ctx, repository.AccountUpdate{
		AccountID:  account.AccountID,
		State:      &state,
		Version:    account.Version,
		ModifiedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	return requireVersionMatch("account", rows)
}
