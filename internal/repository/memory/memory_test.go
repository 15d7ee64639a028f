package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
)

func seedAccount(t *testing.T, store *Store, accountID int64, balance int64) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.InsertFundAccount(ctx, &models.FundAccount{
		AccountID: accountID,
		State:     domain.AccountNormal,
		CreatedAt: now,
	}))
	require.NoError(t, store.InsertAccountFund(ctx, &models.AccountFund{
		AccountID: accountID,
		Balance:   balance,
		CreatedAt: now,
	}))
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedAccount(t, store, 1, 100)

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(tx repository.Tx) error {
		rows, err := tx.CompareAndSetAccountFund(ctx, repository.FundUpdate{
			AccountID: 1, Balance: 500, Version: 0, ModifiedAt: time.Now(),
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), rows)

		require.NoError(t, tx.InsertFundActivity(ctx, &models.FundActivity{
			ID: "a-1", AccountID: 1, Amount: 400, Balance: 500,
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	// Neither the balance update nor the ledger entry survived.
	fund, err := store.FindAccountFundByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), fund.Balance)
	assert.Equal(t, int64(0), fund.Version)

	_, err = store.FindLatestFundActivity(ctx, 1)
	require.ErrorIs(t, err, domain.ErrObjectNotFound)
}

func TestRunInTxCommitsOnSuccess(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedAccount(t, store, 1, 100)

	err := store.RunInTx(ctx, func(tx repository.Tx) error {
		rows, err := tx.CompareAndSetAccountFund(ctx, repository.FundUpdate{
			AccountID: 1, Balance: 250, Version: 0, ModifiedAt: time.Now(),
		})
		require.NoError(t, err)
		require.Equal(t, int64(1), rows)
		return nil
	})
	require.NoError(t, err)

	fund, err := store.FindAccountFundByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(250), fund.Balance)
	assert.Equal(t, int64(1), fund.Version)
}

func TestCompareAndSetVersionMismatch(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedAccount(t, store, 1, 100)

	// Stale version: zero rows, no error, no mutation.
	rows, err := store.CompareAndSetAccountFund(ctx, repository.FundUpdate{
		AccountID: 1, Balance: 999, Version: 7, ModifiedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	fund, err := store.FindAccountFundByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), fund.Balance)
}

func TestCompareAndSetAccountPartialUpdate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	seedAccount(t, store, 1, 0)

	frozen := domain.AccountFrozen
	rows, err := store.CompareAndSetAccount(ctx, repository.AccountUpdate{
		AccountID: 1, State: &frozen, Version: 0, ModifiedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	account, err := store.FindFundAccountByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountFrozen, account.State)
	assert.Equal(t, int64(1), account.Version)
	// Password untouched by a state-only update.
	assert.Empty(t, account.Password)
}

func TestTradeStateTransitions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.InsertTradeOrder(ctx, &models.TradeOrder{
		TradeID: "t-1", Type: domain.TradeDirect, MchID: 1, AccountID: 2,
		Amount: 1_000, State: domain.TradePending,
	}))

	fee := int64(30)
	rows, err := store.CompareAndSetTradeState(ctx, repository.TradeUpdate{
		TradeID: "t-1", Fee: &fee, State: domain.TradeSuccess, Version: 0, ModifiedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	trade, err := store.FindTradeOrderByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSuccess, trade.State)
	assert.Equal(t, int64(30), trade.Fee)
	assert.Equal(t, int64(1), trade.Version)

	// Replaying the transition with the old version is a no-op.
	rows, err = store.CompareAndSetTradeState(ctx, repository.TradeUpdate{
		TradeID: "t-1", State: domain.TradeCanceled, Version: 0, ModifiedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestListFundActivitiesPagination(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.InsertFundActivity(ctx, &models.FundActivity{
			ID: string(rune('a' + i)), AccountID: 1, Amount: int64(i), Balance: int64(i),
		}))
	}

	// Newest first, limit and offset respected.
	page, err := store.ListFundActivities(ctx, 1, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(5), page[0].Amount)
	assert.Equal(t, int64(4), page[1].Amount)

	page, err = store.ListFundActivities(ctx, 1, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].Amount)

	page, err = store.ListFundActivities(ctx, 1, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}
