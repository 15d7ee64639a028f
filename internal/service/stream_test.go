package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/repository"
)

func TestStreamEngineWritesOneEntryPerMovement(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	accountID := f.registerAccount(t, 1, "alice", "pw", 1_000)

	err := f.store.RunInTx(ctx, func(tx repository.Tx) error {
		txn := domain.OpenTransaction("p-1", accountID, 0, domain.TradeDirect, time.Now())
		txn.Outgo(400, domain.FundTrade)
		txn.Income(100, domain.FundFee)
		_, err := NewFundStreamEngine().Submit(ctx, tx, txn)
		return err
	})
	require.NoError(t, err)

	entries, err := f.store.ListFundActivities(ctx, accountID, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3) // deposit + two movements

	// Newest first: outgo was applied after the income.
	assert.Equal(t, domain.DirectionOutgo, entries[0].Direction)
	assert.Equal(t, int64(700), entries[0].Balance)
	assert.Equal(t, domain.DirectionIncome, entries[1].Direction)
	assert.Equal(t, int64(1_100), entries[1].Balance)

	assert.Equal(t, int64(700), f.balance(t, accountID))
}

func TestStreamEngineRejectsEmptyTransaction(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	accountID := f.registerAccount(t, 1, "alice", "pw", 0)

	err := f.store.RunInTx(ctx, func(tx repository.Tx) error {
		txn := domain.OpenTransaction("p-1", accountID, 0, domain.TradeDirect, time.Now())
		_, err := NewFundStreamEngine().Submit(ctx, tx, txn)
		return err
	})
	require.ErrorIs(t, err, domain.ErrIllegalArgument)
}

func TestStreamEngineRejectsNonPositiveMovement(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	accountID := f.registerAccount(t, 1, "alice", "pw", 1_000)

	err := f.store.RunInTx(ctx, func(tx repository.Tx) error {
		txn := domain.OpenTransaction("p-1", accountID, 0, domain.TradeDirect, time.Now())
		txn.Income(0, domain.FundTrade)
		_, err := NewFundStreamEngine().Submit(ctx, tx, txn)
		return err
	})
	require.ErrorIs(t, err, domain.ErrIllegalArgument)

	// The aborted unit of work left no ledger entry behind.
	entries, err := f.store.ListFundActivities(ctx, accountID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1) // the seed deposit only
}

func TestStreamEngineRejectsOverdraw(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	accountID := f.registerAccount(t, 1, "alice", "pw", 100)

	err := f.store.RunInTx(ctx, func(tx repository.Tx) error {
		txn := domain.OpenTransaction("p-1", accountID, 0, domain.TradeDirect, time.Now())
		txn.Outgo(150, domain.FundTrade)
		_, err := NewFundStreamEngine().Submit(ctx, tx, txn)
		return err
	})
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
	assert.Equal(t, int64(100), f.balance(t, accountID))
}

func TestStreamEngineSubAccountSettlesAgainstMaster(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	masterID := f.registerAccount(t, 1, "master", "pw", 500)
	subID, err := f.accounts.CreateAccount(ctx, 1, &domain.RegisterAccount{
		CustomerID: 5,
		ParentID:   masterID,
		Name:       "sub",
		Password:   "sub-pw",
	})
	require.NoError(t, err)

	err = f.store.RunInTx(ctx, func(tx repository.Tx) error {
		txn := domain.OpenTransaction("p-1", subID, masterID, domain.TradeDirect, time.Now())
		txn.Outgo(200, domain.FundTrade)
		_, err := NewFundStreamEngine().Submit(ctx, tx, txn)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300), f.balance(t, masterID))
	assert.Equal(t, int64(300), f.balance(t, subID))
}

func TestReconciliationBalancedLedger(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	f.registerAccount(t, 1, "alice", "pw", 1_000)
	f.registerAccount(t, 1, "bob", "pw", 0) // no ledger history, skipped

	require.NoError(t, f.recon.Run(ctx))
}
