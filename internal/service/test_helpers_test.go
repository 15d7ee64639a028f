package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository/memory"
)

// fakeKeygen hands out deterministic sequential ids.
type fakeKeygen struct {
	n int64
}

func (k *fakeKeygen) NextID() string {
	return "id-" + strconv.FormatInt(atomic.AddInt64(&k.n, 1), 10)
}

func (k *fakeKeygen) NextInt() int64 {
	return atomic.AddInt64(&k.n, 1)
}

// fakeCounter is an in-memory attempt counter. Setting failing simulates an
// unavailable counter store.
type fakeCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	failing bool
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64)}
}

func (c *fakeCounter) IncrAndGet(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return 0, errors.New("counter store unavailable")
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *fakeCounter) Remove(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("counter store unavailable")
	}
	delete(c.counts, key)
	return nil
}

type fixture struct {
	store    *memory.Store
	counter  *fakeCounter
	accounts *FundAccountService
	guard    *TradePermissionGuard
	trades   *TradeService
	settle   *TradeSettlementService
	recon    *ReconciliationService
}

func newFixture(t *testing.T, maxAttempts int) *fixture {
	t.Helper()

	store := memory.NewStore()
	keygen := &fakeKeygen{}
	counter := newFakeCounter()
	engine := NewFundStreamEngine()
	accounts := NewFundAccountService(store, engine, keygen)
	guard := NewTradePermissionGuard(store, accounts, counter)

	return &fixture{
		store:    store,
		counter:  counter,
		accounts: accounts,
		guard:    guard,
		trades:   NewTradeService(store, keygen),
		settle:   NewTradeSettlementService(store, engine, guard, keygen, maxAttempts),
		recon:    NewReconciliationService(store),
	}
}

// registerAccount creates a master account with an optional opening balance.
func (f *fixture) registerAccount(t *testing.T, mchID int64, name, password string, balance int64) int64 {
	t.Helper()

	accountID, err := f.accounts.CreateAccount(context.Background(), mchID, &domain.RegisterAccount{
		CustomerID: 1000 + mchID,
		Name:       name,
		Mobile:     "13800000000",
		Password:   password,
	})
	require.NoError(t, err)

	if balance > 0 {
		_, err := f.accounts.Deposit(context.Background(), accountID, balance)
		require.NoError(t, err)
	}
	return accountID
}

// registerMerchant stores a merchant record with its own profit account.
func (f *fixture) registerMerchant(t *testing.T, mchID int64) *models.Merchant {
	t.Helper()

	profitID := f.registerAccount(t, mchID, fmt.Sprintf("merchant-%d-profit", mchID), "mch-secret", 0)
	merchant := &models.Merchant{
		MchID:         mchID,
		Code:          fmt.Sprintf("code-%d", mchID),
		Name:          fmt.Sprintf("merchant-%d", mchID),
		ProfitAccount: profitID,
		CreatedAt:     time.Now(),
	}
	require.NoError(t, f.store.InsertMerchant(context.Background(), merchant))
	return merchant
}

func (f *fixture) balance(t *testing.T, accountID int64) int64 {
	t.Helper()
	fund, err := f.accounts.FindFundByID(context.Background(), accountID)
	require.NoError(t, err)
	return fund.Balance
}
