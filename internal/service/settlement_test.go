package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpay/fund-custody/internal/domain"
)

func TestCommit(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	merchant := f.registerMerchant(t, 1)
	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 10_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 5_000)
	require.NoError(t, err)

	payment := domain.NewPayment(buyerID, 5_000, "buyer-pw", domain.ChannelAccount).
		WithFees([]domain.Fee{
			{UseFor: domain.FeeForBuyer, Amount: 100, FundType: domain.FundFee},
			{UseFor: domain.FeeForSeller, Amount: 50, FundType: domain.FundFee},
		}).
		WithMerchantPermit(merchant.Permit())

	result, err := f.settle.Commit(ctx, trade, payment)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultSuccess, result.Code)
	assert.NotEmpty(t, result.PaymentID)

	// Buyer pays the amount plus the buyer fee.
	assert.Equal(t, int64(4_900), f.balance(t, buyerID))
	// Seller receives the amount minus the seller fee.
	assert.Equal(t, int64(4_950), f.balance(t, sellerID))
	// Merchant profit account collects both fees.
	assert.Equal(t, int64(150), f.balance(t, merchant.ProfitAccount))

	// The trade order carries the seller commission and moves to SUCCESS.
	stored, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSuccess, stored.State)
	assert.Equal(t, int64(50), stored.Fee)

	// The payment record carries the buyer commission.
	paymentRecord, err := f.store.FindTradePaymentByTradeID(ctx, trade.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, paymentRecord.State)
	assert.Equal(t, int64(100), paymentRecord.Fee)
	assert.Equal(t, buyerID, paymentRecord.AccountID)

	// Status chain links the buyer and seller legs.
	require.NotNil(t, result.Status)
	assert.Equal(t, buyerID, result.Status.AccountID)
	require.NotNil(t, result.Status.Relation)
	assert.Equal(t, sellerID, result.Status.Relation.AccountID)
}

func TestCommitWithoutFees(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 2_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 2_000)
	require.NoError(t, err)

	// No fees means no merchant permit is required.
	result, err := f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 2_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultSuccess, result.Code)

	assert.Equal(t, int64(0), f.balance(t, buyerID))
	assert.Equal(t, int64(2_000), f.balance(t, sellerID))
}

func TestCommitInsufficientBalance(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 4_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 5_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 5_000, "buyer-pw", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)

	// Nothing moved and the trade is still pending.
	assert.Equal(t, int64(4_000), f.balance(t, buyerID))
	assert.Equal(t, int64(0), f.balance(t, sellerID))
	stored, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradePending, stored.State)
}

func TestCommitRejectsSelfTrade(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	accountID := f.registerAccount(t, 1, "both", "pw", 5_000)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, accountID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(accountID, 1_000, "pw", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrIllegalArgument)
}

func TestCommitRejectsNonTradeChannel(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelCash))
	require.ErrorIs(t, err, domain.ErrIllegalArgument)
}

func TestCommitRejectsCrossMerchantBuyer(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 2, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestCommitTwiceConflicts(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 10_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 3_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 3_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)

	// Replaying the same trade snapshot must hit the version gate and leave
	// the first settlement untouched.
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 3_000, "buyer-pw", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	assert.Equal(t, int64(7_000), f.balance(t, buyerID))
	assert.Equal(t, int64(3_000), f.balance(t, sellerID))
}

func TestCommitWrongPassword(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	assert.Equal(t, int64(5_000), f.balance(t, buyerID))
}

func TestCancel(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	merchant := f.registerMerchant(t, 1)
	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 10_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 5_000)
	require.NoError(t, err)

	payment := domain.NewPayment(buyerID, 5_000, "buyer-pw", domain.ChannelAccount).
		WithFees([]domain.Fee{
			{UseFor: domain.FeeForBuyer, Amount: 100, FundType: domain.FundFee},
			{UseFor: domain.FeeForSeller, Amount: 50, FundType: domain.FundFee},
		}).
		WithMerchantPermit(merchant.Permit())

	_, err = f.settle.Commit(ctx, trade, payment)
	require.NoError(t, err)

	committed, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)

	result, err := f.settle.Cancel(ctx, committed, domain.NewRefund(sellerID, committed.Amount, ""))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultSuccess, result.Code)

	// All three parties are restored to their pre-trade balances.
	assert.Equal(t, int64(10_000), f.balance(t, buyerID))
	assert.Equal(t, int64(0), f.balance(t, sellerID))
	assert.Equal(t, int64(0), f.balance(t, merchant.ProfitAccount))

	canceled, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.TradeCanceled, canceled.State)

	paymentRecord, err := f.store.FindTradePaymentByTradeID(ctx, trade.TradeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCanceled, paymentRecord.State)
}

func TestCancelLooksUpMerchantRecord(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	merchant := f.registerMerchant(t, 1)
	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 6_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 4_000)
	require.NoError(t, err)

	payment := domain.NewPayment(buyerID, 4_000, "buyer-pw", domain.ChannelAccount).
		WithFees([]domain.Fee{{UseFor: domain.FeeForSeller, Amount: 200, FundType: domain.FundFee}}).
		WithMerchantPermit(merchant.Permit())
	_, err = f.settle.Commit(ctx, trade, payment)
	require.NoError(t, err)

	committed, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)

	// No permit on the cancel request: the stored merchant record is used.
	_, err = f.settle.Cancel(ctx, committed, domain.NewRefund(sellerID, committed.Amount, ""))
	require.NoError(t, err)

	assert.Equal(t, int64(6_000), f.balance(t, buyerID))
	assert.Equal(t, int64(0), f.balance(t, sellerID))
	assert.Equal(t, int64(0), f.balance(t, merchant.ProfitAccount))
}

func TestCancelRequiresCommittedTrade(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Cancel(ctx, trade, domain.NewRefund(sellerID, trade.Amount, ""))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)
}

func TestCancelRequiresRegisteredMerchant(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 3_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)

	committed, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)

	// No permit and no stored merchant record: the cancel aborts before any
	// movement, even for a feeless trade.
	_, err = f.settle.Cancel(ctx, committed, domain.NewRefund(sellerID, committed.Amount, ""))
	require.ErrorIs(t, err, domain.ErrObjectNotFound)

	assert.Equal(t, int64(2_000), f.balance(t, buyerID))
	assert.Equal(t, int64(1_000), f.balance(t, sellerID))
}

func TestCancelTwiceRejected(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	f.registerMerchant(t, 1)
	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 2_000)
	require.NoError(t, err)

	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 2_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)

	committed, err := f.trades.FindTrade(ctx, trade.TradeID)
	require.NoError(t, err)

	_, err = f.settle.Cancel(ctx, committed, domain.NewRefund(sellerID, committed.Amount, ""))
	require.NoError(t, err)

	// Replaying the cancel must be rejected on the payment state.
	_, err = f.settle.Cancel(ctx, committed, domain.NewRefund(sellerID, committed.Amount, ""))
	require.ErrorIs(t, err, domain.ErrOperationNotAllowed)

	assert.Equal(t, int64(5_000), f.balance(t, buyerID))
	assert.Equal(t, int64(0), f.balance(t, sellerID))
}

func TestPasswordLockout(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	// First wrong attempt: plain rejection.
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)

	// Second wrong attempt: warned about imminent lockout.
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	assert.Contains(t, err.Error(), "one more attempt")

	// Third wrong attempt: the account is frozen.
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	assert.Contains(t, err.Error(), "locked")

	buyer, err := f.accounts.FindByID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountFrozen, buyer.State)

	// The frozen account can no longer trade even with the right password.
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidAccountState)
}

func TestPasswordLockoutFailsOpen(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 5_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)
	trade, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	// Counter store down: wrong passwords are rejected but never lock.
	f.counter.failing = true
	for i := 0; i < 5; i++ {
		_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
		require.ErrorIs(t, err, domain.ErrInvalidPassword)
	}

	buyer, err := f.accounts.FindByID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountNormal, buyer.State)

	// Trading still works with the right password.
	f.counter.failing = false
	_, err = f.settle.Commit(ctx, trade, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)
}

func TestCorrectPasswordClearsAttempts(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	buyerID := f.registerAccount(t, 1, "buyer", "buyer-pw", 10_000)
	sellerID := f.registerAccount(t, 1, "seller", "seller-pw", 0)

	tradeA, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)
	tradeB, err := f.trades.CreateTrade(ctx, 1, domain.TradeDirect, sellerID, 1_000)
	require.NoError(t, err)

	// Two wrong attempts, then a successful commit resets the counter.
	_, err = f.settle.Commit(ctx, tradeA, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	_, err = f.settle.Commit(ctx, tradeA, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	_, err = f.settle.Commit(ctx, tradeA, domain.NewPayment(buyerID, 1_000, "buyer-pw", domain.ChannelAccount))
	require.NoError(t, err)

	// A fresh wrong attempt starts counting from one again.
	_, err = f.settle.Commit(ctx, tradeB, domain.NewPayment(buyerID, 1_000, "wrong", domain.ChannelAccount))
	require.ErrorIs(t, err, domain.ErrInvalidPassword)
	assert.NotContains(t, err.Error(), "locked")

	buyer, err := f.accounts.FindByID(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountNormal, buyer.State)
}
