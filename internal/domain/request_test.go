package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentExtensions(t *testing.T) {
	payment := NewPayment(100, 5_000, "pw", ChannelAccount)
	assert.Nil(t, payment.Fees())
	assert.Nil(t, payment.MerchantPermit())

	fees := []Fee{{UseFor: FeeForBuyer, Amount: 100, FundType: FundFee}}
	permit := &MerchantPermit{MchID: 1, ProfitAccount: 900}
	payment.WithFees(fees).WithMerchantPermit(permit)

	require.Len(t, payment.Fees(), 1)
	assert.Equal(t, FeeForBuyer, payment.Fees()[0].UseFor)
	require.NotNil(t, payment.MerchantPermit())
	assert.Equal(t, int64(900), payment.MerchantPermit().ProfitAccount)
}

func TestRefundExtensions(t *testing.T) {
	refund := NewRefund(100, 5_000, "")
	assert.Nil(t, refund.MerchantPermit())

	refund.WithMerchantPermit(&MerchantPermit{MchID: 2})
	require.NotNil(t, refund.MerchantPermit())
	assert.Equal(t, int64(2), refund.MerchantPermit().MchID)
}

func TestFeeCheckUseFor(t *testing.T) {
	assert.NoError(t, Fee{UseFor: FeeForBuyer, Amount: 1}.CheckUseFor())
	assert.NoError(t, Fee{UseFor: FeeForSeller, Amount: 1}.CheckUseFor())
	assert.ErrorIs(t, Fee{UseFor: FeeUse(9), Amount: 1}.CheckUseFor(), ErrIllegalArgument)
}

func TestFeeOfRate(t *testing.T) {
	// 1.5% of 10000 = 150
	fee := FeeOfRate(FeeForBuyer, 10_000, decimal.NewFromFloat(0.015))
	assert.Equal(t, int64(150), fee.Amount)
	assert.Equal(t, FundFee, fee.FundType)

	// Fractional results round down so the charged party is never overdrawn.
	fee = FeeOfRate(FeeForSeller, 999, decimal.NewFromFloat(0.015))
	assert.Equal(t, int64(14), fee.Amount)
}

func TestLookupTradeType(t *testing.T) {
	tt, ok := LookupTradeType(20)
	require.True(t, ok)
	assert.Equal(t, TradeDirect, tt)
	assert.NotEmpty(t, tt.Name())

	_, ok = LookupTradeType(99)
	assert.False(t, ok)
}

func TestChannelForTrade(t *testing.T) {
	assert.True(t, ChannelAccount.ForTrade())
	assert.False(t, ChannelCash.ForTrade())
	assert.False(t, ChannelBank.ForTrade())
}
