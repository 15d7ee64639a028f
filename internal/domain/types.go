package domain

// AccountState is the lifecycle state of a fund account.
type AccountState int

const (
	AccountNormal AccountState = 1
	AccountFrozen AccountState = 2
	AccountVoid   AccountState = 3
)

var accountStateNames = map[AccountState]string{
	AccountNormal: "normal",
	AccountFrozen: "frozen",
	AccountVoid:   "unregistered",
}

// LookupAccountState resolves a raw state code.
func LookupAccountState(code int) (AccountState, bool) {
	state := AccountState(code)
	_, ok := accountStateNames[state]
	return state, ok
}

func (s AccountState) Name() string {
	return accountStateNames[s]
}

// TradeState is the lifecycle state of a trade order.
type TradeState int

const (
	TradePending  TradeState = 1
	TradeSuccess  TradeState = 2
	TradeCanceled TradeState = 3
	TradeClosed   TradeState = 4
)

var tradeStateNames = map[TradeState]string{
	TradePending:  "pending",
	TradeSuccess:  "success",
	TradeCanceled: "canceled",
	TradeClosed:   "closed",
}

func LookupTradeState(code int) (TradeState, bool) {
	state := TradeState(code)
	_, ok := tradeStateNames[state]
	return state, ok
}

func (s TradeState) Name() string {
	return tradeStateNames[s]
}

// PaymentState is the lifecycle state of a trade payment record.
type PaymentState int

const (
	PaymentSuccess  PaymentState = 1
	PaymentCanceled PaymentState = 2
)

var paymentStateNames = map[PaymentState]string{
	PaymentSuccess:  "success",
	PaymentCanceled: "canceled",
}

func LookupPaymentState(code int) (PaymentState, bool) {
	state := PaymentState(code)
	_, ok := paymentStateNames[state]
	return state, ok
}

func (s PaymentState) Name() string {
	return paymentStateNames[s]
}

// TradeType identifies the business flavour of a fund movement group.
type TradeType int

const (
	TradeDeposit     TradeType = 10
	TradeWithdraw    TradeType = 11
	TradePayFee      TradeType = 12
	TradeDirect      TradeType = 20
	TradeTransfer    TradeType = 23
	TradeCancelTrade TradeType = 40
	TradeRefund      TradeType = 41
)

var tradeTypeNames = map[TradeType]string{
	TradeDeposit:     "account deposit",
	TradeWithdraw:    "account withdraw",
	TradePayFee:      "fee payment",
	TradeDirect:      "instant trade",
	TradeTransfer:    "account transfer",
	TradeCancelTrade: "trade cancellation",
	TradeRefund:      "trade refund",
}

func LookupTradeType(code int) (TradeType, bool) {
	t := TradeType(code)
	_, ok := tradeTypeNames[t]
	return t, ok
}

func (t TradeType) Name() string {
	return tradeTypeNames[t]
}

// FundType classifies a single fund movement within a transaction.
type FundType int

const (
	FundTrade FundType = 1
	FundFee   FundType = 2
)

var fundTypeNames = map[FundType]string{
	FundTrade: "trade fund",
	FundFee:   "commission fee",
}

func LookupFundType(code int) (FundType, bool) {
	t := FundType(code)
	_, ok := fundTypeNames[t]
	return t, ok
}

func (t FundType) Name() string {
	return fundTypeNames[t]
}

// ChannelType identifies the payment channel a request arrived through.
type ChannelType int

const (
	ChannelAccount ChannelType = 1
	ChannelCash    ChannelType = 2
	ChannelBank    ChannelType = 3
)

var channelTypeNames = map[ChannelType]string{
	ChannelAccount: "fund account",
	ChannelCash:    "cash",
	ChannelBank:    "bank card",
}

func LookupChannelType(code int) (ChannelType, bool) {
	t := ChannelType(code)
	_, ok := channelTypeNames[t]
	return t, ok
}

func (t ChannelType) Name() string {
	return channelTypeNames[t]
}

// ForTrade reports whether the channel supports instant account trading.
// Only the fund-account channel settles against platform balances.
func (t ChannelType) ForTrade() bool {
	return t == ChannelAccount
}

// FeeUse marks which trade party a fee is charged to.
type FeeUse int

const (
	FeeForBuyer  FeeUse = 1
	FeeForSeller FeeUse = 2
)

var feeUseNames = map[FeeUse]string{
	FeeForBuyer:  "buyer fee",
	FeeForSeller: "seller fee",
}

func LookupFeeUse(code int) (FeeUse, bool) {
	u := FeeUse(code)
	_, ok := feeUseNames[u]
	return u, ok
}

func (u FeeUse) Name() string {
	return feeUseNames[u]
}
