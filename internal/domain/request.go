package domain

import "github.com/shopspring/decimal"

// Fee is one commission charged to a trade party, in minor currency units.
type Fee struct {
	UseFor   FeeUse   `json:"use_for"`
	Amount   int64    `json:"amount"`
	FundType FundType `json:"fund_type"`
}

// CheckUseFor validates the fee is tagged with a known party.
func (f Fee) CheckUseFor() error {
	if _, ok := LookupFeeUse(int(f.UseFor)); !ok {
		return ErrIllegalArgument.WithMessage("unknown fee use")
	}
	return nil
}

func (f Fee) ForBuyer() bool  { return f.UseFor == FeeForBuyer }
func (f Fee) ForSeller() bool { return f.UseFor == FeeForSeller }

// FeeOfRate computes a percentage-based fee on a minor-unit amount, rounding
// down so fee collection never overdraws the charged party.
func FeeOfRate(useFor FeeUse, amount int64, rate decimal.Decimal) Fee {
	fee := decimal.NewFromInt(amount).Mul(rate).Floor()
	return Fee{UseFor: useFor, Amount: fee.IntPart(), FundType: FundFee}
}

// MerchantPermit is the merchant credential set required by settlement.
// It is always passed explicitly, never pulled from ambient request context.
// Vouch and pledge accounts are carried for forward compatibility; the
// instant-trade flow settles fees against the profit account only.
type MerchantPermit struct {
	MchID         int64  `json:"mch_id"`
	Code          string `json:"code"`
	ProfitAccount int64  `json:"profit_account"`
	VouchAccount  int64  `json:"vouch_account"`
	PledgeAccount int64  `json:"pledge_account"`
}

// ExtensionKey is the closed set of optional attachments a trade request may
// carry. Each key maps to exactly one value type, enforced by the typed
// accessors below.
type ExtensionKey string

const (
	ExtFees           ExtensionKey = "fees"
	ExtMerchantPermit ExtensionKey = "merchantPermit"
)

type extensions map[ExtensionKey]any

func (e extensions) fees() []Fee {
	if v, ok := e[ExtFees].([]Fee); ok {
		return v
	}
	return nil
}

func (e extensions) merchantPermit() *MerchantPermit {
	if v, ok := e[ExtMerchantPermit].(*MerchantPermit); ok {
		return v
	}
	return nil
}

// Payment is the buyer-side request for committing a trade.
type Payment struct {
	AccountID int64
	Amount    int64
	Password  string
	ChannelID ChannelType

	ext extensions
}

// NewPayment builds a commit request with its required fields.
func NewPayment(accountID, amount int64, password string, channel ChannelType) *Payment {
	return &Payment{AccountID: accountID, Amount: amount, Password: password, ChannelID: channel, ext: extensions{}}
}

func (p *Payment) WithFees(fees []Fee) *Payment {
	p.ext[ExtFees] = fees
	return p
}

func (p *Payment) WithMerchantPermit(permit *MerchantPermit) *Payment {
	p.ext[ExtMerchantPermit] = permit
	return p
}

func (p *Payment) Fees() []Fee                     { return p.ext.fees() }
func (p *Payment) MerchantPermit() *MerchantPermit { return p.ext.merchantPermit() }

// Refund is the request for cancelling, refunding or correcting a trade.
type Refund struct {
	AccountID int64
	Amount    int64
	Password  string

	ext extensions
}

func NewRefund(accountID, amount int64, password string) *Refund {
	return &Refund{AccountID: accountID, Amount: amount, Password: password, ext: extensions{}}
}

func (r *Refund) WithMerchantPermit(permit *MerchantPermit) *Refund {
	r.ext[ExtMerchantPermit] = permit
	return r
}

func (r *Refund) MerchantPermit() *MerchantPermit { return r.ext.merchantPermit() }

// RegisterAccount is the registration payload for a new fund account.
type RegisterAccount struct {
	CustomerID int64  `json:"customer_id"`
	ParentID   int64  `json:"parent_id"`
	Name       string `json:"name"`
	Mobile     string `json:"mobile"`
	Password   string `json:"password"`
}

// PaymentResult is returned by settlement operations.
type PaymentResult struct {
	Code      int                `json:"code"`
	PaymentID string             `json:"payment_id"`
	Status    *TransactionStatus `json:"status"`
}

const (
	ResultSuccess = 0
	ResultFailed  = 1
)

func NewPaymentResult(code int, paymentID string, status *TransactionStatus) *PaymentResult {
	return &PaymentResult{Code: code, PaymentID: paymentID, Status: status}
}
