package models

import (
	"time"

	"github.com/marketpay/fund-custody/internal/domain"
)

// FundAccount is a wallet-like account owned by one merchant's customer.
// ParentID is zero for master accounts; sub-accounts reference their master
// and share its AccountFund balance.
type FundAccount struct {
	AccountID  int64               `json:"account_id"`
	ParentID   int64               `json:"parent_id"`
	CustomerID int64               `json:"customer_id"`
	MchID      int64               `json:"mch_id"`
	Name       string              `json:"name"`
	Mobile     string              `json:"mobile"`
	State      domain.AccountState `json:"state"`
	SecretKey  string              `json:"-"`
	Password   string              `json:"-"`
	Version    int64               `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	ModifiedAt time.Time           `json:"modified_at"`
}

// MasterAccountID resolves the account that holds the balance.
func (a *FundAccount) MasterAccountID() int64 {
	if a.ParentID != 0 {
		return a.ParentID
	}
	return a.AccountID
}

// AccountFund is the balance record of one master account, in minor units.
// Mutated only through the fund stream engine.
type AccountFund struct {
	AccountID  int64     `json:"account_id"`
	Balance    int64     `json:"balance"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FundActivity is one immutable ledger entry: a single income or outgo
// movement and the balance that resulted from it. Never updated or deleted.
type FundActivity struct {
	ID           string           `json:"id"`
	AccountID    int64            `json:"account_id"`
	PaymentID    string           `json:"payment_id"`
	TradeType    domain.TradeType `json:"trade_type"`
	Direction    domain.Direction `json:"direction"`
	Amount       int64            `json:"amount"`
	Balance      int64            `json:"balance"`
	FundType     domain.FundType  `json:"fund_type"`
	FundTypeName string           `json:"fund_type_name"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TradeOrder is a pending or settled trade between two fund accounts.
// AccountID names the seller; Fee holds the seller-side commission once the
// trade commits.
type TradeOrder struct {
	TradeID    string            `json:"trade_id"`
	Type       domain.TradeType  `json:"type"`
	MchID      int64             `json:"mch_id"`
	AccountID  int64             `json:"account_id"`
	Amount     int64             `json:"amount"`
	Fee        int64             `json:"fee"`
	State      domain.TradeState `json:"state"`
	Version    int64             `json:"version"`
	CreatedAt  time.Time         `json:"created_at"`
	ModifiedAt time.Time         `json:"modified_at"`
}

// TradePayment records one successful commit of a trade; the instant-trade
// flow never splits or combines payments, so a trade has at most one.
// Fee holds the buyer-side commission.
type TradePayment struct {
	PaymentID  string              `json:"payment_id"`
	TradeID    string              `json:"trade_id"`
	ChannelID  domain.ChannelType  `json:"channel_id"`
	AccountID  int64               `json:"account_id"`
	Amount     int64               `json:"amount"`
	Fee        int64               `json:"fee"`
	State      domain.PaymentState `json:"state"`
	Version    int64               `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	ModifiedAt time.Time           `json:"modified_at"`
}

// PaymentFee is an append-only record of one fee collected for a payment.
type PaymentFee struct {
	PaymentID    string          `json:"payment_id"`
	UseFor       domain.FeeUse   `json:"use_for"`
	Amount       int64           `json:"amount"`
	FundType     domain.FundType `json:"fund_type"`
	FundTypeName string          `json:"fund_type_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (f PaymentFee) ForBuyer() bool  { return f.UseFor == domain.FeeForBuyer }
func (f PaymentFee) ForSeller() bool { return f.UseFor == domain.FeeForSeller }

// RefundPayment is an append-only record of one trade reversal.
type RefundPayment struct {
	PaymentID string            `json:"payment_id"`
	Type      domain.TradeType  `json:"type"`
	TradeID   string            `json:"trade_id"`
	TradeType domain.TradeType  `json:"trade_type"`
	Amount    int64             `json:"amount"`
	Fee       int64             `json:"fee"`
	State     domain.TradeState `json:"state"`
	CreatedAt time.Time         `json:"created_at"`
}

// Merchant is the registered platform tenant, with its dedicated profit,
// vouch and pledge fund accounts.
type Merchant struct {
	MchID         int64     `json:"mch_id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ProfitAccount int64     `json:"profit_account"`
	VouchAccount  int64     `json:"vouch_account"`
	PledgeAccount int64     `json:"pledge_account"`
	CreatedAt     time.Time `json:"created_at"`
}

// Permit converts the merchant record into the explicit settlement credential.
func (m *Merchant) Permit() *domain.MerchantPermit {
	return &domain.MerchantPermit{
		MchID:         m.MchID,
		Code:          m.Code,
		ProfitAccount: m.ProfitAccount,
		VouchAccount:  m.VouchAccount,
		PledgeAccount: m.PledgeAccount,
	}
}
