package domain

import (
	"sort"
	"time"
)

// Direction of a single fund movement.
type Direction int

const (
	DirectionIncome Direction = 1
	DirectionOutgo  Direction = 2
)

func (d Direction) Name() string {
	if d == DirectionIncome {
		return "income"
	}
	return "outgo"
}

// FundMovement is one income or outgo step inside a FundTransaction.
type FundMovement struct {
	Direction    Direction
	Amount       int64
	FundType     FundType
	FundTypeName string
}

// FundTransaction is an in-flight proposal of ordered fund movements against
// one account. It exists only for the duration of a single submission to the
// stream engine and is never persisted itself.
type FundTransaction struct {
	PaymentID string
	AccountID int64
	ParentID  int64
	TradeType TradeType
	When      time.Time

	movements []FundMovement
}

// OpenTransaction starts an empty fund transaction for the given account.
// ParentID is zero for master accounts; for sub-accounts it names the master
// whose balance the movements settle against.
func OpenTransaction(paymentID string, accountID, parentID int64, tradeType TradeType, when time.Time) *FundTransaction {
	return &FundTransaction{
		PaymentID: paymentID,
		AccountID: accountID,
		ParentID:  parentID,
		TradeType: tradeType,
		When:      when,
	}
}

// Income appends a movement that increases the account balance.
func (t *FundTransaction) Income(amount int64, fundType FundType) *FundTransaction {
	t.movements = append(t.movements, FundMovement{
		Direction:    DirectionIncome,
		Amount:       amount,
		FundType:     fundType,
		FundTypeName: fundType.Name(),
	})
	return t
}

// Outgo appends a movement that decreases the account balance.
func (t *FundTransaction) Outgo(amount int64, fundType FundType) *FundTransaction {
	t.movements = append(t.movements, FundMovement{
		Direction:    DirectionOutgo,
		Amount:       amount,
		FundType:     fundType,
		FundTypeName: fundType.Name(),
	})
	return t
}

// Empty reports whether no movement was recorded.
func (t *FundTransaction) Empty() bool {
	return len(t.movements) == 0
}

// Movements returns the movement list normalized for submission: income
// movements sort before outgo movements, preserving insertion order within
// each direction. The running balance written to the ledger therefore never
// dips below the net result of the transaction, which keeps the audit trail
// free of spurious negative intermediate balances.
func (t *FundTransaction) Movements() []FundMovement {
	out := make([]FundMovement, len(t.movements))
	copy(out, t.movements)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Direction < out[j].Direction
	})
	return out
}

// MasterAccountID resolves the account whose AccountFund the movements apply
// to: the account itself for masters, the parent for sub-accounts.
func (t *FundTransaction) MasterAccountID() int64 {
	if t.ParentID != 0 {
		return t.ParentID
	}
	return t.AccountID
}

// TransactionStatus is the outcome token of one stream-engine submission.
// Settlements link the statuses of their legs through Relation so a caller
// can trace every movement belonging to one logical trade.
type TransactionStatus struct {
	AccountID int64     `json:"account_id"`
	PaymentID string    `json:"payment_id"`
	Balance   int64     `json:"balance"`
	When      time.Time `json:"when"`

	Relation *TransactionStatus `json:"relation,omitempty"`
}

// Link attaches another settlement leg to this status chain.
func (s *TransactionStatus) Link(relation *TransactionStatus) {
	s.Relation = relation
}
