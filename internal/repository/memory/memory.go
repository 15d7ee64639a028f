// Package memory provides an in-memory Store used by unit tests and local
// development. RunInTx operates on a snapshot of all tables and swaps it in
// only when fn succeeds, so an aborted unit of work leaves no partial state,
// matching the atomicity contract of the Postgres store.
package memory

import (
	"context"
	"sync"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
)

type tables struct {
	accounts   map[int64]models.FundAccount
	funds      map[int64]models.AccountFund
	activities []models.FundActivity
	trades     map[string]models.TradeOrder
	payments   map[string]models.TradePayment
	fees       map[string][]models.PaymentFee
	refunds    map[string]models.RefundPayment
	merchants  map[int64]models.Merchant
}

func newTables() *tables {
	return &tables{
		accounts:  make(map[int64]models.FundAccount),
		funds:     make(map[int64]models.AccountFund),
		trades:    make(map[string]models.TradeOrder),
		payments:  make(map[string]models.TradePayment),
		fees:      make(map[string][]models.PaymentFee),
		refunds:   make(map[string]models.RefundPayment),
		merchants: make(map[int64]models.Merchant),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.accounts {
		c.accounts[k] = v
	}
	for k, v := range t.funds {
		c.funds[k] = v
	}
	c.activities = append(c.activities, t.activities...)
	for k, v := range t.trades {
		c.trades[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	for k, v := range t.fees {
		fees := make([]models.PaymentFee, len(v))
		copy(fees, v)
		c.fees[k] = fees
	}
	for k, v := range t.refunds {
		c.refunds[k] = v
	}
	for k, v := range t.merchants {
		c.merchants[k] = v
	}
	return c
}

// Store is a mutex-guarded in-memory implementation of repository.Store.
type Store struct {
	mu sync.Mutex
	t  *tables
}

func NewStore() *Store {
	return &Store{t: newTables()}
}

// RunInTx clones the tables, applies fn to the clone and swaps it in on
// success. The store mutex is held for the whole unit of work, which
// serializes writers the way row locks do in the Postgres store while
// keeping version-CAS semantics observable.
func (s *Store) RunInTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(&view{t: snapshot}); err != nil {
		return err
	}
	s.t = snapshot
	return nil
}

func (s *Store) withView(fn func(v *view) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&view{t: s.t})
}

// view implements repository.Tx over one tables snapshot.
type view struct {
	t *tables
}

func (v *view) InsertFundAccount(ctx context.Context, account *models.FundAccount) error {
	if _, exists := v.t.accounts[account.AccountID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate fund account")
	}
	v.t.accounts[account.AccountID] = *account
	return nil
}

func (v *view) FindFundAccountByID(ctx context.Context, accountID int64) (*models.FundAccount, error) {
	account, exists := v.t.accounts[accountID]
	if !exists {
		return nil, domain.ErrObjectNotFound.WithMessage("fund account not found")
	}
	return &account, nil
}

func (v *view) ListFundAccountsByParentID(ctx context.Context, parentID int64) ([]models.FundAccount, error) {
	var out []models.FundAccount
	for _, account := range v.t.accounts {
		if account.ParentID == parentID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (v *view) CompareAndSetAccount(ctx context.Context, update repository.AccountUpdate) (int64, error) {
	account, exists := v.t.accounts[update.AccountID]
	if !exists || account.Version != update.Version {
		return 0, nil
	}
	if update.State != nil {
		account.State = *update.State
	}
	if update.Password != nil {
		account.Password = *update.Password
	}
	account.Version++
	account.ModifiedAt = update.ModifiedAt
	v.t.accounts[update.AccountID] = account
	return 1, nil
}

func (v *view) InsertAccountFund(ctx context.Context, fund *models.AccountFund) error {
	if _, exists := v.t.funds[fund.AccountID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate account fund")
	}
	v.t.funds[fund.AccountID] = *fund
	return nil
}

func (v *view) FindAccountFundByID(ctx context.Context, accountID int64) (*models.AccountFund, error) {
	fund, exists := v.t.funds[accountID]
	if !exists {
		return nil, domain.ErrObjectNotFound.WithMessage("account fund not found")
	}
	return &fund, nil
}

func (v *view) ListAccountFunds(ctx context.Context) ([]models.AccountFund, error) {
	out := make([]models.AccountFund, 0, len(v.t.funds))
	for _, fund := range v.t.funds {
		out = append(out, fund)
	}
	return out, nil
}

func (v *view) CompareAndSetAccountFund(ctx context.Context, update repository.FundUpdate) (int64, error) {
	fund, exists := v.t.funds[update.AccountID]
	if !exists || fund.Version != update.Version {
		return 0, nil
	}
	fund.Balance = update.Balance
	fund.Version++
	fund.ModifiedAt = update.ModifiedAt
	v.t.funds[update.AccountID] = fund
	return 1, nil
}

func (v *view) InsertFundActivity(ctx context.Context, activity *models.FundActivity) error {
	v.t.activities = append(v.t.activities, *activity)
	return nil
}

func (v *view) ListFundActivities(ctx context.Context, accountID int64, limit, offset int) ([]models.FundActivity, error) {
	var matched []models.FundActivity
	// Insertion order is chronological; newest first for statements.
	for i := len(v.t.activities) - 1; i >= 0; i-- {
		if v.t.activities[i].AccountID == accountID {
			matched = append(matched, v.t.activities[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (v *view) FindLatestFundActivity(ctx context.Context, accountID int64) (*models.FundActivity, error) {
	for i := len(v.t.activities) - 1; i >= 0; i-- {
		if v.t.activities[i].AccountID == accountID {
			activity := v.t.activities[i]
			return &activity, nil
		}
	}
	return nil, domain.ErrObjectNotFound.WithMessage("fund activity not found")
}

func (v *view) InsertTradeOrder(ctx context.Context, trade *models.TradeOrder) error {
	if _, exists := v.t.trades[trade.TradeID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate trade order")
	}
	v.t.trades[trade.TradeID] = *trade
	return nil
}

func (v *view) FindTradeOrderByID(ctx context.Context, tradeID string) (*models.TradeOrder, error) {
	trade, exists := v.t.trades[tradeID]
	if !exists {
		return nil, domain.ErrObjectNotFound.WithMessage("trade order not found")
	}
	return &trade, nil
}

func (v *view) CompareAndSetTradeState(ctx context.Context, update repository.TradeUpdate) (int64, error) {
	trade, exists := v.t.trades[update.TradeID]
	if !exists || trade.Version != update.Version {
		return 0, nil
	}
	trade.State = update.State
	if update.Fee != nil {
		trade.Fee = *update.Fee
	}
	trade.Version++
	trade.ModifiedAt = update.ModifiedAt
	v.t.trades[update.TradeID] = trade
	return 1, nil
}

func (v *view) InsertTradePayment(ctx context.Context, payment *models.TradePayment) error {
	if _, exists := v.t.payments[payment.PaymentID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate trade payment")
	}
	v.t.payments[payment.PaymentID] = *payment
	return nil
}

func (v *view) FindTradePaymentByTradeID(ctx context.Context, tradeID string) (*models.TradePayment, error) {
	for _, payment := range v.t.payments {
		if payment.TradeID == tradeID {
			p := payment
			return &p, nil
		}
	}
	return nil, domain.ErrObjectNotFound.WithMessage("trade payment not found")
}

func (v *view) CompareAndSetPaymentState(ctx context.Context, update repository.PaymentUpdate) (int64, error) {
	payment, exists := v.t.payments[update.PaymentID]
	if !exists || payment.Version != update.Version {
		return 0, nil
	}
	payment.State = update.State
	payment.Version++
	payment.ModifiedAt = update.ModifiedAt
	v.t.payments[update.PaymentID] = payment
	return 1, nil
}

func (v *view) InsertPaymentFees(ctx context.Context, fees []models.PaymentFee) error {
	for _, fee := range fees {
		v.t.fees[fee.PaymentID] = append(v.t.fees[fee.PaymentID], fee)
	}
	return nil
}

func (v *view) ListPaymentFees(ctx context.Context, paymentID string) ([]models.PaymentFee, error) {
	fees := v.t.fees[paymentID]
	out := make([]models.PaymentFee, len(fees))
	copy(out, fees)
	return out, nil
}

func (v *view) InsertRefundPayment(ctx context.Context, refund *models.RefundPayment) error {
	if _, exists := v.t.refunds[refund.PaymentID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate refund payment")
	}
	v.t.refunds[refund.PaymentID] = *refund
	return nil
}

func (v *view) InsertMerchant(ctx context.Context, merchant *models.Merchant) error {
	if _, exists := v.t.merchants[merchant.MchID]; exists {
		return domain.ErrOperationFailed.WithMessage("duplicate merchant")
	}
	v.t.merchants[merchant.MchID] = *merchant
	return nil
}

func (v *view) FindMerchantByID(ctx context.Context, mchID int64) (*models.Merchant, error) {
	merchant, exists := v.t.merchants[mchID]
	if !exists {
		return nil, domain.ErrObjectNotFound.WithMessage("merchant not registered")
	}
	return &merchant, nil
}
