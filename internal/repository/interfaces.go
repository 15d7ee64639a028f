package repository

import (
	"context"
	"time"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
)

// AccountUpdate changes account state and/or password hash, gated on the
// version read by the caller. Nil fields are left untouched.
type AccountUpdate struct {
	AccountID  int64
	State      *domain.AccountState
	Password   *string
	Version    int64
	ModifiedAt time.Time
}

// FundUpdate writes a new balance, gated on the version read by the caller.
type FundUpdate struct {
	AccountID  int64
	Balance    int64
	Version    int64
	ModifiedAt time.Time
}

// TradeUpdate advances a trade order's state, optionally storing the
// seller-side commission, gated on the version read by the caller.
type TradeUpdate struct {
	TradeID    string
	Fee        *int64
	State      domain.TradeState
	Version    int64
	ModifiedAt time.Time
}

// PaymentUpdate advances a trade payment's state, gated on the version read
// by the caller.
type PaymentUpdate struct {
	PaymentID  string
	State      domain.PaymentState
	Version    int64
	ModifiedAt time.Time
}

// Tx is the typed operation set available inside one unit of work. Every
// CompareAndSet operation succeeds iff the expected version is unchanged at
// write time and reports the number of rows it affected; zero means the
// record was concurrently modified and the caller must re-read and retry.
// Find operations return domain.ErrObjectNotFound for missing records.
type Tx interface {
	InsertFundAccount(ctx context.Context, account *models.FundAccount) error
	FindFundAccountByID(ctx context.Context, accountID int64) (*models.FundAccount, error)
	ListFundAccountsByParentID(ctx context.Context, parentID int64) ([]models.FundAccount, error)
	CompareAndSetAccount(ctx context.Context, update AccountUpdate) (int64, error)

	InsertAccountFund(ctx context.Context, fund *models.AccountFund) error
	FindAccountFundByID(ctx context.Context, accountID int64) (*models.AccountFund, error)
	ListAccountFunds(ctx context.Context) ([]models.AccountFund, error)
	CompareAndSetAccountFund(ctx context.Context, update FundUpdate) (int64, error)

	InsertFundActivity(ctx context.Context, activity *models.FundActivity) error
	ListFundActivities(ctx context.Context, accountID int64, limit, offset int) ([]models.FundActivity, error)
	FindLatestFundActivity(ctx context.Context, accountID int64) (*models.FundActivity, error)

	InsertTradeOrder(ctx context.Context, trade *models.TradeOrder) error
	FindTradeOrderByID(ctx context.Context, tradeID string) (*models.TradeOrder, error)
	CompareAndSetTradeState(ctx context.Context, update TradeUpdate) (int64, error)

	InsertTradePayment(ctx context.Context, payment *models.TradePayment) error
	FindTradePaymentByTradeID(ctx context.Context, tradeID string) (*models.TradePayment, error)
	CompareAndSetPaymentState(ctx context.Context, update PaymentUpdate) (int64, error)

	InsertPaymentFees(ctx context.Context, fees []models.PaymentFee) error
	ListPaymentFees(ctx context.Context, paymentID string) ([]models.PaymentFee, error)

	InsertRefundPayment(ctx context.Context, refund *models.RefundPayment) error

	InsertMerchant(ctx context.Context, merchant *models.Merchant) error
	FindMerchantByID(ctx context.Context, mchID int64) (*models.Merchant, error)
}

// Store is the persistence boundary of the transactional core. RunInTx
// executes fn as one atomic unit of work: either every write inside fn
// commits, or none does.
type Store interface {
	Tx
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}
