package memory

import (
	"context"

	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
)

// Forwarders so the store satisfies repository.Store outside a unit of work.

func (s *Store) InsertFundAccount(ctx context.Context, account *models.FundAccount) error {
	return s.withView(func(v *view) error { return v.InsertFundAccount(ctx, account) })
}

func (s *Store) FindFundAccountByID(ctx context.Context, accountID int64) (*models.FundAccount, error) {
	var out *models.FundAccount
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindFundAccountByID(ctx, accountID)
		return err
	})
	return out, err
}

func (s *Store) ListFundAccountsByParentID(ctx context.Context, parentID int64) ([]models.FundAccount, error) {
	var out []models.FundAccount
	err := s.withView(func(v *view) (err error) {
		out, err = v.ListFundAccountsByParentID(ctx, parentID)
		return err
	})
	return out, err
}

func (s *Store) CompareAndSetAccount(ctx context.Context, update repository.AccountUpdate) (int64, error) {
	var rows int64
	err := s.withView(func(v *view) (err error) {
		rows, err = v.CompareAndSetAccount(ctx, update)
		return err
	})
	return rows, err
}

func (s *Store) InsertAccountFund(ctx context.Context, fund *models.AccountFund) error {
	return s.withView(func(v *view) error { return v.InsertAccountFund(ctx, fund) })
}

func (s *Store) FindAccountFundByID(ctx context.Context, accountID int64) (*models.AccountFund, error) {
	var out *models.AccountFund
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindAccountFundByID(ctx, accountID)
		return err
	})
	return out, err
}

func (s *Store) ListAccountFunds(ctx context.Context) ([]models.AccountFund, error) {
	var out []models.AccountFund
	err := s.withView(func(v *view) (err error) {
		out, err = v.ListAccountFunds(ctx)
		return err
	})
	return out, err
}

func (s *Store) CompareAndSetAccountFund(ctx context.Context, update repository.FundUpdate) (int64, error) {
	var rows int64
	err := s.withView(func(v *view) (err error) {
		rows, err = v.CompareAndSetAccountFund(ctx, update)
		return err
	})
	return rows, err
}

func (s *Store) InsertFundActivity(ctx context.Context, activity *models.FundActivity) error {
	return s.withView(func(v *view) error { return v.InsertFundActivity(ctx, activity) })
}

func (s *Store) ListFundActivities(ctx context.Context, accountID int64, limit, offset int) ([]models.FundActivity, error) {
	var out []models.FundActivity
	err := s.withView(func(v *view) (err error) {
		out, err = v.ListFundActivities(ctx, accountID, limit, offset)
		return err
	})
	return out, err
}

func (s *Store) FindLatestFundActivity(ctx context.Context, accountID int64) (*models.FundActivity, error) {
	var out *models.FundActivity
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindLatestFundActivity(ctx, accountID)
		return err
	})
	return out, err
}

func (s *Store) InsertTradeOrder(ctx context.Context, trade *models.TradeOrder) error {
	return s.withView(func(v *view) error { return v.InsertTradeOrder(ctx, trade) })
}

func (s *Store) FindTradeOrderByID(ctx context.Context, tradeID string) (*models.TradeOrder, error) {
	var out *models.TradeOrder
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindTradeOrderByID(ctx, tradeID)
		return err
	})
	return out, err
}

func (s *Store) CompareAndSetTradeState(ctx context.Context, update repository.TradeUpdate) (int64, error) {
	var rows int64
	err := s.withView(func(v *view) (err error) {
		rows, err = v.CompareAndSetTradeState(ctx, update)
		return err
	})
	return rows, err
}

func (s *Store) InsertTradePayment(ctx context.Context, payment *models.TradePayment) error {
	return s.withView(func(v *view) error { return v.InsertTradePayment(ctx, payment) })
}

func (s *Store) FindTradePaymentByTradeID(ctx context.Context, tradeID string) (*models.TradePayment, error) {
	var out *models.TradePayment
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindTradePaymentByTradeID(ctx, tradeID)
		return err
	})
	return out, err
}

func (s *Store) CompareAndSetPaymentState(ctx context.Context, update repository.PaymentUpdate) (int64, error) {
	var rows int64
	err := s.withView(func(v *view) (err error) {
		rows, err = v.CompareAndSetPaymentState(ctx, update)
		return err
	})
	return rows, err
}

func (s *Store) InsertPaymentFees(ctx context.Context, fees []models.PaymentFee) error {
	return s.withView(func(v *view) error { return v.InsertPaymentFees(ctx, fees) })
}

func (s *Store) ListPaymentFees(ctx context.Context, paymentID string) ([]models.PaymentFee, error) {
	var out []models.PaymentFee
	err := s.withView(func(v *view) (err error) {
		out, err = v.ListPaymentFees(ctx, paymentID)
		return err
	})
	return out, err
}

func (s *Store) InsertRefundPayment(ctx context.Context, refund *models.RefundPayment) error {
	return s.withView(func(v *view) error { return v.InsertRefundPayment(ctx, refund) })
}

func (s *Store) InsertMerchant(ctx context.Context, merchant *models.Merchant) error {
	return s.withView(func(v *view) error { return v.InsertMerchant(ctx, merchant) })
}

func (s *Store) FindMerchantByID(ctx context.Context, mchID int64) (*models.Merchant, error) {
	var out *models.Merchant
	err := s.withView(func(v *view) (err error) {
		out, err = v.FindMerchantByID(ctx, mchID)
		return err
	})
	return out, err
}

var _ repository.Store = (*Store)(nil)
