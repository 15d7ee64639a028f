package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/observability"
	"github.com/marketpay/fund-custody/internal/repository"
	"github.com/marketpay/fund-custody/internal/sequence"
)

// TradeSettlementService orchestrates the commit/cancel workflow for instant
// trades: buyer pays seller, optional buyer/seller fees settle into the
// merchant profit account. Every settlement runs as one unit of work; any
// failure inside aborts all balance and record mutations of that attempt.
type TradeSettlementService struct {
	store       repository.Store
	engine      *FundStreamEngine
	guard       *TradePermissionGuard
	keygen      sequence.KeyGenerator
	maxAttempts int
}

func NewTradeSettlementService(store repository.Store, engine *FundStreamEngine, guard *TradePermissionGuard, keygen sequence.KeyGenerator, maxAttempts int) *TradeSettlementService {
	return &TradeSettlementService{store: store, engine: engine, guard: guard, keygen: keygen, maxAttempts: maxAttempts}
}

// Commit settles a PENDING trade: the buyer pays the trade amount plus
// buyer-side fees, the seller receives the amount minus seller-side fees,
// and the merchant profit account collects all fees. The seller commission
// lands on the trade order, the buyer commission on the payment record.
func (s *TradeSettlementService) Commit(ctx context.Context, trade *models.TradeOrder, payment *domain.Payment) (*domain.PaymentResult, error) {
	if !payment.ChannelID.ForTrade() {
		return nil, domain.ErrIllegalArgument.WithMessage("channel does not support instant trade")
	}
	if trade.AccountID == payment.AccountID {
		return nil, domain.ErrIllegalArgument.WithMessage("cannot trade with the same account")
	}
	fees := payment.Fees()
	for _, fee := range fees {
		if err := fee.CheckUseFor(); err != nil {
			return nil, err
		}
	}
	if len(fees) > 0 && payment.MerchantPermit() == nil {
		return nil, domain.ErrIllegalArgument.WithMessage("merchant permit missed")
	}

	// Buyer is the actor: password-checked with daily lockout counting. The
	// check runs before the unit of work opens so a lockout freeze survives
	// a failed settlement.
	buyer, err := s.guard.Check(ctx, payment.AccountID, payment.Password, s.maxAttempts)
	if err != nil {
		return nil, err
	}
	if buyer.MchID != trade.MchID {
		return nil, domain.ErrOperationNotAllowed.WithMessage("cross-merchant trades are not allowed")
	}

	now := time.Now()
	paymentID := s.keygen.NextID()
	var status *domain.TransactionStatus

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		if err := s.guard.CheckTradeEligibility(ctx, tx, buyer); err != nil {
			return err
		}

		// Buyer leg: trade amount plus buyer-side fees, all outgo.
		buyerTxn := domain.OpenTransaction(paymentID, buyer.AccountID, buyer.ParentID, trade.Type, now)
		buyerTxn.Outgo(trade.Amount, domain.FundTrade)
		for _, fee := range fees {
			if fee.ForBuyer() {
				buyerTxn.Outgo(fee.Amount, fee.FundType)
			}
		}
		status, err = s.engine.Submit(ctx, tx, buyerTxn)
		if err != nil {
			return err
		}

		// Seller leg: not the actor, state check only.
		seller, err := tx.FindFundAccountByID(ctx, trade.AccountID)
		if err != nil {
			return err
		}
		if err := s.guard.CheckTradeEligibility(ctx, tx, seller); err != nil {
			return err
		}
		sellerTxn := domain.OpenTransaction(paymentID, seller.AccountID, seller.ParentID, trade.Type, now)
		sellerTxn.Income(trade.Amount, domain.FundTrade)
		for _, fee := range fees {
			if fee.ForSeller() {
				sellerTxn.Outgo(fee.Amount, fee.FundType)
			}
		}
		sellerStatus, err := s.engine.Submit(ctx, tx, sellerTxn)
		if err != nil {
			return err
		}
		status.Link(sellerStatus)

		// Fee collection is a side effect of settlement, not a leg of the
		// buyer-seller transfer, so its status is not linked.
		if len(fees) > 0 {
			merchant := payment.MerchantPermit()
			merchantTxn := domain.OpenTransaction(paymentID, merchant.ProfitAccount, 0, trade.Type, now)
			for _, fee := range fees {
				merchantTxn.Income(fee.Amount, fee.FundType)
			}
			if _, err := s.engine.Submit(ctx, tx, merchantTxn); err != nil {
				return err
			}
		}

		sellerFee := sumFees(fees, domain.FeeForSeller)
		rows, err := tx.CompareAndSetTradeState(ctx, repository.TradeUpdate{
			TradeID:    trade.TradeID,
			Fee:        &sellerFee,
			State:      domain.TradeSuccess,
			Version:    trade.Version,
			ModifiedAt: now,
		})
		if err != nil {
			return err
		}
		if err := requireVersionMatch("trade_order", rows); err != nil {
			return err
		}

		buyerFee := sumFees(fees, domain.FeeForBuyer)
		if err := tx.InsertTradePayment(ctx, &models.TradePayment{
			PaymentID:  paymentID,
			TradeID:    trade.TradeID,
			ChannelID:  payment.ChannelID,
			AccountID:  payment.AccountID,
			Amount:     payment.Amount,
			Fee:        buyerFee,
			State:      domain.PaymentSuccess,
			Version:    0,
			CreatedAt:  now,
			ModifiedAt: now,
		}); err != nil {
			return err
		}
		if len(fees) > 0 {
			paymentFees := make([]models.PaymentFee, 0, len(fees))
			for _, fee := range fees {
				paymentFees = append(paymentFees, models.PaymentFee{
					PaymentID:    paymentID,
					UseFor:       fee.UseFor,
					Amount:       fee.Amount,
					FundType:     fee.FundType,
					FundTypeName: fee.FundType.Name(),
					CreatedAt:    now,
				})
			}
			if err := tx.InsertPaymentFees(ctx, paymentFees); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		observability.IncrementSettlement("commit", "failed")
		return nil, err
	}

	observability.IncrementSettlement("commit", "success")
	zap.L().Info("trade committed",
		zap.String("trade_id", trade.TradeID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", trade.Amount))
	return domain.NewPaymentResult(domain.ResultSuccess, paymentID, status), nil
}

// Cancel reverses a previously committed trade: the seller pays back the
// trade amount and recovers seller-side fees, the buyer recovers the amount
// and buyer-side fees, and the merchant profit account returns all fees.
// Refund legs place income before outgo so no ledger entry records a
// spurious negative intermediate balance.
func (s *TradeSettlementService) Cancel(ctx context.Context, trade *models.TradeOrder, cancel *domain.Refund) (*domain.PaymentResult, error) {
	if trade.State != domain.TradeSuccess {
		return nil, domain.ErrOperationNotAllowed.WithMessage("invalid trade state for cancellation")
	}

	// Instant trades never split or combine payments: exactly one record.
	payment, err := s.store.FindTradePaymentByTradeID(ctx, trade.TradeID)
	if err != nil {
		return nil, err
	}
	if payment.State != domain.PaymentSuccess {
		return nil, domain.ErrOperationNotAllowed.WithMessage("trade payment already canceled")
	}

	// The refunding party's state is validated without a password since
	// cancellation may be system or merchant initiated.
	if _, err := s.guard.CheckState(ctx, trade.AccountID); err != nil {
		return nil, err
	}

	now := time.Now()
	paymentID := s.keygen.NextID()
	var status *domain.TransactionStatus

	err = s.store.RunInTx(ctx, func(tx repository.Tx) error {
		fees, err := tx.ListPaymentFees(ctx, payment.PaymentID)
		if err != nil {
			return err
		}

		// Fee returns settle against the merchant profit account. The merchant
		// is resolved from the request permit or the stored record before any
		// movement; an unregistered merchant aborts the cancellation even when
		// no fees were charged.
		merchant := cancel.MerchantPermit()
		if merchant == nil {
			record, err := tx.FindMerchantByID(ctx, trade.MchID)
			if err != nil {
				return domain.ErrObjectNotFound.WithMessage("merchant not registered")
			}
			merchant = record.Permit()
		}

		// Seller leg: return the trade amount, recover seller-side fees.
		seller, err := tx.FindFundAccountByID(ctx, trade.AccountID)
		if err != nil {
			return err
		}
		if err := s.guard.CheckTradeEligibility(ctx, tx, seller); err != nil {
			return err
		}
		sellerTxn := domain.OpenTransaction(paymentID, seller.AccountID, seller.ParentID, domain.TradeCancelTrade, now)
		for _, fee := range fees {
			if fee.ForSeller() {
				sellerTxn.Income(fee.Amount, fee.FundType)
			}
		}
		sellerTxn.Outgo(trade.Amount, domain.FundTrade)
		status, err = s.engine.Submit(ctx, tx, sellerTxn)
		if err != nil {
			return err
		}

		// Buyer leg: recover buyer-side fees, then the trade amount.
		buyer, err := tx.FindFundAccountByID(ctx, payment.AccountID)
		if err != nil {
			return err
		}
		if err := s.guard.CheckTradeEligibility(ctx, tx, buyer); err != nil {
			return err
		}
		buyerTxn := domain.OpenTransaction(paymentID, buyer.AccountID, buyer.ParentID, domain.TradeCancelTrade, now)
		for _, fee := range fees {
			if fee.ForBuyer() {
				buyerTxn.Income(fee.Amount, fee.FundType)
			}
		}
		buyerTxn.Income(trade.Amount, domain.FundTrade)
		buyerStatus, err := s.engine.Submit(ctx, tx, buyerTxn)
		if err != nil {
			return err
		}
		status.Link(buyerStatus)

		if len(fees) > 0 {
			merchantTxn := domain.OpenTransaction(paymentID, merchant.ProfitAccount, 0, domain.TradeCancelTrade, now)
			for _, fee := range fees {
				merchantTxn.Outgo(fee.Amount, fee.FundType)
			}
			if _, err := s.engine.Submit(ctx, tx, merchantTxn); err != nil {
				return err
			}
		}

		if err := tx.InsertRefundPayment(ctx, &models.RefundPayment{
			PaymentID: paymentID,
			Type:      domain.TradeCancelTrade,
			TradeID:   trade.TradeID,
			TradeType: trade.Type,
			Amount:    trade.Amount,
			Fee:       0,
			State:     domain.TradeSuccess,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		rows, err := tx.CompareAndSetPaymentState(ctx, repository.PaymentUpdate{
			PaymentID:  payment.PaymentID,
			State:      domain.PaymentCanceled,
			Version:    payment.Version,
			ModifiedAt: now,
		})
		if err != nil {
			return err
		}
		if err := requireVersionMatch("trade_payment", rows); err != nil {
			return err
		}

		rows, err = tx.CompareAndSetTradeState(ctx, repository.TradeUpdate{
			TradeID:    trade.TradeID,
			State:      domain.TradeCanceled,
			Version:    trade.Version,
			ModifiedAt: now,
		})
		if err != nil {
			return err
		}
		return requireVersionMatch("trade_order", rows)
	})
	if err != nil {
		observability.IncrementSettlement("cancel", "failed")
		return nil, err
	}

	observability.IncrementSettlement("cancel", "success")
	zap.L().Info("trade canceled",
		zap.String("trade_id", trade.TradeID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", trade.Amount))
	return domain.NewPaymentResult(domain.ResultSuccess, paymentID, status), nil
}
