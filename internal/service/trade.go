package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/repository"
	"github.com/marketpay/fund-custody/internal/sequence"
)

// CreateTrade captures the merchant, seller and amount of a trade before any
// money moves. A new order always starts PENDING at version zero.
type TradeService struct {
	store  repository.Store
	keygen sequence.KeyGenerator
}

func NewTradeService(store repository.Store, keygen sequence.KeyGenerator) *TradeService {
	return &TradeService{store: store, keygen: keygen}
}

func (s *TradeService) CreateTrade(ctx context.Context, mchID int64, tradeType domain.TradeType, sellerID, amount int64) (*models.TradeOrder, error) {
	if amount <= 0 {
		return nil, domain.ErrIllegalArgument.WithMessage("trade amount must be positive")
	}
	if _, ok := domain.LookupTradeType(int(tradeType)); !ok {
		return nil, domain.ErrIllegalArgument.WithMessage("unknown trade type")
	}
	seller, err := s.store.FindFundAccountByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.MchID != mchID {
		return nil, domain.ErrOperationNotAllowed.WithMessage("seller account belongs to another merchant")
	}

	now := time.Now()
	order := &models.TradeOrder{
		TradeID:    s.keygen.NextID(),
		Type:       tradeType,
		MchID:      mchID,
		AccountID:  sellerID,
		Amount:     amount,
		State:      domain.TradePending,
		Version:    0,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.store.InsertTradeOrder(ctx, order); err != nil {
		return nil, err
	}
	zap.L().Info("trade created",
		zap.String("trade_id", order.TradeID),
		zap.Int64("mch_id", mchID),
		zap.Int64("amount", amount))
	return order, nil
}

func (s *TradeService) FindTrade(ctx context.Context, tradeID string) (*models.TradeOrder, error) {
	if tradeID == "" {
		return nil, domain.ErrIllegalArgument.WithMessage("trade id missed")
	}
	return s.store.FindTradeOrderByID(ctx, tradeID)
}
