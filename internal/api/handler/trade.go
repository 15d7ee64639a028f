package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/service"
)

type TradeHandler struct {
	trades     *service.TradeService
	settlement *service.TradeSettlementService
}

func NewTradeHandler(trades *service.TradeService, settlement *service.TradeSettlementService) *TradeHandler {
	return &TradeHandler{trades: trades, settlement: settlement}
}

func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Type     int   `json:"type"`
		SellerID int64 `json:"seller_id"`
		Amount   int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	order, err := h.trades.CreateTrade(r.Context(), mchID, domain.TradeType(req.Type), req.SellerID, req.Amount)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusCreated, order)
}

func (h *TradeHandler) GetTrade(w http.ResponseWriter, r *http.Request) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	order, err := h.trades.FindTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	if order.MchID != mchID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	RespondJSON(w, http.StatusOK, order)
}

// feePayload carries either a fixed fee amount in minor units or a rate
// ("0.015") applied to the trade amount.
type feePayload struct {
	UseFor   int    `json:"use_for"`
	Amount   int64  `json:"amount"`
	Rate     string `json:"rate"`
	FundType int    `json:"fund_type"`
}

type permitPayload struct {
	Code          string `json:"code"`
	ProfitAccount int64  `json:"profit_account"`
	VouchAccount  int64  `json:"vouch_account"`
	PledgeAccount int64  `json:"pledge_account"`
}

func (h *TradeHandler) Commit(w http.ResponseWriter, r *http.Request) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		AccountID int64          `json:"account_id"`
		Amount    int64          `json:"amount"`
		Password  string         `json:"password"`
		ChannelID int            `json:"channel_id"`
		Fees      []feePayload   `json:"fees"`
		Permit    *permitPayload `json:"merchant_permit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	order, ok := h.loadMerchantTrade(w, r, mchID)
	if !ok {
		return
	}

	channel, ok := domain.LookupChannelType(req.ChannelID)
	if !ok {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-channel", "Unknown payment channel")
		return
	}
	if req.Amount != order.Amount {
		RespondError(w, r, http.StatusBadRequest, "request/amount-mismatch", "Payment amount must match the trade amount")
		return
	}

	payment := domain.NewPayment(req.AccountID, req.Amount, req.Password, channel)
	if len(req.Fees) > 0 {
		fees, err := decodeFees(order.Amount, req.Fees)
		if err != nil {
			RespondDomainError(w, r, err)
			return
		}
		payment.WithFees(fees)
	}
	if req.Permit != nil {
		payment.WithMerchantPermit(decodePermit(mchID, req.Permit))
	}

	result, err := h.settlement.Commit(r.Context(), order, payment)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

func (h *TradeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Permit *permitPayload `json:"merchant_permit"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
			return
		}
	}

	order, ok := h.loadMerchantTrade(w, r, mchID)
	if !ok {
		return
	}

	cancel := domain.NewRefund(order.AccountID, order.Amount, "")
	if req.Permit != nil {
		cancel.WithMerchantPermit(decodePermit(mchID, req.Permit))
	}

	result, err := h.settlement.Cancel(r.Context(), order, cancel)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

func (h *TradeHandler) loadMerchantTrade(w http.ResponseWriter, r *http.Request, mchID int64) (*models.TradeOrder, bool) {
	order, err := h.trades.FindTrade(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return nil, false
	}
	if order.MchID != mchID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, false
	}
	return order, true
}

func decodeFees(tradeAmount int64, payload []feePayload) ([]domain.Fee, error) {
	fees := make([]domain.Fee, 0, len(payload))
	for _, f := range payload {
		if f.Rate != "" {
			rate, err := decimal.NewFromString(f.Rate)
			if err != nil || rate.IsNegative() {
				return nil, domain.ErrIllegalArgument.WithMessage("invalid fee rate")
			}
			fees = append(fees, domain.FeeOfRate(domain.FeeUse(f.UseFor), tradeAmount, rate))
			continue
		}
		fees = append(fees, domain.Fee{
			UseFor:   domain.FeeUse(f.UseFor),
			Amount:   f.Amount,
			FundType: domain.FundType(f.FundType),
		})
	}
	return fees, nil
}

func decodePermit(mchID int64, payload *permitPayload) *domain.MerchantPermit {
	return &domain.MerchantPermit{
		MchID:         mchID,
		Code:          payload.Code,
		ProfitAccount: payload.ProfitAccount,
		VouchAccount:  payload.VouchAccount,
		PledgeAccount: payload.PledgeAccount,
	}
}
