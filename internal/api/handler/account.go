package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/models"
	"github.com/marketpay/fund-custody/internal/service"
)

type AccountHandler struct {
	svc *service.FundAccountService
}

func NewAccountHandler(svc *service.FundAccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req domain.RegisterAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	accountID, err := h.svc.CreateAccount(r.Context(), mchID, &req)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	zap.L().Info("account registered", zap.Int64("account_id", accountID), zap.Int64("mch_id", mchID))
	RespondJSON(w, http.StatusCreated, map[string]int64{"account_id": accountID})
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	RespondJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	fund, err := h.svc.FindFundByID(r.Context(), account.AccountID)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, fundView{
		AccountFund:    *fund,
		BalanceDisplay: domain.NewMoney(fund.Balance, domain.Currency).String(),
	})
}

type fundView struct {
	models.AccountFund
	BalanceDisplay string `json:"balance_display"`
}

type activityView struct {
	models.FundActivity
	AmountDisplay  string `json:"amount_display"`
	BalanceDisplay string `json:"balance_display"`
}

func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	entries, err := h.svc.Statement(r.Context(), account.AccountID, page, pageSize)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	views := make([]activityView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, activityView{
			FundActivity:   entry,
			AmountDisplay:  domain.NewMoney(entry.Amount, domain.Currency).String(),
			BalanceDisplay: domain.NewMoney(entry.Balance, domain.Currency).String(),
		})
	}
	RespondJSON(w, http.StatusOK, views)
}

func (h *AccountHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, h.svc.Freeze, "account frozen")
}

func (h *AccountHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, h.svc.Unfreeze, "account unfrozen")
}

func (h *AccountHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	account, mchID, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	if err := h.svc.Unregister(r.Context(), mchID, account.AccountID); err != nil {
		RespondDomainError(w, r, err)
		return
	}

	zap.L().Info("account unregistered", zap.Int64("account_id", account.AccountID), zap.Int64("mch_id", mchID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	account, mchID, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	if err := h.svc.ResetPassword(r.Context(), account.AccountID, req.Password); err != nil {
		RespondDomainError(w, r, err)
		return
	}

	zap.L().Info("account password reset", zap.Int64("account_id", account.AccountID), zap.Int64("mch_id", mchID))
	RespondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	account, _, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	// Deposit amounts arrive in major units ("25.00") and settle in minor
	// units internally.
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-amount", "Invalid deposit amount")
		return
	}

	status, err := h.svc.Deposit(r.Context(), account.AccountID, domain.FromDecimal(amount))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	RespondJSON(w, http.StatusOK, status)
}

func (h *AccountHandler) setState(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, accountID int64) error, logMsg string) {
	account, mchID, ok := h.ownedAccount(w, r)
	if !ok {
		return
	}

	if err := op(r.Context(), account.AccountID); err != nil {
		RespondDomainError(w, r, err)
		return
	}

	zap.L().Info(logMsg, zap.Int64("account_id", account.AccountID), zap.Int64("mch_id", mchID))
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ownedAccount resolves the path account and rejects callers from another
// merchant. Handlers that mutate or read account state go through here.
func (h *AccountHandler) ownedAccount(w http.ResponseWriter, r *http.Request) (*models.FundAccount, int64, bool) {
	mchID, err := requestMerchant(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return nil, 0, false
	}

	accountID, ok := pathAccountID(w, r)
	if !ok {
		return nil, 0, false
	}

	account, err := h.svc.FindByID(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, r, err)
		return nil, 0, false
	}
	if account.MchID != mchID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return nil, 0, false
	}

	return account, mchID, true
}

func pathAccountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accountID <= 0 {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account ID")
		return 0, false
	}
	return accountID, true
}
