package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marketpay/fund-custody/internal/api/middleware"
	"github.com/marketpay/fund-custody/internal/repository"
)

type AuthHandler struct {
	store repository.Store
}

func NewAuthHandler(store repository.Store) *AuthHandler {
	return &AuthHandler{store: store}
}

// Login exchanges a merchant id and secure code for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MchID int64  `json:"mch_id"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	merchant, err := h.store.FindMerchantByID(r.Context(), req.MchID)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "invalid merchant credentials")
		return
	}
	if subtle.ConstantTimeCompare([]byte(merchant.Code), []byte(req.Code)) != 1 {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-credentials", "invalid merchant credentials")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"mch_id": merchant.MchID,
		"role":   "merchant",
		"iss":    middleware.JWTIssuer(),
		"aud":    middleware.JWTAudience(),
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		zap.L().Error("token signing failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-signing-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}
