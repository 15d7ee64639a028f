package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marketpay/fund-custody/internal/api/middleware"
	"github.com/marketpay/fund-custody/internal/api/problem"
	"github.com/marketpay/fund-custody/internal/domain"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestMerchant(r *http.Request) (int64, error) {
	mchID := middleware.MerchantIDFromContext(r.Context())
	if mchID <= 0 {
		return 0, errors.New("missing merchant in auth context")
	}
	return mchID, nil
}

// RespondDomainError maps a business error onto an HTTP status and problem
// type. Unknown errors fall through to 500 without leaking internals.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		if status, pType, msg, ok := mapDBError(err); ok {
			RespondError(w, r, status, pType, msg)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "internal-error", "unexpected server error")
		return
	}

	switch domainErr.Code {
	case domain.CodeIllegalArgument:
		RespondError(w, r, http.StatusBadRequest, "request/invalid-argument", domainErr.Message)
	case domain.CodeObjectNotFound:
		RespondError(w, r, http.StatusNotFound, "resource/not-found", domainErr.Message)
	case domain.CodeInvalidAccountState:
		RespondError(w, r, http.StatusConflict, "account/invalid-state", domainErr.Message)
	case domain.CodeInvalidPassword:
		RespondError(w, r, http.StatusForbidden, "account/invalid-password", domainErr.Message)
	case domain.CodeOperationNotAllowed:
		RespondError(w, r, http.StatusConflict, "trade/operation-not-allowed", domainErr.Message)
	case domain.CodeConcurrentUpdate:
		RespondError(w, r, http.StatusConflict, "trade/concurrent-update", domainErr.Message)
	default:
		RespondError(w, r, http.StatusInternalServerError, "operation-failed", domainErr.Message)
	}
}

func mapDBError(err error) (status int, problemType, message string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", "", false
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return http.StatusConflict, "db/unique-violation", "resource already exists", true
	case "23503": // foreign_key_violation
		return http.StatusBadRequest, "db/foreign-key-violation", "invalid reference", true
	case "23514": // check_violation
		return http.StatusBadRequest, "db/check-violation", "request violates data constraints", true
	case "23502": // not_null_violation
		return http.StatusBadRequest, "db/not-null-violation", "missing required field", true
	default:
		return 0, "", "", false
	}
}
