package service

import (
	"github.com/marketpay/fund-custody/internal/domain"
	"github.com/marketpay/fund-custody/internal/observability"
)

// requireVersionMatch converts a compare-and-set row count into the
// concurrency-conflict signal. Zero rows means the record's version moved
// under the caller; the whole unit of work must be retried with fresh reads.
func requireVersionMatch(entity string, rows int64) error {
	if rows == 0 {
		observability.IncrementVersionConflict(entity)
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func sumFees(fees []domain.Fee, useFor domain.FeeUse) int64 {
	var total int64
	for _, fee := range fees {
		if fee.UseFor == useFor {
			total += fee.Amount
		}
	}
	return total
}
