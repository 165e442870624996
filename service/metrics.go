package service

import (
	"errors"

	"expensetracker/ledger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ledgerRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "expense",
		Name:      "ledger_rejections_total",
		Help:      "Ledger operations rejected before commit, by reason",
	},
	[]string{"reason"},
)

// rejectionReason 记账失败的分类标签，非记账错误返回空串
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrNegativeBalance):
		return "negative_balance"
	case errors.Is(err, ledger.ErrBalanceInvariant):
		return "invariant"
	case errors.Is(err, ledger.ErrInvalidPaymentMethod),
		errors.Is(err, ledger.ErrInvalidType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrAmountOverflow):
		return "invalid_input"
	default:
		return ""
	}
}

func recordRejection(err error) {
	if reason := rejectionReason(err); reason != "" {
		ledgerRejections.WithLabelValues(reason).Inc()
	}
}
