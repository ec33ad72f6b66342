package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	EffectCredit   = "credit"
	EffectDebit    = "debit"
	EffectReversal = "reversal"
	EffectNone     = "none"

	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

var (
	SettlementTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transitions_total",
		Help: "Status transitions by transaction type and balance effect.",
	}, []string{"type", "effect"})

	// ContractorCommissionUnreversed counts SEPA reversals that left a contractor credit in place.
	ContractorCommissionUnreversed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_contractor_commission_unreversed_total",
		Help: "SEPA deposits moved out of a settled status without reversing the contractor commission.",
	})

	OutboxDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_deliveries_total",
		Help: "Outbox event deliveries by sink and result.",
	}, []string{"sink", "result"})

	RateRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_rate_refresh_total",
		Help: "Exchange rate refreshes by the source that ended up serving rates.",
	}, []string{"source"})
)
