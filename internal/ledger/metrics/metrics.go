package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DonationsReceived  prometheus.Counter
	CampaignsCompleted prometheus.Counter
	FeeSettlements     prometheus.Counter
	FeeWithdrawals     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		DonationsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_ledger_donations_total",
			Help: "Total number of accepted donations",
		}),
		CampaignsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_ledger_campaigns_completed_total",
			Help: "Total number of campaigns completed by target or expiry",
		}),
		FeeSettlements: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_ledger_fee_settlements_total",
			Help: "Total number of campaign fee settlements",
		}),
		FeeWithdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_ledger_fee_withdrawals_total",
			Help: "Total number of fee withdrawals",
		}),
	}
}
