package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Proposals         prometheus.Counter
	ProposalVotes     prometheus.Counter
	ProposalsExecuted prometheus.Counter
	ProposalsFailed   prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Proposals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_feepolicy_proposals_total",
			Help: "Total number of fee adjustment proposals",
		}),
		ProposalVotes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_feepolicy_proposal_votes_total",
			Help: "Total number of votes cast on fee proposals",
		}),
		ProposalsExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_feepolicy_proposals_executed_total",
			Help: "Total number of fee proposals that passed and took effect",
		}),
		ProposalsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_feepolicy_proposals_failed_total",
			Help: "Total number of fee proposals that failed at finalization",
		}),
	}
}
