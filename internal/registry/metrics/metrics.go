package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ApplicationsSubmitted prometheus.Counter
	ApplicationVotes      prometheus.Counter
	VerifiersApproved     *prometheus.CounterVec
	VerifiersRejected     prometheus.Counter
	VerifiersRevoked      prometheus.Counter
	AutoDaoPromotions     prometheus.Counter
	GenesisConversions    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ApplicationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_applications_submitted_total",
			Help: "Total number of verifier applications submitted",
		}),
		ApplicationVotes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_application_votes_total",
			Help: "Total number of votes cast on verifier applications",
		}),
		VerifiersApproved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carefund_registry_verifiers_approved_total",
			Help: "Total number of verifiers approved, by type",
		}, []string{"type"}),
		VerifiersRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_verifiers_rejected_total",
			Help: "Total number of verifier applications rejected",
		}),
		VerifiersRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_verifiers_revoked_total",
			Help: "Total number of verifiers revoked",
		}),
		AutoDaoPromotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_auto_dao_promotions_total",
			Help: "Total number of donors silently promoted to AutoDao verifiers",
		}),
		GenesisConversions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_registry_genesis_conversions_total",
			Help: "Genesis committee conversions into ordinary DAO membership",
		}),
	}
}
