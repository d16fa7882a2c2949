package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CampaignsCreated  prometheus.Counter
	CampaignVotes     prometheus.Counter
	CampaignsApproved prometheus.Counter
	CampaignsRejected prometheus.Counter
	CampaignsAppealed prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_campaigns_created_total",
			Help: "Total number of campaigns submitted for approval",
		}),
		CampaignVotes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_campaign_votes_total",
			Help: "Total number of votes cast on campaign ballots",
		}),
		CampaignsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_campaigns_approved_total",
			Help: "Total number of campaigns that passed both quorum partitions",
		}),
		CampaignsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_campaigns_rejected_total",
			Help: "Total number of campaigns rejected at finalization",
		}),
		CampaignsAppealed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carefund_campaigns_appealed_total",
			Help: "Total number of rejected campaigns reopened by appeal",
		}),
	}
}
