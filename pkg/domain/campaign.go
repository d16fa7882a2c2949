package domain

// CampaignID is the sequential identifier assigned to campaigns at creation.
type CampaignID uint64

// CampaignStatus is the lifecycle state of a campaign.
//
// Transitions only move forward (Pending→Active→Completed, Pending→Rejected)
// except Rejected→Pending via a bounded appeal. Completed is terminal.
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusRejected  CampaignStatus = "rejected"
	CampaignStatusCompleted CampaignStatus = "completed"
)
