package audit

import (
	"context"
	"time"

	id "carefund/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryGovernance covers admission, revocation, and policy decisions.
	// These require tamper-evident storage and long retention.
	CategoryGovernance EventCategory = "governance"

	// CategoryFunds covers events that move or accrue value: donations,
	// settlements, withdrawals. These feed reconciliation.
	CategoryFunds EventCategory = "funds"

	// CategoryOperations covers events useful for debugging and operational
	// visibility; these can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Principal id.Principal
	Action    string
	Amount    string // decimal string for value-bearing events
	RequestID string
	// ActorID tracks who performed the action when different from Principal
	// (admin operations, permissionless maintenance calls).
	ActorID string
}

type AuditEvent string

const (
	// Registry events
	EventApplicationSubmitted AuditEvent = "application_submitted"
	EventApplicationVote      AuditEvent = "application_vote"
	EventVerifierApproved     AuditEvent = "verifier_approved"
	EventVerifierRejected     AuditEvent = "verifier_rejected"
	EventRevocationProposed   AuditEvent = "revocation_proposed"
	EventRevocationVote       AuditEvent = "revocation_vote"
	EventVerifierRevoked      AuditEvent = "verifier_revoked"
	EventAutoDaoPromoted      AuditEvent = "auto_dao_promoted"
	EventRegistryPaused       AuditEvent = "registry_paused"
	EventRegistryResumed      AuditEvent = "registry_resumed"

	// Genesis events
	EventGenesisApplied   AuditEvent = "genesis_applied"
	EventGenesisApproved  AuditEvent = "genesis_approved"
	EventGenesisRejected  AuditEvent = "genesis_rejected"
	EventGenesisConverted AuditEvent = "genesis_converted"

	// Campaign events
	EventCampaignCreated   AuditEvent = "campaign_created"
	EventCampaignVote      AuditEvent = "campaign_vote"
	EventCampaignApproved  AuditEvent = "campaign_approved"
	EventCampaignRejected  AuditEvent = "campaign_rejected"
	EventCampaignAppealed  AuditEvent = "campaign_appealed"
	EventCampaignCompleted AuditEvent = "campaign_completed"

	// Ledger events
	EventDonationReceived AuditEvent = "donation_received"
	EventFeesSettled      AuditEvent = "fees_settled"
	EventFeesWithdrawn    AuditEvent = "fees_withdrawn"

	// Fee policy events
	EventFeeProposalCreated  AuditEvent = "fee_proposal_created"
	EventFeeProposalVote     AuditEvent = "fee_proposal_vote"
	EventFeeProposalExecuted AuditEvent = "fee_proposal_executed"
	EventFeeProposalFailed   AuditEvent = "fee_proposal_failed"
)

// Store is the persistence surface for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPrincipal(ctx context.Context, principal id.Principal) ([]Event, error)
}
