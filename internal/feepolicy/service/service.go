// Package service governs the platform service-fee rate. Any approved
// verifier may propose a new rate inside the allowed band; the whole
// verifier population votes, and finalization is always an explicit call
// after the window closes, never a side effect of the last vote.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"carefund/internal/feepolicy/metrics"
	"carefund/internal/platform/config"
	"carefund/internal/voting"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// Registry is the slice of the verifier registry fee governance depends on.
type Registry interface {
	IsApprovedVerifier(ctx context.Context, principal id.Principal) bool
	TotalApproved() uint64
}

// AuditPublisher emits audit events for fee governance.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	mu sync.Mutex

	registry Registry
	cfg      config.Governance

	currentBps     uint64
	proposal       *voting.Ballot
	proposedBps    uint64
	proposer       id.Principal
	lastProposalAt time.Time
	hasProposed    bool

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(registry Registry, cfg config.Governance, opts ...Option) (*Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Service{registry: registry, cfg: cfg, currentBps: cfg.FeeBps}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CurrentBps returns the fee rate in force, in basis points.
func (s *Service) CurrentBps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentBps
}

// ProposeFeeAdjustment opens a proposal to change the fee rate. One proposal
// at a time, globally, with a cooldown between proposals that is waived for
// the very first one.
func (s *Service) ProposeFeeAdjustment(ctx context.Context, proposer id.Principal, bps uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.IsApprovedVerifier(ctx, proposer) {
		return dErrors.New(dErrors.CodeForbidden, "proposer is not an approved verifier")
	}
	if bps < s.cfg.FeeBpsMin || bps > s.cfg.FeeBpsMax {
		return dErrors.Newf(dErrors.CodeValidation, "fee must be between %d and %d basis points", s.cfg.FeeBpsMin, s.cfg.FeeBpsMax)
	}
	if s.proposal != nil {
		return dErrors.New(dErrors.CodeConflict, "a fee proposal is already pending")
	}

	now := requestcontext.Now(ctx)
	if s.hasProposed && now.Before(s.lastProposalAt.Add(s.cfg.FeeProposalCooldown)) {
		return dErrors.New(dErrors.CodeConflict, "fee proposal cooldown active")
	}

	ballot := voting.NewBallot()
	ballot.OpenWindow(now, s.cfg.FeeProposalWindow)
	s.proposal = ballot
	s.proposedBps = bps
	s.proposer = proposer
	s.lastProposalAt = now
	s.hasProposed = true

	s.logAudit(ctx, audit.EventFeeProposalCreated, proposer, "bps", bps)
	if s.metrics != nil {
		s.metrics.Proposals.Inc()
	}
	return nil
}

// VoteOnFeeAdjustment records one vote on the open proposal. Unlike the
// other ballots, the last vote never finalizes; FinalizeProposal is always a
// separate call.
func (s *Service) VoteOnFeeAdjustment(ctx context.Context, voter id.Principal, support bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.registry.IsApprovedVerifier(ctx, voter) {
		return dErrors.New(dErrors.CodeForbidden, "voter is not an approved verifier")
	}
	if s.proposal == nil {
		return dErrors.New(dErrors.CodeConflict, "no open fee proposal")
	}
	if err := s.proposal.Cast(voter, support, requestcontext.Now(ctx)); err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventFeeProposalVote, voter, "support", support)
	if s.metrics != nil {
		s.metrics.ProposalVotes.Inc()
	}
	return nil
}

// FinalizeProposal resolves the proposal after its window closes. Passing
// requires half the whole verifier population to have voted and a seventy
// percent yes share.
func (s *Service) FinalizeProposal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proposal == nil {
		return dErrors.New(dErrors.CodeConflict, "no open fee proposal")
	}
	now := requestcontext.Now(ctx)
	if !s.proposal.Closed(now) {
		return dErrors.New(dErrors.CodeConflict, "voting period not ended")
	}

	eligible := s.registry.TotalApproved()
	passed := voting.Passed(s.proposal.Yes, s.proposal.No, eligible, s.cfg.FeeParticipationPct, s.cfg.FeeApprovalPct)

	if passed {
		s.currentBps = s.proposedBps
		s.logAudit(ctx, audit.EventFeeProposalExecuted, s.proposer, "bps", s.proposedBps)
		if s.metrics != nil {
			s.metrics.ProposalsExecuted.Inc()
		}
	} else {
		s.logAudit(ctx, audit.EventFeeProposalFailed, s.proposer, "bps", s.proposedBps)
		if s.metrics != nil {
			s.metrics.ProposalsFailed.Inc()
		}
	}

	s.proposal = nil
	s.proposedBps = 0
	s.proposer = id.ZeroPrincipal
	return nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, principal id.Principal, kv ...any) {
	if s.logger != nil {
		args := append([]any{"event", string(event), "principal", principal, "log_type", "audit"}, kv...)
		s.logger.InfoContext(ctx, "audit", args...)
	}
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, audit.Event{
			Category:  audit.CategoryGovernance,
			Timestamp: requestcontext.Now(ctx),
			Principal: principal,
			Action:    string(event),
			RequestID: requestcontext.RequestID(ctx),
			ActorID:   requestcontext.Caller(ctx).String(),
		})
	}
}
