// Package service implements campaign submission, approval voting, and the
// appeal path. Donation handling lives in the ledger, which mutates campaign
// state through this service so everything stays behind one lock.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"carefund/internal/campaign/metrics"
	"carefund/internal/campaign/models"
	"carefund/internal/campaign/store"
	"carefund/internal/platform/config"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/platform/sentinel"
	"carefund/pkg/requestcontext"
)

// Registry is the slice of the verifier registry campaigns depend on.
// Calls flow one way only, campaign to registry, never back.
type Registry interface {
	IsApprovedVerifier(ctx context.Context, principal id.Principal) bool
	EffectiveClassOf(ctx context.Context, principal id.Principal) (id.VerifierClass, error)
	ApprovedCount(class id.VerifierClass) uint64
	Paused() bool
}

// AuditPublisher emits audit events for campaign state transitions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	mu sync.Mutex

	store    store.Store
	registry Registry
	cfg      config.Governance

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

func New(st store.Store, registry Registry, cfg config.Governance, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("campaign store is required")
	}
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	s := &Service{store: st, registry: registry, cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithCampaign runs fn against the stored campaign under the service lock and
// persists the result. The ledger uses this for donation-side mutations so
// campaign and donation state share one writer.
func (s *Service) WithCampaign(ctx context.Context, campaignID id.CampaignID, fn func(*models.Campaign) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := fn(campaign); err != nil {
		return err
	}
	if err := s.store.Update(ctx, campaign); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}
	return nil
}

func (s *Service) getCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	campaign, err := s.store.Get(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "campaign not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load campaign")
	}
	return campaign, nil
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
