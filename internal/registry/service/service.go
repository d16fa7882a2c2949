// Package service implements the principal and credential registry: verifier
// admission, revocation, the Genesis bootstrap committee, and the donation
// counters that can silently promote a donor into an AutoDao verifier.
//
// Every exported operation runs under one mutex, reproducing the source
// environment's single-writer serialization: an operation completes fully or
// fails with no partial state. Time always comes from requestcontext.Now.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"carefund/internal/platform/config"
	"carefund/internal/registry/metrics"
	"carefund/internal/registry/models"
	"carefund/internal/registry/store"
	"carefund/internal/voting"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/platform/sentinel"
	"carefund/pkg/requestcontext"
)

// AuditPublisher emits audit events for governance-relevant operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	mu sync.Mutex

	store store.Store
	cfg   config.Governance
	admin id.Principal

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics

	// In-flight governance state. Ballots exist only between the first vote
	// (or proposal) and finalization; everything here is guarded by mu.
	applications          map[id.Principal]*voting.Ballot
	revocations           map[id.Principal]*voting.Ballot
	lastRevocationAttempt map[id.Principal]time.Time

	committee   models.Committee
	credentials *id.CredentialLedger

	healthCount uint64
	daoCount    uint64
	maxHealth   int
	maxDao      int

	donations map[id.Principal]map[id.CampaignID]bool

	paused bool
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

// New constructs the registry service.
func New(st store.Store, cfg config.Governance, admin id.Principal, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("registry store is required")
	}
	s := &Service{
		store:                 st,
		cfg:                   cfg,
		admin:                 admin,
		applications:          make(map[id.Principal]*voting.Ballot),
		revocations:           make(map[id.Principal]*voting.Ballot),
		lastRevocationAttempt: make(map[id.Principal]time.Time),
		credentials:           id.NewCredentialLedger(),
		donations:             make(map[id.Principal]map[id.CampaignID]bool),
		maxHealth:             cfg.MaxHealthVerifiers,
		maxDao:                cfg.MaxDaoVerifiers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// effectiveClass resolves the class a record votes with. Active Genesis
// members carry elevated Genesis weight; after conversion their records
// already read Dao, so no special case is needed.
func (s *Service) effectiveClass(rec *models.VerifierRecord) id.VerifierClass {
	if rec.Type == id.VerifierTypeGenesis && s.committee.Active {
		return id.ClassGenesis
	}
	if rec.Type == id.VerifierTypeGenesis {
		// Converted committee member whose record was not rewritten would be
		// an invariant violation; treat it as Dao, matching the conversion.
		return id.ClassDao
	}
	return rec.Type.Class()
}

// classCount returns the live approved-verifier count for a class.
func (s *Service) classCount(class id.VerifierClass) uint64 {
	switch class {
	case id.ClassHealth:
		return s.healthCount
	case id.ClassDao:
		return s.daoCount
	default:
		return 0
	}
}

func (s *Service) classAtCapacity(class id.VerifierClass) bool {
	switch class {
	case id.ClassHealth:
		return s.healthCount >= uint64(s.maxHealth)
	case id.ClassDao:
		return s.daoCount >= uint64(s.maxDao)
	default:
		return true
	}
}

func (s *Service) incrementClass(class id.VerifierClass) {
	switch class {
	case id.ClassHealth:
		s.healthCount++
	case id.ClassDao:
		s.daoCount++
	}
}

func (s *Service) decrementClass(class id.VerifierClass) {
	switch class {
	case id.ClassHealth:
		if s.healthCount > 0 {
			s.healthCount--
		}
	case id.ClassDao:
		if s.daoCount > 0 {
			s.daoCount--
		}
	}
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

// getRecord translates store sentinels into domain errors.
func (s *Service) getRecord(ctx context.Context, principal id.Principal) (*models.VerifierRecord, error) {
	rec, err := s.store.Get(ctx, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verifier record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verifier record")
	}
	return rec, nil
}

func (s *Service) requireNotPaused() error {
	if s.paused {
		return dErrors.New(dErrors.CodeConflict, "registry is paused")
	}
	return nil
}
