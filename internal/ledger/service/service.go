// Package service implements the donation and fee-distribution ledger:
// accepting donations against active campaigns, accruing verifier fee shares
// through per-partition accumulators, settling them into withdrawable
// balances, and paying withdrawals out through the bank.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"carefund/internal/bank"
	campaignservice "carefund/internal/campaign/service"
	"carefund/internal/ledger/metrics"
	"carefund/internal/ledger/store"
	"carefund/internal/oracle"
	"carefund/internal/platform/config"
	id "carefund/pkg/domain"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

const bpsDenominator = 10000

// Registry is the slice of the verifier registry the ledger depends on.
type Registry interface {
	RecordDonation(ctx context.Context, donor id.Principal, campaignID id.CampaignID) error
	Paused() bool
}

// FeePolicy supplies the currently governing service-fee rate.
type FeePolicy interface {
	CurrentBps() uint64
}

// AuditPublisher emits audit events for fund movements.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	campaigns *campaignservice.Service
	registry  Registry
	feePolicy FeePolicy
	fees      store.Store
	bank      bank.Transferer
	oracle    oracle.PriceSource
	cfg       config.Governance
	operator  id.Principal

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

func New(
	campaigns *campaignservice.Service,
	registry Registry,
	feePolicy FeePolicy,
	fees store.Store,
	transferer bank.Transferer,
	priceSource oracle.PriceSource,
	cfg config.Governance,
	operator id.Principal,
	opts ...Option,
) (*Service, error) {
	if campaigns == nil || registry == nil || feePolicy == nil || fees == nil || transferer == nil || priceSource == nil {
		return nil, errors.New("all ledger collaborators are required")
	}
	if operator.IsZero() {
		return nil, errors.New("operator principal is required")
	}
	s := &Service{
		campaigns: campaigns,
		registry:  registry,
		feePolicy: feePolicy,
		fees:      fees,
		bank:      transferer,
		oracle:    priceSource,
		cfg:       cfg,
		operator:  operator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, principal id.Principal, amount *big.Int, kv ...any) {
	if s.logger != nil {
		args := []any{"event", string(event), "principal", principal, "log_type", "audit"}
		if amount != nil {
			args = append(args, "amount", amount.String())
		}
		args = append(args, kv...)
		s.logger.InfoContext(ctx, "audit", args...)
	}
	if s.auditPublisher != nil {
		evt := audit.Event{
			Category:  audit.CategoryFunds,
			Timestamp: requestcontext.Now(ctx),
			Principal: principal,
			Action:    string(event),
			RequestID: requestcontext.RequestID(ctx),
			ActorID:   requestcontext.Caller(ctx).String(),
		}
		if amount != nil {
			evt.Amount = amount.String()
		}
		_ = s.auditPublisher.Emit(ctx, evt)
	}
}
