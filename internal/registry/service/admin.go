package service

import (
	"context"

	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// Pause halts all state-changing registry operations. Admin only.
func (s *Service) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller := requestcontext.Caller(ctx)
	if caller != s.admin {
		return dErrors.New(dErrors.CodeForbidden, "only the admin may pause the registry")
	}
	if s.paused {
		return dErrors.New(dErrors.CodeConflict, "registry already paused")
	}
	s.paused = true
	s.logAudit(ctx, audit.EventRegistryPaused, caller)
	return nil
}

// Resume lifts a pause. Admin only.
func (s *Service) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller := requestcontext.Caller(ctx)
	if caller != s.admin {
		return dErrors.New(dErrors.CodeForbidden, "only the admin may resume the registry")
	}
	if !s.paused {
		return dErrors.New(dErrors.CodeConflict, "registry is not paused")
	}
	s.paused = false
	s.logAudit(ctx, audit.EventRegistryResumed, caller)
	return nil
}

// SetCapacities adjusts per-class verifier caps. The registry must be paused.
func (s *Service) SetCapacities(ctx context.Context, maxHealth, maxDao int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	caller := requestcontext.Caller(ctx)
	if caller != s.admin {
		return dErrors.New(dErrors.CodeForbidden, "only the admin may set capacities")
	}
	if !s.paused {
		return dErrors.New(dErrors.CodeConflict, "registry must be paused to change capacities")
	}
	if maxHealth < 0 || maxDao < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "capacities must be non-negative")
	}
	s.maxHealth = maxHealth
	s.maxDao = maxDao
	return nil
}
