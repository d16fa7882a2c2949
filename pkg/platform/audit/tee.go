package audit

import (
	"context"

	id "carefund/pkg/domain"
)

// TeeStore appends to a primary store and mirrors writes to a secondary sink.
// Reads are served from the primary. Sink failures do not fail the append;
// the audit trail's local copy is authoritative.
type TeeStore struct {
	primary Store
	sink    Store
}

func Tee(primary, sink Store) *TeeStore {
	return &TeeStore{primary: primary, sink: sink}
}

func (t *TeeStore) Append(ctx context.Context, event Event) error {
	if err := t.primary.Append(ctx, event); err != nil {
		return err
	}
	_ = t.sink.Append(ctx, event)
	return nil
}

func (t *TeeStore) ListByPrincipal(ctx context.Context, principal id.Principal) ([]Event, error) {
	return t.primary.ListByPrincipal(ctx, principal)
}
