package domain

import (
	dErrors "carefund/pkg/domain-errors"
)

// CredentialLedger tracks the one-per-principal non-transferable badge minted
// on verifier approval. Mint and burn are the only valid transitions; a
// transfer between two non-null holders is always rejected.
type CredentialLedger struct {
	holders map[uint64]Principal
	held    map[Principal]uint64
	nextID  uint64
}

func NewCredentialLedger() *CredentialLedger {
	return &CredentialLedger{
		holders: make(map[uint64]Principal),
		held:    make(map[Principal]uint64),
	}
}

// Mint issues a new credential to the holder and returns its ID.
func (l *CredentialLedger) Mint(holder Principal) (uint64, error) {
	if holder.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "credential holder required")
	}
	if _, ok := l.held[holder]; ok {
		return 0, dErrors.New(dErrors.CodeConflict, "principal already holds a credential")
	}
	l.nextID++
	credID := l.nextID
	l.holders[credID] = holder
	l.held[holder] = credID
	return credID, nil
}

// Burn destroys the credential; used on revocation.
func (l *CredentialLedger) Burn(credID uint64) error {
	holder, ok := l.holders[credID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	delete(l.holders, credID)
	delete(l.held, holder)
	return nil
}

// Transfer rejects any move between two live holders. It exists to make the
// non-transferability rule explicit rather than implied by a missing method.
func (l *CredentialLedger) Transfer(credID uint64, to Principal) error {
	if _, ok := l.holders[credID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	if !to.IsZero() {
		return dErrors.New(dErrors.CodeForbidden, "credentials are non-transferable")
	}
	return dErrors.New(dErrors.CodeForbidden, "credentials can only be burned")
}

// HolderOf returns the current holder, if any.
func (l *CredentialLedger) HolderOf(credID uint64) (Principal, bool) {
	p, ok := l.holders[credID]
	return p, ok
}
