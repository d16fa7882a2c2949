package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborator adapters
// return these (optionally wrapped) so services can translate them into domain
// errors with the right code.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists / unique constraint hit
// - ErrExpired: application or proposal window has lapsed
// - ErrInvalidState: entity in wrong lifecycle state for the operation
// - ErrTransferFailed: an outbound value transfer did not complete
// - ErrUnavailable: collaborator (oracle, bank) temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrExpired        = errors.New("expired")
	ErrInvalidState   = errors.New("invalid state")
	ErrTransferFailed = errors.New("transfer failed")
	ErrUnavailable    = errors.New("unavailable")
)
