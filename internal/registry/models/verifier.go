package models

import (
	"strings"
	"time"

	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
)

// Document field indexes reported with validation errors. Callers resubmit
// the one offending field instead of guessing.
const (
	FieldFullName         = 1
	FieldContactInfo      = 2
	FieldGovernmentID     = 3
	FieldProfessionalDocs = 4
)

const maxDocumentFieldLen = 56

// Documents holds the opaque reference strings attached to a verifier
// application. The core never fetches or parses their content.
type Documents struct {
	FullName         string `json:"full_name"`
	ContactInfo      string `json:"contact_info"`
	GovernmentID     string `json:"government_id"`
	ProfessionalDocs string `json:"professional_docs,omitempty"`
}

// Validate checks each field in index order: length before trimming, then
// emptiness after trimming. ProfessionalDocs is only required for health
// professionals.
func (d Documents) Validate(requireProfessionalDocs bool) error {
	fields := []struct {
		index int
		value string
		check bool
	}{
		{FieldFullName, d.FullName, true},
		{FieldContactInfo, d.ContactInfo, true},
		{FieldGovernmentID, d.GovernmentID, true},
		{FieldProfessionalDocs, d.ProfessionalDocs, requireProfessionalDocs},
	}
	for _, f := range fields {
		if !f.check {
			continue
		}
		if len(f.value) > maxDocumentFieldLen {
			return dErrors.NewField(dErrors.CodeValidation, f.index, "field too long")
		}
		if strings.TrimSpace(f.value) == "" {
			return dErrors.NewField(dErrors.CodeValidation, f.index, "field is required")
		}
	}
	return nil
}

// VerifierRecord is the aggregate for one principal's verifier lifecycle.
//
// Invariants:
//   - a principal holds at most one record ever; only a rejected Genesis
//     application frees the principal to reapply
//   - Type is never None while the record exists
//   - CredentialID is non-zero exactly when Status is Approved
//   - Revoked is terminal
type VerifierRecord struct {
	Principal    id.Principal      `json:"principal"`
	Type         id.VerifierType   `json:"type"`
	Status       id.VerifierStatus `json:"status"`
	Documents    Documents         `json:"documents"`
	CredentialID uint64            `json:"credential_id,omitempty"`
	AppliedAt    time.Time         `json:"applied_at"`
	// ApplicationExpiry bounds Genesis applications; zero for other types.
	ApplicationExpiry time.Time `json:"application_expiry,omitzero"`
}

// IsApproved reports whether the record grants voting rights.
func (r *VerifierRecord) IsApproved() bool {
	return r.Status == id.VerifierStatusApproved && r.Type != id.VerifierTypeNone
}
