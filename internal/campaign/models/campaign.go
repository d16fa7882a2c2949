package models

import (
	"math/big"
	"strings"
	"time"

	"carefund/internal/voting"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
)

const maxCommentLen = 300

// PatientDetails identifies the beneficiary. All four fields are required.
type PatientDetails struct {
	FullName           string `json:"full_name"`
	MobileNumber       string `json:"mobile_number"`
	ResidentialAddress string `json:"residential_address"`
	GovernmentID       string `json:"government_id"`
}

func (d PatientDetails) Validate() error {
	if strings.TrimSpace(d.FullName) == "" ||
		strings.TrimSpace(d.MobileNumber) == "" ||
		strings.TrimSpace(d.ResidentialAddress) == "" ||
		strings.TrimSpace(d.GovernmentID) == "" {
		return dErrors.New(dErrors.CodeValidation, "all patient details are required")
	}
	return nil
}

// GuardianDetails is present when a guardian submits on the patient's behalf.
// A zero Guardian principal means no guardian.
type GuardianDetails struct {
	Guardian           id.Principal `json:"guardian"`
	FullName           string       `json:"full_name"`
	MobileNumber       string       `json:"mobile_number"`
	ResidentialAddress string       `json:"residential_address"`
	GovernmentID       string       `json:"government_id"`
}

func (d GuardianDetails) Validate(patient id.Principal) error {
	if d.Guardian.IsZero() {
		return nil
	}
	if d.Guardian == patient {
		return dErrors.New(dErrors.CodeValidation, "guardian must differ from patient")
	}
	if strings.TrimSpace(d.FullName) == "" ||
		strings.TrimSpace(d.MobileNumber) == "" ||
		strings.TrimSpace(d.ResidentialAddress) == "" ||
		strings.TrimSpace(d.GovernmentID) == "" {
		return dErrors.New(dErrors.CodeValidation, "all guardian details are required")
	}
	return nil
}

// Documents holds the six campaign document references. The first four are
// mandatory at creation; medical bills and insurance documents are optional.
// References are opaque strings (URIs or content hashes), never content.
type Documents struct {
	DiagnosisReport    string `json:"diagnosis_report"`
	DoctorsLetter      string `json:"doctors_letter"`
	GovernmentID       string `json:"government_id"`
	PatientPhoto       string `json:"patient_photo"`
	MedicalBills       string `json:"medical_bills"`
	InsuranceDocuments string `json:"insurance_documents"`
}

func (d Documents) Validate() error {
	if d.DiagnosisReport == "" {
		return dErrors.New(dErrors.CodeValidation, "diagnosis report reference is required")
	}
	if d.DoctorsLetter == "" {
		return dErrors.New(dErrors.CodeValidation, "doctor's letter reference is required")
	}
	if d.GovernmentID == "" {
		return dErrors.New(dErrors.CodeValidation, "government id reference is required")
	}
	if d.PatientPhoto == "" {
		return dErrors.New(dErrors.CodeValidation, "patient photo reference is required")
	}
	return nil
}

// ConsentFlags gate non-verifier visibility of each document reference.
type ConsentFlags struct {
	DiagnosisReport    bool `json:"diagnosis_report"`
	DoctorsLetter      bool `json:"doctors_letter"`
	GovernmentID       bool `json:"government_id"`
	PatientPhoto       bool `json:"patient_photo"`
	MedicalBills       bool `json:"medical_bills"`
	InsuranceDocuments bool `json:"insurance_documents"`
}

// Redact applies the consent flags to a document set, blanking anything the
// patient has not consented to share.
func (c ConsentFlags) Redact(d Documents) Documents {
	out := Documents{}
	if c.DiagnosisReport {
		out.DiagnosisReport = d.DiagnosisReport
	}
	if c.DoctorsLetter {
		out.DoctorsLetter = d.DoctorsLetter
	}
	if c.GovernmentID {
		out.GovernmentID = d.GovernmentID
	}
	if c.PatientPhoto {
		out.PatientPhoto = d.PatientPhoto
	}
	if c.MedicalBills {
		out.MedicalBills = d.MedicalBills
	}
	if c.InsuranceDocuments {
		out.InsuranceDocuments = d.InsuranceDocuments
	}
	return out
}

// ValidateComment enforces the shared comment rule: non-empty after trimming
// and at most 300 characters.
func ValidateComment(comment string) error {
	if len(comment) > maxCommentLen {
		return dErrors.New(dErrors.CodeValidation, "comment too long")
	}
	if strings.TrimSpace(comment) == "" {
		return dErrors.New(dErrors.CodeValidation, "comment is required")
	}
	return nil
}

// Campaign is the full funding-request record, including the approval vote
// partitions and the fee-accrual accumulators the ledger maintains.
type Campaign struct {
	ID       id.CampaignID
	Patient  id.Principal
	Guardian GuardianDetails

	TargetUSD *big.Int
	Duration  time.Duration
	Comment   string

	PatientDetails PatientDetails
	Documents      Documents
	Consent        ConsentFlags

	Status      id.CampaignStatus
	CreatedAt   time.Time
	StartTime   time.Time // funding window start, set on approval
	AppealCount int

	// Approval voting state. The two partitions share one deadline and one
	// voted set; each must pass quorum independently.
	VotingDeadline time.Time
	Voted          map[id.Principal]bool
	HealthYes      uint64
	HealthNo       uint64
	DaoYes         uint64
	DaoNo          uint64

	// Verifier counts captured at creation, kept for observability. Quorum
	// at finalization uses live registry counts.
	HealthCountAtStart uint64
	DaoCountAtStart    uint64

	// Donation and fee state, all 18-decimal fixed point.
	DonatedUSD        *big.Int
	TotalFeeCollected *big.Int
	Donors            []id.Principal

	HealthAccumulator  *big.Int
	DaoAccumulator     *big.Int
	HealthParticipants []id.Principal
	DaoParticipants    []id.Principal
	Baselines          map[id.Principal]*big.Int
	FeesDistributed    bool
}

// VotingOpen reports whether the approval window is still accepting votes.
func (c *Campaign) VotingOpen(now time.Time) bool {
	return c.Status == id.CampaignStatusPending && !now.After(c.VotingDeadline)
}

// VotingClosed reports whether the window has ended without finalization.
func (c *Campaign) VotingClosed(now time.Time) bool {
	return c.Status == id.CampaignStatusPending && !now.Before(c.VotingDeadline)
}

// FundingOpen reports whether the campaign currently accepts donations.
func (c *Campaign) FundingOpen(now time.Time) bool {
	return c.Status == id.CampaignStatusActive && !now.After(c.StartTime.Add(c.Duration))
}

// Expired reports whether an active campaign's funding window has elapsed.
func (c *Campaign) Expired(now time.Time) bool {
	return c.Status == id.CampaignStatusActive && now.After(c.StartTime.Add(c.Duration))
}

// HasVoted reports whether the principal already voted this appeal round.
func (c *Campaign) HasVoted(p id.Principal) bool {
	return c.Voted[p]
}

// RecordVote tallies a vote in the given partition.
func (c *Campaign) RecordVote(voter id.Principal, class id.VerifierClass, support bool) {
	if c.Voted == nil {
		c.Voted = make(map[id.Principal]bool)
	}
	c.Voted[voter] = true
	switch class {
	case id.ClassHealth:
		if support {
			c.HealthYes++
		} else {
			c.HealthNo++
		}
	default:
		if support {
			c.DaoYes++
		} else {
			c.DaoNo++
		}
	}
}

// ResetVotes clears both partitions for an appeal round.
func (c *Campaign) ResetVotes() {
	c.Voted = make(map[id.Principal]bool)
	c.HealthYes, c.HealthNo = 0, 0
	c.DaoYes, c.DaoNo = 0, 0
}

// PartitionsPass evaluates both quorum partitions against live counts.
func (c *Campaign) PartitionsPass(healthEligible, daoEligible, participationPct, approvalPct uint64) bool {
	return voting.Passed(c.HealthYes, c.HealthNo, healthEligible, participationPct, approvalPct) &&
		voting.Passed(c.DaoYes, c.DaoNo, daoEligible, participationPct, approvalPct)
}

// IsParticipant reports membership in either fee partition.
func (c *Campaign) IsParticipant(p id.Principal) bool {
	for _, hp := range c.HealthParticipants {
		if hp == p {
			return true
		}
	}
	for _, dp := range c.DaoParticipants {
		if dp == p {
			return true
		}
	}
	return false
}

// AddParticipant appends a first-time voter to a fee partition with a
// baseline at the partition's current accumulator.
func (c *Campaign) AddParticipant(p id.Principal, class id.VerifierClass) {
	if c.IsParticipant(p) {
		return
	}
	if c.Baselines == nil {
		c.Baselines = make(map[id.Principal]*big.Int)
	}
	switch class {
	case id.ClassHealth:
		c.HealthParticipants = append(c.HealthParticipants, p)
		c.Baselines[p] = new(big.Int).Set(c.HealthAccumulator)
	default:
		c.DaoParticipants = append(c.DaoParticipants, p)
		c.Baselines[p] = new(big.Int).Set(c.DaoAccumulator)
	}
}

// Clone deep-copies the campaign so store callers cannot alias internal state.
func (c *Campaign) Clone() *Campaign {
	out := *c
	out.TargetUSD = cloneInt(c.TargetUSD)
	out.DonatedUSD = cloneInt(c.DonatedUSD)
	out.TotalFeeCollected = cloneInt(c.TotalFeeCollected)
	out.HealthAccumulator = cloneInt(c.HealthAccumulator)
	out.DaoAccumulator = cloneInt(c.DaoAccumulator)
	out.Donors = append([]id.Principal(nil), c.Donors...)
	out.HealthParticipants = append([]id.Principal(nil), c.HealthParticipants...)
	out.DaoParticipants = append([]id.Principal(nil), c.DaoParticipants...)
	if c.Voted != nil {
		out.Voted = make(map[id.Principal]bool, len(c.Voted))
		for k, v := range c.Voted {
			out.Voted[k] = v
		}
	}
	if c.Baselines != nil {
		out.Baselines = make(map[id.Principal]*big.Int, len(c.Baselines))
		for k, v := range c.Baselines {
			out.Baselines[k] = cloneInt(v)
		}
	}
	return &out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
