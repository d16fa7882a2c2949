package domain

// VerifierType identifies how a principal became (or is trying to become) a
// verifier.
type VerifierType string

const (
	VerifierTypeNone               VerifierType = ""
	VerifierTypeHealthProfessional VerifierType = "health_professional"
	VerifierTypeDao                VerifierType = "dao"
	VerifierTypeAutoDao            VerifierType = "auto_dao"
	VerifierTypeGenesis            VerifierType = "genesis"
)

var validVerifierTypes = map[VerifierType]bool{
	VerifierTypeHealthProfessional: true,
	VerifierTypeDao:                true,
	VerifierTypeAutoDao:            true,
	VerifierTypeGenesis:            true,
}

// IsValid reports whether t is a recognized non-empty verifier type.
func (t VerifierType) IsValid() bool { return validVerifierTypes[t] }

func (t VerifierType) String() string { return string(t) }

// VerifierClass partitions verifier types for vote eligibility and quorum
// math. Dao and AutoDao are interchangeable; Genesis is its own class until
// the committee converts, after which members carry VerifierTypeDao.
type VerifierClass string

const (
	ClassNone    VerifierClass = ""
	ClassHealth  VerifierClass = "health"
	ClassDao     VerifierClass = "dao"
	ClassGenesis VerifierClass = "genesis"
)

// Class maps a verifier type to its voting class.
func (t VerifierType) Class() VerifierClass {
	switch t {
	case VerifierTypeHealthProfessional:
		return ClassHealth
	case VerifierTypeDao, VerifierTypeAutoDao:
		return ClassDao
	case VerifierTypeGenesis:
		return ClassGenesis
	default:
		return ClassNone
	}
}

// VerifierStatus is the lifecycle state of a verifier record.
type VerifierStatus string

const (
	VerifierStatusNone     VerifierStatus = ""
	VerifierStatusPending  VerifierStatus = "pending"
	VerifierStatusApproved VerifierStatus = "approved"
	VerifierStatusRejected VerifierStatus = "rejected"
	VerifierStatusRevoked  VerifierStatus = "revoked"
)
