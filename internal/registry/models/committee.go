package models

import (
	"time"

	id "carefund/pkg/domain"
)

// Committee is the Genesis bootstrap body: up to five admin-approved members
// who seed the registry until graduation or timeout, then convert into
// ordinary DAO verifiers exactly once.
type Committee struct {
	Members   []id.Principal `json:"members"`
	Active    bool           `json:"active"`
	StartTime time.Time      `json:"start_time,omitzero"`

	// Genesis-attributed approvals, tracked toward early graduation.
	HealthApprovals uint64 `json:"health_approvals"`
	DaoApprovals    uint64 `json:"dao_approvals"`
}

// Has reports whether p is a committee member.
func (c *Committee) Has(p id.Principal) bool {
	for _, m := range c.Members {
		if m == p {
			return true
		}
	}
	return false
}

// Size returns the number of approved members.
func (c *Committee) Size() int { return len(c.Members) }
