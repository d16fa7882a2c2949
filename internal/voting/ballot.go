// Package voting implements the ballot lifecycle and quorum arithmetic shared
// by verifier admission, revocation, campaign approval, and fee policy.
//
// A Ballot tracks exactly-once vote counting inside a time-boxed window. The
// surrounding service decides when the window opens (first vote, proposal
// creation, or campaign creation), which principals are eligible, and what
// happens on approval or rejection; the ballot itself only guarantees the
// counting invariants: yes+no equals the voted-set size, nobody votes twice,
// and nothing is counted after the window closes.
package voting

import (
	"time"

	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
)

// Ballot is the shared proposal shape. A zero EndTime means no window has
// been opened yet (sentinel, never a valid timestamp).
type Ballot struct {
	Yes        uint64
	No         uint64
	GenesisYes uint64
	EndTime    time.Time
	Open       bool
	Voted      map[id.Principal]bool
}

// NewBallot returns an unopened ballot.
func NewBallot() *Ballot {
	return &Ballot{Voted: make(map[id.Principal]bool)}
}

// Opened reports whether the voting window has been opened.
func (b *Ballot) Opened() bool { return !b.EndTime.IsZero() }

// OpenWindow starts the voting window ending at now+period.
func (b *Ballot) OpenWindow(now time.Time, period time.Duration) {
	b.EndTime = now.Add(period)
	b.Open = true
}

// Cast records one vote. The window must be open and now must not be past
// EndTime; each principal may vote at most once.
func (b *Ballot) Cast(voter id.Principal, support bool, now time.Time) error {
	if !b.Open || !b.Opened() {
		return dErrors.New(dErrors.CodeConflict, "no open ballot")
	}
	if now.After(b.EndTime) {
		return dErrors.New(dErrors.CodeConflict, "voting period ended")
	}
	if b.Voted[voter] {
		return dErrors.New(dErrors.CodeConflict, "already voted")
	}
	b.Voted[voter] = true
	if support {
		b.Yes++
	} else {
		b.No++
	}
	return nil
}

// Total returns the number of votes cast.
func (b *Ballot) Total() uint64 { return b.Yes + b.No }

// Closed reports whether finalization is due: the window was opened and now
// has reached or passed its end.
func (b *Ballot) Closed(now time.Time) bool {
	return b.Opened() && !now.Before(b.EndTime)
}

// Reset zeroes the ballot after finalization. A reset ballot rejects further
// votes until a new window is opened, which makes finalization idempotent.
func (b *Ballot) Reset() {
	b.Yes, b.No, b.GenesisYes = 0, 0, 0
	b.EndTime = time.Time{}
	b.Open = false
	b.Voted = make(map[id.Principal]bool)
}

// QuorumReached reports whether participation meets pct percent of the
// eligible count. Defined false when either denominator contribution is zero
// to avoid division by zero; all comparisons are integer and truncating.
func QuorumReached(totalVotes, eligible, pct uint64) bool {
	if eligible == 0 || totalVotes == 0 {
		return false
	}
	return totalVotes*100 >= eligible*pct
}

// ApprovalReached reports whether yes votes meet pct percent of votes cast.
func ApprovalReached(yes, totalVotes, pct uint64) bool {
	if totalVotes == 0 {
		return false
	}
	return yes*100 >= totalVotes*pct
}

// Passed combines both thresholds against an eligible-voter count.
func Passed(yes, no, eligible, participationPct, approvalPct uint64) bool {
	total := yes + no
	return QuorumReached(total, eligible, participationPct) &&
		ApprovalReached(yes, total, approvalPct)
}
