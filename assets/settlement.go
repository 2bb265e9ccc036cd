/*
settlement.go - Departure settlements and what-if projections

PURPOSE:
  Answers the two questions a group asks when someone is about to leave:
  "who pays whom, and how much?" and "what will balances look like on a
  future date?". Both are computed against a clone of the group, so
  nothing here mutates the stored roster.

KEY INSIGHT:
  A settlement is just the departing member's net balance at the leave
  date, squared off against whoever is still active that day. Positive
  net means the group owes the leaver (they prepaid value others will
  keep using); negative means the leaver still owes for value consumed.

SETTLEMENT PROCESS:
  1. Close the member's spell on the leave date (on a clone)
  2. Compute the group statement as of that day
  3. Split the leaver's net evenly across active counterparties
  4. Round each leg to cents, remainder on the first counterparty

PROJECTION vs SETTLEMENT:
  SettleDeparture answers "what would squaring off cost TODAY?"
  ProjectAt answers "how do all balances drift between two dates?"
  Neither writes anything - persistence is the caller's job.

SEE ALSO:
  - types.go: Group container and Clone
  - proration/statement.go: the statement both routines consume
  - proration/rounding.go: even split with remainder handling
*/
package assets

import (
	"fmt"
	"sort"

	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// DEPARTURE SETTLEMENT
// =============================================================================

// Settlement describes the cash movement that squares a member's account
// when they leave. Net keeps full precision; the legs carry the rounded
// amounts that actually change hands.
type Settlement struct {
	MemberID  proration.MemberID
	Name      string
	LeaveDate proration.Date

	// Net is the leaver's balance at the leave date.
	// Positive: the group owes the leaver. Negative: the leaver owes.
	Net proration.Money

	Legs []SettlementLeg
}

// SettlementLeg is a single payment from one member to another.
type SettlementLeg struct {
	From   proration.MemberID
	To     proration.MemberID
	Amount proration.Money
}

// SettleDeparture computes the settlement for a member leaving on the
// given day. The group itself is never modified; callers that want the
// departure to stick record it separately via Group.RecordLeave.
//
// For a member who already left, a zero or matching leave date recomputes
// their settlement at the recorded date; any other date is rejected.
func SettleDeparture(g Group, id proration.MemberID, leave proration.Date) (*Settlement, error) {
	work := g.Clone()
	m := work.Member(id)
	if m == nil {
		return nil, fmt.Errorf("member %q: %w", id, proration.ErrMemberNotFound)
	}

	switch {
	case m.LeaveDate == nil:
		if leave.IsZero() {
			return nil, fmt.Errorf("member %q: leave date required", id)
		}
		if err := work.RecordLeave(id, leave); err != nil {
			return nil, err
		}
	case leave.IsZero() || leave.Equal(*m.LeaveDate):
		leave = *m.LeaveDate
	default:
		return nil, fmt.Errorf("member %q left on %s: %w", id, m.LeaveDate, ErrAlreadyLeft)
	}

	calc, err := work.Calculator()
	if err != nil {
		return nil, err
	}
	stmt, err := calc.MemberStatement(id, leave)
	if err != nil {
		return nil, err
	}

	s := &Settlement{
		MemberID:  id,
		Name:      stmt.Name,
		LeaveDate: leave,
		Net:       stmt.NetBalance,
	}

	counterparties := settlementCounterparties(work.Members, id, leave)
	if s.Net.IsZero() || len(counterparties) == 0 {
		return s, nil
	}

	total := s.Net
	owedByLeaver := total.IsNegative()
	if owedByLeaver {
		total = total.Neg()
	}

	shares := proration.SplitEvenly(total, len(counterparties))
	for i, cp := range counterparties {
		leg := SettlementLeg{From: cp.ID, To: id, Amount: shares[i]}
		if owedByLeaver {
			leg.From, leg.To = id, cp.ID
		}
		s.Legs = append(s.Legs, leg)
	}
	return s, nil
}

// settlementCounterparties returns members present on the leave day other
// than the leaver, ordered by join date then id so legs are deterministic.
func settlementCounterparties(members []proration.Member, leaver proration.MemberID, on proration.Date) []proration.Member {
	var out []proration.Member
	for _, m := range members {
		if m.ID != leaver && m.PresentOn(on) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinDate.Equal(out[j].JoinDate) {
			return out[i].JoinDate.Before(out[j].JoinDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// =============================================================================
// WHAT-IF PROJECTION
// =============================================================================

// Projection compares group balances at two dates. Statement holds the
// full picture at the target date; Deltas show how each member's net
// moved since the baseline.
type Projection struct {
	From      proration.Date
	To        proration.Date
	Statement proration.GroupStatement
	Deltas    []MemberDelta
}

// MemberDelta is one member's net balance drift between two dates.
type MemberDelta struct {
	MemberID proration.MemberID
	Name     string
	From     proration.Money
	To       proration.Money
	Change   proration.Money
}

// ProjectAt computes statements at a baseline and a target date and pairs
// them per member. Members who only appear by the target date start from
// a zero baseline.
func ProjectAt(g Group, from, to proration.Date) (*Projection, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("projection target %s precedes baseline %s", to, from)
	}
	calc, err := g.Calculator()
	if err != nil {
		return nil, err
	}
	base := calc.Statement(from)
	future := calc.Statement(to)

	p := &Projection{From: from, To: to, Statement: future}
	for _, ms := range future.Members {
		delta := MemberDelta{MemberID: ms.MemberID, Name: ms.Name, To: ms.NetBalance}
		if prev, ok := base.Member(ms.MemberID); ok {
			delta.From = prev.NetBalance
		} else {
			delta.From = proration.Zero()
		}
		delta.Change = delta.To.Sub(delta.From)
		p.Deltas = append(p.Deltas, delta)
	}
	return p, nil
}
