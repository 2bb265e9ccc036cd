/*
member.go - Membership records and the presence model

PURPOSE:
  Answers "was this member in the group on day D?". Every allocation
  decision downstream (splits, buy-ins, daily usage) reduces to per-day
  presence checks, so the rules live here in one place.

PRESENCE RULE:
  A member is present on day D when joinDate <= D and (no leaveDate or
  leaveDate >= D). The join day and the leave day both count as present.

REJOINING:
  A person who leaves and later rejoins is two Member records: one per
  contiguous membership spell. The engine treats records independently;
  it never links spells by name or email.
*/
package proration

// =============================================================================
// MEMBER
// =============================================================================

// Member is one contiguous membership spell in the group.
// Name and Email are display fields; the math uses only the dates.
type Member struct {
	ID       MemberID
	Name     string
	Email    string
	JoinDate Date

	// LeaveDate is nil while the member is still in the group.
	// When set, it is the last day the member counts as present.
	LeaveDate *Date
}

// PresentOn reports whether the member is in the group on the given day.
// Comparisons are day-granular.
func (m Member) PresentOn(day Date) bool {
	if day.Before(m.JoinDate) {
		return false
	}
	if m.LeaveDate != nil && m.LeaveDate.Before(day) {
		return false
	}
	return true
}

// HasLeft reports whether the member has a leave date on or before the day.
func (m Member) HasLeft(day Date) bool {
	return m.LeaveDate != nil && m.LeaveDate.Before(day)
}

// Validate checks the member's invariants.
func (m Member) Validate() error {
	if m.ID == "" {
		return memberError(m.ID, "id", "must not be empty")
	}
	if m.JoinDate.IsZero() {
		return memberError(m.ID, "joinDate", "must be set")
	}
	if m.LeaveDate != nil && m.LeaveDate.Before(m.JoinDate) {
		return memberError(m.ID, "leaveDate",
			"must be on or after joinDate ("+m.LeaveDate.String()+" < "+m.JoinDate.String()+")")
	}
	return nil
}

// PresentMembers filters the slice to members present on the given day.
func PresentMembers(members []Member, day Date) []Member {
	var present []Member
	for _, m := range members {
		if m.PresentOn(day) {
			present = append(present, m)
		}
	}
	return present
}

// CountPresent returns how many members are present on the given day.
func CountPresent(members []Member, day Date) int {
	count := 0
	for _, m := range members {
		if m.PresentOn(day) {
			count++
		}
	}
	return count
}
