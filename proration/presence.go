package proration

// =============================================================================
// PRESENCE TABLE - Memoized per-day present counts
// =============================================================================

// presenceTable holds the number of present members for every day of one
// window. Built once per item from the full member list, then shared by
// every member's usage loop, so the day-by-day accumulation never rescans
// the member slice.
//
// Built eagerly and never mutated afterwards; cheap to construct even for
// multi-year windows (one pass over members, one pass over days).
type presenceTable struct {
	window Window
	counts []int // counts[i] = present members on window.Start + i days
}

// newPresenceTable computes present-member counts for each day of the
// window. Membership spans are folded in as +1/-1 boundary marks and
// prefix-summed, so construction is O(members + days).
func newPresenceTable(members []Member, window Window) *presenceTable {
	t := &presenceTable{window: window}
	if window.IsEmpty() {
		return t
	}

	days := window.Days()
	delta := make([]int, days+1)

	for _, m := range members {
		// Intersect the member's presence span with the window.
		span := Window{Start: m.JoinDate, End: window.End}
		if m.LeaveDate != nil {
			span.End = *m.LeaveDate
		}
		span = span.Clamp(window)
		if span.IsEmpty() {
			continue
		}
		delta[DaysBetween(window.Start, span.Start)]++
		delta[DaysBetween(window.Start, span.End)+1]--
	}

	t.counts = make([]int, days)
	running := 0
	for i := 0; i < days; i++ {
		running += delta[i]
		t.counts[i] = running
	}
	return t
}

// countOn returns the number of present members on the given day, or 0 for
// days outside the table's window.
func (t *presenceTable) countOn(day Date) int {
	if t.window.IsEmpty() || !t.window.Contains(day) {
		return 0
	}
	return t.counts[DaysBetween(t.window.Start, day)]
}
