package proration

// =============================================================================
// WINDOW - Inclusive day range
// =============================================================================

// Window is an inclusive range of calendar days [Start, End]. Depreciation
// windows and per-member effective usage ranges are both Windows.
//
// A Window with Start after End is empty; empty windows contain no days and
// iterate zero times.
type Window struct {
	Start Date
	End   Date
}

// Contains returns true if the day falls within the window [Start, End].
func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// IsEmpty returns true when the window spans no days.
func (w Window) IsEmpty() bool {
	return w.Start.After(w.End)
}

// Days returns the number of days in the window (0 when empty).
func (w Window) Days() int {
	if w.IsEmpty() {
		return 0
	}
	return DaysBetween(w.Start, w.End) + 1
}

// Clamp intersects this window with another. The result is empty when the
// windows do not overlap.
func (w Window) Clamp(other Window) Window {
	return Window{
		Start: w.Start.Max(other.Start),
		End:   w.End.Min(other.End),
	}
}

// Each calls fn for every day in the window in ascending order.
func (w Window) Each(fn func(d Date)) {
	current := w.Start
	for current.BeforeOrEqual(w.End) {
		fn(current)
		current = current.AddDays(1)
	}
}

// String returns a string representation of the window.
func (w Window) String() string {
	return "[" + w.Start.String() + ", " + w.End.String() + "]"
}
