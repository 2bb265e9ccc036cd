// Package assets implements shared-asset group management on top of the
// proration engine. A Group bundles the member roster and item list that the
// engine treats as an immutable snapshot, and adds the mutation and lookup
// helpers the service layer needs.
package assets

import (
	"errors"
	"fmt"

	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// GROUP - Container for a roster and its shared items
// =============================================================================

type GroupID string

// Group is the unit of ownership: a set of members who jointly buy and use
// depreciating items. Engine calls never mutate a Group; service-layer
// mutations go through the helpers below so invariants hold before a
// snapshot ever reaches the calculator.
type Group struct {
	ID       GroupID
	Name     string
	Currency string
	Members  []proration.Member
	Items    []proration.Item
}

var (
	// ErrAlreadyLeft is returned when recording a departure for a member
	// whose spell is already closed.
	ErrAlreadyLeft = errors.New("member has already left")
)

// Validate checks group-level fields and the full roster/item snapshot.
// It runs the same checks the calculator runs, so a valid Group always
// converts cleanly.
func (g Group) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("group: %w", errors.New("empty id"))
	}
	if g.Name == "" {
		return fmt.Errorf("group %q: %w", g.ID, errors.New("empty name"))
	}
	_, err := g.Calculator()
	return err
}

// Calculator builds a proration calculator over the group's current
// snapshot. The calculator copies the slices, so later mutations to the
// Group do not leak into in-flight computations.
func (g Group) Calculator() (*proration.Calculator, error) {
	return proration.NewCalculator(g.Members, g.Items)
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Member returns the member with the given id, or nil.
func (g Group) Member(id proration.MemberID) *proration.Member {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// Item returns the item with the given id, or nil.
func (g Group) Item(id proration.ItemID) *proration.Item {
	for i := range g.Items {
		if g.Items[i].ID == id {
			return &g.Items[i]
		}
	}
	return nil
}

// ActiveMembers returns members present on the given day.
func (g Group) ActiveMembers(on proration.Date) []proration.Member {
	return proration.PresentMembers(g.Members, on)
}

// =============================================================================
// MUTATIONS - Service-layer helpers, validated before they apply
// =============================================================================

// AddMember appends a new member spell to the roster.
// A returning member gets a fresh record with a new id; the old spell
// stays closed.
func (g *Group) AddMember(m proration.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if g.Member(m.ID) != nil {
		return fmt.Errorf("member %q: %w", m.ID, proration.ErrDuplicateID)
	}
	g.Members = append(g.Members, m)
	return nil
}

// AddItem appends a newly purchased item.
func (g *Group) AddItem(it proration.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if g.Item(it.ID) != nil {
		return fmt.Errorf("item %q: %w", it.ID, proration.ErrDuplicateID)
	}
	g.Items = append(g.Items, it)
	return nil
}

// RecordLeave closes a member's spell on the given day. The member stays
// on the roster; only their leave date changes. Fails if the member is
// unknown, already left, or the leave would predate their join.
func (g *Group) RecordLeave(id proration.MemberID, leave proration.Date) error {
	m := g.Member(id)
	if m == nil {
		return fmt.Errorf("member %q: %w", id, proration.ErrMemberNotFound)
	}
	if m.LeaveDate != nil {
		return fmt.Errorf("member %q: %w", id, ErrAlreadyLeft)
	}
	updated := *m
	updated.LeaveDate = &leave
	if err := updated.Validate(); err != nil {
		return err
	}
	*m = updated
	return nil
}

// Clone returns a deep copy of the group. Settlement and projection
// routines work on clones so hypothetical departures never touch the
// stored roster.
func (g Group) Clone() Group {
	out := g
	out.Members = make([]proration.Member, len(g.Members))
	for i, m := range g.Members {
		out.Members[i] = m
		if m.LeaveDate != nil {
			leave := *m.LeaveDate
			out.Members[i].LeaveDate = &leave
		}
	}
	out.Items = append([]proration.Item(nil), g.Items...)
	return out
}
