/*
engine.go - The allocation algorithm

PURPOSE:
  Computes, for every (member, item) pair, what the member paid in, what
  they consumed, and what they were compensated by later joiners. This is
  the heart of the system; the tie-breaks and boundary rules here are the
  product's business rules.

THE ALGORITHM (per item):
  1. Eligibility: a member has no involvement when they left on or before
     the purchase date, or joined after the depreciation window ended.
  2. Classification: joinDate <= purchaseDate makes an original purchaser;
     later (within the window) makes a late joiner.
  3. Paid-in amount: original purchasers split the price equally among
     themselves, fixed at purchase time. A late joiner pays a buy-in:
     the item's remaining value on their join date divided by everyone
     present that day (themselves included).
  4. Usage: for each day of the member's effective range (join/purchase
     through window end, leave date, and the as-of cutoff), they absorb
     perDayValue / presentCount for that day.
  5. Buy-in redistribution: each buy-in flows in equal parts to the
     incumbents: members present on the joiner's join date who joined
     strictly before them.
  6. Net balance = paid-in - usage + buyInReceived. Positive means the
     member is in credit; negative means they owe.

BOUNDARY RULES (the ones that bite):
  - joinDate == purchaseDate     -> original purchaser, not late joiner
  - leaveDate == purchaseDate    -> no involvement at all
  - join and leave both count as present days
  - a late joiner with no incumbents pays no buy-in (no one to buy out)
  - zero price, empty ranges, fully-depreciated items -> zeros, not errors

SEE ALSO:
  - statement.go: Aggregation of these per-item results across the group
  - presence.go: The per-day present-count table the usage loop reads
*/
package proration

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator evaluates balances over one immutable snapshot of members and
// items. Construction validates the snapshot and copies it; a Calculator
// never mutates its inputs and is safe for concurrent reads.
//
// Calculators are cheap and short-lived: build one per snapshot (per API
// request, typically) and throw it away.
type Calculator struct {
	members []Member
	items   []Item

	memberIdx map[MemberID]int
	itemIdx   map[ItemID]int
}

// NewCalculator validates the snapshot and returns a calculator over it.
// Validation failures identify the entity and field at fault.
func NewCalculator(members []Member, items []Item) (*Calculator, error) {
	c := &Calculator{
		members:   make([]Member, len(members)),
		items:     make([]Item, len(items)),
		memberIdx: make(map[MemberID]int, len(members)),
		itemIdx:   make(map[ItemID]int, len(items)),
	}
	copy(c.members, members)
	copy(c.items, items)

	for i, m := range c.members {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.memberIdx[m.ID]; dup {
			return nil, &ValidationError{Kind: "member", ID: string(m.ID), Field: "id",
				Reason: ErrDuplicateID.Error()}
		}
		c.memberIdx[m.ID] = i
	}
	for i, it := range c.items {
		if err := it.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.itemIdx[it.ID]; dup {
			return nil, &ValidationError{Kind: "item", ID: string(it.ID), Field: "id",
				Reason: ErrDuplicateID.Error()}
		}
		c.itemIdx[it.ID] = i
	}
	return c, nil
}

// Members returns a copy of the snapshot's members.
func (c *Calculator) Members() []Member {
	out := make([]Member, len(c.members))
	copy(out, c.members)
	return out
}

// Items returns a copy of the snapshot's items.
func (c *Calculator) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Member returns the snapshot member with the given id.
func (c *Calculator) Member(id MemberID) (Member, error) {
	i, ok := c.memberIdx[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}
	return c.members[i], nil
}

// Item returns the snapshot item with the given id.
func (c *Calculator) Item(id ItemID) (Item, error) {
	i, ok := c.itemIdx[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return c.items[i], nil
}

// =============================================================================
// PER-ITEM ALLOCATION (Steps 1-6)
// =============================================================================

// itemShare is one member's involvement with one item. involved is false
// when Step 1 excluded the member; all amounts are then zero.
type itemShare struct {
	involved      bool
	lateJoiner    bool
	initialShare  Money // paid at purchase (originals) or as buy-in (late joiners)
	usage         Money
	buyInReceived Money
}

// buyIn records one late joiner's payment and who it is owed to.
type buyIn struct {
	payer      int // index into c.members
	amount     Money
	incumbents []int // indexes of members it is split across
}

// allocateItem computes every member's share of one item as of the cutoff
// day. Results are indexed like c.members.
//
// The cutoff gates every event, not just usage: an item purchased after
// asOf allocates nothing, and a member who joins after asOf has not paid
// a buy-in yet. A statement answers "what was the state of the world at
// the end of day asOf".
func (c *Calculator) allocateItem(item Item, asOf Date) []itemShare {
	window := item.Window()
	shares := make([]itemShare, len(c.members))

	if item.PurchaseDate.After(asOf) {
		return shares // not yet purchased as of the statement day
	}

	// Steps 1-2: eligibility and classification. The original-purchaser
	// count is fixed by the snapshot's dates: members who joined on or
	// before the purchase and had not left by then.
	originals := 0
	for i, m := range c.members {
		if m.JoinDate.After(asOf) {
			continue // not yet a member as of the statement day
		}
		if m.LeaveDate != nil && m.LeaveDate.BeforeOrEqual(item.PurchaseDate) {
			continue // left before the item existed in their tenure
		}
		if m.JoinDate.After(window.End) {
			continue // joined after the item was already worthless
		}
		shares[i].involved = true
		if m.JoinDate.After(item.PurchaseDate) {
			shares[i].lateJoiner = true
		} else {
			originals++
		}
	}

	// The presence table serves both the buy-in denominators and the
	// usage loop; per-day counts include every present member, not just
	// participants in this item.
	table := newPresenceTable(c.members, window)

	// Step 3 for late joiners + the groundwork for Step 5: compute each
	// buy-in once, with its incumbent set.
	var buyIns []buyIn
	for i, m := range c.members {
		if !shares[i].involved || !shares[i].lateJoiner {
			continue
		}
		b := c.buyInFor(i, m, item, table)
		shares[i].initialShare = b.amount
		buyIns = append(buyIns, b)
	}

	// Step 3 for original purchasers: price split equally, fixed at
	// purchase time. Later joins and later departures never change it.
	if originals > 0 {
		originalShare := item.Price.DivInt(originals)
		for i := range c.members {
			if shares[i].involved && !shares[i].lateJoiner {
				shares[i].initialShare = originalShare
			}
		}
	}

	// Step 4: day-weighted usage.
	perDay := item.PerDayValue()
	for i, m := range c.members {
		if !shares[i].involved {
			continue
		}
		shares[i].usage = c.usageFor(m, item, window, table, perDay, asOf)
	}

	// Step 5: redistribute each buy-in equally across its incumbents.
	for _, b := range buyIns {
		if len(b.incumbents) == 0 || b.amount.IsZero() {
			continue
		}
		portion := b.amount.DivInt(len(b.incumbents))
		for _, i := range b.incumbents {
			shares[i].buyInReceived = shares[i].buyInReceived.Add(portion)
		}
	}

	return shares
}

// buyInFor computes a late joiner's buy-in: their pro-rata slice of the
// item's remaining value on the day they joined. The denominator counts
// everyone present that day, the joiner included, so it is always >= 1.
//
// When nobody present that day joined strictly earlier, there is no one
// holding equity to buy out and the buy-in is zero.
func (c *Calculator) buyInFor(payer int, m Member, item Item, table *presenceTable) buyIn {
	b := buyIn{payer: payer, amount: Zero()}

	value := item.ValueAt(m.JoinDate)
	if !value.IsPositive() {
		return b
	}

	for i, other := range c.members {
		if i != payer && other.PresentOn(m.JoinDate) && other.JoinDate.Before(m.JoinDate) {
			b.incumbents = append(b.incumbents, i)
		}
	}
	if len(b.incumbents) == 0 {
		return b
	}

	present := table.countOn(m.JoinDate)
	b.amount = value.DivInt(present)
	return b
}

// usageFor accumulates the member's share of the item's daily cost over
// their effective range: from the later of join and purchase through the
// earliest of window end, leave date, and the as-of cutoff. Empty ranges
// contribute nothing.
func (c *Calculator) usageFor(m Member, item Item, window Window, table *presenceTable, perDay Money, asOf Date) Money {
	span := Window{Start: m.JoinDate, End: asOf}
	if m.LeaveDate != nil {
		span.End = span.End.Min(*m.LeaveDate)
	}
	effective := window.Clamp(span)

	usage := Zero()
	effective.Each(func(d Date) {
		if n := table.countOn(d); n > 0 {
			usage = usage.Add(perDay.DivInt(n))
		}
	})
	return usage
}
