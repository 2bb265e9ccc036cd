/*
statement.go - Aggregated balance statements

PURPOSE:
  Wraps the per-item allocation into the shapes callers consume: one
  record per member with paid-in, usage, buy-in, and net amounts, plus
  an optional per-item breakdown, plus group-level valuations.

SHAPES:
  GroupStatement   - every member + every item, one as-of date
  MemberStatement  - one member's totals and per-item lines
  ItemBreakdown    - one item across all involved members

ORDERING:
  Members are listed by join date (then id), items by purchase date
  (then id). Output is fully deterministic for a given snapshot: the
  same inputs always produce the same statement, field for field.
*/
package proration

import "sort"

// =============================================================================
// RESULT TYPES
// =============================================================================

// ItemShare is one member's involvement with one item. Exactly one of
// InitialPayment (original purchasers) and BuyInPaid (late joiners) is
// nonzero for priced items.
type ItemShare struct {
	ItemID       ItemID
	ItemName     string
	IsLateJoiner bool

	InitialPayment Money
	BuyInPaid      Money
	Usage          Money
	BuyInReceived  Money
	NetBalance     Money
}

// MemberStatement is one member's totals across every item they are
// involved with, plus the per-item lines behind the totals.
type MemberStatement struct {
	MemberID MemberID
	Name     string

	// Active reports presence on the statement's as-of day.
	Active bool

	InitialPayments Money
	Usage           Money
	BuyInPaid       Money
	BuyInReceived   Money

	// NetBalance = InitialPayments + BuyInPaid - Usage + BuyInReceived.
	// Positive: the member is in credit (refundable on leaving).
	// Negative: the member owes the group.
	NetBalance Money

	Items []ItemShare
}

// ItemValuation is an item's residual value on the as-of day.
type ItemValuation struct {
	ItemID           ItemID
	Name             string
	Price            Money
	Value            Money
	FullyDepreciated bool
}

// GroupStatement is the full picture for one snapshot and one as-of day.
type GroupStatement struct {
	AsOf    Date
	Members []MemberStatement
	Items   []ItemValuation

	TotalPurchased Money // sum of item prices
	TotalResidual  Money // sum of residual values as of AsOf
}

// Member returns the statement for the given member id, if present.
func (gs GroupStatement) Member(id MemberID) (MemberStatement, bool) {
	for _, ms := range gs.Members {
		if ms.MemberID == id {
			return ms, true
		}
	}
	return MemberStatement{}, false
}

// ItemMemberShare is one member's line in a per-item breakdown.
type ItemMemberShare struct {
	MemberID     MemberID
	Name         string
	IsLateJoiner bool

	InitialPayment Money
	BuyInPaid      Money
	Usage          Money
	BuyInReceived  Money
	NetBalance     Money
}

// ItemBreakdown is one item's allocation across all involved members.
type ItemBreakdown struct {
	ItemID ItemID
	Name   string
	AsOf   Date
	Price  Money
	Value  Money
	Shares []ItemMemberShare
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Statement computes the full group statement as of the given day. A zero
// asOf means today. Calling twice with the same snapshot and day returns
// identical results.
func (c *Calculator) Statement(asOf Date) GroupStatement {
	if asOf.IsZero() {
		asOf = Today()
	}

	gs := GroupStatement{
		AsOf:           asOf,
		TotalPurchased: Zero(),
		TotalResidual:  Zero(),
	}

	statements := make([]MemberStatement, len(c.members))
	for i, m := range c.members {
		statements[i] = MemberStatement{
			MemberID:        m.ID,
			Name:            m.Name,
			Active:          m.PresentOn(asOf),
			InitialPayments: Zero(),
			Usage:           Zero(),
			BuyInPaid:       Zero(),
			BuyInReceived:   Zero(),
			NetBalance:      Zero(),
		}
	}

	for _, itemPos := range c.itemOrder() {
		item := c.items[itemPos]
		if item.PurchaseDate.After(asOf) {
			continue // not yet purchased as of the statement day
		}
		value := item.ValueAt(asOf)
		gs.Items = append(gs.Items, ItemValuation{
			ItemID:           item.ID,
			Name:             item.Name,
			Price:            item.Price,
			Value:            value,
			FullyDepreciated: item.FullyDepreciatedBy(asOf),
		})
		gs.TotalPurchased = gs.TotalPurchased.Add(item.Price)
		gs.TotalResidual = gs.TotalResidual.Add(value)

		shares := c.allocateItem(item, asOf)
		for i, s := range shares {
			if !s.involved {
				continue
			}
			line := shareLine(item, s)
			ms := &statements[i]
			ms.Items = append(ms.Items, line)
			ms.InitialPayments = ms.InitialPayments.Add(line.InitialPayment)
			ms.BuyInPaid = ms.BuyInPaid.Add(line.BuyInPaid)
			ms.Usage = ms.Usage.Add(line.Usage)
			ms.BuyInReceived = ms.BuyInReceived.Add(line.BuyInReceived)
			ms.NetBalance = ms.NetBalance.Add(line.NetBalance)
		}
	}

	for _, memberPos := range c.memberOrder() {
		gs.Members = append(gs.Members, statements[memberPos])
	}
	return gs
}

// MemberStatement computes one member's statement as of the given day.
func (c *Calculator) MemberStatement(id MemberID, asOf Date) (MemberStatement, error) {
	if _, ok := c.memberIdx[id]; !ok {
		return MemberStatement{}, ErrMemberNotFound
	}
	ms, _ := c.Statement(asOf).Member(id)
	return ms, nil
}

// ItemBreakdown computes one item's allocation across members as of the
// given day. Members with no involvement are omitted; an item purchased
// after the as-of day has no shares at all.
func (c *Calculator) ItemBreakdown(id ItemID, asOf Date) (ItemBreakdown, error) {
	pos, ok := c.itemIdx[id]
	if !ok {
		return ItemBreakdown{}, ErrItemNotFound
	}
	if asOf.IsZero() {
		asOf = Today()
	}

	item := c.items[pos]
	bd := ItemBreakdown{
		ItemID: item.ID,
		Name:   item.Name,
		AsOf:   asOf,
		Price:  item.Price,
		Value:  item.ValueAt(asOf),
	}

	shares := c.allocateItem(item, asOf)
	for _, memberPos := range c.memberOrder() {
		s := shares[memberPos]
		if !s.involved {
			continue
		}
		line := shareLine(item, s)
		bd.Shares = append(bd.Shares, ItemMemberShare{
			MemberID:       c.members[memberPos].ID,
			Name:           c.members[memberPos].Name,
			IsLateJoiner:   line.IsLateJoiner,
			InitialPayment: line.InitialPayment,
			BuyInPaid:      line.BuyInPaid,
			Usage:          line.Usage,
			BuyInReceived:  line.BuyInReceived,
			NetBalance:     line.NetBalance,
		})
	}
	return bd, nil
}

// shareLine converts an internal itemShare into the public per-item line.
// The paid-in amount lands in InitialPayment for originals and BuyInPaid
// for late joiners; net is paid-in minus usage plus redistribution.
func shareLine(item Item, s itemShare) ItemShare {
	line := ItemShare{
		ItemID:         item.ID,
		ItemName:       item.Name,
		IsLateJoiner:   s.lateJoiner,
		InitialPayment: Zero(),
		BuyInPaid:      Zero(),
		Usage:          s.usage,
		BuyInReceived:  s.buyInReceived,
	}
	if s.lateJoiner {
		line.BuyInPaid = s.initialShare
	} else {
		line.InitialPayment = s.initialShare
	}
	line.NetBalance = line.InitialPayment.
		Add(line.BuyInPaid).
		Sub(line.Usage).
		Add(line.BuyInReceived)
	return line
}

// memberOrder returns member indexes sorted by join date, then id.
func (c *Calculator) memberOrder() []int {
	order := make([]int, len(c.members))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ma, mb := c.members[order[a]], c.members[order[b]]
		if !ma.JoinDate.Equal(mb.JoinDate) {
			return ma.JoinDate.Before(mb.JoinDate)
		}
		return ma.ID < mb.ID
	})
	return order
}

// itemOrder returns item indexes sorted by purchase date, then id.
func (c *Calculator) itemOrder() []int {
	order := make([]int, len(c.items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := c.items[order[a]], c.items[order[b]]
		if !ia.PurchaseDate.Equal(ib.PurchaseDate) {
			return ia.PurchaseDate.Before(ib.PurchaseDate)
		}
		return ia.ID < ib.ID
	})
	return order
}
