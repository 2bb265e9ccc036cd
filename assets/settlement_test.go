package assets_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// DEPARTURE SETTLEMENTS
// =============================================================================

func TestSettleDeparture_GroupOwesLeaver(t *testing.T) {
	// GIVEN: Two founders, a fridge (1200 over 1095 days), cleo joins mid-year
	//        with a buy-in of 333.52 and leaves two months later
	// WHEN: Settling cleo's departure on 2024-09-01
	// THEN: Her buy-in far exceeds her usage, so the stayers pay her out

	g := householdGroup()
	if err := g.AddMember(member("cleo", date(2024, time.July, 1))); err != nil {
		t.Fatal(err)
	}

	s, err := assets.SettleDeparture(g, "cleo", date(2024, time.September, 1))
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	// buy-in 333.5160 minus 63 days of three-way usage (23.0137)
	approx(t, "net", s.Net, 310.5023)
	if s.Name != "cleo" {
		t.Errorf("expected leaver name cleo, got %s", s.Name)
	}

	if len(s.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(s.Legs))
	}
	for i, wantFrom := range []proration.MemberID{"ana", "ben"} {
		leg := s.Legs[i]
		if leg.From != wantFrom || leg.To != "cleo" {
			t.Errorf("leg %d: expected %s -> cleo, got %s -> %s", i, wantFrom, leg.From, leg.To)
		}
		if !leg.Amount.Equal(proration.NewMoney(155.25)) {
			t.Errorf("leg %d: expected 155.25, got %s", i, leg.Amount)
		}
	}
}

func TestSettleDeparture_LeaverOwes(t *testing.T) {
	// GIVEN: cleo joined for a 333.52 buy-in, then ana left, leaving cleo
	//        to split the daily cost two ways until the fridge dies
	// WHEN: Settling cleo at the end of the depreciation window
	// THEN: Usage exceeds her buy-in and she pays the remaining member

	g := householdGroup()
	if err := g.AddMember(member("cleo", date(2024, time.July, 1))); err != nil {
		t.Fatal(err)
	}
	if err := g.RecordLeave("ana", date(2024, time.July, 31)); err != nil {
		t.Fatal(err)
	}

	s, err := assets.SettleDeparture(g, "cleo", date(2026, time.December, 30))
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	// usage 31 days three-way + 882 days two-way = 494.6119
	approx(t, "net", s.Net, -161.0959)

	if len(s.Legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(s.Legs))
	}
	leg := s.Legs[0]
	if leg.From != "cleo" || leg.To != "ben" {
		t.Errorf("expected cleo -> ben, got %s -> %s", leg.From, leg.To)
	}
	if !leg.Amount.Equal(proration.NewMoney(161.10)) {
		t.Errorf("expected 161.10, got %s", leg.Amount)
	}
}

func TestSettleDeparture_NoCounterparties(t *testing.T) {
	// A sole member leaving has nobody to square off with. The net is
	// still reported so the caller can surface the write-off.

	g := assets.Group{
		ID:   "solo",
		Name: "Solo",
		Members: []proration.Member{
			member("ana", date(2024, time.January, 1)),
		},
		Items: []proration.Item{
			item("vacuum", 300, date(2024, time.January, 1), 300),
		},
	}

	s, err := assets.SettleDeparture(g, "ana", date(2024, time.January, 31))
	if err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if !s.Net.Equal(proration.NewMoney(269)) {
		t.Errorf("expected net 269, got %s", s.Net)
	}
	if len(s.Legs) != 0 {
		t.Errorf("expected no legs, got %d", len(s.Legs))
	}
}

func TestSettleDeparture_AlreadyLeft(t *testing.T) {
	// GIVEN: ben's departure on 2024-03-31 is already on record
	// WHEN: Recomputing his settlement without a date
	// THEN: The recorded date is used; a conflicting date is rejected

	g := householdGroup()
	if err := g.RecordLeave("ben", date(2024, time.March, 31)); err != nil {
		t.Fatal(err)
	}

	s, err := assets.SettleDeparture(g, "ben", proration.Date{})
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if !s.LeaveDate.Equal(date(2024, time.March, 31)) {
		t.Errorf("expected recorded leave date, got %s", s.LeaveDate)
	}
	// paid 600, used 91 days at half the daily rate
	approx(t, "net", s.Net, 550.1370)
	if len(s.Legs) != 1 || s.Legs[0].From != "ana" || s.Legs[0].To != "ben" {
		t.Fatalf("expected single leg ana -> ben, got %+v", s.Legs)
	}
	if !s.Legs[0].Amount.Equal(proration.NewMoney(550.14)) {
		t.Errorf("expected 550.14, got %s", s.Legs[0].Amount)
	}

	_, err = assets.SettleDeparture(g, "ben", date(2024, time.June, 30))
	if !errors.Is(err, assets.ErrAlreadyLeft) {
		t.Errorf("conflicting date: expected ErrAlreadyLeft, got %v", err)
	}
}

func TestSettleDeparture_Errors(t *testing.T) {
	g := householdGroup()

	_, err := assets.SettleDeparture(g, "nobody", date(2024, time.June, 30))
	if !errors.Is(err, proration.ErrMemberNotFound) {
		t.Errorf("unknown member: expected ErrMemberNotFound, got %v", err)
	}

	_, err = assets.SettleDeparture(g, "ana", proration.Date{})
	if err == nil {
		t.Error("active member without a leave date should be rejected")
	}
}

func TestSettleDeparture_DoesNotMutateGroup(t *testing.T) {
	g := householdGroup()

	if _, err := assets.SettleDeparture(g, "ana", date(2024, time.June, 30)); err != nil {
		t.Fatalf("settlement failed: %v", err)
	}
	if g.Member("ana").LeaveDate != nil {
		t.Error("settlement closed the spell on the stored roster")
	}
}

// =============================================================================
// WHAT-IF PROJECTIONS
// =============================================================================

func TestProjectAt_FoundersDriftByUsage(t *testing.T) {
	// GIVEN: Two founders splitting a fridge that costs 1.0959 a day
	// WHEN: Projecting from day one to the end of 2024
	// THEN: Each net drops by exactly 365 half-days of usage (200.00)

	g := householdGroup()

	p, err := assets.ProjectAt(g, date(2024, time.January, 1), date(2024, time.December, 31))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}

	if !p.Statement.AsOf.Equal(date(2024, time.December, 31)) {
		t.Errorf("statement as-of: expected 2024-12-31, got %s", p.Statement.AsOf)
	}
	if len(p.Deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(p.Deltas))
	}
	for _, d := range p.Deltas {
		approx(t, string(d.MemberID)+" from", d.From, 599.4521)
		approx(t, string(d.MemberID)+" to", d.To, 399.4521)
		approx(t, string(d.MemberID)+" change", d.Change, -200.0)
	}
}

func TestProjectAt_LateJoinerStartsFromZero(t *testing.T) {
	g := householdGroup()
	if err := g.AddMember(member("cleo", date(2024, time.July, 1))); err != nil {
		t.Fatal(err)
	}

	p, err := assets.ProjectAt(g, date(2024, time.January, 1), date(2024, time.August, 1))
	if err != nil {
		t.Fatalf("projection failed: %v", err)
	}

	if len(p.Deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d", len(p.Deltas))
	}
	cleo := p.Deltas[2]
	if cleo.MemberID != "cleo" {
		t.Fatalf("expected cleo last in join order, got %s", cleo.MemberID)
	}
	if !cleo.From.IsZero() {
		t.Errorf("baseline before join should be zero, got %s", cleo.From)
	}
	// buy-in 333.5160 minus 32 days of three-way usage
	approx(t, "cleo to", cleo.To, 321.8265)
	approx(t, "cleo change", cleo.Change, 321.8265)
}

func TestProjectAt_RejectsBackwardRange(t *testing.T) {
	g := householdGroup()

	_, err := assets.ProjectAt(g, date(2024, time.June, 1), date(2024, time.January, 1))
	if err == nil {
		t.Error("target before baseline should be rejected")
	}
}
