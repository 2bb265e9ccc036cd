package assets_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) proration.Date {
	return proration.NewDate(year, month, day)
}

func member(id string, join proration.Date) proration.Member {
	return proration.Member{ID: proration.MemberID(id), Name: id, JoinDate: join}
}

func item(id string, price float64, purchase proration.Date, days int) proration.Item {
	return proration.Item{
		ID:               proration.ItemID(id),
		Name:             id,
		Price:            proration.NewMoney(price),
		PurchaseDate:     purchase,
		DepreciationDays: days,
	}
}

// householdGroup returns two founders sharing a fridge bought on day one.
func householdGroup() assets.Group {
	return assets.Group{
		ID:       "flat-7",
		Name:     "Flat 7",
		Currency: "EUR",
		Members: []proration.Member{
			member("ana", date(2024, time.January, 1)),
			member("ben", date(2024, time.January, 1)),
		},
		Items: []proration.Item{
			item("fridge", 1200, date(2024, time.January, 1), 1095),
		},
	}
}

func approx(t *testing.T, label string, got proration.Money, want float64) {
	t.Helper()
	diff := got.Sub(proration.NewMoney(want))
	if diff.IsNegative() {
		diff = diff.Neg()
	}
	if diff.GreaterThan(proration.NewMoney(0.0001)) {
		t.Errorf("%s: expected %.4f, got %s", label, want, got)
	}
}

// =============================================================================
// GROUP VALIDATION
// =============================================================================

func TestGroup_Validate(t *testing.T) {
	// GIVEN: A well-formed group
	// WHEN: Validating
	// THEN: No error, and the snapshot converts to a calculator

	g := householdGroup()
	if err := g.Validate(); err != nil {
		t.Fatalf("valid group rejected: %v", err)
	}
	if _, err := g.Calculator(); err != nil {
		t.Fatalf("valid group failed to convert: %v", err)
	}
}

func TestGroup_Validate_RejectsMissingFields(t *testing.T) {
	g := householdGroup()
	g.ID = ""
	if err := g.Validate(); err == nil {
		t.Error("group with empty id should be rejected")
	}

	g = householdGroup()
	g.Name = ""
	if err := g.Validate(); err == nil {
		t.Error("group with empty name should be rejected")
	}
}

func TestGroup_Validate_SurfacesSnapshotErrors(t *testing.T) {
	// GIVEN: A group whose roster contains a broken spell
	// WHEN: Validating
	// THEN: The member validation error bubbles up

	g := householdGroup()
	leave := date(2023, time.December, 1) // before join
	g.Members[0].LeaveDate = &leave

	err := g.Validate()
	if !errors.Is(err, proration.ErrInvalidMember) {
		t.Errorf("expected ErrInvalidMember, got %v", err)
	}
}

// =============================================================================
// ROSTER AND ITEM MUTATIONS
// =============================================================================

func TestGroup_AddMember(t *testing.T) {
	g := householdGroup()

	if err := g.AddMember(member("cleo", date(2024, time.July, 1))); err != nil {
		t.Fatalf("adding a new member failed: %v", err)
	}
	if g.Member("cleo") == nil {
		t.Fatal("cleo not found after AddMember")
	}

	err := g.AddMember(member("ana", date(2024, time.August, 1)))
	if !errors.Is(err, proration.ErrDuplicateID) {
		t.Errorf("duplicate member id: expected ErrDuplicateID, got %v", err)
	}

	err = g.AddMember(proration.Member{ID: "dora"}) // zero join date
	if !errors.Is(err, proration.ErrInvalidMember) {
		t.Errorf("invalid member: expected ErrInvalidMember, got %v", err)
	}
}

func TestGroup_AddItem(t *testing.T) {
	g := householdGroup()

	if err := g.AddItem(item("kettle", 60, date(2024, time.March, 1), 365)); err != nil {
		t.Fatalf("adding a new item failed: %v", err)
	}

	err := g.AddItem(item("fridge", 900, date(2024, time.June, 1), 1095))
	if !errors.Is(err, proration.ErrDuplicateID) {
		t.Errorf("duplicate item id: expected ErrDuplicateID, got %v", err)
	}

	err = g.AddItem(item("mixer", 80, date(2024, time.March, 1), 0))
	if !errors.Is(err, proration.ErrInvalidItem) {
		t.Errorf("invalid item: expected ErrInvalidItem, got %v", err)
	}
}

func TestGroup_RecordLeave(t *testing.T) {
	// GIVEN: An active member
	// WHEN: Recording their departure
	// THEN: The spell closes, and closing it twice fails

	g := householdGroup()
	leave := date(2024, time.June, 30)

	if err := g.RecordLeave("ben", leave); err != nil {
		t.Fatalf("recording leave failed: %v", err)
	}
	ben := g.Member("ben")
	if ben.LeaveDate == nil || !ben.LeaveDate.Equal(leave) {
		t.Errorf("expected leave date %s, got %v", leave, ben.LeaveDate)
	}

	err := g.RecordLeave("ben", date(2024, time.December, 1))
	if !errors.Is(err, assets.ErrAlreadyLeft) {
		t.Errorf("second leave: expected ErrAlreadyLeft, got %v", err)
	}

	err = g.RecordLeave("nobody", leave)
	if !errors.Is(err, proration.ErrMemberNotFound) {
		t.Errorf("unknown member: expected ErrMemberNotFound, got %v", err)
	}
}

func TestGroup_RecordLeave_RejectsLeaveBeforeJoin(t *testing.T) {
	g := householdGroup()

	err := g.RecordLeave("ana", date(2023, time.December, 31))
	if !errors.Is(err, proration.ErrInvalidMember) {
		t.Errorf("expected ErrInvalidMember, got %v", err)
	}
	if g.Member("ana").LeaveDate != nil {
		t.Error("failed leave should not modify the roster")
	}
}

func TestGroup_Clone_IsDeep(t *testing.T) {
	// GIVEN: A group and its clone
	// WHEN: Mutating the clone's roster and items
	// THEN: The original is untouched

	g := householdGroup()
	c := g.Clone()

	if err := c.RecordLeave("ana", date(2024, time.March, 1)); err != nil {
		t.Fatalf("leave on clone failed: %v", err)
	}
	c.Items[0].Name = "freezer"

	if g.Member("ana").LeaveDate != nil {
		t.Error("leave on clone leaked into original roster")
	}
	if g.Items[0].Name != "fridge" {
		t.Error("item edit on clone leaked into original")
	}
}

func TestGroup_ActiveMembers(t *testing.T) {
	g := householdGroup()
	g.AddMember(member("cleo", date(2024, time.July, 1)))
	g.RecordLeave("ben", date(2024, time.March, 31))

	active := g.ActiveMembers(date(2024, time.August, 1))
	if len(active) != 2 {
		t.Fatalf("expected 2 active members on 2024-08-01, got %d", len(active))
	}
	if active[0].ID != "ana" || active[1].ID != "cleo" {
		t.Errorf("expected [ana cleo], got [%s %s]", active[0].ID, active[1].ID)
	}
}

// =============================================================================
// CATEGORY CATALOG
// =============================================================================

func TestCatalog_BuiltInCategories(t *testing.T) {
	c, ok := assets.LookupCategory(assets.CategoryAppliance)
	if !ok {
		t.Fatal("built-in appliance category missing")
	}
	if c.DefaultDays != 1095 {
		t.Errorf("appliance default: expected 1095 days, got %d", c.DefaultDays)
	}

	if got := assets.DefaultDepreciationDays(assets.CategoryElectronics); got != 730 {
		t.Errorf("electronics default: expected 730 days, got %d", got)
	}
}

func TestCatalog_UnknownCategoryFallsBack(t *testing.T) {
	// Unknown categories depreciate like CategoryOther.
	if got := assets.DefaultDepreciationDays("time-machine"); got != 365 {
		t.Errorf("fallback default: expected 365 days, got %d", got)
	}
}

func TestCatalog_RegisterAndList(t *testing.T) {
	assets.RegisterCategory(assets.Category{ID: "instrument", Name: "Instrument", DefaultDays: 2190})

	c := assets.MustLookupCategory("instrument")
	if c.DefaultDays != 2190 {
		t.Errorf("expected 2190 days, got %d", c.DefaultDays)
	}

	list := assets.ListCategories()
	if len(list) < 7 {
		t.Fatalf("expected at least 7 categories, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Errorf("categories not sorted: %s before %s", list[i-1].ID, list[i].ID)
		}
	}
}
