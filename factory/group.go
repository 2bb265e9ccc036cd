/*
Package factory provides JSON to Go group conversion.

PURPOSE:
  Converts JSON group documents into assets.Group values. This enables
  group configuration without code changes - a household can be described
  in JSON, imported through the API, and the factory creates the proper
  Go structs with all dates and amounts normalized.

WHY JSON?
  - Non-developers can describe their group
  - Easy integration with admin UI
  - Version control for group definitions
  - Database storage of group documents

JSON SCHEMA:
  {
    "id": "flat-7",
    "name": "Flat 7",
    "currency": "EUR",
    "members": [
      {"id": "ana", "name": "Ana", "email": "ana@x.io", "join_date": "2024-01-01"},
      {"id": "ben", "join_date": "2024-01-01", "leave_date": "2024-06-30"}
    ],
    "items": [
      {"id": "fridge", "name": "Fridge", "price": 1199.99,
       "purchase_date": "2024-01-01", "depreciation_days": 1095},
      {"id": "tv", "price": 800, "purchase_date": "2024-02-01",
       "category": "electronics"}
    ]
  }

KEY FEATURES:
  - Validates the document against the same rules the engine enforces
  - Sets sensible defaults (currency, category-based schedules)
  - Accepts legacy field aliases from older exports:
      "joined_on"/"left_on"      for join_date/leave_date
      "start_date"               for purchase_date
      "lifespanDays"             for depreciation_days
      "depreciation_years"       years, converted as round(years * 365)
  - Prices parse as exact decimals, never through float64

USAGE:
  factory := NewGroupFactory()

  // From JSON string
  group, err := factory.ParseGroup(jsonString)

  // Back to canonical JSON (aliases are not emitted)
  doc := factory.ToJSON(*group)

SEE ALSO:
  - assets/types.go: Group definition and validation
  - assets/catalog.go: category defaults used for missing schedules
  - api/dto.go: the HTTP wire types built on the same conventions
*/
package factory

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// GroupJSON is the JSON representation of a group document.
type GroupJSON struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Currency string       `json:"currency,omitempty"`
	Members  []MemberJSON `json:"members"`
	Items    []ItemJSON   `json:"items"`
}

// MemberJSON represents one membership spell.
type MemberJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	JoinDate  string `json:"join_date,omitempty"`
	LeaveDate string `json:"leave_date,omitempty"`

	// Legacy aliases accepted from older exports.
	JoinedOn string `json:"joined_on,omitempty"`
	LeftOn   string `json:"left_on,omitempty"`
}

// ItemJSON represents one shared item.
type ItemJSON struct {
	ID               string          `json:"id"`
	Name             string          `json:"name,omitempty"`
	Category         string          `json:"category,omitempty"`
	Price            decimal.Decimal `json:"price"`
	PurchaseDate     string          `json:"purchase_date,omitempty"`
	DepreciationDays int             `json:"depreciation_days,omitempty"`

	// Legacy aliases accepted from older exports.
	StartDate         string   `json:"start_date,omitempty"`
	LifespanDays      *int     `json:"lifespanDays,omitempty"`
	DepreciationYears *float64 `json:"depreciation_years,omitempty"`
}

// =============================================================================
// GROUP FACTORY
// =============================================================================

// GroupFactory converts JSON group documents to Go structs.
type GroupFactory struct{}

// NewGroupFactory creates a new group factory.
func NewGroupFactory() *GroupFactory {
	return &GroupFactory{}
}

// ParseGroup parses a JSON string into a validated Group.
func (f *GroupFactory) ParseGroup(jsonStr string) (*assets.Group, error) {
	var gj GroupJSON
	if err := json.Unmarshal([]byte(jsonStr), &gj); err != nil {
		return nil, fmt.Errorf("failed to parse group JSON: %w", err)
	}
	return f.FromJSON(gj)
}

// FromJSON converts GroupJSON to an assets.Group. All legacy aliases are
// resolved here; the returned group carries only canonical values and has
// passed full validation.
func (f *GroupFactory) FromJSON(gj GroupJSON) (*assets.Group, error) {
	group := &assets.Group{
		ID:       assets.GroupID(gj.ID),
		Name:     gj.Name,
		Currency: gj.Currency,
	}
	if group.Currency == "" {
		group.Currency = "USD"
	}

	for _, mj := range gj.Members {
		m, err := parseMember(mj)
		if err != nil {
			return nil, err
		}
		group.Members = append(group.Members, m)
	}

	for _, ij := range gj.Items {
		it, err := parseItem(ij)
		if err != nil {
			return nil, err
		}
		group.Items = append(group.Items, it)
	}

	if err := group.Validate(); err != nil {
		return nil, err
	}
	return group, nil
}

// ToJSON converts a Group to its canonical JSON document.
// Legacy aliases are never emitted.
func (f *GroupFactory) ToJSON(g assets.Group) GroupJSON {
	gj := GroupJSON{
		ID:       string(g.ID),
		Name:     g.Name,
		Currency: g.Currency,
	}
	for _, m := range g.Members {
		mj := MemberJSON{
			ID:       string(m.ID),
			Name:     m.Name,
			Email:    m.Email,
			JoinDate: m.JoinDate.String(),
		}
		if m.LeaveDate != nil {
			mj.LeaveDate = m.LeaveDate.String()
		}
		gj.Members = append(gj.Members, mj)
	}
	for _, it := range g.Items {
		gj.Items = append(gj.Items, ItemJSON{
			ID:               string(it.ID),
			Name:             it.Name,
			Price:            it.Price.Value,
			PurchaseDate:     it.PurchaseDate.String(),
			DepreciationDays: it.DepreciationDays,
		})
	}
	return gj
}

// MemberFromJSON converts a single member document, resolving legacy aliases.
func (f *GroupFactory) MemberFromJSON(mj MemberJSON) (proration.Member, error) {
	return parseMember(mj)
}

// ItemFromJSON converts a single item document, resolving legacy aliases and
// the depreciation schedule.
func (f *GroupFactory) ItemFromJSON(ij ItemJSON) (proration.Item, error) {
	return parseItem(ij)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMember(mj MemberJSON) (proration.Member, error) {
	m := proration.Member{
		ID:    proration.MemberID(mj.ID),
		Name:  mj.Name,
		Email: mj.Email,
	}
	if m.Name == "" {
		m.Name = mj.ID
	}

	join, err := parseDateField(firstNonEmpty(mj.JoinDate, mj.JoinedOn), "join_date", mj.ID)
	if err != nil {
		return proration.Member{}, err
	}
	m.JoinDate = join

	if raw := firstNonEmpty(mj.LeaveDate, mj.LeftOn); raw != "" {
		leave, err := parseDateField(raw, "leave_date", mj.ID)
		if err != nil {
			return proration.Member{}, err
		}
		m.LeaveDate = &leave
	}
	return m, nil
}

func parseItem(ij ItemJSON) (proration.Item, error) {
	it := proration.Item{
		ID:    proration.ItemID(ij.ID),
		Name:  ij.Name,
		Price: proration.Money{Value: ij.Price},
	}
	if it.Name == "" {
		it.Name = ij.ID
	}

	purchase, err := parseDateField(firstNonEmpty(ij.PurchaseDate, ij.StartDate), "purchase_date", ij.ID)
	if err != nil {
		return proration.Item{}, err
	}
	it.PurchaseDate = purchase
	it.DepreciationDays = resolveSchedule(ij)
	return it, nil
}

// resolveSchedule picks the depreciation length in priority order:
// canonical days, legacy day alias, legacy years, category default.
func resolveSchedule(ij ItemJSON) int {
	if ij.DepreciationDays > 0 {
		return ij.DepreciationDays
	}
	if ij.LifespanDays != nil && *ij.LifespanDays > 0 {
		return *ij.LifespanDays
	}
	if ij.DepreciationYears != nil && *ij.DepreciationYears > 0 {
		return int(math.Round(*ij.DepreciationYears * 365))
	}
	return assets.DefaultDepreciationDays(ij.Category)
}

func parseDateField(raw, field, entity string) (proration.Date, error) {
	if raw == "" {
		return proration.Date{}, fmt.Errorf("%q: missing %s", entity, field)
	}
	d, err := proration.ParseDate(raw)
	if err != nil {
		return proration.Date{}, fmt.Errorf("%q: invalid %s: %w", entity, field, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
