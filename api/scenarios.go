/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates a group with members
	and items that demonstrate specific engine behavior.

AVAILABLE SCENARIOS:

	shared-flat:       Two founders, a mid-year joiner, household appliances
	member-departure:  A recorded departure ready for settlement
	tool-coop:         Workshop collective with staggered joins
	studio-share:      Rehearsal space gear with a past departure

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build the group roster and inventory in code
 3. Store it wholesale via ReplaceGroup

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "shared-flat"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - assets/catalog.go: Category defaults used for depreciation windows
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "shared-flat",
		Name:        "Shared Flat",
		Description: "Two founders buy appliances, a third person joins mid-year and buys in",
		Category:    "household",
	},
	{
		ID:          "member-departure",
		Name:        "Member Departure",
		Description: "A member has left; their settlement can be quoted and paid out",
		Category:    "household",
	},
	{
		ID:          "tool-coop",
		Name:        "Tool Co-op",
		Description: "Workshop collective with staggered joins and long-lived equipment",
		Category:    "workshop",
	},
	{
		ID:          "studio-share",
		Name:        "Studio Share",
		Description: "Rehearsal space gear, fast-depreciating electronics, one past departure",
		Category:    "studio",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	// Scenario ID exists but not in list (shouldn't happen)
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "shared-flat":
		err = h.loadSharedFlatScenario(ctx)
	case "member-departure":
		err = h.loadMemberDepartureScenario(ctx)
	case "tool-coop":
		err = h.loadToolCoopScenario(ctx)
	case "studio-share":
		err = h.loadStudioShareScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadSharedFlatScenario populates a three-person flat. Ana and Ben found
// the household and buy everything; Cleo joins on July 1 and owes buy-in
// on all three items.
func (h *Handler) loadSharedFlatScenario(ctx context.Context) error {
	founded := proration.NewDate(2024, time.January, 1)

	group := assets.Group{
		ID:       "flat-7",
		Name:     "Kreuzberg Flat 7",
		Currency: "EUR",
		Members: []proration.Member{
			{ID: "ana", Name: "Ana Soler", Email: "ana@example.com", JoinDate: founded},
			{ID: "ben", Name: "Ben Keller", Email: "ben@example.com", JoinDate: founded},
			{ID: "cleo", Name: "Cleo Marsh", Email: "cleo@example.com", JoinDate: proration.NewDate(2024, time.July, 1)},
		},
		Items: []proration.Item{
			{
				ID: "fridge", Name: "Bosch fridge",
				Price:            proration.MustParseMoney("1200"),
				PurchaseDate:     founded,
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryAppliance),
			},
			{
				ID: "washer", Name: "Miele washer",
				Price:            proration.MustParseMoney("649.50"),
				PurchaseDate:     proration.NewDate(2024, time.February, 15),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryAppliance),
			},
			{
				ID: "couch", Name: "Secondhand couch",
				Price:            proration.MustParseMoney("380"),
				PurchaseDate:     proration.NewDate(2024, time.March, 1),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryFurniture),
			},
		},
	}

	return h.Store.ReplaceGroup(ctx, group)
}

// loadMemberDepartureScenario populates a flat where Dan has already left.
// His settlement can be quoted via the leave endpoint with no leave_date.
func (h *Handler) loadMemberDepartureScenario(ctx context.Context) error {
	founded := proration.NewDate(2023, time.September, 1)
	danLeft := proration.NewDate(2024, time.March, 31)

	group := assets.Group{
		ID:       "flat-22",
		Name:     "Prenzlauer Flat 22",
		Currency: "EUR",
		Members: []proration.Member{
			{ID: "mara", Name: "Mara Winter", Email: "mara@example.com", JoinDate: founded},
			{ID: "dan", Name: "Dan Okafor", Email: "dan@example.com", JoinDate: founded, LeaveDate: &danLeft},
			{ID: "noa", Name: "Noa Lindh", Email: "noa@example.com", JoinDate: proration.NewDate(2023, time.November, 15)},
		},
		Items: []proration.Item{
			{
				ID: "dishwasher", Name: "Siemens dishwasher",
				Price:            proration.MustParseMoney("780"),
				PurchaseDate:     proration.NewDate(2023, time.September, 10),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryAppliance),
			},
			{
				ID: "espresso", Name: "Espresso machine",
				Price:            proration.MustParseMoney("449.99"),
				PurchaseDate:     proration.NewDate(2023, time.October, 1),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryAppliance),
			},
			{
				ID: "bookshelf", Name: "Oak bookshelf",
				Price:            proration.MustParseMoney("199"),
				PurchaseDate:     proration.NewDate(2024, time.January, 5),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryFurniture),
			},
		},
	}

	return h.Store.ReplaceGroup(ctx, group)
}

// loadToolCoopScenario populates a workshop collective. Theo joins after
// the saw and van purchases but co-purchases the planer.
func (h *Handler) loadToolCoopScenario(ctx context.Context) error {
	founded := proration.NewDate(2023, time.June, 1)

	group := assets.Group{
		ID:       "makers-coop",
		Name:     "Makers Co-op",
		Currency: "USD",
		Members: []proration.Member{
			{ID: "sam", Name: "Sam Porter", Email: "sam@example.com", JoinDate: founded},
			{ID: "rita", Name: "Rita Vogel", Email: "rita@example.com", JoinDate: founded},
			{ID: "theo", Name: "Theo Brandt", Email: "theo@example.com", JoinDate: proration.NewDate(2024, time.February, 1)},
		},
		Items: []proration.Item{
			{
				ID: "table-saw", Name: "SawStop table saw",
				Price:            proration.MustParseMoney("899.99"),
				PurchaseDate:     founded,
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryTools),
			},
			{
				ID: "cargo-van", Name: "Used cargo van",
				Price:            proration.MustParseMoney("18500"),
				PurchaseDate:     proration.NewDate(2023, time.August, 15),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryVehicle),
			},
			{
				ID: "planer", Name: "Thickness planer",
				Price:            proration.MustParseMoney("645"),
				PurchaseDate:     proration.NewDate(2024, time.March, 10),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryTools),
			},
		},
	}

	return h.Store.ReplaceGroup(ctx, group)
}

// loadStudioShareScenario populates a rehearsal space. The mixer fully
// depreciates at the end of 2024; Pia left in April 2024 after buying
// into the electronics.
func (h *Handler) loadStudioShareScenario(ctx context.Context) error {
	founded := proration.NewDate(2023, time.January, 1)
	piaLeft := proration.NewDate(2024, time.April, 30)

	group := assets.Group{
		ID:       "studio-12",
		Name:     "Studio 12",
		Currency: "GBP",
		Members: []proration.Member{
			{ID: "alex", Name: "Alex Reyes", Email: "alex@example.com", JoinDate: founded},
			{ID: "jules", Name: "Jules Baptiste", Email: "jules@example.com", JoinDate: founded},
			{ID: "pia", Name: "Pia Novak", Email: "pia@example.com", JoinDate: proration.NewDate(2023, time.May, 1), LeaveDate: &piaLeft},
		},
		Items: []proration.Item{
			{
				ID: "mixer", Name: "Allen & Heath mixer",
				Price:            proration.MustParseMoney("2400"),
				PurchaseDate:     founded,
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryElectronics),
			},
			{
				ID: "synth", Name: "Prophet synth",
				Price:            proration.MustParseMoney("1850"),
				PurchaseDate:     proration.NewDate(2023, time.March, 15),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryElectronics),
			},
			{
				ID: "sofa", Name: "Green room sofa",
				Price:            proration.MustParseMoney("420"),
				PurchaseDate:     proration.NewDate(2023, time.June, 1),
				DepreciationDays: assets.DefaultDepreciationDays(assets.CategoryFurniture),
			},
		},
	}

	return h.Store.ReplaceGroup(ctx, group)
}
