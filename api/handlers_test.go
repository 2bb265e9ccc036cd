/*
handlers_test.go - Unit tests for API handler flows

Tests for:
- Group creation from JSON documents (including legacy aliases)
- Statement math through the HTTP surface
- Departure settlement and its persistence
- Valuation runs and the background scheduler
*/
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
	"github.com/warp/asset-ledger/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewHandler(store)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
}

func approxEqual(got, want float64) bool {
	return math.Abs(got-want) < 0.005
}

// seedFlat stores a household where Ana and Ben found the flat on Jan 1
// and Cleo joins on July 1, after the fridge purchase.
func seedFlat(t *testing.T, h *Handler) {
	t.Helper()

	founded := proration.NewDate(2024, time.January, 1)
	group := assets.Group{
		ID:       "flat-7",
		Name:     "Kreuzberg Flat 7",
		Currency: "EUR",
		Members: []proration.Member{
			{ID: "ana", Name: "Ana", JoinDate: founded},
			{ID: "ben", Name: "Ben", JoinDate: founded},
			{ID: "cleo", Name: "Cleo", JoinDate: proration.NewDate(2024, time.July, 1)},
		},
		Items: []proration.Item{
			{
				ID: "fridge", Name: "Fridge",
				Price:            proration.MustParseMoney("1200"),
				PurchaseDate:     founded,
				DepreciationDays: 1095,
			},
		},
	}
	if err := h.Store.ReplaceGroup(context.Background(), group); err != nil {
		t.Fatalf("Failed to seed group: %v", err)
	}
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealth(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)

	w := doRequest(t, router, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	decodeJSON(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
}

// =============================================================================
// GROUP DOCUMENT FLOW
// =============================================================================

func TestCreateGroup_FromDocument(t *testing.T) {
	// GIVEN: A group document using a mix of canonical and legacy fields
	// WHEN: Posting it to the groups endpoint
	// THEN: The group is stored with aliases and category defaults resolved

	handler := setupTestHandler(t)
	router := NewRouter(handler)

	doc := `{
		"id": "flat-7",
		"name": "Kreuzberg Flat 7",
		"currency": "EUR",
		"members": [
			{"id": "ana", "name": "Ana", "joined_on": "2024-01-01"},
			{"id": "ben", "name": "Ben", "join_date": "2024-01-01"}
		],
		"items": [
			{"id": "fridge", "name": "Fridge", "price": "1200", "start_date": "2024-01-01", "depreciation_years": 3}
		]
	}`

	w := doRequest(t, router, "POST", "/api/groups", doc)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var detail GroupDetailDTO
	decodeJSON(t, w, &detail)

	if len(detail.Members) != 2 {
		t.Errorf("Expected 2 members, got %d", len(detail.Members))
	}
	if detail.Members[0].JoinDate != "2024-01-01" {
		t.Errorf("Expected joined_on alias to resolve, got %q", detail.Members[0].JoinDate)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(detail.Items))
	}
	if detail.Items[0].DepreciationDays != 1095 {
		t.Errorf("Expected 3 years to become 1095 days, got %d", detail.Items[0].DepreciationDays)
	}

	// Posting the same id again conflicts
	w = doRequest(t, router, "POST", "/api/groups", doc)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on duplicate id, got %d", w.Code)
	}
}

func TestCreateGroup_RejectsInvalidDocuments(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed JSON", `{"id": "x"`, http.StatusBadRequest},
		{"missing name", `{"id": "x", "members": [{"id": "a", "join_date": "2024-01-01"}]}`, http.StatusBadRequest},
		{"leave before join", `{"id": "x", "name": "X", "members": [
			{"id": "a", "join_date": "2024-06-01", "leave_date": "2024-01-01"}
		]}`, http.StatusBadRequest},
		{"duplicate ids in document", `{"id": "x", "name": "X", "members": [
			{"id": "a", "join_date": "2024-01-01"},
			{"id": "a", "join_date": "2024-02-01"}
		]}`, http.StatusBadRequest},
	}

	for _, tc := range cases {
		w := doRequest(t, router, "POST", "/api/groups", tc.body)
		if w.Code != tc.want {
			t.Errorf("%s: expected status %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)

	w := doRequest(t, router, "GET", "/api/groups/nope", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// =============================================================================
// STATEMENT FLOW
// =============================================================================

func TestStatement_LateJoinerBuyIn(t *testing.T) {
	// GIVEN: Two founders and a July 1 joiner sharing a 1200 fridge
	// WHEN: Reading the statement on the join day
	// THEN: The joiner pays a third of the residual value, split across
	//       the founders, and nets still sum to the residual

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "GET", "/api/groups/flat-7/statement?as_of=2024-07-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var stmt GroupStatementDTO
	decodeJSON(t, w, &stmt)

	if stmt.AsOf != "2024-07-01" {
		t.Errorf("Expected as_of 2024-07-01, got %q", stmt.AsOf)
	}
	if !approxEqual(stmt.TotalPurchased, 1200) {
		t.Errorf("Expected total purchased 1200, got %.2f", stmt.TotalPurchased)
	}
	// 182 elapsed days out of 1095: residual 1200 * 913/1095
	if !approxEqual(stmt.TotalResidual, 1000.55) {
		t.Errorf("Expected total residual 1000.55, got %.2f", stmt.TotalResidual)
	}

	byID := make(map[string]MemberStatementDTO)
	for _, ms := range stmt.Members {
		byID[ms.MemberID] = ms
	}

	cleo := byID["cleo"]
	if !approxEqual(cleo.BuyInPaid, 333.52) {
		t.Errorf("Expected Cleo buy-in 333.52, got %.2f", cleo.BuyInPaid)
	}
	if cleo.InitialPayments != 0 {
		t.Errorf("Expected Cleo to have no initial payment, got %.2f", cleo.InitialPayments)
	}
	if len(cleo.Items) != 1 || !cleo.Items[0].IsLateJoiner {
		t.Errorf("Expected Cleo to be a late joiner on the fridge: %+v", cleo.Items)
	}

	for _, id := range []string{"ana", "ben"} {
		founder := byID[id]
		if !approxEqual(founder.BuyInReceived, 166.76) {
			t.Errorf("Expected %s to receive 166.76 buy-in, got %.2f", id, founder.BuyInReceived)
		}
		if !approxEqual(founder.InitialPayments, 600) {
			t.Errorf("Expected %s initial payment 600, got %.2f", id, founder.InitialPayments)
		}
	}

	// The buy-in squares the founders with each other
	if !approxEqual(byID["ana"].NetBalance, byID["ben"].NetBalance) {
		t.Errorf("Expected equal founder nets, got ana %.2f ben %.2f",
			byID["ana"].NetBalance, byID["ben"].NetBalance)
	}
	// Paid 600 plus 166.76 received, minus 182 half days and one third day
	if !approxEqual(byID["ana"].NetBalance, 666.67) {
		t.Errorf("Expected founder net 666.67, got %.2f", byID["ana"].NetBalance)
	}
	// Buy-in minus one third of the July 1 daily cost
	if !approxEqual(cleo.NetBalance, 333.15) {
		t.Errorf("Expected Cleo net 333.15, got %.2f", cleo.NetBalance)
	}
}

func TestStatement_RejectsBadAsOf(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "GET", "/api/groups/flat-7/statement?as_of=July+1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestItemBreakdown_SharesPerMember(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "GET", "/api/groups/flat-7/items/fridge/breakdown?as_of=2024-03-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var bd ItemBreakdownDTO
	decodeJSON(t, w, &bd)

	// Cleo has not joined yet, so only the founders appear
	if len(bd.Shares) != 2 {
		t.Fatalf("Expected 2 shares before Cleo joins, got %d", len(bd.Shares))
	}
	for _, s := range bd.Shares {
		if !approxEqual(s.InitialPayment, 600) {
			t.Errorf("Expected %s initial payment 600, got %.2f", s.MemberID, s.InitialPayment)
		}
		if s.IsLateJoiner {
			t.Errorf("Founder %s should not be a late joiner", s.MemberID)
		}
	}

	w = doRequest(t, router, "GET", "/api/groups/flat-7/items/nope/breakdown", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown item, got %d", w.Code)
	}
}

func TestProjection_RejectsBackwardRange(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "GET", "/api/groups/flat-7/projection?from=2024-07-01&to=2024-01-01", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for backward range, got %d", w.Code)
	}

	w = doRequest(t, router, "GET", "/api/groups/flat-7/projection?from=2024-01-01&to=2024-12-31", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var proj ProjectionDTO
	decodeJSON(t, w, &proj)
	if len(proj.Deltas) != 3 {
		t.Errorf("Expected 3 deltas, got %d", len(proj.Deltas))
	}
}

// =============================================================================
// DEPARTURE SETTLEMENT FLOW
// =============================================================================

func TestRecordLeave_SettlesAndPersists(t *testing.T) {
	// GIVEN: Ben leaves on March 31, in credit for his fridge share
	// WHEN: Posting the departure
	// THEN: The settlement names Ana as payer and the leave date sticks

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "POST", "/api/groups/flat-7/members/ben/leave",
		`{"leave_date": "2024-03-31"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var settlement SettlementDTO
	decodeJSON(t, w, &settlement)

	if settlement.LeaveDate != "2024-03-31" {
		t.Errorf("Expected leave date 2024-03-31, got %q", settlement.LeaveDate)
	}
	// Paid 600, used 91 days of 1200/1095 split two ways
	if !approxEqual(settlement.Net, 550.14) {
		t.Errorf("Expected net 550.14, got %.2f", settlement.Net)
	}
	if len(settlement.Legs) != 1 {
		t.Fatalf("Expected 1 leg, got %d", len(settlement.Legs))
	}
	leg := settlement.Legs[0]
	if leg.From != "ana" || leg.To != "ben" {
		t.Errorf("Expected ana to pay ben, got %s -> %s", leg.From, leg.To)
	}
	if !approxEqual(leg.Amount, 550.14) {
		t.Errorf("Expected leg amount 550.14, got %.2f", leg.Amount)
	}

	// The departure is on record now
	member, err := handler.Store.GetMember(context.Background(), "ben")
	if err != nil || member == nil {
		t.Fatalf("Failed to get member: %v", err)
	}
	if member.LeaveDate == nil || member.LeaveDate.String() != "2024-03-31" {
		t.Errorf("Expected persisted leave date 2024-03-31, got %v", member.LeaveDate)
	}

	// Re-quoting with an empty body returns the same settlement
	w = doRequest(t, router, "POST", "/api/groups/flat-7/members/ben/leave", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on re-quote, got %d: %s", w.Code, w.Body.String())
	}
	var requote SettlementDTO
	decodeJSON(t, w, &requote)
	if !approxEqual(requote.Net, settlement.Net) {
		t.Errorf("Expected re-quote net %.2f, got %.2f", settlement.Net, requote.Net)
	}

	// A conflicting date is rejected
	w = doRequest(t, router, "POST", "/api/groups/flat-7/members/ben/leave",
		`{"leave_date": "2024-06-30"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for conflicting leave date, got %d", w.Code)
	}
}

func TestRecordLeave_Errors(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	// Unknown member
	w := doRequest(t, router, "POST", "/api/groups/flat-7/members/zed/leave",
		`{"leave_date": "2024-03-31"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown member, got %d", w.Code)
	}

	// Active member with no leave date
	w = doRequest(t, router, "POST", "/api/groups/flat-7/members/ana/leave", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing leave date, got %d", w.Code)
	}

	// Unparseable date
	w = doRequest(t, router, "POST", "/api/groups/flat-7/members/ana/leave",
		`{"leave_date": "soon"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad date, got %d", w.Code)
	}
}

// =============================================================================
// ROSTER FLOW
// =============================================================================

func TestAddMember_DuplicateConflicts(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "POST", "/api/groups/flat-7/members",
		`{"id": "dara", "name": "Dara", "join_date": "2024-08-01"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "POST", "/api/groups/flat-7/members",
		`{"id": "ana", "name": "Another Ana", "join_date": "2024-08-01"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate member, got %d", w.Code)
	}
}

func TestAddItem_CategoryDefaultsWindow(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "POST", "/api/groups/flat-7/items",
		`{"id": "tv", "name": "TV", "price": "800", "purchase_date": "2024-02-01", "category": "electronics"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var item ItemDTO
	decodeJSON(t, w, &item)
	if item.DepreciationDays != 730 {
		t.Errorf("Expected electronics default of 730 days, got %d", item.DepreciationDays)
	}
	if item.EndDate != "2026-01-30" {
		t.Errorf("Expected end date 2026-01-30, got %q", item.EndDate)
	}

	// Explicit years beat the category default
	w = doRequest(t, router, "POST", "/api/groups/flat-7/items",
		`{"id": "bike", "price": "450", "purchase_date": "2024-02-01", "category": "electronics", "depreciation_years": 2.5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &item)
	if item.DepreciationDays != 913 {
		t.Errorf("Expected 2.5 years to become 913 days, got %d", item.DepreciationDays)
	}
}

func TestRemoveItem(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "DELETE", "/api/groups/flat-7/items/fridge", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, router, "DELETE", "/api/groups/flat-7/items/fridge", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 on second delete, got %d", w.Code)
	}
}

// =============================================================================
// VALUATION FLOW
// =============================================================================

func TestRunValuation_PersistsHistory(t *testing.T) {
	// GIVEN: A seeded household
	// WHEN: Running valuations for two days, one of them twice
	// THEN: History holds one run per day, newest first

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	seedFlat(t, handler)

	w := doRequest(t, router, "POST", "/api/groups/flat-7/valuations?as_of=2024-07-01", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var run ValuationRunDTO
	decodeJSON(t, w, &run)
	if run.AsOf != "2024-07-01" {
		t.Errorf("Expected as_of 2024-07-01, got %q", run.AsOf)
	}
	if !approxEqual(run.TotalResidual, 1000.55) {
		t.Errorf("Expected residual 1000.55, got %.2f", run.TotalResidual)
	}
	if run.Statement == nil || len(run.Statement.Members) != 3 {
		t.Errorf("Expected embedded statement with 3 members, got %+v", run.Statement)
	}

	// Re-running the same day overwrites, a second day appends
	doRequest(t, router, "POST", "/api/groups/flat-7/valuations?as_of=2024-07-01", "")
	doRequest(t, router, "POST", "/api/groups/flat-7/valuations?as_of=2024-08-01", "")

	w = doRequest(t, router, "GET", "/api/groups/flat-7/valuations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var history struct {
		Runs []ValuationRunDTO `json:"runs"`
	}
	decodeJSON(t, w, &history)
	if len(history.Runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(history.Runs))
	}
	if history.Runs[0].AsOf != "2024-08-01" {
		t.Errorf("Expected newest run first, got %q", history.Runs[0].AsOf)
	}
	if history.Runs[0].Statement != nil {
		t.Errorf("Expected history listing to omit the statement payload")
	}
}

func TestValuationScheduler_RecordsOncePerDay(t *testing.T) {
	handler := setupTestHandler(t)
	seedFlat(t, handler)
	ctx := context.Background()

	scheduler := NewValuationScheduler(handler.Store)
	scheduler.RunNow()

	runs, err := handler.Store.ListValuationRuns(ctx, "flat-7", 0)
	if err != nil {
		t.Fatalf("Failed to list valuation runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run after first check, got %d", len(runs))
	}
	if !runs[0].AsOf.Equal(proration.Today()) {
		t.Errorf("Expected run for today, got %s", runs[0].AsOf)
	}

	// Second check the same day is a no-op
	scheduler.RunNow()
	runs, err = handler.Store.ListValuationRuns(ctx, "flat-7", 0)
	if err != nil {
		t.Fatalf("Failed to list valuation runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected still 1 run after second check, got %d", len(runs))
	}
}

// =============================================================================
// CATALOG FLOW
// =============================================================================

func TestCatalog_ListAndRegister(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)

	w := doRequest(t, router, "GET", "/api/catalog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var catalog struct {
		Categories []CategoryDTO `json:"categories"`
	}
	decodeJSON(t, w, &catalog)
	if len(catalog.Categories) < 6 {
		t.Errorf("Expected at least 6 built-in categories, got %d", len(catalog.Categories))
	}

	w = doRequest(t, router, "POST", "/api/catalog",
		`{"id": "instrument", "name": "Instrument", "default_days": 2190}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if days := assets.DefaultDepreciationDays("instrument"); days != 2190 {
		t.Errorf("Expected registered category to resolve to 2190 days, got %d", days)
	}

	w = doRequest(t, router, "POST", "/api/catalog", `{"id": "", "default_days": 10}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty id, got %d", w.Code)
	}
}
