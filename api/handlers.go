/*
handlers.go - HTTP API handlers for the asset ledger

PURPOSE:
  Exposes the proration engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Health:
    GET    /api/health                  Liveness check

  Groups:
    GET    /api/groups                  List all groups
    POST   /api/groups                  Create group from a JSON document
    GET    /api/groups/{id}             Get group with roster and inventory
    PUT    /api/groups/{id}             Replace group from a JSON document
    DELETE /api/groups/{id}             Delete group and its history

  Roster:
    GET    /api/groups/{id}/members     List members
    POST   /api/groups/{id}/members     Add member
    POST   /api/groups/{id}/members/{memberID}/leave  Record departure, get settlement
    GET    /api/groups/{id}/members/{memberID}/statement  Member statement

  Inventory:
    GET    /api/groups/{id}/items       List items
    POST   /api/groups/{id}/items       Add item
    DELETE /api/groups/{id}/items/{itemID}  Remove item
    GET    /api/groups/{id}/items/{itemID}/breakdown  Per-member allocation

  Statements:
    GET    /api/groups/{id}/statement   Full group statement (?as_of=YYYY-MM-DD)
    GET    /api/groups/{id}/balances    Net balances only (?as_of=YYYY-MM-DD)
    GET    /api/groups/{id}/projection  Balance drift (?from=&to=)

  Valuations:
    GET    /api/groups/{id}/valuations  Valuation run history (?limit=N)
    POST   /api/groups/{id}/valuations  Compute and persist a valuation run

  Catalog:
    GET    /api/catalog                 List depreciation categories
    POST   /api/catalog                 Register a custom category

  Scenarios:
    GET    /api/scenarios               List demo scenarios
    GET    /api/scenarios/current       Currently loaded scenario
    POST   /api/scenarios/load          Load a demo scenario
    POST   /api/scenarios/reset         Clear all data

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - GroupFactory: JSON document to domain Group conversion

REQUEST FLOW:
  1. Parse HTTP request
  2. Load the group snapshot from the store
  3. Call domain logic (engine statement, settlement, projection)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Group, member, or item not found
  - 409: Conflict (duplicate id, member already left)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/factory"
	"github.com/warp/asset-ledger/proration"
	"github.com/warp/asset-ledger/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	GroupFactory *factory.GroupFactory

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:        store,
		GroupFactory: factory.NewGroupFactory(),
	}
}

// =============================================================================
// GROUP HANDLERS
// =============================================================================

// ListGroups returns all groups with roster counts.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.Store.ListGroups(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list groups", err)
		return
	}

	dtos := make([]GroupSummaryDTO, 0, len(groups))
	for _, g := range groups {
		members, err := h.Store.ListMembers(ctx, g.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list members", err)
			return
		}
		items, err := h.Store.ListItems(ctx, g.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list items", err)
			return
		}

		dtos = append(dtos, GroupSummaryDTO{
			ID:          g.ID,
			Name:        g.Name,
			Currency:    g.Currency,
			MemberCount: len(members),
			ItemCount:   len(items),
			CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateGroup creates a group from a JSON document. The document may use
// the legacy field aliases the factory accepts.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var doc factory.GroupJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	group, err := h.GroupFactory.FromJSON(doc)
	if err != nil {
		writeDomainError(w, "Invalid group document", err)
		return
	}

	ctx := r.Context()
	existing, err := h.Store.GetGroup(ctx, string(group.ID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check group", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Group already exists", nil)
		return
	}

	if err := h.Store.ReplaceGroup(ctx, *group); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create group", err)
		return
	}

	h.writeGroupDetail(w, r, string(group.ID), http.StatusCreated)
}

// GetGroup returns a group with its full roster and inventory.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	h.writeGroupDetail(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

// ReplaceGroup replaces a group's roster and inventory wholesale from a
// JSON document. Valuation history is kept.
func (h *Handler) ReplaceGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc factory.GroupJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if doc.ID != "" && doc.ID != id {
		writeError(w, http.StatusBadRequest, "Document id does not match URL", nil)
		return
	}
	doc.ID = id

	group, err := h.GroupFactory.FromJSON(doc)
	if err != nil {
		writeDomainError(w, "Invalid group document", err)
		return
	}

	if err := h.Store.ReplaceGroup(r.Context(), *group); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to replace group", err)
		return
	}

	h.writeGroupDetail(w, r, id, http.StatusOK)
}

// DeleteGroup deletes a group along with its members, items, and history.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	existing, err := h.Store.GetGroup(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get group", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}

	if err := h.Store.DeleteGroup(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete group", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// writeGroupDetail assembles the detail view from stored records.
func (h *Handler) writeGroupDetail(w http.ResponseWriter, r *http.Request, id string, status int) {
	ctx := r.Context()

	g, err := h.Store.GetGroup(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get group", err)
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return
	}

	members, err := h.Store.ListMembers(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}
	items, err := h.Store.ListItems(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dto := GroupDetailDTO{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Members:   make([]MemberDTO, 0, len(members)),
		Items:     make([]ItemDTO, 0, len(items)),
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
	for _, m := range members {
		dto.Members = append(dto.Members, toMemberDTO(m))
	}
	for _, it := range items {
		dto.Items = append(dto.Items, toItemDTO(it))
	}

	writeJSON(w, status, dto)
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns the members of a group, earliest join first.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if ok := h.requireGroup(w, r, id); !ok {
		return
	}

	members, err := h.Store.ListMembers(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		dtos = append(dtos, toMemberDTO(m))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddMember adds a member to a group. The join date controls buy-in: joining
// after an item's purchase makes the member a late joiner for that item.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc factory.MemberJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	member, err := h.GroupFactory.MemberFromJSON(doc)
	if err != nil {
		writeDomainError(w, "Invalid member document", err)
		return
	}

	ctx := r.Context()
	group, ok := h.loadGroup(w, r, id)
	if !ok {
		return
	}

	if err := group.AddMember(member); err != nil {
		writeDomainError(w, "Failed to add member", err)
		return
	}

	record := sqlite.MemberRecord{
		ID:        string(member.ID),
		GroupID:   id,
		Name:      member.Name,
		Email:     member.Email,
		JoinDate:  member.JoinDate,
		LeaveDate: member.LeaveDate,
	}
	if err := h.Store.SaveMember(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save member", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberDTO(record))
}

// RecordLeave records a member's departure and returns the settlement quote.
// For a member whose departure is already on record, an empty or matching
// leave_date re-quotes the settlement without changing anything.
func (h *Handler) RecordLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	memberID := proration.MemberID(chi.URLParam(r, "memberID"))

	var req LeaveRequest
	json.NewDecoder(r.Body).Decode(&req) // body is optional

	var leave proration.Date
	if req.LeaveDate != "" {
		parsed, err := proration.ParseDate(req.LeaveDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid leave_date format (use YYYY-MM-DD)", err)
			return
		}
		leave = parsed
	}

	group, ok := h.loadGroup(w, r, id)
	if !ok {
		return
	}

	member := group.Member(memberID)
	if member == nil {
		writeError(w, http.StatusNotFound, "Member not found", nil)
		return
	}
	alreadyLeft := member.LeaveDate != nil

	settlement, err := assets.SettleDeparture(*group, memberID, leave)
	if err != nil {
		writeDomainError(w, "Failed to settle departure", err)
		return
	}

	ctx := r.Context()
	if !alreadyLeft {
		record, err := h.Store.GetMember(ctx, string(memberID))
		if err != nil || record == nil {
			writeError(w, http.StatusInternalServerError, "Failed to get member", err)
			return
		}
		leaveDate := settlement.LeaveDate
		record.LeaveDate = &leaveDate
		if err := h.Store.SaveMember(ctx, *record); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to record departure", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toSettlementDTO(group, settlement))
}

// GetMemberStatement returns one member's statement as of a day.
func (h *Handler) GetMemberStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	memberID := proration.MemberID(chi.URLParam(r, "memberID"))

	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	if asOf.IsZero() {
		asOf = proration.Today()
	}

	calc, group, ok := h.loadCalculator(w, r, id)
	if !ok {
		return
	}

	ms, err := calc.MemberStatement(memberID, asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute member statement", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group_id":  string(group.ID),
		"currency":  group.Currency,
		"as_of":     asOf.String(),
		"statement": toMemberStatementDTO(ms, true),
	})
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns the items of a group, earliest purchase first.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	if ok := h.requireGroup(w, r, id); !ok {
		return
	}

	items, err := h.Store.ListItems(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		dtos = append(dtos, toItemDTO(it))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddItem adds a shared item. The depreciation window comes from the
// document (days or years) or falls back to the category default.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var doc factory.ItemJSON
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	item, err := h.GroupFactory.ItemFromJSON(doc)
	if err != nil {
		writeDomainError(w, "Invalid item document", err)
		return
	}

	ctx := r.Context()
	group, ok := h.loadGroup(w, r, id)
	if !ok {
		return
	}

	if err := group.AddItem(item); err != nil {
		writeDomainError(w, "Failed to add item", err)
		return
	}

	record := sqlite.ItemRecord{
		ID:               string(item.ID),
		GroupID:          id,
		Name:             item.Name,
		Price:            item.Price,
		PurchaseDate:     item.PurchaseDate,
		DepreciationDays: item.DepreciationDays,
	}
	if err := h.Store.SaveItem(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}

	writeJSON(w, http.StatusCreated, toItemDTO(record))
}

// RemoveItem removes an item from the group's inventory.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	ctx := r.Context()

	item, err := h.Store.GetItem(ctx, itemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get item", err)
		return
	}
	if item == nil || item.GroupID != chi.URLParam(r, "id") {
		writeError(w, http.StatusNotFound, "Item not found", nil)
		return
	}

	if err := h.Store.DeleteItem(ctx, itemID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete item", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// GetItemBreakdown returns one item's allocation across members.
func (h *Handler) GetItemBreakdown(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	itemID := proration.ItemID(chi.URLParam(r, "itemID"))

	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	calc, _, ok := h.loadCalculator(w, r, id)
	if !ok {
		return
	}

	bd, err := calc.ItemBreakdown(itemID, asOf)
	if err != nil {
		writeDomainError(w, "Failed to compute item breakdown", err)
		return
	}

	writeJSON(w, http.StatusOK, toItemBreakdownDTO(bd))
}

// =============================================================================
// STATEMENT HANDLERS
// =============================================================================

// GetStatement returns the full group statement with per-item lines.
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	calc, group, ok := h.loadCalculator(w, r, id)
	if !ok {
		return
	}

	stmt := calc.Statement(asOf)
	writeJSON(w, http.StatusOK, toGroupStatementDTO(string(group.ID), group.Currency, stmt, true))
}

// GetBalances returns just the per-member net balances.
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	calc, group, ok := h.loadCalculator(w, r, id)
	if !ok {
		return
	}

	stmt := calc.Statement(asOf)
	writeJSON(w, http.StatusOK, toGroupStatementDTO(string(group.ID), group.Currency, stmt, false))
}

// GetProjection shows how balances drift between two days.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	from, err := proration.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	to, err := proration.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}

	group, ok := h.loadGroup(w, r, id)
	if !ok {
		return
	}

	projection, err := assets.ProjectAt(*group, from, to)
	if err != nil {
		writeDomainError(w, "Failed to project balances", err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectionDTO(id, projection))
}

// =============================================================================
// VALUATION HANDLERS
// =============================================================================

// RunValuation computes a statement and persists it as a valuation run.
// Re-running on the same day overwrites that day's run.
func (h *Handler) RunValuation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	calc, group, ok := h.loadCalculator(w, r, id)
	if !ok {
		return
	}

	stmt := calc.Statement(asOf)
	stmtDTO := toGroupStatementDTO(string(group.ID), group.Currency, stmt, true)

	payload, err := json.Marshal(stmtDTO)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode statement", err)
		return
	}

	run := sqlite.ValuationRun{
		ID:             uuid.NewString(),
		GroupID:        id,
		AsOf:           stmt.AsOf,
		TotalPurchased: stmt.TotalPurchased,
		TotalResidual:  stmt.TotalResidual,
		StatementJSON:  string(payload),
	}
	if err := h.Store.SaveValuationRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save valuation run", err)
		return
	}

	writeJSON(w, http.StatusCreated, toValuationRunDTO(run, &stmtDTO))
}

// ListValuations returns valuation run history, newest first.
func (h *Handler) ListValuations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if ok := h.requireGroup(w, r, id); !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Store.ListValuationRuns(r.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list valuation runs", err)
		return
	}

	dtos := make([]ValuationRunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toValuationRunDTO(run, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCatalog returns all registered depreciation categories.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	categories := assets.ListCategories()
	dtos := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": dtos})
}

// RegisterCategory registers a custom depreciation category. Registering an
// existing id replaces its defaults.
func (h *Handler) RegisterCategory(w http.ResponseWriter, r *http.Request) {
	var req RegisterCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Category id is required", nil)
		return
	}
	if req.DefaultDays <= 0 {
		writeError(w, http.StatusBadRequest, "default_days must be positive", nil)
		return
	}
	if req.Name == "" {
		req.Name = req.ID
	}

	category := assets.Category{ID: req.ID, Name: req.Name, DefaultDays: req.DefaultDays}
	assets.RegisterCategory(category)

	writeJSON(w, http.StatusCreated, toCategoryDTO(category))
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// loadGroup fetches the domain group, writing 404/500 on failure.
func (h *Handler) loadGroup(w http.ResponseWriter, r *http.Request, id string) (*assets.Group, bool) {
	group, err := h.Store.LoadGroup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load group", err)
		return nil, false
	}
	if group == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return nil, false
	}
	return group, true
}

// loadCalculator fetches the group and builds its engine snapshot.
func (h *Handler) loadCalculator(w http.ResponseWriter, r *http.Request, id string) (*proration.Calculator, *assets.Group, bool) {
	group, ok := h.loadGroup(w, r, id)
	if !ok {
		return nil, nil, false
	}
	calc, err := group.Calculator()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored group failed validation", err)
		return nil, nil, false
	}
	return calc, group, true
}

// requireGroup checks existence without assembling the domain group.
func (h *Handler) requireGroup(w http.ResponseWriter, r *http.Request, id string) bool {
	g, err := h.Store.GetGroup(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get group", err)
		return false
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "Group not found", nil)
		return false
	}
	return true
}

// parseAsOf reads the optional as_of query parameter. A missing parameter
// yields the zero date, which the engine treats as today.
func parseAsOf(w http.ResponseWriter, r *http.Request) (proration.Date, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return proration.Date{}, true
	}
	asOf, err := proration.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
		return proration.Date{}, false
	}
	return asOf, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case proration.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, proration.ErrDuplicateID), errors.Is(err, assets.ErrAlreadyLeft):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusBadRequest, message, err)
	}
}
