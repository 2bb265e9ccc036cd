/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific rounding (amounts are rounded to cents for display)
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Group:
    GroupSummaryDTO, GroupDetailDTO

  Roster:
    MemberDTO, ItemDTO, LeaveRequest

  Statements:
    GroupStatementDTO, MemberStatementDTO, ItemShareDTO, ItemValuationDTO

  Settlement:
    SettlementDTO, SettlementLegDTO

  Valuation:
    ValuationRunDTO

  Catalog:
    CategoryDTO, RegisterCategoryRequest

  Scenarios:
    ScenarioDTO

AMOUNTS:
  The engine computes with exact decimals. DTOs carry amounts as numbers
  rounded to two decimal places; clients that need exact values should
  use the statement_json stored with valuation runs.

DATES:
  All dates are ISO strings (YYYY-MM-DD). Timestamps are RFC3339.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/group.go: GroupJSON, MemberJSON, ItemJSON request documents
*/
package api

import (
	"time"

	"github.com/warp/asset-ledger/assets"
	"github.com/warp/asset-ledger/proration"
	"github.com/warp/asset-ledger/store/sqlite"
)

// =============================================================================
// GROUP TYPES
// =============================================================================

// GroupSummaryDTO is the list view of a group.
type GroupSummaryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	MemberCount int    `json:"member_count"`
	ItemCount   int    `json:"item_count"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// GroupDetailDTO is the full view of a group with its roster and inventory.
type GroupDetailDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Currency  string      `json:"currency"`
	Members   []MemberDTO `json:"members"`
	Items     []ItemDTO   `json:"items"`
	CreatedAt string      `json:"created_at,omitempty"`
}

// MemberDTO represents a member in API responses.
type MemberDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	JoinDate  string  `json:"join_date"`
	LeaveDate *string `json:"leave_date,omitempty"`
	Active    bool    `json:"active"`
	CreatedAt string  `json:"created_at,omitempty"`
}

// ItemDTO represents a shared item in API responses.
type ItemDTO struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	PurchaseDate     string  `json:"purchase_date"`
	DepreciationDays int     `json:"depreciation_days"`
	EndDate          string  `json:"end_date"`
	CreatedAt        string  `json:"created_at,omitempty"`
}

// LeaveRequest is the body for recording a departure. An empty leave_date
// re-quotes the settlement for a member whose departure is already on record.
type LeaveRequest struct {
	LeaveDate string `json:"leave_date,omitempty"`
}

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// GroupStatementDTO is the full cost allocation for one group on one day.
type GroupStatementDTO struct {
	GroupID        string               `json:"group_id"`
	Currency       string               `json:"currency"`
	AsOf           string               `json:"as_of"`
	TotalPurchased float64              `json:"total_purchased"`
	TotalResidual  float64              `json:"total_residual"`
	Members        []MemberStatementDTO `json:"members"`
	Items          []ItemValuationDTO   `json:"items,omitempty"`
}

// MemberStatementDTO is one member's totals, optionally with per-item lines.
type MemberStatementDTO struct {
	MemberID        string         `json:"member_id"`
	Name            string         `json:"name"`
	Active          bool           `json:"active"`
	InitialPayments float64        `json:"initial_payments"`
	Usage           float64        `json:"usage"`
	BuyInPaid       float64        `json:"buy_in_paid"`
	BuyInReceived   float64        `json:"buy_in_received"`
	NetBalance      float64        `json:"net_balance"`
	Items           []ItemShareDTO `json:"items,omitempty"`
}

// ItemShareDTO is one member's involvement with one item.
type ItemShareDTO struct {
	ItemID         string  `json:"item_id"`
	ItemName       string  `json:"item_name"`
	IsLateJoiner   bool    `json:"is_late_joiner"`
	InitialPayment float64 `json:"initial_payment"`
	BuyInPaid      float64 `json:"buy_in_paid"`
	Usage          float64 `json:"usage"`
	BuyInReceived  float64 `json:"buy_in_received"`
	NetBalance     float64 `json:"net_balance"`
}

// ItemValuationDTO is an item's residual value on the statement day.
type ItemValuationDTO struct {
	ItemID           string  `json:"item_id"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	Value            float64 `json:"value"`
	FullyDepreciated bool    `json:"fully_depreciated"`
}

// ItemBreakdownDTO is one item's allocation across all involved members.
type ItemBreakdownDTO struct {
	ItemID string               `json:"item_id"`
	Name   string               `json:"name"`
	AsOf   string               `json:"as_of"`
	Price  float64              `json:"price"`
	Value  float64              `json:"value"`
	Shares []ItemMemberShareDTO `json:"shares"`
}

// ItemMemberShareDTO is one member's line in a per-item breakdown.
type ItemMemberShareDTO struct {
	MemberID       string  `json:"member_id"`
	Name           string  `json:"name"`
	IsLateJoiner   bool    `json:"is_late_joiner"`
	InitialPayment float64 `json:"initial_payment"`
	BuyInPaid      float64 `json:"buy_in_paid"`
	Usage          float64 `json:"usage"`
	BuyInReceived  float64 `json:"buy_in_received"`
	NetBalance     float64 `json:"net_balance"`
}

// =============================================================================
// SETTLEMENT AND PROJECTION TYPES
// =============================================================================

// SettlementDTO is the payout quote for a departing member.
type SettlementDTO struct {
	GroupID   string             `json:"group_id"`
	MemberID  string             `json:"member_id"`
	Name      string             `json:"name"`
	LeaveDate string             `json:"leave_date"`
	Currency  string             `json:"currency"`
	Net       float64            `json:"net"`
	Legs      []SettlementLegDTO `json:"legs"`
}

// SettlementLegDTO is one transfer between two members.
type SettlementLegDTO struct {
	From     string  `json:"from"`
	FromName string  `json:"from_name,omitempty"`
	To       string  `json:"to"`
	ToName   string  `json:"to_name,omitempty"`
	Amount   float64 `json:"amount"`
}

// ProjectionDTO shows how balances drift between two days.
type ProjectionDTO struct {
	GroupID string           `json:"group_id"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Deltas  []MemberDeltaDTO `json:"deltas"`
}

// MemberDeltaDTO is one member's balance movement over the projection range.
type MemberDeltaDTO struct {
	MemberID string  `json:"member_id"`
	Name     string  `json:"name"`
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Change   float64 `json:"change"`
}

// =============================================================================
// VALUATION TYPES
// =============================================================================

// ValuationRunDTO is a persisted valuation snapshot. The full statement is
// included when the run is created and omitted from history listings.
type ValuationRunDTO struct {
	ID             string             `json:"id"`
	GroupID        string             `json:"group_id"`
	AsOf           string             `json:"as_of"`
	TotalPurchased float64            `json:"total_purchased"`
	TotalResidual  float64            `json:"total_residual"`
	CreatedAt      string             `json:"created_at,omitempty"`
	Statement      *GroupStatementDTO `json:"statement,omitempty"`
}

// =============================================================================
// CATALOG TYPES
// =============================================================================

// CategoryDTO represents a depreciation category.
type CategoryDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DefaultDays int    `json:"default_days"`
}

// RegisterCategoryRequest is the request to register a custom category.
type RegisterCategoryRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DefaultDays int    `json:"default_days"`
}

// =============================================================================
// SCENARIO AND ERROR TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// amount rounds an exact engine value to cents for display.
func amount(m proration.Money) float64 {
	return m.Round(2).Float64()
}

func toMemberDTO(m sqlite.MemberRecord) MemberDTO {
	dto := MemberDTO{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		JoinDate: m.JoinDate.String(),
		Active: proration.Member{
			ID:        proration.MemberID(m.ID),
			JoinDate:  m.JoinDate,
			LeaveDate: m.LeaveDate,
		}.PresentOn(proration.Today()),
	}
	if m.LeaveDate != nil {
		s := m.LeaveDate.String()
		dto.LeaveDate = &s
	}
	if !m.CreatedAt.IsZero() {
		dto.CreatedAt = m.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toItemDTO(it sqlite.ItemRecord) ItemDTO {
	window := proration.Item{
		PurchaseDate:     it.PurchaseDate,
		DepreciationDays: it.DepreciationDays,
	}.Window()

	dto := ItemDTO{
		ID:               it.ID,
		Name:             it.Name,
		Price:            amount(it.Price),
		PurchaseDate:     it.PurchaseDate.String(),
		DepreciationDays: it.DepreciationDays,
		EndDate:          window.End.String(),
	}
	if !it.CreatedAt.IsZero() {
		dto.CreatedAt = it.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toMemberStatementDTO(ms proration.MemberStatement, withItems bool) MemberStatementDTO {
	dto := MemberStatementDTO{
		MemberID:        string(ms.MemberID),
		Name:            ms.Name,
		Active:          ms.Active,
		InitialPayments: amount(ms.InitialPayments),
		Usage:           amount(ms.Usage),
		BuyInPaid:       amount(ms.BuyInPaid),
		BuyInReceived:   amount(ms.BuyInReceived),
		NetBalance:      amount(ms.NetBalance),
	}
	if withItems {
		for _, line := range ms.Items {
			dto.Items = append(dto.Items, ItemShareDTO{
				ItemID:         string(line.ItemID),
				ItemName:       line.ItemName,
				IsLateJoiner:   line.IsLateJoiner,
				InitialPayment: amount(line.InitialPayment),
				BuyInPaid:      amount(line.BuyInPaid),
				Usage:          amount(line.Usage),
				BuyInReceived:  amount(line.BuyInReceived),
				NetBalance:     amount(line.NetBalance),
			})
		}
	}
	return dto
}

func toGroupStatementDTO(groupID, currency string, gs proration.GroupStatement, withItems bool) GroupStatementDTO {
	dto := GroupStatementDTO{
		GroupID:        groupID,
		Currency:       currency,
		AsOf:           gs.AsOf.String(),
		TotalPurchased: amount(gs.TotalPurchased),
		TotalResidual:  amount(gs.TotalResidual),
	}
	for _, ms := range gs.Members {
		dto.Members = append(dto.Members, toMemberStatementDTO(ms, withItems))
	}
	if withItems {
		// Round the value column as shares of the residual so the
		// displayed values sum to the displayed total.
		values := make([]proration.Money, len(gs.Items))
		for i, iv := range gs.Items {
			values[i] = iv.Value
		}
		values = proration.RoundShares(gs.TotalResidual, values)
		for i, iv := range gs.Items {
			dto.Items = append(dto.Items, ItemValuationDTO{
				ItemID:           string(iv.ItemID),
				Name:             iv.Name,
				Price:            amount(iv.Price),
				Value:            values[i].Float64(),
				FullyDepreciated: iv.FullyDepreciated,
			})
		}
	}
	return dto
}

func toItemBreakdownDTO(bd proration.ItemBreakdown) ItemBreakdownDTO {
	dto := ItemBreakdownDTO{
		ItemID: string(bd.ItemID),
		Name:   bd.Name,
		AsOf:   bd.AsOf.String(),
		Price:  amount(bd.Price),
		Value:  amount(bd.Value),
	}
	for _, s := range bd.Shares {
		dto.Shares = append(dto.Shares, ItemMemberShareDTO{
			MemberID:       string(s.MemberID),
			Name:           s.Name,
			IsLateJoiner:   s.IsLateJoiner,
			InitialPayment: amount(s.InitialPayment),
			BuyInPaid:      amount(s.BuyInPaid),
			Usage:          amount(s.Usage),
			BuyInReceived:  amount(s.BuyInReceived),
			NetBalance:     amount(s.NetBalance),
		})
	}
	return dto
}

func toSettlementDTO(g *assets.Group, s *assets.Settlement) SettlementDTO {
	names := make(map[proration.MemberID]string, len(g.Members))
	for _, m := range g.Members {
		names[m.ID] = m.Name
	}

	dto := SettlementDTO{
		GroupID:   string(g.ID),
		MemberID:  string(s.MemberID),
		Name:      s.Name,
		LeaveDate: s.LeaveDate.String(),
		Currency:  g.Currency,
		Net:       amount(s.Net),
	}
	for _, leg := range s.Legs {
		dto.Legs = append(dto.Legs, SettlementLegDTO{
			From:     string(leg.From),
			FromName: names[leg.From],
			To:       string(leg.To),
			ToName:   names[leg.To],
			Amount:   amount(leg.Amount),
		})
	}
	return dto
}

func toProjectionDTO(groupID string, p *assets.Projection) ProjectionDTO {
	dto := ProjectionDTO{
		GroupID: groupID,
		From:    p.From.String(),
		To:      p.To.String(),
	}
	for _, d := range p.Deltas {
		dto.Deltas = append(dto.Deltas, MemberDeltaDTO{
			MemberID: string(d.MemberID),
			Name:     d.Name,
			From:     amount(d.From),
			To:       amount(d.To),
			Change:   amount(d.Change),
		})
	}
	return dto
}

func toValuationRunDTO(run sqlite.ValuationRun, statement *GroupStatementDTO) ValuationRunDTO {
	dto := ValuationRunDTO{
		ID:             run.ID,
		GroupID:        run.GroupID,
		AsOf:           run.AsOf.String(),
		TotalPurchased: amount(run.TotalPurchased),
		TotalResidual:  amount(run.TotalResidual),
		Statement:      statement,
	}
	if !run.CreatedAt.IsZero() {
		dto.CreatedAt = run.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toCategoryDTO(c assets.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, DefaultDays: c.DefaultDays}
}
