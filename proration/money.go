/*
Package proration provides the core cost-allocation engine for shared,
depreciating assets.

PURPOSE:
  This package contains the pure math for splitting the cost of jointly
  owned items across a group whose membership changes over time. Given
  immutable snapshots of members (with join/leave dates) and items (with
  purchase dates and depreciation schedules), it computes per-member,
  per-item, and aggregate balances: what each member paid in, what they
  consumed day by day, what they were compensated when later members
  bought in, and the resulting net credit or debt.

KEY CONCEPTS IN THIS FILE (money.go):
  - Money: An exact decimal monetary amount (single currency)

DESIGN PRINCIPLES:
  1. Purity: The engine never mutates its inputs and owns no state.
     Callers pass snapshots in; results are plain values.
  2. Precision: Uses decimal.Decimal end to end. Accumulating hundreds
     of per-day charges in binary floats drifts by cents; decimals don't.
  3. Day granularity: Every date comparison happens at calendar-day
     precision. Time-of-day never leaks into the math.
  4. Totality: Well-formed input always yields a complete result.
     Degenerate cases (zero price, empty ranges) produce zeros, not errors.

USAGE:
  cal, err := proration.NewCalculator(members, items)
  if err != nil { ... }
  stmt := cal.Statement(proration.Today())
  for _, ms := range stmt.Members {
      fmt.Println(ms.MemberID, ms.NetBalance)
  }

SEE ALSO:
  - item.go: Depreciation model (value of an item on a given day)
  - member.go: Presence model (who is in the group on a given day)
  - engine.go: Allocation algorithm (the heart of the system)
  - statement.go: Per-member and group-level aggregation
*/
package proration

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Exact decimal monetary amount
// =============================================================================

// Money is a single-currency monetary amount backed by decimal.Decimal.
// The zero value is zero money and ready to use.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{Value: decimal.Zero}
	}
	return Money{Value: d}
}

func Zero() Money { return Money{Value: decimal.Zero} }

func (m Money) Add(o Money) Money             { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money             { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money   { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money   { return Money{Value: m.Value.Div(s)} }
func (m Money) DivInt(n int) Money            { return Money{Value: m.Value.Div(decimal.NewFromInt(int64(n)))} }
func (m Money) Neg() Money                    { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool                  { return m.Value.IsZero() }
func (m Money) IsNegative() bool              { return m.Value.IsNegative() }
func (m Money) IsPositive() bool              { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool      { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool         { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool            { return m.Value.Equal(o.Value) }

// Round returns the amount rounded half-up to the given number of decimal
// places. Display-only; the engine never rounds during accumulation.
func (m Money) Round(places int32) Money { return Money{Value: m.Value.Round(places)} }

// Float64 returns the closest float64 representation. Display-only.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

func (m Money) String() string { return m.Value.String() }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type MemberID string
type ItemID string
