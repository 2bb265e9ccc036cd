/*
item.go - Shared items and the depreciation model

PURPOSE:
  Answers "what is this item worth on day D?" and "over which days does
  its value decline?". Value falls in a straight line from full price on
  the purchase day to exactly zero the day after the depreciation window
  ends. No salvage value, no accelerated curves.

DEPRECIATION WINDOW:
  [purchaseDate, purchaseDate + depreciationDays - 1], inclusive. An item
  with a 1095-day schedule bought on 2024-01-01 is worth its last daily
  slice on 2026-12-30 and nothing from 2026-12-31 on.

UNITS:
  The engine only knows days. Schedules expressed in years are converted
  to round(years * 365) at the input boundary (see factory package); by
  the time an Item exists, DepreciationDays is canonical.
*/
package proration

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ITEM
// =============================================================================

// Item is a shared asset whose price is amortized across the group.
type Item struct {
	ID           ItemID
	Name         string
	Price        Money
	PurchaseDate Date

	// DepreciationDays is the schedule length in days, >= 1.
	DepreciationDays int
}

// Window returns the item's depreciation window: the inclusive span of
// days over which its value is amortized to zero.
func (it Item) Window() Window {
	return Window{
		Start: it.PurchaseDate,
		End:   it.PurchaseDate.AddDays(it.DepreciationDays - 1),
	}
}

// PerDayValue returns the constant daily cost slice: price / depreciationDays.
func (it Item) PerDayValue() Money {
	return it.Price.DivInt(it.DepreciationDays)
}

// ValueAt returns the item's remaining value on the given day.
//
// Before the purchase date the item is worth its full price (the engine
// never asks in practice; the value is defined for completeness). From
// the day after the window ends it is worth exactly zero. In between,
// value declines linearly: price * remainingDays / depreciationDays.
func (it Item) ValueAt(day Date) Money {
	if day.Before(it.PurchaseDate) {
		return it.Price
	}
	daysElapsed := DaysBetween(it.PurchaseDate, day)
	if daysElapsed >= it.DepreciationDays {
		return Zero()
	}
	remaining := it.DepreciationDays - daysElapsed
	// Multiply before dividing to keep decimal precision.
	return it.Price.
		Mul(decimal.NewFromInt(int64(remaining))).
		Div(decimal.NewFromInt(int64(it.DepreciationDays)))
}

// FullyDepreciatedBy reports whether the item is worth zero on the given day.
func (it Item) FullyDepreciatedBy(day Date) bool {
	return DaysBetween(it.PurchaseDate, day) >= it.DepreciationDays
}

// Validate checks the item's invariants.
func (it Item) Validate() error {
	if it.ID == "" {
		return itemError(it.ID, "id", "must not be empty")
	}
	if it.Price.IsNegative() {
		return itemError(it.ID, "price", "must not be negative (got "+it.Price.String()+")")
	}
	if it.PurchaseDate.IsZero() {
		return itemError(it.ID, "purchaseDate", "must be set")
	}
	if it.DepreciationDays < 1 {
		return itemError(it.ID, "depreciationDays", "must be at least 1")
	}
	return nil
}
