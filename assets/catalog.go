/*
catalog.go - Asset category registration and lookup

PURPOSE:
  Provides a registry of asset categories with sensible default
  depreciation windows. Callers creating an item without an explicit
  lifespan resolve one from the item's category here.

HOW IT WORKS:
  1. Built-in categories register on init()
  2. Deployments register extra categories at startup
  3. Factory/API use the registry to default DepreciationDays

WHY A REGISTRY:
  - The proration engine stays category-agnostic
  - Defaults live in one place instead of per-handler constants
  - New categories need no engine changes

SEE ALSO:
  - types.go: Group container that holds the items
  - factory/group.go: resolves categories while parsing documents
*/
package assets

import (
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// CATEGORY REGISTRY
// =============================================================================

// Category describes a class of asset and how long it is expected to last.
type Category struct {
	ID          string
	Name        string
	DefaultDays int
}

var (
	categoryRegistry = make(map[string]Category)
	categoryMu       sync.RWMutex
)

// RegisterCategory adds a category to the global registry.
// Registering an existing id replaces it.
func RegisterCategory(c Category) {
	categoryMu.Lock()
	defer categoryMu.Unlock()
	categoryRegistry[c.ID] = c
}

// LookupCategory finds a registered category by id.
func LookupCategory(id string) (Category, bool) {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	c, ok := categoryRegistry[id]
	return c, ok
}

// MustLookupCategory finds a registered category or panics.
// Use in tests or when the category is known to exist.
func MustLookupCategory(id string) Category {
	c, ok := LookupCategory(id)
	if !ok {
		panic(fmt.Sprintf("asset category not registered: %s", id))
	}
	return c
}

// ListCategories returns all registered categories, sorted by id so API
// responses stay stable across restarts.
func ListCategories() []Category {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	result := make([]Category, 0, len(categoryRegistry))
	for _, c := range categoryRegistry {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DefaultDepreciationDays resolves a category id to its default window.
// Unknown categories fall back to CategoryOther.
func DefaultDepreciationDays(id string) int {
	if c, ok := LookupCategory(id); ok {
		return c.DefaultDays
	}
	return MustLookupCategory(CategoryOther).DefaultDays
}

// =============================================================================
// BUILT-IN CATEGORIES
// =============================================================================

// Built-in category ids.
const (
	CategoryAppliance   = "appliance"
	CategoryElectronics = "electronics"
	CategoryFurniture   = "furniture"
	CategoryVehicle     = "vehicle"
	CategoryTools       = "tools"
	CategoryOther       = "other"
)

func init() {
	RegisterCategory(Category{ID: CategoryAppliance, Name: "Appliance", DefaultDays: 1095})
	RegisterCategory(Category{ID: CategoryElectronics, Name: "Electronics", DefaultDays: 730})
	RegisterCategory(Category{ID: CategoryFurniture, Name: "Furniture", DefaultDays: 1825})
	RegisterCategory(Category{ID: CategoryVehicle, Name: "Vehicle", DefaultDays: 2920})
	RegisterCategory(Category{ID: CategoryTools, Name: "Tools", DefaultDays: 1460})
	RegisterCategory(Category{ID: CategoryOther, Name: "Other", DefaultDays: 365})
}
