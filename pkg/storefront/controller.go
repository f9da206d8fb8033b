// Package storefront holds the ephemeral filter and sort selections of one
// catalog view and recomputes the visible product list through the catalog
// query pipeline whenever a selection changes. The state is per-view and
// single-owner; it is not safe for concurrent use and resets on a fresh
// controller, just as a page reload resets the original view.
package storefront

import (
	"milsabores/pkg/catalog"
)

// Controller owns one view's filter state. The last query result is memoized
// against the filters that produced it — an optimization only, the catalog
// never changes underneath it.
type Controller struct {
	catalog *catalog.Catalog
	filters catalog.Filters

	memoValid   bool
	memoFilters catalog.Filters
	memoResult  []catalog.Product
	memoStats   catalog.Stats
}

// New starts a controller with every selection at its default.
func New(cat *catalog.Catalog) *Controller {
	c := &Controller{catalog: cat}
	c.filters = defaultFilters(cat)
	return c
}

// defaultFilters is "todos", inactive full price range, no search, default
// sort.
func defaultFilters(cat *catalog.Catalog) catalog.Filters {
	min, max := cat.PriceBounds()
	return catalog.Filters{
		Category: catalog.CategoryAll,
		Price:    catalog.PriceRange{Min: min, Max: max, Active: false},
		Sort:     catalog.SortDefault,
	}
}

// SelectCategory switches the category filter.
func (c *Controller) SelectCategory(key string) {
	c.filters.Category = key
}

// SetPriceFilter activates the inclusive price range filter.
func (c *Controller) SetPriceFilter(min, max int) {
	c.filters.Price = catalog.PriceRange{Min: min, Max: max, Active: true}
}

// ClearPriceFilter deactivates the price filter and restores the full range.
func (c *Controller) ClearPriceFilter() {
	min, max := c.catalog.PriceBounds()
	c.filters.Price = catalog.PriceRange{Min: min, Max: max, Active: false}
}

// SetSearch replaces the search term.
func (c *Controller) SetSearch(term string) {
	c.filters.SearchTerm = term
}

// SetSort replaces the sort mode.
func (c *Controller) SetSort(mode catalog.SortMode) {
	c.filters.Sort = mode
}

// Reset restores every selection to its default in one step.
func (c *Controller) Reset() {
	c.filters = defaultFilters(c.catalog)
}

// Filters returns the current selections.
func (c *Controller) Filters() catalog.Filters {
	return c.filters
}

// Products returns the filtered, sorted view and its stats, reusing the
// memoized result when the selections have not changed since the last call.
func (c *Controller) Products() ([]catalog.Product, catalog.Stats) {
	if c.memoValid && c.filters == c.memoFilters {
		return append([]catalog.Product(nil), c.memoResult...), c.memoStats
	}
	result, stats := c.catalog.Query(c.filters)
	c.memoFilters = c.filters
	c.memoResult = result
	c.memoStats = stats
	c.memoValid = true
	return append([]catalog.Product(nil), result...), stats
}

// Stats returns the stats of the current view without copying the product
// list.
func (c *Controller) Stats() catalog.Stats {
	_, stats := c.Products()
	return stats
}

// Featured exposes the carousel products for this view.
func (c *Controller) Featured() []catalog.Product {
	return c.catalog.Featured()
}
