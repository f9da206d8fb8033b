package catalog

import (
	"sort"
	"strings"
)

// CategoryAll is the sentinel category key meaning "no category filter".
const CategoryAll = "todos"

// SortMode selects the ordering applied at the end of the query pipeline.
type SortMode string

const (
	SortDefault     SortMode = "default"
	SortNameAsc     SortMode = "name"
	SortPriceAsc    SortMode = "price-asc"
	SortPriceDesc   SortMode = "price-desc"
	SortRatingDesc  SortMode = "rating"
	SortReviewsDesc SortMode = "reviews"
)

// PriceRange is an inclusive price filter, applied only while Active.
type PriceRange struct {
	Min    int  `json:"min"`
	Max    int  `json:"max"`
	Active bool `json:"active"`
}

// Filters captures one catalog view selection. The zero value means "show
// everything in catalog order".
type Filters struct {
	Category   string     `json:"category"`
	Price      PriceRange `json:"price"`
	SearchTerm string     `json:"searchTerm"`
	Sort       SortMode   `json:"sort"`
}

// Stats summarizes a query result for the storefront's filter bar.
type Stats struct {
	TotalProducts    int  `json:"totalProducts"`
	FilteredCount    int  `json:"filteredCount"`
	CategoryCount    int  `json:"categoryCount"`
	HasActiveFilters bool `json:"hasActiveFilters"`
}

// Query applies the fixed pipeline — category filter, price filter, search,
// sort — and returns the ordered result with its stats. An unknown category
// key behaves like CategoryAll, matching the shipped storefront. A price range
// with Min > Max is accepted as given and simply matches nothing.
func (c *Catalog) Query(f Filters) ([]Product, Stats) {
	products := c.filterByCategory(c.All(), f.Category)
	products = filterByPrice(products, f.Price)
	products = filterBySearch(products, f.SearchTerm)
	products = sortProducts(products, f.Sort)

	stats := Stats{
		TotalProducts:    len(c.all),
		FilteredCount:    len(products),
		CategoryCount:    len(c.all),
		HasActiveFilters: f.active(),
	}
	if f.Category != "" && f.Category != CategoryAll {
		if categoryProducts := c.ByCategory(f.Category); categoryProducts != nil {
			stats.CategoryCount = len(categoryProducts)
		}
	}
	return products, stats
}

// active reports whether any selection deviates from the defaults.
func (f Filters) active() bool {
	return (f.Category != "" && f.Category != CategoryAll) ||
		f.Price.Active ||
		strings.TrimSpace(f.SearchTerm) != "" ||
		(f.Sort != "" && f.Sort != SortDefault)
}

func (c *Catalog) filterByCategory(products []Product, key string) []Product {
	if key == "" || key == CategoryAll {
		return products
	}
	categoryProducts := c.ByCategory(key)
	if categoryProducts == nil {
		// Unknown key falls back to the unfiltered set.
		return products
	}
	members := make(map[string]struct{}, len(categoryProducts))
	for _, product := range categoryProducts {
		members[product.ID] = struct{}{}
	}
	filtered := make([]Product, 0, len(categoryProducts))
	for _, product := range products {
		if _, ok := members[product.ID]; ok {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

func filterByPrice(products []Product, price PriceRange) []Product {
	if !price.Active {
		return products
	}
	filtered := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Price >= price.Min && product.Price <= price.Max {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

func filterBySearch(products []Product, term string) []Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return products
	}
	needle := strings.ToLower(term)
	filtered := make([]Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Name), needle) ||
			strings.Contains(strings.ToLower(product.ShortDescription), needle) ||
			strings.Contains(strings.ToLower(product.Ingredients), needle) {
			filtered = append(filtered, product)
		}
	}
	return filtered
}

// sortProducts orders a copy of products. Sorting is stable so ties keep the
// relative order the filters produced.
func sortProducts(products []Product, mode SortMode) []Product {
	sorted := append([]Product(nil), products...)
	switch mode {
	case SortNameAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	case SortPriceAsc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	case SortPriceDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price > sorted[j].Price })
	case SortRatingDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })
	case SortReviewsDesc:
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ReviewCount > sorted[j].ReviewCount })
	}
	return sorted
}
