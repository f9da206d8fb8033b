// Package catalog holds the static Mil Sabores product dataset and answers
// read-only queries over it: id and category lookups plus the filter/sort
// pipeline the storefront renders from. The dataset never changes during a
// session, so every method is a pure computation.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var productsYAML []byte

// dataset mirrors the embedded YAML document.
type dataset struct {
	Categories []Category `yaml:"categories"`
}

// Catalog indexes the static dataset for constant-time id lookups while
// preserving the category and insertion order of the source data.
type Catalog struct {
	categories []Category
	byID       map[string]Product
	all        []Product
}

// Load decodes the embedded dataset. Duplicate ids would silently shadow each
// other, so they are rejected here instead of surfacing as lookup surprises.
func Load() (*Catalog, error) {
	var data dataset
	if err := yaml.Unmarshal(productsYAML, &data); err != nil {
		return nil, fmt.Errorf("unable to decode product dataset: %w", err)
	}

	c := &Catalog{
		categories: data.Categories,
		byID:       make(map[string]Product),
	}
	for _, category := range data.Categories {
		for _, product := range category.Products {
			if _, exists := c.byID[product.ID]; exists {
				return nil, fmt.Errorf("duplicate product id %q in dataset", product.ID)
			}
			c.byID[product.ID] = product
			c.all = append(c.all, product)
		}
	}
	return c, nil
}

// ByID resolves a product. A missing id is an ordinary absent result, not an
// error condition.
func (c *Catalog) ByID(id string) (Product, bool) {
	product, ok := c.byID[id]
	return product, ok
}

// ByCategory returns the products of one category in catalog order, or an
// empty slice for an unknown key.
func (c *Catalog) ByCategory(key string) []Product {
	for _, category := range c.categories {
		if category.Key == key {
			return append([]Product(nil), category.Products...)
		}
	}
	return nil
}

// Categories lists the fixed category set in display order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// All returns every product in catalog insertion order.
func (c *Catalog) All() []Product {
	return append([]Product(nil), c.all...)
}

// Len reports the total number of products.
func (c *Catalog) Len() int {
	return len(c.all)
}

// Featured returns up to four products rated 4.8 or higher, in catalog order.
// The storefront carousel renders these.
func (c *Catalog) Featured() []Product {
	var featured []Product
	for _, product := range c.all {
		if product.Rating >= 4.8 {
			featured = append(featured, product)
			if len(featured) == 4 {
				break
			}
		}
	}
	return featured
}

// PriceBounds reports the cheapest and most expensive product in the catalog
// so price filter controls can offer a sensible range.
func (c *Catalog) PriceBounds() (min, max int) {
	if len(c.all) == 0 {
		return 0, 0
	}
	min, max = c.all[0].Price, c.all[0].Price
	for _, product := range c.all[1:] {
		if product.Price < min {
			min = product.Price
		}
		if product.Price > max {
			max = product.Price
		}
	}
	return min, max
}
