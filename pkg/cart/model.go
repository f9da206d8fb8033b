package cart

// Quantity bounds for a single entry. Additions beyond MaxQuantity clamp
// instead of failing; anything at or below zero removes the entry.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// StorageKey is the fixed key the entry list is persisted under.
const StorageKey = "milSaboresCart"

// Entry is one line item. Name, price, image and description are copied from
// the catalog when the entry is created so the persisted blob matches the
// layout the original storefront wrote.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Quantity    int    `json:"quantity"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// Snapshot is a consistent read of the cart. TotalPrice is computed from live
// catalog prices, not from the copies stored on the entries.
type Snapshot struct {
	Entries    []Entry `json:"entries"`
	TotalItems int     `json:"totalItems"`
	TotalPrice int     `json:"totalPrice"`
}

// IsEmpty reports whether the cart has no entries.
func (s Snapshot) IsEmpty() bool {
	return len(s.Entries) == 0
}
