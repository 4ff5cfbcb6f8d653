package catalog

// ProductSize is one size option of a product; only available sizes are
// orderable.
type ProductSize struct {
	Size      string `json:"size"`
	Available bool   `json:"available"`
}

// Product mirrors the shop API item shape. Card listings populate only the
// first few fields; the detail endpoint fills the rest.
type Product struct {
	ID           int64         `json:"id"`
	Category     int64         `json:"category"`
	Title        string        `json:"title"`
	Price        int64         `json:"price"`
	OldPrice     int64         `json:"oldPrice,omitempty"`
	Images       []string      `json:"images"`
	SKU          string        `json:"sku,omitempty"`
	Manufacturer string        `json:"manufacturer,omitempty"`
	Color        string        `json:"color,omitempty"`
	Material     string        `json:"material,omitempty"`
	Reason       string        `json:"reason,omitempty"`
	Season       string        `json:"season,omitempty"`
	HeelSize     string        `json:"heelSize,omitempty"`
	Sizes        []ProductSize `json:"sizes,omitempty"`
}

// OrderableSizes filters the product's size list down to the available ones.
func (p Product) OrderableSizes() []ProductSize {
	var sizes []ProductSize
	for _, s := range p.Sizes {
		if s.Available {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

// Category is a catalog filter group. The synthetic "all items" category uses
// id 0 and is never sent to the server.
type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// AllCategoryID is the client-side pseudo category meaning "no filter".
const AllCategoryID int64 = 0
