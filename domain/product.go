package domain

// Product is the catalog record a cart item is created from. Names come in
// both storefront languages; DisplayName prefers French the way the shop
// renders them.
type Product struct {
	ID            int64    `json:"id"`
	NameEn        string   `json:"nameEn"`
	NameFr        string   `json:"nameFr"`
	Slug          string   `json:"slug"`
	Images        []string `json:"images,omitempty"`
	Price         float64  `json:"price"`
	Currency      string   `json:"currency,omitempty"`
	StockQuantity int      `json:"stockQuantity"`
}

func (p *Product) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.NameFr != "" {
		return p.NameFr
	}
	return p.NameEn
}

// MainImage returns the first catalog image, if any.
func (p *Product) MainImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
