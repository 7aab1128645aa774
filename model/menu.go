package models

// Option is a priced size variant or add-on.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Price int    `json:"price" yaml:"price"`
}

// CatalogItem is a sellable product. Exactly one of Price or Sizes is set.
type CatalogItem struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Image  string   `json:"image,omitempty" yaml:"image,omitempty"`
	Alt    string   `json:"alt,omitempty" yaml:"alt,omitempty"`
	Price  *int     `json:"price,omitempty" yaml:"price,omitempty"`
	Sizes  []Option `json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Addons []Option `json:"addons,omitempty" yaml:"addons,omitempty"`
}

// HasSizes reports whether a size must be chosen before the item can be added.
func (i CatalogItem) HasSizes() bool {
	return len(i.Sizes) > 0
}

// Size finds a size variant by label.
func (i CatalogItem) Size(label string) (Option, bool) {
	for _, s := range i.Sizes {
		if s.Label == label {
			return s, true
		}
	}
	return Option{}, false
}

// Addon finds an add-on by label.
func (i CatalogItem) Addon(label string) (Option, bool) {
	for _, a := range i.Addons {
		if a.Label == label {
			return a, true
		}
	}
	return Option{}, false
}

type Category struct {
	ID    string        `json:"id" yaml:"id"`
	Name  string        `json:"name" yaml:"name"`
	Items []CatalogItem `json:"items" yaml:"items"`
}

// Menu is the catalog document: {categories: [{id, name, items}]}.
type Menu struct {
	Categories []Category `json:"categories" yaml:"categories"`
}
