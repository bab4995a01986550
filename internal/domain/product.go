package domain

// Product is a single catalog record. Products are immutable once loaded.
type Product struct {
	ID       int64   `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Image    string  `json:"image,omitempty" yaml:"image,omitempty"`
	Category string  `json:"category" yaml:"category"`
	InStock  bool    `json:"inStock" yaml:"in_stock"`
}
