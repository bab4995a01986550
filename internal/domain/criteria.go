package domain

type SortDirection string

func (d SortDirection) String() string {
	return string(d)
}

const (
	SortAscending  SortDirection = "asc"  // Cheapest first
	SortDescending SortDirection = "desc" // Most expensive first
)

// FilterCriteria is a fully populated filter and sort request.
// Empty Keyword or Category means "no constraint".
type FilterCriteria struct {
	Keyword   string        `json:"keyword"`
	Category  string        `json:"category"`
	MinPrice  float64       `json:"minPrice"`
	MaxPrice  float64       `json:"maxPrice"`
	StockOnly bool          `json:"inStock"`
	Sort      SortDirection `json:"sortBy"`
}

// PageSpec selects a discrete page. Index is 1-based.
type PageSpec struct {
	Index int `json:"pageNow"`
	Size  int `json:"productNum"`
}
