package domain

// PageResult is one discrete page plus the metadata of the whole filtered set.
type PageResult struct {
	Items        []Product `json:"items"`        // Products on this page
	PageCount    int       `json:"pageCount"`    // ceil(ProductCount / PageSize), at least 1
	ProductCount int       `json:"productCount"` // Products matching the filter
	PageNow      int       `json:"pageNow"`      // Requested page index
	PageSize     int       `json:"-"`            // Requested page size
}

// WindowResult is the visible prefix of the filtered and sorted set.
type WindowResult struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	WindowSize int       `json:"windowSize"`
	HasMore    bool      `json:"hasMore"`
}
