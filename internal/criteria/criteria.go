// Package criteria turns loosely typed query input (URL query strings, form
// state) into a fully populated set of filter, sort and page settings.
//
// Normalization never fails: anything missing or malformed degrades to the
// documented default for that key.
package criteria

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"productview/catalog/internal/domain"

	"github.com/spf13/cast"
)

// Query keys understood by Normalize.
const (
	KeyKeyword    = "keyword"
	KeyCategory   = "category"
	KeyMinPrice   = "minPrice"
	KeyMaxPrice   = "maxPrice"
	KeyInStock    = "inStock"
	KeySortBy     = "sortBy"
	KeyPageNow    = "pageNow"
	KeyProductNum = "productNum"
)

const (
	DefaultMaxPrice = 99999
	DefaultPageSize = 20
)

// Raw is an unvalidated query. Values may be strings, numbers, booleans or nil.
type Raw map[string]any

// Defaults holds the values used when a key is missing or malformed.
type Defaults struct {
	MinPrice  float64
	MaxPrice  float64
	StockOnly bool
	PageSize  int

	// MaxPageSize caps the page size. Zero disables the cap.
	MaxPageSize int
}

// QueryDefaults are the defaults of the discrete query endpoint: stock is not
// filtered unless asked for.
func QueryDefaults() Defaults {
	return Defaults{
		MinPrice: 0,
		MaxPrice: DefaultMaxPrice,
		PageSize: DefaultPageSize,
	}
}

// WindowDefaults are the defaults of the incremental browser: only products in
// stock are shown unless asked otherwise.
func WindowDefaults() Defaults {
	d := QueryDefaults()
	d.StockOnly = true
	return d
}

// Criteria returns the criteria an empty query normalizes to.
func (d Defaults) Criteria() domain.FilterCriteria {
	c, _ := Normalize(nil, d)
	return c
}

// FromValues converts URL query values into a Raw query, keeping the first
// value of every key.
func FromValues(values url.Values) Raw {
	raw := make(Raw, len(values))
	for key, vals := range values {
		if len(vals) > 0 {
			raw[key] = vals[0]
		}
	}
	return raw
}

// Normalize builds the complete criteria and page spec for raw.
func Normalize(raw Raw, d Defaults) (domain.FilterCriteria, domain.PageSpec) {
	if d.PageSize < 1 {
		d.PageSize = DefaultPageSize
	}

	c := domain.FilterCriteria{
		Keyword:   text(raw, KeyKeyword),
		Category:  text(raw, KeyCategory),
		MinPrice:  number(raw, KeyMinPrice, d.MinPrice),
		MaxPrice:  number(raw, KeyMaxPrice, d.MaxPrice),
		StockOnly: truthy(raw, KeyInStock, d.StockOnly),
		Sort:      direction(raw[KeySortBy]),
	}

	p := domain.PageSpec{
		Index: max(integer(raw, KeyPageNow, 1), 1),
		Size:  max(integer(raw, KeyProductNum, d.PageSize), 1),
	}
	if d.MaxPageSize > 0 && p.Size > d.MaxPageSize {
		p.Size = d.MaxPageSize
	}

	return c, p
}

// Values encodes criteria and page back into query form. Every filter key is
// always present so the encoding is canonical; page keys are omitted when zero.
func Values(c domain.FilterCriteria, p domain.PageSpec) url.Values {
	values := url.Values{}
	if c.Keyword != "" {
		values.Set(KeyKeyword, c.Keyword)
	}
	if c.Category != "" {
		values.Set(KeyCategory, c.Category)
	}
	values.Set(KeyMinPrice, strconv.FormatFloat(c.MinPrice, 'f', -1, 64))
	values.Set(KeyMaxPrice, strconv.FormatFloat(c.MaxPrice, 'f', -1, 64))
	if c.StockOnly {
		values.Set(KeyInStock, "1")
	} else {
		values.Set(KeyInStock, "0")
	}
	sort := c.Sort
	if sort != domain.SortDescending {
		sort = domain.SortAscending
	}
	values.Set(KeySortBy, sort.String())
	if p.Index > 0 {
		values.Set(KeyPageNow, strconv.Itoa(p.Index))
	}
	if p.Size > 0 {
		values.Set(KeyProductNum, strconv.Itoa(p.Size))
	}
	return values
}

// Key is a stable identifier of a normalized query.
func Key(c domain.FilterCriteria, p domain.PageSpec) string {
	return Values(c, p).Encode()
}

func lookup(raw Raw, key string) (any, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func text(raw Raw, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return s
}

func number(raw Raw, key string, def float64) float64 {
	v, ok := lookup(raw, key)
	if !ok {
		return def
	}
	if _, isBool := v.(bool); isBool {
		return def
	}
	if s, isString := v.(string); isString {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func integer(raw Raw, key string, def int) int {
	f := number(raw, key, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// truthy accepts true, 1, "1", "true", "on", "yes" and "checked". Recognized
// false forms and numbers other than 1 yield false; anything else is ignored.
func truthy(raw Raw, key string, def bool) bool {
	v, ok := lookup(raw, key)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		switch s {
		case "1", "true", "on", "yes", "checked":
			return true
		case "0", "false", "off", "no":
			return false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f == 1
		}
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f == 1
}

func direction(v any) domain.SortDirection {
	if s, ok := v.(string); ok && s == string(domain.SortDescending) {
		return domain.SortDescending
	}
	return domain.SortAscending
}
