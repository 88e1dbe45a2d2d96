package domain

import "github.com/shopspring/decimal"

// Product is a menu entry.
type Product struct {
	ID              ID              `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
	Price           decimal.Decimal `json:"price"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	Discount        decimal.Decimal `json:"discount"`
	InStock         bool            `json:"inStock"`
	Rating          float64         `json:"rating"`
	ReviewCount     int             `json:"reviewCount"`
	Dietary         []string        `json:"dietary,omitempty"`
	SpiceLevel      string          `json:"spiceLevel,omitempty"`
	PreparationTime string          `json:"preparationTime,omitempty"`
	Calories        int             `json:"calories,omitempty"`
	ServingSize     string          `json:"servingSize,omitempty"`
	Ingredients     []string        `json:"ingredients,omitempty"`
}

// ProductFilters narrows a menu search.
type ProductFilters struct {
	Category string   `json:"category,omitempty"`
	Search   string   `json:"search,omitempty"`
	Dietary  []string `json:"dietary,omitempty"`
}

// ProductQuery is one page of a menu search.
type ProductQuery struct {
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
	SortBy    string         `json:"sortBy"`
	SortOrder string         `json:"sortOrder"`
	Filters   ProductFilters `json:"filters"`
}

const defaultProductPageSize = 20

// WithDefaults fills unset fields and expands the price-low/price-high
// sort aliases used by the menu view.
func (q ProductQuery) WithDefaults() ProductQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultProductPageSize
	}
	switch q.SortBy {
	case "price-low":
		q.SortBy, q.SortOrder = "price", "asc"
	case "price-high":
		q.SortBy, q.SortOrder = "price", "desc"
	case "":
		q.SortBy = "popular"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	return q
}

// ProductPage is a page of search results.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
