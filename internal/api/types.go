// Package api implements a separate read-only HTTP service over the
// reconciled database: gin handlers over pgx, with the request/response
// DTOs declared in this file. No JSON schema is generated from them.
package api

// ChainSummary is one row of GET /chains.
type ChainSummary struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ListChainsResponse is the response body of GET /chains.
type ListChainsResponse struct {
	Chains []ChainSummary `json:"chains"`
}

// StorePriceRow is one product_prices entry joined back to its store
// product and product catalog row.
type StorePriceRow struct {
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Price        string  `json:"price"`
	UnitPrice    *string `json:"unitPrice,omitempty"`
	BestPrice30  *string `json:"bestPrice30,omitempty"`
	AnchorPrice  *string `json:"anchorPrice,omitempty"`
	SpecialPrice *string `json:"specialPrice,omitempty"`
	ValidDate    string  `json:"validDate"`
}

// GetStorePricesResponse is the response body of
// GET /chains/:chain/stores/:storeId/prices.
type GetStorePricesResponse struct {
	Chain   string          `json:"chain"`
	StoreID string          `json:"storeId"`
	Prices  []StorePriceRow `json:"prices"`
	Total   int             `json:"total"`
}

// GetStorePricesRequest is the query-string contract for the store
// prices endpoint.
type GetStorePricesRequest struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}
