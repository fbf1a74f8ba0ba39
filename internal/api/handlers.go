package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handlers holds the dependencies gin routes close over, as an
// explicit struct receiver rather than a package-level global so
// tests can supply their own pool.
type Handlers struct {
	Pool *pgxpool.Pool
}

// New builds a Handlers bound to pool.
func New(pool *pgxpool.Pool) *Handlers {
	return &Handlers{Pool: pool}
}

// HealthCheck reports liveness without touching the database.
//
// @Summary Health check
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListChains returns every chain reconciled into the database so far.
//
// @Summary List reconciled chains
// @Success 200 {object} ListChainsResponse
// @Router /chains [get]
func (h *Handlers) ListChains(c *gin.Context) {
	rows, err := h.Pool.Query(c.Request.Context(), `SELECT slug, name FROM chains ORDER BY slug`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chains"})
		return
	}
	defer rows.Close()

	resp := ListChainsResponse{Chains: []ChainSummary{}}
	for rows.Next() {
		var cs ChainSummary
		if err := rows.Scan(&cs.Slug, &cs.Name); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to scan chain"})
			return
		}
		resp.Chains = append(resp.Chains, cs)
	}
	c.JSON(http.StatusOK, resp)
}

// GetStorePrices returns the latest-known prices for one store,
// paginated. GET /chains/:chain/stores/:storeId/prices
//
// @Summary Get current prices for one store
// @Param chain path string true "chain slug"
// @Param storeId path string true "upstream store id"
// @Param limit query int false "page size, default 100, max 500"
// @Param offset query int false "page offset"
// @Success 200 {object} GetStorePricesResponse
// @Router /chains/{chain}/stores/{storeId}/prices [get]
func (h *Handlers) GetStorePrices(c *gin.Context) {
	chain := c.Param("chain")
	storeID := c.Param("storeId")

	var req GetStorePricesRequest
	_ = c.ShouldBindQuery(&req)
	if req.Limit <= 0 || req.Limit > 500 {
		req.Limit = 100
	}

	ctx := c.Request.Context()

	var total int
	err := h.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM product_prices pp
		JOIN store_products sp ON sp.id = pp.store_product_id
		JOIN stores s ON s.id = sp.store_id
		JOIN chains ch ON ch.id = s.chain_id
		WHERE ch.slug = $1 AND s.ext_store_id = $2
	`, chain, storeID).Scan(&total)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count prices"})
		return
	}

	rows, err := h.Pool.Query(ctx, `
		SELECT p.barcode, p.ext_name, p.ext_brand, p.ext_category,
		       pp.price::text, pp.unit_price::text, pp.best_price_30::text, pp.anchor_price::text, pp.special_price::text,
		       pp.valid_date::text
		FROM product_prices pp
		JOIN store_products sp ON sp.id = pp.store_product_id
		JOIN stores s ON s.id = sp.store_id
		JOIN chains ch ON ch.id = s.chain_id
		JOIN products p ON p.barcode = sp.barcode
		WHERE ch.slug = $1 AND s.ext_store_id = $2
		  AND pp.valid_date = (
		      SELECT MAX(pp2.valid_date) FROM product_prices pp2 WHERE pp2.store_product_id = pp.store_product_id
		  )
		ORDER BY p.ext_name
		LIMIT $3 OFFSET $4
	`, chain, storeID, req.Limit, req.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query prices"})
		return
	}
	defer rows.Close()

	resp := GetStorePricesResponse{Chain: chain, StoreID: storeID, Prices: []StorePriceRow{}, Total: total}
	for rows.Next() {
		var (
			row                                                 StorePriceRow
			unitPrice, bestPrice30, anchorPrice, specialPrice *string
		)
		if err := rows.Scan(&row.Barcode, &row.Name, &row.Brand, &row.Category,
			&row.Price, &unitPrice, &bestPrice30, &anchorPrice, &specialPrice, &row.ValidDate); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to scan price row"})
			return
		}
		row.UnitPrice = unitPrice
		row.BestPrice30 = bestPrice30
		row.AnchorPrice = anchorPrice
		row.SpecialPrice = specialPrice
		resp.Prices = append(resp.Prices, row)
	}
	c.JSON(http.StatusOK, resp)
}
