package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/materials-mis/internal/domain/balances"
)

func (a *API) getBalance(c echo.Context) error {
	materialID, err := pathID(c, "material_id")
	if err != nil {
		return badRequest(c, "invalid material id")
	}
	b, err := a.balances.Get(c.Request().Context(), materialID)
	if err != nil {
		return a.fail(c, err)
	}
	if b == nil {
		return notFound(c, "balance not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (a *API) listBalances(c echo.Context) error {
	pageN, size, offset := pageParams(c, 100)

	items, total, err := a.balances.List(c.Request().Context(), size, offset)
	if err != nil {
		return a.fail(c, err)
	}
	if items == nil {
		items = []balances.Balance{}
	}
	return c.JSON(http.StatusOK, newPage(items, total, pageN, size))
}

type setBalanceRequest struct {
	CurrentQuantity *int64 `json:"current_quantity"`
	MinStockLevel   *int64 `json:"min_stock_level"`
	MaxStockLevel   *int64 `json:"max_stock_level"`
}

// setBalanceDetails is the administrative override: it writes the quantity
// directly and leaves no movement behind, so the ledger no longer reconciles
// to the balance. Deliberate escape hatch, use sparingly.
func (a *API) setBalanceDetails(c echo.Context) error {
	materialID, err := pathID(c, "material_id")
	if err != nil {
		return badRequest(c, "invalid material id")
	}
	var req setBalanceRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.MinStockLevel != nil && *req.MinStockLevel < 0 ||
		req.MaxStockLevel != nil && *req.MaxStockLevel < 0 {
		return badRequest(c, "stock levels must be >= 0")
	}

	b, err := a.balances.SetDetails(c.Request().Context(), materialID, balances.DetailsParams{
		CurrentQuantity: req.CurrentQuantity,
		MinStockLevel:   req.MinStockLevel,
		MaxStockLevel:   req.MaxStockLevel,
	})
	if err != nil {
		return a.fail(c, err)
	}
	if b == nil {
		return notFound(c, "balance not found")
	}
	return c.JSON(http.StatusOK, b)
}
