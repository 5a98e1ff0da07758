package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/domain/materials"
	"github.com/Spok95/materials-mis/internal/domain/movements"
	"github.com/Spok95/materials-mis/internal/domain/reports"
)

// The handlers consume the core through these interfaces; the pgx repos are
// the production implementations.

type MaterialRegistry interface {
	Create(ctx context.Context, p materials.CreateParams) (*materials.Material, error)
	Update(ctx context.Context, id int64, p materials.UpdateParams) (*materials.Material, error)
	Delete(ctx context.Context, id int64) (*materials.Material, error)
	GetByID(ctx context.Context, id int64) (*materials.Material, error)
	List(ctx context.Context, f materials.ListFilter, limit, offset int) ([]materials.Material, int64, error)
}

type BalanceStore interface {
	Get(ctx context.Context, materialID int64) (*balances.Balance, error)
	List(ctx context.Context, limit, offset int) ([]balances.Balance, int64, error)
	SetDetails(ctx context.Context, materialID int64, p balances.DetailsParams) (*balances.Balance, error)
}

type MovementLedger interface {
	RecordInbound(ctx context.Context, p movements.InboundParams) (*movements.Inbound, error)
	RecordOutbound(ctx context.Context, p movements.OutboundParams) (*movements.Outbound, error)
	GetInboundByID(ctx context.Context, id int64) (*movements.Inbound, error)
	GetOutboundByID(ctx context.Context, id int64) (*movements.Outbound, error)
	ListInbound(ctx context.Context, f movements.ListFilter, limit, offset int) ([]movements.Inbound, int64, error)
	ListOutbound(ctx context.Context, f movements.ListFilter, limit, offset int) ([]movements.Outbound, int64, error)
}

type Reporter interface {
	DashboardSummary(ctx context.Context) (*reports.Summary, error)
	ExportBalances(ctx context.Context) ([]byte, string, error)
}

type Notifier interface {
	LowStock(code, name string, current, minLevel int64)
}

type API struct {
	log       *slog.Logger
	materials MaterialRegistry
	balances  BalanceStore
	movements MovementLedger
	reports   Reporter
	notify    Notifier
}

func New(log *slog.Logger, m MaterialRegistry, b BalanceStore, mv MovementLedger, rp Reporter, n Notifier) *API {
	return &API{log: log, materials: m, balances: b, movements: mv, reports: rp, notify: n}
}

func (a *API) Register(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/materials", a.createMaterial)
	g.GET("/materials", a.listMaterials)
	g.GET("/materials/:id", a.getMaterial)
	g.PUT("/materials/:id", a.updateMaterial)
	g.DELETE("/materials/:id", a.deleteMaterial)

	g.GET("/inventory-balances", a.listBalances)
	g.GET("/inventory-balances/export", a.exportBalances)
	g.GET("/inventory-balances/material/:material_id", a.getBalance)
	g.PUT("/inventory-balances/material/:material_id", a.setBalanceDetails)

	g.POST("/inbound-records", a.createInbound)
	g.GET("/inbound-records", a.listInbound)
	g.GET("/inbound-records/:id", a.getInbound)

	g.POST("/outbound-records", a.createOutbound)
	g.GET("/outbound-records", a.listOutbound)
	g.GET("/outbound-records/:id", a.getOutbound)

	g.GET("/statistics/dashboard-summary", a.dashboardSummary)
}

type errorResponse struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// fail maps core failures to statuses. Conflicts that reflect real-world state
// (duplicate code, insufficient stock, remaining stock) get 409 and must not
// be retried by clients; lock timeouts get 503 and may be.
func (a *API) fail(c echo.Context, err error) error {
	var dup *materials.DuplicateCodeError
	var nonZero *materials.NonZeroStockError
	var insufficient *balances.InsufficientStockError
	var dupOrder *movements.DuplicateOrderNumberError

	switch {
	case errors.Is(err, materials.ErrNotFound), errors.Is(err, movements.ErrMaterialNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "material not found"})
	case errors.As(err, &dup):
		return c.JSON(http.StatusConflict, errorResponse{
			Error:   "material code already in use",
			Details: map[string]any{"code": dup.Code},
		})
	case errors.As(err, &nonZero):
		return c.JSON(http.StatusConflict, errorResponse{
			Error:   "material still has stock",
			Details: map[string]any{"material_id": nonZero.MaterialID, "current_quantity": nonZero.Quantity},
		})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, errorResponse{
			Error: "insufficient stock",
			Details: map[string]any{
				"material_id":      insufficient.MaterialID,
				"current_quantity": insufficient.Current,
				"requested":        insufficient.Requested,
			},
		})
	case errors.As(err, &dupOrder):
		return c.JSON(http.StatusConflict, errorResponse{
			Error:   "order number already recorded",
			Details: map[string]any{"order_number": dupOrder.OrderNumber},
		})
	case errors.Is(err, movements.ErrNonPositiveQuantity):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, balances.ErrLockTimeout):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	case errors.Is(err, balances.ErrNotFound):
		// Registration seeds a balance for every material, so this is a bug.
		a.log.Error("balance row missing for existing material", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "inventory balance missing"})
	default:
		a.log.Error("request failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

type page struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

func newPage(items any, total int64, pageN, size int) page {
	pages := 0
	if total > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return page{Items: items, Total: total, Page: pageN, Size: size, Pages: pages}
}

func pageParams(c echo.Context, defaultSize int) (pageN, size, offset int) {
	pageN, _ = strconv.Atoi(c.QueryParam("page"))
	if pageN < 1 {
		pageN = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if size < 1 {
		size = defaultSize
	}
	if size > 200 {
		size = 200
	}
	return pageN, size, (pageN - 1) * size
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
