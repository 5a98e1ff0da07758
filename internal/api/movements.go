package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/domain/movements"
	"github.com/Spok95/materials-mis/internal/infra/metrics"
)

type inboundRequest struct {
	MaterialID  int64   `json:"material_id"`
	Quantity    int64   `json:"quantity"`
	OrderNumber *string `json:"order_number"`
	Remarks     string  `json:"remarks"`
}

type outboundRequest struct {
	MaterialID  int64   `json:"material_id"`
	Quantity    int64   `json:"quantity"`
	OrderNumber *string `json:"order_number"`
	Recipient   string  `json:"recipient"`
	Remarks     string  `json:"remarks"`
}

func validMovement(materialID, quantity int64, orderNumber *string, recipient string) string {
	switch {
	case materialID <= 0:
		return "material_id is required"
	case quantity <= 0:
		return "quantity must be > 0"
	case orderNumber != nil && len(*orderNumber) > 100:
		return "order_number is at most 100 characters"
	case len(recipient) > 255:
		return "recipient is at most 255 characters"
	}
	return ""
}

func (a *API) createInbound(c echo.Context) error {
	var req inboundRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validMovement(req.MaterialID, req.Quantity, req.OrderNumber, ""); msg != "" {
		return badRequest(c, msg)
	}

	in, err := a.movements.RecordInbound(c.Request().Context(), movements.InboundParams{
		MaterialID:  req.MaterialID,
		Quantity:    req.Quantity,
		OrderNumber: req.OrderNumber,
		Remarks:     req.Remarks,
	})
	if err != nil {
		return a.fail(c, err)
	}
	metrics.MovementsTotal.WithLabelValues("inbound").Inc()
	return c.JSON(http.StatusCreated, in)
}

func (a *API) createOutbound(c echo.Context) error {
	var req outboundRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := validMovement(req.MaterialID, req.Quantity, req.OrderNumber, req.Recipient); msg != "" {
		return badRequest(c, msg)
	}

	out, err := a.movements.RecordOutbound(c.Request().Context(), movements.OutboundParams{
		MaterialID:  req.MaterialID,
		Quantity:    req.Quantity,
		OrderNumber: req.OrderNumber,
		Recipient:   req.Recipient,
		Remarks:     req.Remarks,
	})
	if err != nil {
		var insufficient *balances.InsufficientStockError
		if errors.As(err, &insufficient) {
			metrics.StockRejectionsTotal.Inc()
		}
		return a.fail(c, err)
	}
	metrics.MovementsTotal.WithLabelValues("outbound").Inc()

	a.alertIfLow(c, out.MaterialID)
	return c.JSON(http.StatusCreated, out)
}

// alertIfLow pings the admin chat when an outbound drops a balance below its
// configured minimum. Best effort; never fails the request.
func (a *API) alertIfLow(c echo.Context, materialID int64) {
	if a.notify == nil {
		return
	}
	ctx := c.Request().Context()
	b, err := a.balances.Get(ctx, materialID)
	if err != nil || b == nil || !b.BelowMin() {
		return
	}
	m, err := a.materials.GetByID(ctx, materialID)
	if err != nil || m == nil {
		return
	}
	a.notify.LowStock(m.Code, m.Name, b.CurrentQuantity, b.MinStockLevel)
}

func (a *API) getInbound(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid record id")
	}
	in, err := a.movements.GetInboundByID(c.Request().Context(), id)
	if err != nil {
		return a.fail(c, err)
	}
	if in == nil {
		return notFound(c, "inbound record not found")
	}
	return c.JSON(http.StatusOK, in)
}

func (a *API) getOutbound(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid record id")
	}
	out, err := a.movements.GetOutboundByID(c.Request().Context(), id)
	if err != nil {
		return a.fail(c, err)
	}
	if out == nil {
		return notFound(c, "outbound record not found")
	}
	return c.JSON(http.StatusOK, out)
}

func movementFilter(c echo.Context) (movements.ListFilter, string) {
	var f movements.ListFilter
	if s := c.QueryParam("material_id"); s != "" {
		id, err := parseInt64(s)
		if err != nil {
			return f, "invalid material_id"
		}
		f.MaterialID = &id
	}
	if s := c.QueryParam("start_time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, "start_time must be RFC3339"
		}
		f.Start = &t
	}
	if s := c.QueryParam("end_time"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, "end_time must be RFC3339"
		}
		f.End = &t
	}
	return f, ""
}

func (a *API) listInbound(c echo.Context) error {
	pageN, size, offset := pageParams(c, 100)
	f, msg := movementFilter(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	items, total, err := a.movements.ListInbound(c.Request().Context(), f, size, offset)
	if err != nil {
		return a.fail(c, err)
	}
	if items == nil {
		items = []movements.Inbound{}
	}
	return c.JSON(http.StatusOK, newPage(items, total, pageN, size))
}

func (a *API) listOutbound(c echo.Context) error {
	pageN, size, offset := pageParams(c, 100)
	f, msg := movementFilter(c)
	if msg != "" {
		return badRequest(c, msg)
	}

	items, total, err := a.movements.ListOutbound(c.Request().Context(), f, size, offset)
	if err != nil {
		return a.fail(c, err)
	}
	if items == nil {
		items = []movements.Outbound{}
	}
	return c.JSON(http.StatusOK, newPage(items, total, pageN, size))
}
