package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *API) dashboardSummary(c echo.Context) error {
	s, err := a.reports.DashboardSummary(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (a *API) exportBalances(c echo.Context) error {
	data, name, err := a.reports.ExportBalances(c.Request().Context())
	if err != nil {
		return a.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
