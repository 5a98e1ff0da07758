package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/materials-mis/internal/domain/materials"
)

type createMaterialRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Model    string `json:"model"`
	Unit     string `json:"unit"`
	Supplier string `json:"supplier"`
	Remarks  string `json:"remarks"`
	IsActive *bool  `json:"is_active"`
}

func (req *createMaterialRequest) validate() string {
	switch {
	case req.Code == "" || len(req.Code) > 100:
		return "code is required, at most 100 characters"
	case req.Name == "" || len(req.Name) > 255:
		return "name is required, at most 255 characters"
	case len(req.Model) > 255, len(req.Supplier) > 255:
		return "model and supplier are at most 255 characters"
	case len(req.Unit) > 50:
		return "unit is at most 50 characters"
	}
	return ""
}

func (a *API) createMaterial(c echo.Context) error {
	var req createMaterialRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	m, err := a.materials.Create(c.Request().Context(), materials.CreateParams{
		Code:     req.Code,
		Name:     req.Name,
		Model:    req.Model,
		Unit:     req.Unit,
		Supplier: req.Supplier,
		Remarks:  req.Remarks,
		IsActive: active,
	})
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (a *API) getMaterial(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid material id")
	}
	m, err := a.materials.GetByID(c.Request().Context(), id)
	if err != nil {
		return a.fail(c, err)
	}
	if m == nil {
		return notFound(c, "material not found")
	}
	return c.JSON(http.StatusOK, m)
}

type updateMaterialRequest struct {
	Code     *string `json:"code"`
	Name     *string `json:"name"`
	Model    *string `json:"model"`
	Unit     *string `json:"unit"`
	Supplier *string `json:"supplier"`
	Remarks  *string `json:"remarks"`
	IsActive *bool   `json:"is_active"`
}

func (req *updateMaterialRequest) validate() string {
	switch {
	case req.Code != nil && (*req.Code == "" || len(*req.Code) > 100):
		return "code must be 1-100 characters"
	case req.Name != nil && (*req.Name == "" || len(*req.Name) > 255):
		return "name must be 1-255 characters"
	case req.Model != nil && len(*req.Model) > 255,
		req.Supplier != nil && len(*req.Supplier) > 255:
		return "model and supplier are at most 255 characters"
	case req.Unit != nil && len(*req.Unit) > 50:
		return "unit is at most 50 characters"
	}
	return ""
}

func (a *API) updateMaterial(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid material id")
	}
	var req updateMaterialRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if msg := req.validate(); msg != "" {
		return badRequest(c, msg)
	}

	m, err := a.materials.Update(c.Request().Context(), id, materials.UpdateParams{
		Code:     req.Code,
		Name:     req.Name,
		Model:    req.Model,
		Unit:     req.Unit,
		Supplier: req.Supplier,
		Remarks:  req.Remarks,
		IsActive: req.IsActive,
	})
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (a *API) deleteMaterial(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "invalid material id")
	}
	m, err := a.materials.Delete(c.Request().Context(), id)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (a *API) listMaterials(c echo.Context) error {
	pageN, size, offset := pageParams(c, 10)

	f := materials.ListFilter{
		Code: c.QueryParam("code"),
		Name: c.QueryParam("name"),
	}
	switch c.QueryParam("is_active") {
	case "true":
		t := true
		f.IsActive = &t
	case "false":
		fa := false
		f.IsActive = &fa
	}

	items, total, err := a.materials.List(c.Request().Context(), f, size, offset)
	if err != nil {
		return a.fail(c, err)
	}
	if items == nil {
		items = []materials.Material{}
	}
	return c.JSON(http.StatusOK, newPage(items, total, pageN, size))
}
