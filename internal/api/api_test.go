package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Spok95/materials-mis/internal/domain/balances"
	"github.com/Spok95/materials-mis/internal/domain/materials"
	"github.com/Spok95/materials-mis/internal/domain/movements"
	"github.com/Spok95/materials-mis/internal/domain/reports"
)

// In-memory fakes: each returns its canned value or error.

type fakeMaterials struct {
	material *materials.Material
	items    []materials.Material
	total    int64
	err      error
}

func (f *fakeMaterials) Create(context.Context, materials.CreateParams) (*materials.Material, error) {
	return f.material, f.err
}
func (f *fakeMaterials) Update(context.Context, int64, materials.UpdateParams) (*materials.Material, error) {
	return f.material, f.err
}
func (f *fakeMaterials) Delete(context.Context, int64) (*materials.Material, error) {
	return f.material, f.err
}
func (f *fakeMaterials) GetByID(context.Context, int64) (*materials.Material, error) {
	return f.material, f.err
}
func (f *fakeMaterials) List(context.Context, materials.ListFilter, int, int) ([]materials.Material, int64, error) {
	return f.items, f.total, f.err
}

type fakeBalances struct {
	balance *balances.Balance
	items   []balances.Balance
	total   int64
	err     error
}

func (f *fakeBalances) Get(context.Context, int64) (*balances.Balance, error) {
	return f.balance, f.err
}
func (f *fakeBalances) List(context.Context, int, int) ([]balances.Balance, int64, error) {
	return f.items, f.total, f.err
}
func (f *fakeBalances) SetDetails(context.Context, int64, balances.DetailsParams) (*balances.Balance, error) {
	return f.balance, f.err
}

type fakeMovements struct {
	inbound  *movements.Inbound
	outbound *movements.Outbound
	err      error
}

func (f *fakeMovements) RecordInbound(context.Context, movements.InboundParams) (*movements.Inbound, error) {
	return f.inbound, f.err
}
func (f *fakeMovements) RecordOutbound(context.Context, movements.OutboundParams) (*movements.Outbound, error) {
	return f.outbound, f.err
}
func (f *fakeMovements) GetInboundByID(context.Context, int64) (*movements.Inbound, error) {
	return f.inbound, f.err
}
func (f *fakeMovements) GetOutboundByID(context.Context, int64) (*movements.Outbound, error) {
	return f.outbound, f.err
}
func (f *fakeMovements) ListInbound(context.Context, movements.ListFilter, int, int) ([]movements.Inbound, int64, error) {
	return nil, 0, f.err
}
func (f *fakeMovements) ListOutbound(context.Context, movements.ListFilter, int, int) ([]movements.Outbound, int64, error) {
	return nil, 0, f.err
}

type fakeReports struct {
	summary *reports.Summary
	err     error
}

func (f *fakeReports) DashboardSummary(context.Context) (*reports.Summary, error) {
	return f.summary, f.err
}
func (f *fakeReports) ExportBalances(context.Context) ([]byte, string, error) {
	return []byte("xlsx"), "balances.xlsx", f.err
}

type fakeNotifier struct {
	calls int
	code  string
}

func (f *fakeNotifier) LowStock(code, _ string, _, _ int64) {
	f.calls++
	f.code = code
}

type deps struct {
	materials *fakeMaterials
	balances  *fakeBalances
	movements *fakeMovements
	reports   *fakeReports
	notify    *fakeNotifier
}

func newTestAPI(d deps) *echo.Echo {
	if d.materials == nil {
		d.materials = &fakeMaterials{}
	}
	if d.balances == nil {
		d.balances = &fakeBalances{}
	}
	if d.movements == nil {
		d.movements = &fakeMovements{}
	}
	if d.reports == nil {
		d.reports = &fakeReports{}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	var n Notifier
	if d.notify != nil {
		n = d.notify
	}
	a := New(log, d.materials, d.balances, d.movements, d.reports, n)
	e := echo.New()
	a.Register(e)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestCreateMaterialDuplicateCode(t *testing.T) {
	e := newTestAPI(deps{materials: &fakeMaterials{err: &materials.DuplicateCodeError{Code: "M001"}}})

	rec := do(e, http.MethodPost, "/api/v1/materials", `{"code":"M001","name":"Bolt"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Details["code"] != "M001" {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestCreateMaterialValidation(t *testing.T) {
	e := newTestAPI(deps{})

	for _, body := range []string{
		`{"name":"Bolt"}`,
		`{"code":"M001"}`,
		`{"code":"` + strings.Repeat("x", 101) + `","name":"Bolt"}`,
	} {
		rec := do(e, http.MethodPost, "/api/v1/materials", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestGetMaterialMissing(t *testing.T) {
	e := newTestAPI(deps{})

	rec := do(e, http.MethodGet, "/api/v1/materials/42", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/v1/materials/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

func TestDeleteMaterialWithStock(t *testing.T) {
	e := newTestAPI(deps{materials: &fakeMaterials{err: &materials.NonZeroStockError{MaterialID: 7, Quantity: 5}}})

	rec := do(e, http.MethodDelete, "/api/v1/materials/7", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Details["current_quantity"] != float64(5) {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestOutboundInsufficientStock(t *testing.T) {
	e := newTestAPI(deps{movements: &fakeMovements{
		err: &balances.InsufficientStockError{MaterialID: 1, Current: 30, Requested: 40},
	}})

	rec := do(e, http.MethodPost, "/api/v1/outbound-records", `{"material_id":1,"quantity":40}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Details["current_quantity"] != float64(30) || resp.Details["requested"] != float64(40) {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestOutboundLockTimeout(t *testing.T) {
	e := newTestAPI(deps{movements: &fakeMovements{err: balances.ErrLockTimeout}})

	rec := do(e, http.MethodPost, "/api/v1/outbound-records", `{"material_id":1,"quantity":1}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMovementValidation(t *testing.T) {
	e := newTestAPI(deps{})

	for _, body := range []string{
		`{"material_id":1,"quantity":0}`,
		`{"material_id":1,"quantity":-5}`,
		`{"quantity":5}`,
	} {
		rec := do(e, http.MethodPost, "/api/v1/inbound-records", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestMissingBalanceIsServerError(t *testing.T) {
	e := newTestAPI(deps{movements: &fakeMovements{err: balances.ErrNotFound}})

	rec := do(e, http.MethodPost, "/api/v1/inbound-records", `{"material_id":1,"quantity":1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestListMaterialsPageEnvelope(t *testing.T) {
	items := []materials.Material{
		{ID: 2, Code: "M002", Name: "Nut"},
		{ID: 1, Code: "M001", Name: "Bolt"},
	}
	e := newTestAPI(deps{materials: &fakeMaterials{items: items, total: 12}})

	rec := do(e, http.MethodGet, "/api/v1/materials?page=2&size=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Items []materials.Material `json:"items"`
		Total int64                `json:"total"`
		Page  int                  `json:"page"`
		Size  int                  `json:"size"`
		Pages int                  `json:"pages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 12 || resp.Page != 2 || resp.Size != 5 || resp.Pages != 3 {
		t.Errorf("envelope = %+v", resp)
	}
	if len(resp.Items) != 2 || resp.Items[0].Code != "M002" {
		t.Errorf("items = %+v", resp.Items)
	}
}

func TestListEmptyItemsNotNull(t *testing.T) {
	e := newTestAPI(deps{})

	rec := do(e, http.MethodGet, "/api/v1/materials", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Errorf("body = %s, want empty items array", rec.Body.String())
	}
}

func TestOutboundLowStockAlert(t *testing.T) {
	n := &fakeNotifier{}
	e := newTestAPI(deps{
		movements: &fakeMovements{outbound: &movements.Outbound{ID: 1, MaterialID: 7, Quantity: 20}},
		balances:  &fakeBalances{balance: &balances.Balance{MaterialID: 7, CurrentQuantity: 30, MinStockLevel: 35}},
		materials: &fakeMaterials{material: &materials.Material{ID: 7, Code: "M001", Name: "Bolt"}},
		notify:    n,
	})

	rec := do(e, http.MethodPost, "/api/v1/outbound-records", `{"material_id":7,"quantity":20}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if n.calls != 1 || n.code != "M001" {
		t.Errorf("notifier calls = %d code = %q", n.calls, n.code)
	}
}

func TestOutboundAboveMinNoAlert(t *testing.T) {
	n := &fakeNotifier{}
	e := newTestAPI(deps{
		movements: &fakeMovements{outbound: &movements.Outbound{ID: 1, MaterialID: 7, Quantity: 5}},
		balances:  &fakeBalances{balance: &balances.Balance{MaterialID: 7, CurrentQuantity: 50, MinStockLevel: 35}},
		materials: &fakeMaterials{material: &materials.Material{ID: 7, Code: "M001", Name: "Bolt"}},
		notify:    n,
	})

	rec := do(e, http.MethodPost, "/api/v1/outbound-records", `{"material_id":7,"quantity":5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if n.calls != 0 {
		t.Errorf("notifier calls = %d, want 0", n.calls)
	}
}

func TestSetBalanceDetails(t *testing.T) {
	b := &balances.Balance{MaterialID: 7, CurrentQuantity: 10, MinStockLevel: 35, LastUpdatedAt: time.Now()}
	e := newTestAPI(deps{balances: &fakeBalances{balance: b}})

	rec := do(e, http.MethodPut, "/api/v1/inventory-balances/material/7", `{"min_stock_level":35}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(e, http.MethodPut, "/api/v1/inventory-balances/material/7", `{"min_stock_level":-1}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative level: status = %d, want 400", rec.Code)
	}
}

func TestSetBalanceDetailsMissing(t *testing.T) {
	e := newTestAPI(deps{})

	rec := do(e, http.MethodPut, "/api/v1/inventory-balances/material/7", `{"min_stock_level":35}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDuplicateOrderNumberConflict(t *testing.T) {
	e := newTestAPI(deps{movements: &fakeMovements{
		err: &movements.DuplicateOrderNumberError{OrderNumber: "IN-2026-001"},
	}})

	rec := do(e, http.MethodPost, "/api/v1/inbound-records", `{"material_id":1,"quantity":5,"order_number":"IN-2026-001"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	resp := decodeError(t, rec)
	if resp.Details["order_number"] != "IN-2026-001" {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestDashboardSummary(t *testing.T) {
	e := newTestAPI(deps{reports: &fakeReports{summary: &reports.Summary{
		MaterialCount: 3, TotalStockQuantity: 120, AlertCount: 1,
	}}})

	rec := do(e, http.MethodGet, "/api/v1/statistics/dashboard-summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var s reports.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.MaterialCount != 3 || s.TotalStockQuantity != 120 || s.AlertCount != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestExportBalancesHeaders(t *testing.T) {
	e := newTestAPI(deps{})

	rec := do(e, http.MethodGet, "/api/v1/inventory-balances/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "balances.xlsx") {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestMovementFilterValidation(t *testing.T) {
	e := newTestAPI(deps{})

	rec := do(e, http.MethodGet, "/api/v1/inbound-records?start_time=yesterday", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/v1/outbound-records?material_id=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
