package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditdomain "github.com/smallbiznis/spk/internal/audit/domain"
	"github.com/smallbiznis/spk/internal/config"
	documentdomain "github.com/smallbiznis/spk/internal/document/domain"
	"github.com/smallbiznis/spk/internal/observability"
	"github.com/smallbiznis/spk/internal/workorder/domain"
)

type fakeWorkOrders struct {
	created    domain.CreateWorkOrderRequest
	listed     domain.ListWorkOrderRequest
	updated    domain.UpdatePaymentRequest
	workOrder  domain.WorkOrder
	publishErr error
	err        error
}

func (f *fakeWorkOrders) Create(_ context.Context, req domain.CreateWorkOrderRequest) (domain.WorkOrder, error) {
	f.created = req
	return f.workOrder, f.err
}

func (f *fakeWorkOrders) GetByID(_ context.Context, _ string) (domain.WorkOrder, error) {
	return f.workOrder, f.err
}

func (f *fakeWorkOrders) List(_ context.Context, req domain.ListWorkOrderRequest) (domain.ListWorkOrderResponse, error) {
	f.listed = req
	return domain.ListWorkOrderResponse{WorkOrders: []domain.WorkOrder{f.workOrder}}, f.err
}

func (f *fakeWorkOrders) ListByVendor(_ context.Context, _ string) ([]domain.WorkOrder, error) {
	return []domain.WorkOrder{f.workOrder}, f.err
}

func (f *fakeWorkOrders) ListPayments(_ context.Context, _ string) ([]domain.Payment, error) {
	return nil, f.err
}

func (f *fakeWorkOrders) Publish(_ context.Context, _ string) (domain.PublishResult, error) {
	return domain.PublishResult{WorkOrder: f.workOrder, AlreadyPublished: true}, f.publishErr
}

func (f *fakeWorkOrders) UpdatePaymentStatus(_ context.Context, req domain.UpdatePaymentRequest) (domain.Payment, error) {
	f.updated = req
	return domain.Payment{Status: domain.PaymentStatus(req.Status)}, f.err
}

func (f *fakeWorkOrders) Delete(_ context.Context, _ string) error { return f.err }

type fakeDocuments struct {
	doc documentdomain.Document
	err error
}

func (f *fakeDocuments) Retrieve(_ context.Context, _ string) (documentdomain.Document, error) {
	return f.doc, f.err
}

func (f *fakeDocuments) Invalidate(_ context.Context, _ string) error { return f.err }

type fakeAudit struct {
	listed auditdomain.ListAuditLogRequest
}

func (f *fakeAudit) Record(context.Context, string, string, string, map[string]any) error {
	return nil
}

func (f *fakeAudit) List(_ context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	f.listed = req
	return auditdomain.ListAuditLogResponse{}, nil
}

type testServer struct {
	engine     *gin.Engine
	workOrders *fakeWorkOrders
	documents  *fakeDocuments
	audit      *fakeAudit
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{Environment: "test", DefaultActor: "admin@company.com"}
	engine := NewEngine(EngineParams{
		Cfg:    cfg,
		ObsCfg: observability.LoadConfig(cfg),
		Log:    zap.NewNop(),
	})

	ts := &testServer{
		engine:     engine,
		workOrders: &fakeWorkOrders{workOrder: domain.WorkOrder{Number: "SPK/2026/01/0001", Status: domain.StatusPublished}},
		documents:  &fakeDocuments{},
		audit:      &fakeAudit{},
	}
	NewServer(ServerParams{
		Gin:          engine,
		Cfg:          cfg,
		WorkOrderSvc: ts.workOrders,
		DocumentSvc:  ts.documents,
		AuditSvc:     ts.audit,
	})
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func TestCreateWorkOrderReturnsCreated(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/work-orders", `{"vendor_name":"PT Maju","project_name":"Gudang","contract_value":"100000000","start_date":"2026-01-15","dp_percentage":"30","progress_percentage":"40","final_percentage":"30"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "PT Maju", ts.workOrders.created.VendorName)
	assert.Equal(t, "100000000", ts.workOrders.created.ContractValue.String())
	assert.Contains(t, rec.Body.String(), `"spk_number":"SPK/2026/01/0001"`)
}

func TestCreateWorkOrderMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/work-orders", `{"vendor_name":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "validation_error", resp.Error.Type)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "body", resp.Error.Errors[0].Field)
}

func TestCreateWorkOrderValidationErrorListsFields(t *testing.T) {
	ts := newTestServer(t)
	ts.workOrders.err = &domain.ValidationError{Errors: []domain.FieldError{
		{Field: "percentages", Code: "sum_not_100", Message: "percentages must total 100"},
	}}

	rec := ts.do(http.MethodPost, "/api/work-orders", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	require.Len(t, resp.Error.Errors, 1)
	assert.Equal(t, "sum_not_100", resp.Error.Errors[0].Code)
}

func TestListWorkOrdersBindsFilters(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/work-orders?status=%20draft%20&vendor_name=Maju&page_size=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "draft", ts.workOrders.listed.Status)
	assert.Equal(t, "Maju", ts.workOrders.listed.VendorName)
	assert.Equal(t, 5, ts.workOrders.listed.PageSize)
}

func TestGetWorkOrderNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.workOrders.err = domain.ErrNotFound

	rec := ts.do(http.MethodGet, "/api/work-orders/123", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Type)
}

func TestPersistenceErrorHidesDetail(t *testing.T) {
	ts := newTestServer(t)
	ts.workOrders.err = domain.Persistence("load_work_order", errors.New("connection refused"))

	rec := ts.do(http.MethodGet, "/api/work-orders/123", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestPublishReportsAlreadyPublished(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/work-orders/123/publish", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"already_published":true`)
}

func TestUpdatePaymentTakesIDFromPath(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPatch, "/api/payments/77", `{"status":"paid","paid_date":"2026-02-01"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "77", ts.workOrders.updated.PaymentID)
	assert.Equal(t, "paid", ts.workOrders.updated.Status)
}

func TestUpdatePaymentNotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.workOrders.err = domain.ErrPaymentNotFound

	rec := ts.do(http.MethodPatch, "/api/payments/77", `{"status":"paid"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "payment not found", decodeError(t, rec).Error.Message)
}

func TestGetDocumentStreamsPDF(t *testing.T) {
	ts := newTestServer(t)
	ts.documents.doc = documentdomain.Document{
		Revision:    3,
		FileName:    "spk-2026-01-0001-gudang.pdf",
		ContentType: documentdomain.ContentTypePDF,
		Source:      documentdomain.SourceArtifact,
		Data:        []byte("%PDF-1.7"),
	}

	rec := ts.do(http.MethodGet, "/api/work-orders/123/document", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, documentdomain.ContentTypePDF, rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="spk-2026-01-0001-gudang.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "3", rec.Header().Get(headerDocumentRevision))
	assert.Equal(t, "artifact", rec.Header().Get(headerDocumentSource))
	assert.Equal(t, "%PDF-1.7", rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/work-orders/123/document?download=1", "")
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
}

func TestGetDocumentRenderFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.documents.err = &documentdomain.RenderError{Err: errors.New("font missing")}

	rec := ts.do(http.MethodGet, "/api/work-orders/123/document", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "render_error", resp.Error.Type)
	assert.NotContains(t, rec.Body.String(), "font missing")
}

func TestGetDocumentMissingWorkOrder(t *testing.T) {
	ts := newTestServer(t)
	ts.documents.err = domain.ErrNotFound

	rec := ts.do(http.MethodGet, "/api/work-orders/123/document", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAuditLogsTrimsFilters(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/audit-logs?action=%20work_order.published&target_type=work_order&page_size=10", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "work_order.published", ts.audit.listed.Action)
	assert.Equal(t, "work_order", ts.audit.listed.TargetType)
	assert.Equal(t, 10, ts.audit.listed.PageSize)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/nope", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error.Type)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
