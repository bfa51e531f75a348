package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"vendor-service/internal/handler"
	"vendor-service/internal/middleware"
	"vendor-service/internal/model"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/jwtutil"
	"vendor-service/prometheus"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	jwtutil.Initialize(&cfg.JWT)
	prometheus.InitMetrics(cfg)
	os.Exit(m.Run())
}

// setupDB points the handlers at a fresh in-memory database
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.SetDB(db)
	return db
}

func newContext(t *testing.T, method, path string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	e := echo.New()
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var payload map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

func createTestVendor(t *testing.T, code string) {
	t.Helper()

	c, rec := newContext(t, http.MethodPost, "/api/vendors", map[string]interface{}{
		"name":        "Acme Industrial",
		"vendor_code": code,
	})
	if err := handler.CreateVendor(c); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateVendor status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func createTestOrder(t *testing.T, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()

	c, rec := newContext(t, http.MethodPost, "/api/purchase_orders", body)
	if err := handler.CreatePurchaseOrder(c); err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	return rec
}

func getVendorByCode(t *testing.T, db *gorm.DB, code string) *model.Vendor {
	t.Helper()

	var vendor model.Vendor
	if err := db.Where("vendor_code = ?", code).First(&vendor).Error; err != nil {
		t.Fatalf("load vendor %s: %v", code, err)
	}
	return &vendor
}

func TestCreateVendor(t *testing.T) {
	setupDB(t)

	c, rec := newContext(t, http.MethodPost, "/api/vendors", map[string]interface{}{
		"name":            "Acme Industrial",
		"contact_details": "acme@example.com",
		"address":         "1 Factory Rd",
		"vendor_code":     "ACME-1",
	})
	if err := handler.CreateVendor(c); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	payload := decodeBody(t, rec)
	if payload["vendor_code"] != "ACME-1" {
		t.Errorf("vendor_code = %v", payload["vendor_code"])
	}
	if payload["on_time_delivery_rate"].(float64) != 0 {
		t.Errorf("new vendor must start with zero metrics")
	}
}

func TestCreateVendorValidation(t *testing.T) {
	setupDB(t)

	// Missing name
	c, rec := newContext(t, http.MethodPost, "/api/vendors", map[string]interface{}{
		"vendor_code": "ACME-1",
	})
	if err := handler.CreateVendor(c); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: status = %d, want 400", rec.Code)
	}

	// Duplicate code
	createTestVendor(t, "ACME-1")
	c, rec = newContext(t, http.MethodPost, "/api/vendors", map[string]interface{}{
		"name":        "Other Vendor",
		"vendor_code": "ACME-1",
	})
	if err := handler.CreateVendor(c); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate code: status = %d, want 409", rec.Code)
	}
}

func TestVendorCodeGeneratedWhenOmitted(t *testing.T) {
	setupDB(t)

	c, rec := newContext(t, http.MethodPost, "/api/vendors", map[string]interface{}{
		"name": "No Code Vendor",
	})
	if err := handler.CreateVendor(c); err != nil {
		t.Fatalf("CreateVendor: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if code, _ := decodeBody(t, rec)["vendor_code"].(string); code == "" {
		t.Error("expected a generated vendor_code")
	}
}

func TestGetVendorNotFound(t *testing.T) {
	setupDB(t)

	c, rec := newContext(t, http.MethodGet, "/api/vendors/NOPE", nil)
	c.SetPath("/api/vendors/:code")
	c.SetParamNames("code")
	c.SetParamValues("NOPE")
	if err := handler.GetVendor(c); err != nil {
		t.Fatalf("GetVendor: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteVendorDetachesOrders(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order status = %d", rec.Code)
	}

	c, rec := newContext(t, http.MethodDelete, "/api/vendors/ACME-1", nil)
	c.SetPath("/api/vendors/:code")
	c.SetParamNames("code")
	c.SetParamValues("ACME-1")
	if err := handler.DeleteVendor(c); err != nil {
		t.Fatalf("DeleteVendor: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	// The order survives, detached
	var order model.PurchaseOrder
	if err := db.Where("po_number = ?", "PO-1").First(&order).Error; err != nil {
		t.Fatalf("order must survive vendor deletion: %v", err)
	}
	if order.VendorID != nil {
		t.Errorf("order.VendorID = %v, want nil", *order.VendorID)
	}
}

func TestCreatePurchaseOrderUpdatesVendorMetrics(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	issue := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ack := issue.Add(60 * time.Second)

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":           "PO-1",
		"vendor_code":         "ACME-1",
		"status":              "COMPLETED",
		"items":               []map[string]interface{}{{"name": "widget", "qty": 5}},
		"quantity":            5,
		"quality_rating":      4.0,
		"issue_date":          issue.Format(time.RFC3339),
		"delivery_date":       ack.Format(time.RFC3339),
		"acknowledgment_date": ack.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	vendor := getVendorByCode(t, db, "ACME-1")
	if vendor.FulfillmentRate != 100.0 {
		t.Errorf("FulfillmentRate = %f, want 100.0", vendor.FulfillmentRate)
	}
	if vendor.OnTimeDeliveryRate != 100.0 {
		t.Errorf("OnTimeDeliveryRate = %f, want 100.0", vendor.OnTimeDeliveryRate)
	}
	if vendor.QualityRatingAvg != 4.0 {
		t.Errorf("QualityRatingAvg = %f, want 4.0", vendor.QualityRatingAvg)
	}
	if vendor.AverageResponseTime != 60.0 {
		t.Errorf("AverageResponseTime = %f, want 60.0", vendor.AverageResponseTime)
	}
}

func TestCreatePurchaseOrderValidation(t *testing.T) {
	setupDB(t)
	createTestVendor(t, "ACME-1")

	// Missing po_number
	rec := createTestOrder(t, map[string]interface{}{"vendor_code": "ACME-1"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing po_number: status = %d, want 400", rec.Code)
	}

	// Unknown vendor
	rec = createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "NOPE",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown vendor: status = %d, want 400", rec.Code)
	}

	// Invalid status
	rec = createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
		"status":      "SHIPPED",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status: status = %d, want 400", rec.Code)
	}

	// Duplicate po_number
	rec = createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	rec = createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate po_number: status = %d, want 409", rec.Code)
	}
}

func TestStatusTransitionRecomputesAllMetrics(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	issue := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ack := issue.Add(120 * time.Second)

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":           "PO-1",
		"vendor_code":         "ACME-1",
		"status":              "PENDING",
		"quality_rating":      5.0,
		"issue_date":          issue.Format(time.RFC3339),
		"delivery_date":       ack.Format(time.RFC3339),
		"acknowledgment_date": ack.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	before := getVendorByCode(t, db, "ACME-1")
	if before.FulfillmentRate != 0 || before.OnTimeDeliveryRate != 0 {
		t.Fatalf("pending order must leave completion metrics at zero: %+v", before)
	}

	c, rec := newContext(t, http.MethodPut, "/api/purchase_orders/PO-1", map[string]interface{}{
		"status": "COMPLETED",
	})
	c.SetPath("/api/purchase_orders/:po_number")
	c.SetParamNames("po_number")
	c.SetParamValues("PO-1")
	if err := handler.UpdatePurchaseOrder(c); err != nil {
		t.Fatalf("UpdatePurchaseOrder: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body.String())
	}

	after := getVendorByCode(t, db, "ACME-1")
	if after.FulfillmentRate != 100.0 {
		t.Errorf("FulfillmentRate = %f, want 100.0", after.FulfillmentRate)
	}
	if after.OnTimeDeliveryRate != 100.0 {
		t.Errorf("OnTimeDeliveryRate = %f, want 100.0", after.OnTimeDeliveryRate)
	}
	if after.QualityRatingAvg != 5.0 {
		t.Errorf("QualityRatingAvg = %f, want 5.0", after.QualityRatingAvg)
	}
	if after.AverageResponseTime != 120.0 {
		t.Errorf("AverageResponseTime = %f, want 120.0", after.AverageResponseTime)
	}
}

func TestVendorUpdateLeavesMetricsUntouched(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
		"status":      "COMPLETED",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order: status = %d", rec.Code)
	}
	before := getVendorByCode(t, db, "ACME-1")

	c, rec := newContext(t, http.MethodPut, "/api/vendors/ACME-1", map[string]interface{}{
		"name":    "Acme Industrial",
		"address": "2 New Address Ln",
	})
	c.SetPath("/api/vendors/:code")
	c.SetParamNames("code")
	c.SetParamValues("ACME-1")
	if err := handler.UpdateVendor(c); err != nil {
		t.Fatalf("UpdateVendor: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d", rec.Code)
	}

	after := getVendorByCode(t, db, "ACME-1")
	if after.OnTimeDeliveryRate != before.OnTimeDeliveryRate {
		t.Errorf("OnTimeDeliveryRate changed by vendor update: %f -> %f",
			before.OnTimeDeliveryRate, after.OnTimeDeliveryRate)
	}
	if after.FulfillmentRate != before.FulfillmentRate {
		t.Errorf("FulfillmentRate changed by vendor update: %f -> %f",
			before.FulfillmentRate, after.FulfillmentRate)
	}
}

func TestDeletePurchaseOrderRecomputesFulfillmentOnly(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	issue := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ack := issue.Add(30 * time.Second)

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":           "PO-1",
		"vendor_code":         "ACME-1",
		"status":              "COMPLETED",
		"quality_rating":      3.0,
		"issue_date":          issue.Format(time.RFC3339),
		"delivery_date":       ack.Format(time.RFC3339),
		"acknowledgment_date": ack.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	before := getVendorByCode(t, db, "ACME-1")

	c, rec := newContext(t, http.MethodDelete, "/api/purchase_orders/PO-1", nil)
	c.SetPath("/api/purchase_orders/:po_number")
	c.SetParamNames("po_number")
	c.SetParamValues("PO-1")
	if err := handler.DeletePurchaseOrder(c); err != nil {
		t.Fatalf("DeletePurchaseOrder: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}

	after := getVendorByCode(t, db, "ACME-1")
	if after.FulfillmentRate != 0 {
		t.Errorf("FulfillmentRate = %f, want 0 after deleting the only order", after.FulfillmentRate)
	}
	if after.OnTimeDeliveryRate != before.OnTimeDeliveryRate {
		t.Errorf("OnTimeDeliveryRate must keep its cached value on delete")
	}
	if after.QualityRatingAvg != before.QualityRatingAvg {
		t.Errorf("QualityRatingAvg must keep its cached value on delete")
	}
	if after.AverageResponseTime != before.AverageResponseTime {
		t.Errorf("AverageResponseTime must keep its cached value on delete")
	}
}

func TestGetVendorPerformanceMatchesCache(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	issue := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ack := issue.Add(45 * time.Second)

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":           "PO-1",
		"vendor_code":         "ACME-1",
		"status":              "COMPLETED",
		"quality_rating":      4.5,
		"issue_date":          issue.Format(time.RFC3339),
		"delivery_date":       ack.Format(time.RFC3339),
		"acknowledgment_date": ack.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	c, rec := newContext(t, http.MethodGet, "/api/vendors/ACME-1/performance", nil)
	c.SetPath("/api/vendors/:code/performance")
	c.SetParamNames("code")
	c.SetParamValues("ACME-1")
	if err := handler.GetVendorPerformance(c); err != nil {
		t.Fatalf("GetVendorPerformance: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	payload := decodeBody(t, rec)
	vendor := getVendorByCode(t, db, "ACME-1")

	if got := payload["fulfilment_rate"].(float64); got != vendor.FulfillmentRate {
		t.Errorf("fulfilment_rate = %f, cached %f", got, vendor.FulfillmentRate)
	}
	if got := payload["on_time_delivery_rate"].(float64); got != vendor.OnTimeDeliveryRate {
		t.Errorf("on_time_delivery_rate = %f, cached %f", got, vendor.OnTimeDeliveryRate)
	}
	if got := payload["quality_rating_avg"].(float64); got != vendor.QualityRatingAvg {
		t.Errorf("quality_rating_avg = %f, cached %f", got, vendor.QualityRatingAvg)
	}
	if got := payload["average_response_time"].(float64); got != vendor.AverageResponseTime {
		t.Errorf("average_response_time = %f, cached %f", got, vendor.AverageResponseTime)
	}
}

func TestPerformanceSnapshotAndHistory(t *testing.T) {
	setupDB(t)
	createTestVendor(t, "ACME-1")

	c, rec := newContext(t, http.MethodPost, "/api/vendors/ACME-1/performance/snapshot", nil)
	c.SetPath("/api/vendors/:code/performance/snapshot")
	c.SetParamNames("code")
	c.SetParamValues("ACME-1")
	if err := handler.SnapshotVendorPerformance(c); err != nil {
		t.Fatalf("SnapshotVendorPerformance: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("snapshot: status = %d, want 201", rec.Code)
	}

	c, rec = newContext(t, http.MethodGet, "/api/vendors/ACME-1/history", nil)
	c.SetPath("/api/vendors/:code/history")
	c.SetParamNames("code")
	c.SetParamValues("ACME-1")
	if err := handler.ListVendorHistory(c); err != nil {
		t.Fatalf("ListVendorHistory: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}

	payload := decodeBody(t, rec)
	history, ok := payload["history"].([]interface{})
	if !ok || len(history) != 1 {
		t.Errorf("history length = %v, want 1 snapshot", payload["history"])
	}
}

func TestCreatePurchaseOrderByVendorID(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")
	vendor := getVendorByCode(t, db, "ACME-1")

	rec := createTestOrder(t, map[string]interface{}{
		"po_number": "PO-1",
		"vendor_id": vendor.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var order model.PurchaseOrder
	if err := db.Where("po_number = ?", "PO-1").First(&order).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.VendorID == nil || *order.VendorID != vendor.ID {
		t.Errorf("order.VendorID = %v, want %d", order.VendorID, vendor.ID)
	}

	// Unknown vendor_id is rejected, not silently dropped
	rec = createTestOrder(t, map[string]interface{}{
		"po_number": "PO-2",
		"vendor_id": vendor.ID + 1000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown vendor_id: status = %d, want 400", rec.Code)
	}
}

func TestUpdatePurchaseOrderClearsZeroAndNullFields(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")

	issue := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ack := issue.Add(60 * time.Second)

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":           "PO-1",
		"vendor_code":         "ACME-1",
		"status":              "COMPLETED",
		"quantity":            5,
		"quality_rating":      4.0,
		"issue_date":          issue.Format(time.RFC3339),
		"delivery_date":       ack.Format(time.RFC3339),
		"acknowledgment_date": ack.Format(time.RFC3339),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	c, rec := newContext(t, http.MethodPut, "/api/purchase_orders/PO-1", map[string]interface{}{
		"quantity":            0,
		"quality_rating":      nil,
		"acknowledgment_date": nil,
	})
	c.SetPath("/api/purchase_orders/:po_number")
	c.SetParamNames("po_number")
	c.SetParamValues("PO-1")
	if err := handler.UpdatePurchaseOrder(c); err != nil {
		t.Fatalf("UpdatePurchaseOrder: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var order model.PurchaseOrder
	if err := db.Where("po_number = ?", "PO-1").First(&order).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", order.Quantity)
	}
	if order.QualityRating != nil {
		t.Errorf("QualityRating = %v, want nil", *order.QualityRating)
	}
	if order.AcknowledgmentDate != nil {
		t.Errorf("AcknowledgmentDate = %v, want nil", order.AcknowledgmentDate)
	}

	// Omitted fields keep their values
	if order.Status != model.OrderStatusCompleted {
		t.Errorf("Status = %q, want unchanged COMPLETED", order.Status)
	}
	if order.PONumber != "PO-1" {
		t.Errorf("PONumber = %q, want unchanged PO-1", order.PONumber)
	}
}

func TestUpdatePurchaseOrderVendorByID(t *testing.T) {
	db := setupDB(t)
	createTestVendor(t, "ACME-1")
	createTestVendor(t, "ACME-2")
	second := getVendorByCode(t, db, "ACME-2")

	rec := createTestOrder(t, map[string]interface{}{
		"po_number":   "PO-1",
		"vendor_code": "ACME-1",
		"status":      "COMPLETED",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}

	// Move the order to the second vendor by id
	c, rec := newContext(t, http.MethodPut, "/api/purchase_orders/PO-1", map[string]interface{}{
		"vendor_id": second.ID,
	})
	c.SetPath("/api/purchase_orders/:po_number")
	c.SetParamNames("po_number")
	c.SetParamValues("PO-1")
	if err := handler.UpdatePurchaseOrder(c); err != nil {
		t.Fatalf("UpdatePurchaseOrder: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("move: status = %d, body %s", rec.Code, rec.Body.String())
	}

	if got := getVendorByCode(t, db, "ACME-1"); got.FulfillmentRate != 0 {
		t.Errorf("previous vendor FulfillmentRate = %f, want 0 after losing its only order", got.FulfillmentRate)
	}
	if got := getVendorByCode(t, db, "ACME-2"); got.FulfillmentRate != 100.0 {
		t.Errorf("new vendor FulfillmentRate = %f, want 100.0", got.FulfillmentRate)
	}

	// Explicit null detaches the order
	c, rec = newContext(t, http.MethodPut, "/api/purchase_orders/PO-1", map[string]interface{}{
		"vendor_id": nil,
	})
	c.SetPath("/api/purchase_orders/:po_number")
	c.SetParamNames("po_number")
	c.SetParamValues("PO-1")
	if err := handler.UpdatePurchaseOrder(c); err != nil {
		t.Fatalf("UpdatePurchaseOrder: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("detach: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var order model.PurchaseOrder
	if err := db.Where("po_number = ?", "PO-1").First(&order).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.VendorID != nil {
		t.Errorf("order.VendorID = %v, want nil after detach", *order.VendorID)
	}
	if got := getVendorByCode(t, db, "ACME-2"); got.FulfillmentRate != 0 {
		t.Errorf("detached vendor FulfillmentRate = %f, want 0", got.FulfillmentRate)
	}
}

func TestAuthFlow(t *testing.T) {
	setupDB(t)

	// Register
	c, rec := newContext(t, http.MethodPost, "/auth/register", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "s3cret",
		"name":     "Buyer",
	})
	if err := handler.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Login with wrong password
	c, rec = newContext(t, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "wrong",
	})
	if err := handler.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	// Login
	c, rec = newContext(t, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "buyer@example.com",
		"password": "s3cret",
	})
	if err := handler.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("login response missing token")
	}

	// Authenticated request passes the middleware
	next := middleware.AuthMiddleware(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	c, rec = newContext(t, http.MethodGet, "/api/vendors", nil)
	c.Request().Header.Set("Authorization", "Bearer "+token)
	if err := next(c); err != nil {
		t.Fatalf("auth middleware: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200", rec.Code)
	}

	// Missing token is rejected
	c, rec = newContext(t, http.MethodGet, "/api/vendors", nil)
	if err := next(c); err != nil {
		t.Fatalf("auth middleware: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("without token: status = %d, want 401", rec.Code)
	}
}
