package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderRequest defines the structure for purchase order
// creation/update requests. Vendors are referenced by vendor_code or by
// vendor_id; date fields left out of a create request default to the current
// time, matching the column defaults of the original schema.
type PurchaseOrderRequest struct {
	PONumber           string          `json:"po_number"`
	VendorCode         string          `json:"vendor_code"`
	VendorID           *uint           `json:"vendor_id"`
	OrderDate          *time.Time      `json:"order_date"`
	DeliveryDate       *time.Time      `json:"delivery_date"`
	Items              json.RawMessage `json:"items"`
	Quantity           uint            `json:"quantity"`
	Status             string          `json:"status"`
	QualityRating      *float64        `json:"quality_rating"`
	IssueDate          *time.Time      `json:"issue_date"`
	AcknowledgmentDate *time.Time      `json:"acknowledgment_date"`
}

// resolveVendor looks up a vendor by code for order association
func resolveVendor(code string) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := database.GetDB().Where("vendor_code = ?", code).First(&vendor).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// resolveVendorByID looks up a vendor by primary key for order association
func resolveVendorByID(id uint) (*model.Vendor, error) {
	var vendor model.Vendor
	if err := database.GetDB().First(&vendor, id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// CreatePurchaseOrder creates a new purchase order and recomputes the owning
// vendor's cached metrics before responding
func CreatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("create")

	var req PurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.PONumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "po_number is required",
			"field": "po_number",
		})
	}

	if req.Status == "" {
		req.Status = model.OrderStatusPending
	}
	if !model.ValidOrderStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "status must be one of PENDING, COMPLETED, CANCELED",
			"field": "status",
		})
	}

	// Check po_number uniqueness
	var count int64
	database.GetDB().Model(&model.PurchaseOrder{}).
		Where("po_number = ?", req.PONumber).
		Count(&count)
	if count > 0 {
		log.Warn("Purchase order with this po_number already exists",
			zap.String("po_number", req.PONumber))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Purchase order with this po_number already exists",
			"field": "po_number",
		})
	}

	var vendorID *uint
	if req.VendorCode != "" {
		vendor, err := resolveVendor(req.VendorCode)
		if err != nil {
			log.Warn("Unknown vendor for purchase order",
				zap.String("vendor_code", req.VendorCode))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown vendor_code",
				"field": "vendor_code",
			})
		}
		vendorID = &vendor.ID
	} else if req.VendorID != nil {
		vendor, err := resolveVendorByID(*req.VendorID)
		if err != nil {
			log.Warn("Unknown vendor for purchase order",
				zap.Uint("vendor_id", *req.VendorID))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown vendor_id",
				"field": "vendor_id",
			})
		}
		vendorID = &vendor.ID
	}

	now := time.Now()
	order := model.PurchaseOrder{
		PONumber:           req.PONumber,
		VendorID:           vendorID,
		OrderDate:          timeOrNow(req.OrderDate, now),
		DeliveryDate:       timeOrNow(req.DeliveryDate, now),
		Items:              datatypes.JSON(req.Items),
		Quantity:           req.Quantity,
		Status:             req.Status,
		QualityRating:      req.QualityRating,
		IssueDate:          timeOrNow(req.IssueDate, now),
		AcknowledgmentDate: req.AcknowledgmentDate,
	}
	if order.AcknowledgmentDate == nil {
		ack := now
		order.AcknowledgmentDate = &ack
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	// The metric recomputation runs on the same transaction as the write:
	// when Create returns, the vendor's cached metrics already reflect the
	// new order.
	recomputeStart := time.Now()
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return performance.OnOrderSaved(tx, &order)
	})
	if err != nil {
		log.Error("Failed to create purchase order",
			zap.String("po_number", req.PONumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create purchase order",
		})
	}
	prometheus.RecordRecompute("order_create", recomputeStart)

	log.Info("Purchase order created successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.String("status", order.Status))
	return c.JSON(http.StatusCreated, order)
}

// GetPurchaseOrder retrieves a purchase order by po_number
func GetPurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("get")

	poNumber := c.Param("po_number")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var order model.PurchaseOrder
	result := database.GetDB().Where("po_number = ?", poNumber).First(&order)
	if result.Error != nil {
		log.Warn("Purchase order not found", zap.String("po_number", poNumber))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	return c.JSON(http.StatusOK, order)
}

// ListPurchaseOrders retrieves purchase orders with pagination and optional
// status / vendor_code filters
func ListPurchaseOrders(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("list")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	offset := (page - 1) * limit

	query := database.GetDB().Model(&model.PurchaseOrder{})

	if status := c.QueryParam("status"); status != "" {
		if !model.ValidOrderStatus(status) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "status must be one of PENDING, COMPLETED, CANCELED",
				"field": "status",
			})
		}
		query = query.Where("status = ?", status)
	}

	if code := c.QueryParam("vendor_code"); code != "" {
		vendor, err := resolveVendor(code)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown vendor_code",
				"field": "vendor_code",
			})
		}
		query = query.Where("vendor_id = ?", vendor.ID)
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.PurchaseOrder
	result := query.
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&orders)

	if result.Error != nil {
		log.Error("Failed to retrieve purchase orders", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve purchase orders",
		})
	}

	var total int64
	query.Limit(-1).Offset(-1).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"purchase_orders": orders,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdatePurchaseOrder updates an existing purchase order and recomputes the
// affected vendor metrics. When the update moves the order to another
// vendor, the previous vendor's fulfillment rate is refreshed as well.
//
// Updates are partial: only fields present in the request body change, so a
// quantity can be set to 0 and quality_rating, acknowledgment_date and
// vendor_id can be cleared with an explicit null.
func UpdatePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("update")

	poNumber := c.Param("po_number")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		log.Error("Failed to read request body", zap.String("po_number", poNumber), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	// Decode the body twice: once into the typed request and once into a key
	// set, so an omitted field can be told apart from an explicit zero/null.
	var req PurchaseOrderRequest
	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			log.Error("Invalid request data", zap.String("po_number", poNumber), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid request data",
			})
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Invalid request data",
			})
		}
	}
	has := func(name string) bool {
		_, ok := fields[name]
		return ok
	}

	var order model.PurchaseOrder
	result := database.GetDB().Where("po_number = ?", poNumber).First(&order)
	if result.Error != nil {
		log.Warn("Purchase order not found for update", zap.String("po_number", poNumber))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Check po_number uniqueness when changed
	if req.PONumber != "" && req.PONumber != order.PONumber {
		var count int64
		database.GetDB().Model(&model.PurchaseOrder{}).
			Where("po_number = ? AND id != ?", req.PONumber, order.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Purchase order with this po_number already exists",
				zap.String("po_number", req.PONumber))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Purchase order with this po_number already exists",
				"field": "po_number",
			})
		}
		order.PONumber = req.PONumber
	}

	if req.Status != "" {
		if !model.ValidOrderStatus(req.Status) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "status must be one of PENDING, COMPLETED, CANCELED",
				"field": "status",
			})
		}
		order.Status = req.Status
	}

	previousVendorID := order.VendorID

	if req.VendorCode != "" {
		vendor, err := resolveVendor(req.VendorCode)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown vendor_code",
				"field": "vendor_code",
			})
		}
		order.VendorID = &vendor.ID
	} else if has("vendor_id") {
		if req.VendorID == nil {
			// Explicit null detaches the order from its vendor.
			order.VendorID = nil
		} else {
			vendor, err := resolveVendorByID(*req.VendorID)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"error": "Unknown vendor_id",
					"field": "vendor_id",
				})
			}
			order.VendorID = &vendor.ID
		}
	}

	if req.OrderDate != nil {
		order.OrderDate = *req.OrderDate
	}
	if req.DeliveryDate != nil {
		order.DeliveryDate = *req.DeliveryDate
	}
	if req.Items != nil {
		order.Items = datatypes.JSON(req.Items)
	}
	if has("quantity") {
		order.Quantity = req.Quantity
	}
	if has("quality_rating") {
		order.QualityRating = req.QualityRating
	}
	if req.IssueDate != nil {
		order.IssueDate = *req.IssueDate
	}
	if has("acknowledgment_date") {
		order.AcknowledgmentDate = req.AcknowledgmentDate
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	recomputeStart := time.Now()
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		if err := performance.OnOrderSaved(tx, &order); err != nil {
			return err
		}
		// The order left its previous vendor; that vendor's order set
		// shrank, which only affects its fulfillment rate.
		if previousVendorID != nil &&
			(order.VendorID == nil || *order.VendorID != *previousVendorID) {
			return performance.RecomputeFulfillment(tx, *previousVendorID)
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to update purchase order",
			zap.String("po_number", poNumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update purchase order",
		})
	}
	prometheus.RecordRecompute("order_update", recomputeStart)

	log.Info("Purchase order updated successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", order.PONumber),
		zap.String("status", order.Status))
	return c.JSON(http.StatusOK, order)
}

// DeletePurchaseOrder deletes a purchase order. Only the vendor's
// fulfillment rate is recomputed on delete; the delivery, quality and
// response metrics keep their prior cached values.
func DeletePurchaseOrder(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordOrderOperation("delete")

	poNumber := c.Param("po_number")

	var order model.PurchaseOrder
	result := database.GetDB().Where("po_number = ?", poNumber).First(&order)
	if result.Error != nil {
		log.Warn("Purchase order not found for delete", zap.String("po_number", poNumber))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Purchase order not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	recomputeStart := time.Now()
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&order).Error; err != nil {
			return err
		}
		return performance.OnOrderDeleted(tx, &order)
	})
	if err != nil {
		log.Error("Failed to delete purchase order",
			zap.String("po_number", poNumber),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete purchase order",
		})
	}
	prometheus.RecordRecompute("order_delete", recomputeStart)

	log.Info("Purchase order deleted successfully",
		zap.Uint("id", order.ID),
		zap.String("po_number", poNumber))
	return c.NoContent(http.StatusNoContent)
}

func timeOrNow(t *time.Time, now time.Time) time.Time {
	if t != nil {
		return *t
	}
	return now
}
