package handler

import (
	"net/http"
	"strconv"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VendorRequest defines the structure for vendor creation/update requests
type VendorRequest struct {
	Name           string `json:"name"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
	VendorCode     string `json:"vendor_code"`
}

// CreateVendor creates a new vendor
func CreateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("create")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" {
		log.Warn("Vendor name is required")
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
			"field": "name",
		})
	}

	// Vendor codes are caller-assigned but unique; generate one when omitted
	if req.VendorCode == "" {
		req.VendorCode = uuid.New().String()
	}

	// Check if a vendor with the same code exists
	var count int64
	database.GetDB().Model(&model.Vendor{}).
		Where("vendor_code = ?", req.VendorCode).
		Count(&count)
	if count > 0 {
		log.Warn("Vendor with this code already exists", zap.String("vendor_code", req.VendorCode))
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "Vendor with this code already exists",
			"field": "vendor_code",
		})
	}

	vendor := model.Vendor{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
		VendorCode:     req.VendorCode,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	result := database.GetDB().Create(&vendor)
	if result.Error != nil {
		log.Error("Failed to create vendor",
			zap.String("name", req.Name),
			zap.String("vendor_code", req.VendorCode),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to create vendor",
		})
	}

	log.Info("Vendor created successfully",
		zap.Uint("id", vendor.ID),
		zap.String("name", vendor.Name),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusCreated, vendor)
}

// GetVendor retrieves a vendor by vendor code
func GetVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("get")

	code := c.Param("code")

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	return c.JSON(http.StatusOK, vendor)
}

// ListVendors retrieves all vendors with pagination
func ListVendors(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("list")

	// Parse query parameters for pagination
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	offset := (page - 1) * limit

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var vendors []model.Vendor
	result := database.GetDB().
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&vendors)

	if result.Error != nil {
		log.Error("Failed to retrieve vendors", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve vendors",
		})
	}

	// Count total vendors for pagination info
	var total int64
	database.GetDB().Model(&model.Vendor{}).Count(&total)

	return c.JSON(http.StatusOK, echo.Map{
		"vendors": vendors,
		"pagination": echo.Map{
			"current_page": page,
			"limit":        limit,
			"total":        total,
			"total_pages":  (int(total) + limit - 1) / limit,
		},
	})
}

// UpdateVendor updates an existing vendor
func UpdateVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("update")

	code := c.Param("code")

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.String("vendor_code", code), zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request data",
		})
	}

	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "name is required",
			"field": "name",
		})
	}

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found for update", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Check if the code is changed and if the new code is already taken
	if req.VendorCode != "" && req.VendorCode != vendor.VendorCode {
		var count int64
		database.GetDB().Model(&model.Vendor{}).
			Where("vendor_code = ? AND id != ?", req.VendorCode, vendor.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Vendor with this code already exists", zap.String("vendor_code", req.VendorCode))
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "Vendor with this code already exists",
				"field": "vendor_code",
			})
		}
		vendor.VendorCode = req.VendorCode
	}

	vendor.Name = req.Name
	vendor.ContactDetails = req.ContactDetails
	vendor.Address = req.Address

	// Track DB operations
	defer prometheus.TrackDBOperation("update")(time.Now())

	result = database.GetDB().Save(&vendor)
	if result.Error != nil {
		log.Error("Failed to update vendor",
			zap.String("vendor_code", code),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update vendor",
		})
	}

	log.Info("Vendor updated successfully",
		zap.Uint("id", vendor.ID),
		zap.String("vendor_code", vendor.VendorCode))
	return c.JSON(http.StatusOK, vendor)
}

// DeleteVendor deletes a vendor and detaches its purchase orders
func DeleteVendor(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("delete")

	code := c.Param("code")

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found for delete", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("delete")(time.Now())

	// Orders and history survive the vendor: vendor_id goes NULL, rows stay
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.PurchaseOrder{}).
			Where("vendor_id = ?", vendor.ID).
			Update("vendor_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.HistoricalPerformance{}).
			Where("vendor_id = ?", vendor.ID).
			Update("vendor_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&vendor).Error
	})
	if err != nil {
		log.Error("Failed to delete vendor",
			zap.String("vendor_code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to delete vendor",
		})
	}

	log.Info("Vendor deleted successfully",
		zap.Uint("id", vendor.ID),
		zap.String("vendor_code", code))
	return c.NoContent(http.StatusNoContent)
}

// GetVendorPerformance returns the vendor's live-computed performance
// metrics. The metrics are computed fresh from the current order set rather
// than read from the cached columns; both must agree.
func GetVendorPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("performance")

	code := c.Param("code")

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found for performance", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var orders []model.PurchaseOrder
	if err := database.GetDB().Where("vendor_id = ?", vendor.ID).Find(&orders).Error; err != nil {
		log.Error("Failed to load purchase orders",
			zap.String("vendor_code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to compute performance metrics",
		})
	}

	return c.JSON(http.StatusOK, performance.Compute(orders))
}

// SnapshotVendorPerformance appends the vendor's current cached metrics to
// the historical performance audit table
func SnapshotVendorPerformance(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("snapshot")

	code := c.Param("code")

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found for snapshot", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	snapshot := model.HistoricalPerformance{
		VendorID:            &vendor.ID,
		Date:                time.Now(),
		OnTimeDeliveryRate:  vendor.OnTimeDeliveryRate,
		QualityRatingAvg:    vendor.QualityRatingAvg,
		AverageResponseTime: vendor.AverageResponseTime,
		FulfillmentRate:     vendor.FulfillmentRate,
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := database.GetDB().Create(&snapshot).Error; err != nil {
		log.Error("Failed to record performance snapshot",
			zap.String("vendor_code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to record performance snapshot",
		})
	}

	log.Info("Performance snapshot recorded",
		zap.Uint("vendor_id", vendor.ID),
		zap.String("vendor_code", code))
	return c.JSON(http.StatusCreated, snapshot)
}

// ListVendorHistory lists the vendor's historical performance snapshots,
// newest first
func ListVendorHistory(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordVendorOperation("history")

	code := c.Param("code")

	var vendor model.Vendor
	result := database.GetDB().Where("vendor_code = ?", code).First(&vendor)
	if result.Error != nil {
		log.Warn("Vendor not found for history", zap.String("vendor_code", code))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Vendor not found",
		})
	}

	// Track DB operations
	defer prometheus.TrackDBOperation("query")(time.Now())

	var history []model.HistoricalPerformance
	if err := database.GetDB().
		Where("vendor_id = ?", vendor.ID).
		Order("date desc").
		Find(&history).Error; err != nil {
		log.Error("Failed to retrieve performance history",
			zap.String("vendor_code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve performance history",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"vendor_code": vendor.VendorCode,
		"history":     history,
	})
}
