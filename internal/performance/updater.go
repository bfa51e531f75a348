package performance

import (
	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// OnOrderSaved recomputes the owning vendor's cached metrics after a
// purchase order create or update. It must run on the same transaction
// handle as the order write, so the cached columns are consistent with the
// order state by the time the transaction commits.
//
// The fulfillment rate is refreshed on every write. When the post-write
// status is COMPLETED the delivery, quality and response time metrics are
// refreshed as well, all persisted in a single vendor update. A quality
// rating of exactly 0 does not trigger a quality recompute.
func OnOrderSaved(tx *gorm.DB, order *model.PurchaseOrder) error {
	if order.VendorID == nil {
		// Order is detached from any vendor, nothing to update.
		return nil
	}

	orders, err := vendorOrders(tx, *order.VendorID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"fulfillment_rate": FulfillmentRate(orders),
	}

	if order.Status == model.OrderStatusCompleted {
		updates["on_time_delivery_rate"] = OnTimeDeliveryRate(orders)

		if order.QualityRating != nil && *order.QualityRating != 0 {
			updates["quality_rating_avg"] = QualityRatingAverage(orders)
		}

		if order.AcknowledgmentDate != nil {
			updates["average_response_time"] = AverageResponseTime(orders)
		}
	}

	return saveVendorMetrics(tx, *order.VendorID, updates)
}

// OnOrderDeleted recomputes the owning vendor's fulfillment rate after a
// purchase order delete. The other three cached metrics keep their prior
// values; deletes have always been fulfillment-only in this system.
func OnOrderDeleted(tx *gorm.DB, order *model.PurchaseOrder) error {
	if order.VendorID == nil {
		return nil
	}
	return RecomputeFulfillment(tx, *order.VendorID)
}

// RecomputeFulfillment refreshes only the cached fulfillment rate for a
// vendor. Also used when an order is moved away from a vendor, which from
// that vendor's point of view is a delete.
func RecomputeFulfillment(tx *gorm.DB, vendorID uint) error {
	orders, err := vendorOrders(tx, vendorID)
	if err != nil {
		return err
	}

	return saveVendorMetrics(tx, vendorID, map[string]interface{}{
		"fulfillment_rate": FulfillmentRate(orders),
	})
}

func vendorOrders(tx *gorm.DB, vendorID uint) ([]model.PurchaseOrder, error) {
	var orders []model.PurchaseOrder
	if err := tx.Where("vendor_id = ?", vendorID).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func saveVendorMetrics(tx *gorm.DB, vendorID uint, updates map[string]interface{}) error {
	// Zero rows affected means the vendor row vanished; the order is simply
	// detached and there is nothing to cache.
	return tx.Model(&model.Vendor{}).Where("id = ?", vendorID).Updates(updates).Error
}
