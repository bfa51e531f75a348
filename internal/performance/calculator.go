// Package performance computes the derived vendor performance metrics and
// keeps the cached columns on the vendor row in sync with purchase order
// writes.
//
// The calculator functions are pure: they take the vendor's loaded order set
// and return a value, so recomputing twice without an intervening write
// always yields the same result.
package performance

import (
	"math"

	"vendor-service/internal/model"
)

// Metrics is the live-computed performance payload for a vendor.
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfilment_rate"`
}

// Compute bundles the four metric calculations over one order set.
func Compute(orders []model.PurchaseOrder) Metrics {
	return Metrics{
		OnTimeDeliveryRate:  OnTimeDeliveryRate(orders),
		QualityRatingAvg:    QualityRatingAverage(orders),
		AverageResponseTime: AverageResponseTime(orders),
		FulfillmentRate:     FulfillmentRate(orders),
	}
}

// OnTimeDeliveryRate returns the percentage of completed orders delivered no
// later than their acknowledgment date, rounded to two decimals. Returns 0
// when the vendor has no completed orders.
func OnTimeDeliveryRate(orders []model.PurchaseOrder) float64 {
	var completed, onTime int
	for _, o := range orders {
		if o.Status != model.OrderStatusCompleted {
			continue
		}
		completed++
		if o.AcknowledgmentDate != nil && !o.DeliveryDate.After(*o.AcknowledgmentDate) {
			onTime++
		}
	}

	if completed == 0 {
		return 0
	}

	return round2(float64(onTime) / float64(completed) * 100)
}

// QualityRatingAverage returns the arithmetic mean of the quality ratings of
// completed orders that carry one. The mean is returned unrounded. Returns 0
// when no completed order has a rating.
func QualityRatingAverage(orders []model.PurchaseOrder) float64 {
	var sum float64
	var count int
	for _, o := range orders {
		if o.Status != model.OrderStatusCompleted || o.QualityRating == nil {
			continue
		}
		sum += *o.QualityRating
		count++
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

// AverageResponseTime returns the mean time in seconds between issue and
// acknowledgment across all acknowledged orders, regardless of status.
// Returns 0 when no order has been acknowledged.
func AverageResponseTime(orders []model.PurchaseOrder) float64 {
	var total float64
	var count int
	for _, o := range orders {
		if o.AcknowledgmentDate == nil {
			continue
		}
		total += o.AcknowledgmentDate.Sub(o.IssueDate).Seconds()
		count++
	}

	if count == 0 {
		return 0
	}

	return total / float64(count)
}

// FulfillmentRate returns the percentage of all orders that reached COMPLETED
// status, rounded to two decimals. Returns 0 when the vendor has no orders.
func FulfillmentRate(orders []model.PurchaseOrder) float64 {
	total := len(orders)
	if total == 0 {
		return 0
	}

	var fulfilled int
	for _, o := range orders {
		if o.Status == model.OrderStatusCompleted {
			fulfilled++
		}
	}

	return round2(float64(fulfilled) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
