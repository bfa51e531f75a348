package model

import (
	"time"
)

// HistoricalPerformance is an append-only snapshot of a vendor's cached
// performance metrics at a point in time. Rows are only ever inserted,
// via the snapshot endpoint.
type HistoricalPerformance struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	VendorID *uint     `json:"vendor_id" gorm:"index"`
	Vendor   *Vendor   `json:"-" gorm:"constraint:OnDelete:SET NULL"`
	Date     time.Time `json:"date"`

	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate" gorm:"default:0"`
	QualityRatingAvg    float64 `json:"quality_rating_avg" gorm:"default:0"`
	AverageResponseTime float64 `json:"average_response_time" gorm:"default:0"`
	FulfillmentRate     float64 `json:"fulfillment_rate" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
}
