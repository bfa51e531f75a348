package model

import (
	"time"
)

// Vendor represents a supplier tracked with aggregate performance metrics.
//
// The four *Rate/*Avg/*Time columns are denormalized caches over the
// vendor's purchase orders. They are recomputed and persisted inside the
// same transaction as every purchase order write (see internal/performance),
// so they always match what the calculator would return for the current
// order set.
type Vendor struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"type:varchar(200);index;not null"`
	ContactDetails string    `json:"contact_details" gorm:"type:text"`
	Address        string    `json:"address" gorm:"type:text"`
	VendorCode     string    `json:"vendor_code" gorm:"type:varchar(200);uniqueIndex;not null"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Cached performance metrics
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate" gorm:"default:0"`
	QualityRatingAvg    float64 `json:"quality_rating_avg" gorm:"default:0"`
	AverageResponseTime float64 `json:"average_response_time" gorm:"default:0"`
	FulfillmentRate     float64 `json:"fulfillment_rate" gorm:"default:0"`
}
