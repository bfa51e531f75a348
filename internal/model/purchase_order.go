package model

import (
	"time"

	"gorm.io/datatypes"
)

// Purchase order status values
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCanceled  = "CANCELED"
)

// ValidOrderStatus reports whether s is a known purchase order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCanceled:
		return true
	}
	return false
}

// PurchaseOrder represents a single order placed with a vendor.
//
// VendorID is nullable: deleting a vendor detaches its orders rather than
// deleting them.
type PurchaseOrder struct {
	ID       uint    `json:"id" gorm:"primaryKey"`
	PONumber string  `json:"po_number" gorm:"type:varchar(200);uniqueIndex;not null"`
	VendorID *uint   `json:"vendor_id" gorm:"index"`
	Vendor   *Vendor `json:"-" gorm:"constraint:OnDelete:SET NULL"`

	OrderDate    time.Time `json:"order_date"`
	DeliveryDate time.Time `json:"delivery_date"`

	Items    datatypes.JSON `json:"items" gorm:"type:json"`
	Quantity uint           `json:"quantity" gorm:"default:0"`
	Status   string         `json:"status" gorm:"type:varchar(100);default:'PENDING';index"`

	QualityRating *float64 `json:"quality_rating"`

	IssueDate          time.Time  `json:"issue_date"`
	AcknowledgmentDate *time.Time `json:"acknowledgment_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
