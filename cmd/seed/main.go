// Command seed populates the database with fake vendors and purchase orders
// for local development. Cached vendor metrics are recomputed through the
// same updater path the API uses, so seeded data is consistent.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"vendor-service/internal/model"
	"vendor-service/internal/performance"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	vendorCount = flag.Int("vendors", 50, "number of vendors to create")
	orderCount  = flag.Int("orders", 500, "number of purchase orders to create")
)

var statuses = []string{
	model.OrderStatusPending,
	model.OrderStatusCompleted,
	model.OrderStatusCanceled,
}

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}

	db := database.GetDB()

	vendorIDs := make([]uint, 0, *vendorCount)
	for i := 0; i < *vendorCount; i++ {
		vendor := model.Vendor{
			Name:           faker.Name(),
			ContactDetails: faker.Phonenumber(),
			Address:        faker.GetRealAddress().Address,
			VendorCode:     uuid.New().String(),
		}
		if err := db.Create(&vendor).Error; err != nil {
			log.Fatal("Failed to create vendor", zap.Error(err))
		}
		vendorIDs = append(vendorIDs, vendor.ID)
	}
	log.Info("Seeded vendors", zap.Int("count", len(vendorIDs)))

	for i := 0; i < *orderCount; i++ {
		order := fakeOrder(vendorIDs)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(order).Error; err != nil {
				return err
			}
			return performance.OnOrderSaved(tx, order)
		})
		if err != nil {
			log.Fatal("Failed to create purchase order", zap.Error(err))
		}
	}
	log.Info("Seeded purchase orders", zap.Int("count", *orderCount))
}

func fakeOrder(vendorIDs []uint) *model.PurchaseOrder {
	vendorID := vendorIDs[rand.Intn(len(vendorIDs))]

	issue := time.Now().Add(-time.Duration(rand.Intn(90*24)) * time.Hour)
	ack := issue.Add(time.Duration(rand.Intn(72)+1) * time.Hour)
	delivery := issue.Add(time.Duration(rand.Intn(14*24)) * time.Hour)

	items, _ := json.Marshal([]map[string]interface{}{
		{
			"name":     faker.Word(),
			"quantity": rand.Intn(100) + 1,
			"unit":     "pcs",
		},
	})

	order := &model.PurchaseOrder{
		PONumber:           fmt.Sprintf("PO-%s", uuid.New().String()),
		VendorID:           &vendorID,
		OrderDate:          issue,
		DeliveryDate:       delivery,
		Items:              datatypes.JSON(items),
		Quantity:           uint(rand.Intn(100) + 1),
		Status:             statuses[rand.Intn(len(statuses))],
		IssueDate:          issue,
		AcknowledgmentDate: &ack,
	}

	if order.Status == model.OrderStatusCompleted && rand.Intn(4) > 0 {
		rating := float64(rand.Intn(9)+2) / 2 // 1.0 .. 5.0
		order.QualityRating = &rating
	}

	return order
}
