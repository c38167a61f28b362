// Package purchasing manages purchase orders bought from suppliers: creation,
// nested updates through the order engine, invoice images and the outstanding
// listing used to chase unpaid orders.
package purchasing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase statuses. CANCELLED orders drop out of every report but remain
// editable for corrections.
const (
	StatusOutstanding = "OUTSTANDING"
	StatusPaid        = "PAID"
	StatusCancelled   = "CANCELLED"
)

// Purchase is the order header row.
type Purchase struct {
	ID             int64     `json:"id"`
	PurchaseName   string    `json:"purchaseName"`
	SupplierID     *int64    `json:"supplierId"`
	LorryPlate     string    `json:"lorryPlate"`
	PurchaseDate   time.Time `json:"purchaseDate"`
	PurchaseStatus string    `json:"purchaseStatus"`
	Remark         string    `json:"remark"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Line is one purchased variety under an order.
type Line struct {
	ID                 int64           `json:"id"`
	PurchaseID         int64           `json:"purchaseId"`
	DurianVarietyID    *int64          `json:"durianVarietyId"`
	PricePerKg         decimal.Decimal `json:"pricePerKg"`
	KgPurchased        decimal.Decimal `json:"kgPurchased"`
	TotalPurchasePrice decimal.Decimal `json:"totalPurchasePrice"`
}

// Bucket is one weighed basket under a line.
type Bucket struct {
	ID int64           `json:"id"`
	Kg decimal.Decimal `json:"kg"`
}

// LineView is a line plus its buckets, as served by the listings.
type LineView struct {
	Line
	Buckets []Bucket `json:"buckets"`
}

// OrderView is a full purchase order as served by the listings. Invoice
// images are inlined base64 so clients render them without a second trip.
type OrderView struct {
	Purchase
	SupplierName string     `json:"supplierName"`
	PurchaseInfo []LineView `json:"purchaseInfo"`
	Invoices     []string   `json:"invoices"`
}
