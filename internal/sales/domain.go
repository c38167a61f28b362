// Package sales manages sales orders sold to buyer companies: creation,
// nested updates through the order engine, invoice images and the
// outstanding listing used to chase unpaid buyers.
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sales statuses. Sales complete rather than get paid, hence COMPLETED where
// purchasing uses PAID.
const (
	StatusOutstanding = "OUTSTANDING"
	StatusCompleted   = "COMPLETED"
	StatusCancelled   = "CANCELLED"
)

// Sale is the order header row.
type Sale struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"companyName"`
	SalesDate   time.Time `json:"salesDate"`
	SalesStatus string    `json:"salesStatus"`
	Remark      string    `json:"remark"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Line is one sold variety under an order.
type Line struct {
	ID              int64           `json:"id"`
	SalesID         int64           `json:"salesId"`
	DurianVarietyID *int64          `json:"durianVarietyId"`
	PricePerKg      decimal.Decimal `json:"pricePerKg"`
	KgSales         decimal.Decimal `json:"kgSales"`
	TotalSalesValue decimal.Decimal `json:"totalSalesValue"`
}

// Bucket is one weighed basket under a line. KgSales is the resold portion.
type Bucket struct {
	ID      int64           `json:"id"`
	Kg      decimal.Decimal `json:"kg"`
	KgSales decimal.Decimal `json:"kgSales"`
}

// LineView is a line plus its buckets, as served by the listings.
type LineView struct {
	Line
	Buckets []Bucket `json:"buckets"`
}

// OrderView is a full sales order as served by the listings.
type OrderView struct {
	Sale
	SalesInfo []LineView `json:"salesInfo"`
	Invoices  []string   `json:"invoices"`
}
