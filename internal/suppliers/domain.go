// Package suppliers keeps the supplier directory and the lorries registered
// against each supplier.
package suppliers

// Lorry is one registered vehicle plate.
type Lorry struct {
	ID         int64  `json:"id"`
	LorryPlate string `json:"lorryPlate"`
}

// Supplier is one seller the business buys durians from.
type Supplier struct {
	ID            int64   `json:"id"`
	SupplierName  string  `json:"supplierName"`
	ContactNumber string  `json:"contactNumber"`
	Address       string  `json:"address"`
	Lorries       []Lorry `json:"lorries"`
}
