// Package varieties keeps the durian variety catalogue. Varieties are
// upserted by code so repeated imports never duplicate entries.
package varieties

// Variety is one catalogued durian variety.
type Variety struct {
	ID         int64  `json:"id"`
	DurianCode string `json:"durianCode"`
	DurianName string `json:"durianName"`
}
