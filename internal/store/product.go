package store

import (
	"time"
)

// DateFormat is the only accepted layout for expiration dates. Lexicographic
// order on this layout matches chronological order, which the sorted List
// contract relies on.
const DateFormat = "2006-01-02"

// Categories is the closed set of product categories.
var Categories = []string{"Gaseosas", "Aguas", "Chocolates", "Alfajores", "Golosinas"}

// Product is a perishable item tracked by the service. Records are immutable
// once created; there is no update operation.
type Product struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	ExpirationDate string    `json:"expiration_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValidCategory reports whether category belongs to the closed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ParseDate parses a YYYY-MM-DD expiration date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateFormat, s)
}
