package entity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction represents a stored financial transaction
type Transaction struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// IsValidID reports whether id is a 24-character hexadecimal object identifier
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NormalizeID returns the canonical lower-case spelling of an object identifier.
// Hex digits are case-insensitive, so both spellings name the same transaction.
func NormalizeID(id string) string {
	return strings.ToLower(id)
}

// Apply replaces the mutable fields of the transaction, leaving the ID untouched
func (t *Transaction) Apply(fields Fields) {
	t.Amount = fields.Amount
	t.Date = fields.Date
	t.Description = fields.Description
}

// Fields holds the mutable part of a transaction
type Fields struct {
	Amount      float64
	Date        time.Time
	Description string
}
