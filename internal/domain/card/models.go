package card

import (
	"errors"
	"time"

	"fatura/internal/domain/money"
)

// Domain errors
var (
	ErrCardNotFound = errors.New("credit card not found")
	ErrForbidden    = errors.New("access forbidden")
)

// Card is the billing configuration of a credit card. This engine reads
// the closing/due days and limits, and writes available_limit; everything
// else about the card belongs to account management.
type Card struct {
	ID             string      `json:"id"`
	UserID         int64       `json:"userId"`
	Name           string      `json:"name"`
	ClosingDay     int         `json:"closingDay"` // 1-31, statement close
	DueDay         int         `json:"dueDay"`     // 1-31, payment due
	CreditLimit    money.Cents `json:"creditLimit"`
	AvailableLimit money.Cents `json:"availableLimit"`
	IsActive       bool        `json:"isActive"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
