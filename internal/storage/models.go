package storage

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// Kind is the polarity of a transaction.
type Kind string

const (
	KindDebit  Kind = "debit"
	KindCredit Kind = "credit"
)

// Valid reports whether k is debit or credit.
func (k Kind) Valid() bool {
	return k == KindDebit || k == KindCredit
}

// Category is a named, colored grouping of transactions.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Color     string    `gorm:"not null" json:"color"`
	CreatedAt time.Time `json:"-"`
}

// Transaction represents a stored statement line. Amount is always the
// absolute value; the sign lives in Kind.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Date        time.Time       `gorm:"type:date;index;not null" json:"date"`
	Description string          `gorm:"index;not null" json:"description"`
	SearchText  string          `gorm:"index;not null;default:''" json:"-"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Kind        Kind            `gorm:"size:8;not null" json:"kind"`
	RawText     *string         `json:"raw_text,omitempty"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	OwnerID     *uint           `gorm:"index" json:"owner_id,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// BeforeSave keeps SearchText in step with Description.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.SearchText = Fold(t.Description)
	return nil
}

// Fold applies Unicode case folding. Stored search text and lookups must
// both go through it so that matching ignores case beyond ASCII.
func Fold(s string) string {
	return cases.Fold().String(s)
}
