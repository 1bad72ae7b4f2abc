package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a quantity of a product put up for sale. It is available until a
// client buys it; BoughtByID and BoughtDate are set together.
type Offer struct {
	ID           int64
	Quantity     decimal.Decimal
	ProductPhoto string
	ProductID    int64
	PostDate     time.Time
	BoughtByID   *int64
	BoughtBy     *Client
	BoughtDate   *time.Time
	Deleted      bool
	DeletedAt    *time.Time
}

// Sold reports whether a buyer has been recorded.
func (o Offer) Sold() bool {
	return o.BoughtByID != nil
}
