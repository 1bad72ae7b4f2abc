package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	FarmID    int64           `json:"farmId"`
	Deleted   bool            `json:"deleted"`
	DeletedAt *time.Time      `json:"deletedAt,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
