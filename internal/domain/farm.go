package domain

import "time"

// Farm is owned by exactly one account.
type Farm struct {
	ID        int64     `json:"id"`
	Account   string    `json:"account"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
