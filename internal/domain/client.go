package domain

import "time"

type Client struct {
	ID        int64     `json:"id"`
	Account   string    `json:"account"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}
