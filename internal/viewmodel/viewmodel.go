// Package viewmodel holds the transport shapes returned by the API and the
// pure projections that build them from domain entities.
package viewmodel

import (
	"time"

	"biomarket/internal/domain"
)

// ProductModel is the public view of a product.
type ProductModel struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DeletedProductModel is returned by the delete operation.
type DeletedProductModel struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Price     float64    `json:"price"`
	FarmID    int64      `json:"farmId"`
	Deleted   bool       `json:"deleted"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type ClientModel struct {
	Account   string `json:"account"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// OfferModel covers both offer views. The basic view leaves ProductID,
// BoughtBy and BoughtDate empty.
type OfferModel struct {
	ID           int64        `json:"id"`
	ProductID    int64        `json:"productId,omitempty"`
	Quantity     float64      `json:"quantity"`
	ProductPhoto string       `json:"productPhoto"`
	BoughtBy     *ClientModel `json:"boughtBy,omitempty"`
	PostDate     time.Time    `json:"postDate"`
	BoughtDate   *time.Time   `json:"boughtDate,omitempty"`
}

type FarmModel struct {
	ID      int64  `json:"id"`
	Account string `json:"account"`
	Name    string `json:"name"`
}

func FromProduct(p domain.Product) ProductModel {
	return ProductModel{
		ID:    p.ID,
		Name:  p.Name,
		Price: p.Price.InexactFloat64(),
	}
}

// FromProducts never returns nil so empty lists encode as [].
func FromProducts(products []domain.Product) []ProductModel {
	out := make([]ProductModel, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return out
}

func FromDeletedProduct(p domain.Product) DeletedProductModel {
	return DeletedProductModel{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.InexactFloat64(),
		FarmID:    p.FarmID,
		Deleted:   p.Deleted,
		DeletedAt: p.DeletedAt,
	}
}

func FromClient(c domain.Client) ClientModel {
	return ClientModel{
		Account:   c.Account,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// FromOffer is the basic offer view.
func FromOffer(o domain.Offer) OfferModel {
	return OfferModel{
		ID:           o.ID,
		Quantity:     o.Quantity.InexactFloat64(),
		ProductPhoto: o.ProductPhoto,
		PostDate:     o.PostDate,
	}
}

// FromOfferWithBuyer is the extended view: the basic fields plus buyer,
// purchase date and product id.
func FromOfferWithBuyer(o domain.Offer) OfferModel {
	m := FromOffer(o)
	m.ProductID = o.ProductID
	m.BoughtDate = o.BoughtDate
	if o.BoughtBy != nil {
		buyer := FromClient(*o.BoughtBy)
		m.BoughtBy = &buyer
	}
	return m
}

func FromOffers(offers []domain.Offer, project func(domain.Offer) OfferModel) []OfferModel {
	out := make([]OfferModel, 0, len(offers))
	for _, o := range offers {
		out = append(out, project(o))
	}
	return out
}

func FromFarm(f domain.Farm) FarmModel {
	return FarmModel{ID: f.ID, Account: f.Account, Name: f.Name}
}
