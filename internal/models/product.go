package models

import "time"

type Product struct {
	ID          string
	FarmerID    string
	Name        string
	Price       float64
	Quantity    int
	ImageURL    *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductListing is a product joined with its owner's display name.
type ProductListing struct {
	Product
	FarmerName string
}

// ProductPatch carries a partial update. Nil fields keep their stored value.
type ProductPatch struct {
	Name        *string
	Price       *float64
	Quantity    *int
	ImageURL    *string
	Description *string
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Quantity == nil && p.ImageURL == nil && p.Description == nil
}

// Apply merges the patch onto a copy of the product.
func (p ProductPatch) Apply(prod Product) Product {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Quantity != nil {
		prod.Quantity = *p.Quantity
	}
	if p.ImageURL != nil {
		v := *p.ImageURL
		prod.ImageURL = &v
	}
	if p.Description != nil {
		v := *p.Description
		prod.Description = &v
	}
	return prod
}
