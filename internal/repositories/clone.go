package repositories

import (
	"maps"
	"slices"

	"tokoshop/internal/models"
)

// The in-memory repositories hand out copies so callers never alias stored state.

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	for i, item := range o.Items {
		if item.ReviewID != nil {
			id := *item.ReviewID
			o.Items[i].ReviewID = &id
		}
	}
	o.Payments = slices.Clone(o.Payments)
	for i, p := range o.Payments {
		o.Payments[i].Metadata = maps.Clone(p.Metadata)
		if p.ReferenceID != nil {
			ref := *p.ReferenceID
			o.Payments[i].ReferenceID = &ref
		}
	}
	if o.Shipping.TrackingNumber != nil {
		tn := *o.Shipping.TrackingNumber
		o.Shipping.TrackingNumber = &tn
	}
	if o.ExpireDate != nil {
		exp := *o.ExpireDate
		o.ExpireDate = &exp
	}
	return o
}

func cloneProduct(p models.Product) models.Product {
	p.CategoryNames = slices.Clone(p.CategoryNames)
	p.Tags = slices.Clone(p.Tags)
	p.ReviewIDs = slices.Clone(p.ReviewIDs)
	return p
}

func cloneCart(c models.Cart) models.Cart {
	c.Items = slices.Clone(c.Items)
	return c
}

func cloneUser(u models.User) models.User {
	u.Roles = slices.Clone(u.Roles)
	return u
}
