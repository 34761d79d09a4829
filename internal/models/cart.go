package models

import "time"

// CartItem is a single product line in a cart.
type CartItem struct {
	ProductID string `json:"product_id" bson:"product_id"`
	Quantity  int    `json:"quantity" bson:"quantity"`
}

// Cart is a user's mutable pre-purchase collection of lines.
type Cart struct {
	ID        string     `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string     `json:"user_id" bson:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Items     []CartItem `json:"items" bson:"items" gorm:"serializer:json"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// Line returns the line for productID, or nil.
func (c *Cart) Line(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// SetLine replaces the quantity of an existing line or appends a new one.
func (c *Cart) SetLine(productID string, qty int) {
	if line := c.Line(productID); line != nil {
		line.Quantity = qty
		return
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty})
}

// RemoveLine deletes the line for productID and reports whether it existed.
func (c *Cart) RemoveLine(productID string) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ProductIDs returns the product ids of every line.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}
