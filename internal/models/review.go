package models

import "time"

// Review is a user's rating of a product they bought.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"user_id" gorm:"index;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"index;type:varchar(36)"`
	Rating    int       `json:"rating" validate:"gte=1,lte=5"`
	Comment   *string   `json:"comment,omitempty" validate:"omitempty,max=2000"`
	CreatedAt time.Time `json:"created_at"`
}
