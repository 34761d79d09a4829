package models

import "time"

// Category groups products. Products refer to categories by name.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(64)" validate:"required,min=1,max=64"`
	CreatedAt time.Time `json:"created_at"`
}
