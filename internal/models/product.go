package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus controls whether a product can be sold.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
)

// ProductRating holds star-bucket counters and their derived average.
type ProductRating struct {
	Average        float64 `json:"average"`
	OneStarCount   int     `json:"one_star_count"`
	TwoStarCount   int     `json:"two_star_count"`
	ThreeStarCount int     `json:"three_star_count"`
	FourStarCount  int     `json:"four_star_count"`
	FiveStarCount  int     `json:"five_star_count"`
}

func (r *ProductRating) bucket(stars int) (*int, error) {
	switch stars {
	case 1:
		return &r.OneStarCount, nil
	case 2:
		return &r.TwoStarCount, nil
	case 3:
		return &r.ThreeStarCount, nil
	case 4:
		return &r.FourStarCount, nil
	case 5:
		return &r.FiveStarCount, nil
	}
	return nil, fmt.Errorf("rating must be between 1 and 5, got %d", stars)
}

// Count returns the total number of ratings.
func (r ProductRating) Count() int {
	return r.OneStarCount + r.TwoStarCount + r.ThreeStarCount + r.FourStarCount + r.FiveStarCount
}

// ComputeAverage returns the weighted average; ok is false when there are no ratings.
func (r ProductRating) ComputeAverage() (avg float64, ok bool) {
	n := r.Count()
	if n == 0 {
		return 0, false
	}
	sum := r.OneStarCount + 2*r.TwoStarCount + 3*r.ThreeStarCount + 4*r.FourStarCount + 5*r.FiveStarCount
	return float64(sum) / float64(n), true
}

// Add records one rating of the given stars and recomputes the average.
func (r *ProductRating) Add(stars int) error {
	b, err := r.bucket(stars)
	if err != nil {
		return err
	}
	*b++
	r.recompute()
	return nil
}

// Remove reverses one rating of the given stars and recomputes the average.
func (r *ProductRating) Remove(stars int) error {
	b, err := r.bucket(stars)
	if err != nil {
		return err
	}
	if *b == 0 {
		return fmt.Errorf("no %d-star rating to remove", stars)
	}
	*b--
	r.recompute()
	return nil
}

func (r *ProductRating) recompute() {
	avg, ok := r.ComputeAverage()
	if !ok {
		r.Average = 0
		return
	}
	r.Average = avg
}

// Product represents a catalog entry.
type Product struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	SKU             string          `json:"sku" gorm:"uniqueIndex;type:varchar(64)" validate:"required,max=64"`
	Name            string          `json:"name" gorm:"index" validate:"required,min=3,max=100"`
	DescriptionHTML string          `json:"description_html" validate:"omitempty,max=5000"`
	ThumbnailURL    string          `json:"thumbnail_url" validate:"omitempty,url"`
	MediaURL        string          `json:"media_url" validate:"omitempty,url"`
	CategoryNames   []string        `json:"category_names" gorm:"serializer:json"`
	Price           decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Tags            []string        `json:"tags" gorm:"serializer:json"`
	ReviewIDs       []string        `json:"reviews" gorm:"serializer:json"`
	Rating          ProductRating   `json:"rating" gorm:"embedded;embeddedPrefix:rating_"`
	Stock           int             `json:"stock" validate:"gte=0"`
	Status          ProductStatus   `json:"status" gorm:"type:varchar(16)" validate:"omitempty,oneof=draft published"`
	Version         int64           `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Sellable reports whether qty units of the product can be put in a cart or order.
func (p *Product) Sellable(qty int) bool {
	return p.Status == ProductStatusPublished && p.Stock >= qty
}

// RemoveReview drops id from the product's review list.
func (p *Product) RemoveReview(id string) bool {
	for i, rid := range p.ReviewIDs {
		if rid == id {
			p.ReviewIDs = append(p.ReviewIDs[:i], p.ReviewIDs[i+1:]...)
			return true
		}
	}
	return false
}

// ProductSnapshot is a point-in-time read of the catalog fields checkout relies on.
type ProductSnapshot struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ThumbnailURL  string          `json:"thumbnail_url"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Status        ProductStatus   `json:"status"`
	CategoryNames []string        `json:"category_names"`
}

// Snapshot returns the catalog snapshot of p.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		ThumbnailURL:  p.ThumbnailURL,
		Price:         p.Price,
		Stock:         p.Stock,
		Status:        p.Status,
		CategoryNames: p.CategoryNames,
	}
}

// Sellable reports whether qty units are available according to the snapshot.
func (s ProductSnapshot) Sellable(qty int) bool {
	return s.Status == ProductStatusPublished && s.Stock >= qty
}
