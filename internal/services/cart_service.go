package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tokoshop/internal/metrics"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 100
)

// CartLine is a cart line joined with the live catalog.
type CartLine struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	ThumbnailURL  string          `json:"thumbnail_url,omitempty"`
	CategoryNames []string        `json:"category_names,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// CartView is what a cart read returns. Pruned lists the product ids that
// were no longer sellable and have been removed from the stored cart.
type CartView struct {
	CartID     string          `json:"cart_id,omitempty"`
	Items      []CartLine      `json:"items"`
	TotalItems int             `json:"total_items"`
	Amount     decimal.Decimal `json:"amount"`
	Pruned     []string        `json:"pruned,omitempty"`
}

// CartService handles business logic related to carts.
type CartService struct {
	carts   repositories.CartRepository
	catalog Catalog
	metrics *metrics.Metrics
}

// NewCartService creates a new CartService.
func NewCartService(carts repositories.CartRepository, catalog Catalog, m *metrics.Metrics) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		metrics: m,
	}
}

// SetLineQuantity sets the quantity of productID in the user's cart,
// creating the cart or the line as needed.
func (s *CartService) SetLineQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty < MinLineQuantity || qty > MaxLineQuantity {
		return ErrInvalidQuantity
	}

	snap, err := s.catalog.Snapshot(ctx, []string{productID})
	if err != nil {
		return err
	}
	if p, ok := snap[productID]; !ok || !p.Sellable(qty) {
		return fmt.Errorf("%w: product %s", ErrProductUnavailable, productID)
	}

	// A concurrent first add for the same user loses the unique user index;
	// the second attempt then finds the cart the winner created.
	for attempt := 0; attempt < 2; attempt++ {
		cart, err := s.carts.GetByUser(ctx, userID)
		if errors.Is(err, ErrNotFound) {
			cart = &models.Cart{UserID: userID}
		} else if err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		cart.SetLine(productID, qty)
		err = s.carts.Save(ctx, cart)
		if errors.Is(err, repositories.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save cart: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to save cart for user %s: %w", userID, repositories.ErrDuplicateKey)
}

// RemoveLine removes productID from the user's cart. The cart is deleted once
// it has no lines left.
func (s *CartService) RemoveLine(ctx context.Context, userID, productID string) error {
	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	if !cart.RemoveLine(productID) {
		return nil
	}
	if len(cart.Items) == 0 {
		return s.carts.Delete(ctx, cart)
	}
	return s.carts.Save(ctx, cart)
}

// Read returns the user's cart joined with the live catalog. Lines that can
// no longer be bought are pruned from the stored cart before returning.
// A user without a cart gets an empty view.
func (s *CartService) Read(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &CartView{Items: []CartLine{}, Amount: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.view(ctx, cart)
}

// view prices cart against the catalog and writes back the pruned cart when
// any line was dropped.
func (s *CartService) view(ctx context.Context, cart *models.Cart) (*CartView, error) {
	snap, err := s.catalog.Snapshot(ctx, cart.ProductIDs())
	if err != nil {
		return nil, err
	}

	v := &CartView{CartID: cart.ID, Items: []CartLine{}, Amount: decimal.Zero}
	kept := cart.Items[:0:0]
	for _, item := range cart.Items {
		p, ok := snap[item.ProductID]
		if !ok || !p.Sellable(item.Quantity) {
			v.Pruned = append(v.Pruned, item.ProductID)
			continue
		}
		kept = append(kept, item)
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		v.Items = append(v.Items, CartLine{
			ProductID:     p.ID,
			Name:          p.Name,
			ThumbnailURL:  p.ThumbnailURL,
			CategoryNames: p.CategoryNames,
			Price:         p.Price,
			Quantity:      item.Quantity,
			Subtotal:      subtotal,
		})
		v.TotalItems += item.Quantity
		v.Amount = v.Amount.Add(subtotal)
	}

	if len(v.Pruned) == 0 {
		return v, nil
	}

	log.Printf("Pruning %d unavailable line(s) from cart %s: %v", len(v.Pruned), cart.ID, v.Pruned)
	s.metrics.ObservePruned(len(v.Pruned))
	cart.Items = kept
	if len(kept) == 0 {
		err = s.carts.Delete(ctx, cart)
		v.CartID = ""
	} else {
		err = s.carts.Save(ctx, cart)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prune cart %s: %w", cart.ID, err)
	}
	return v, nil
}
