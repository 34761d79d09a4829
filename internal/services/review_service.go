package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tokoshop/internal/events"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"

	"github.com/google/uuid"
)

// ReviewView is a review as shown on a product page.
type ReviewView struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewService gates reviews on completed purchases and maintains product ratings.
type ReviewService struct {
	reviews   repositories.ReviewRepository
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	users     repositories.UserRepository
	publisher events.Publisher
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	reviews repositories.ReviewRepository,
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	users repositories.UserRepository,
	publisher events.Publisher,
) *ReviewService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &ReviewService{
		reviews:   reviews,
		orders:    orders,
		products:  products,
		users:     users,
		publisher: publisher,
	}
}

// qualifyingOrders returns the ids of userID's completed orders that still
// have an unreviewed line for productID.
func (s *ReviewService) qualifyingOrders(ctx context.Context, userID, productID string) ([]string, error) {
	completed, err := s.orders.ListByUserAndStatus(ctx, userID, models.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed orders: %w", err)
	}
	var ids []string
	for i := range completed {
		if completed[i].UnreviewedItem(productID) != nil {
			ids = append(ids, completed[i].ID)
		}
	}
	return ids, nil
}

// IsQualified reports whether userID has a completed order with an
// unreviewed line for productID.
func (s *ReviewService) IsQualified(ctx context.Context, userID, productID string) (bool, error) {
	ids, err := s.qualifyingOrders(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return len(ids) > 0, nil
}

// CreateReview records a review for a product the user bought. The order
// line it reviews is claimed first with a conditional write, so two
// concurrent reviews cannot both use the same line.
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID string, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductStatusPublished {
		return nil, fmt.Errorf("product with ID %s %w", productID, ErrNotFound)
	}

	review := &models.Review{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}

	orderID, err := s.claimLine(ctx, userID, productID, review.ID)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		log.Printf("Review %s claimed a line on order %s but could not be stored: %v", review.ID, orderID, err)
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	err = retryOnConflict("product "+productID, func() error {
		p, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := p.Rating.Add(rating); err != nil {
			return err
		}
		p.ReviewIDs = append(p.ReviewIDs, review.ID)
		return s.products.Update(ctx, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update rating of product %s: %w", productID, err)
	}

	log.Printf("User %s reviewed product %s (%d stars) via order %s", userID, productID, rating, orderID)
	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ReviewCreated,
		OrderID:   orderID,
		UserID:    userID,
		ProductID: productID,
		Data:      map[string]string{"review_id": review.ID},
	})
	return review, nil
}

// claimLine sets reviewID on the first unreviewed line for productID across
// the user's completed orders and returns the order id.
func (s *ReviewService) claimLine(ctx context.Context, userID, productID, reviewID string) (string, error) {
	candidates, err := s.qualifyingOrders(ctx, userID, productID)
	if err != nil {
		return "", err
	}
	for _, orderID := range candidates {
		claimed := false
		err := retryOnConflict("order "+orderID, func() error {
			order, err := s.orders.GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			if order.UserID != userID || order.Status != models.OrderStatusCompleted {
				return nil
			}
			line := order.UnreviewedItem(productID)
			if line == nil {
				return nil
			}
			id := reviewID
			line.ReviewID = &id
			if err := s.orders.Update(ctx, order); err != nil {
				return err
			}
			claimed = true
			return nil
		})
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		if claimed {
			return orderID, nil
		}
	}
	return "", ErrNotQualified
}

// DeleteReview removes a review and reverses its effect on the product
// rating. The order line keeps its review id, so it cannot be reviewed again.
func (s *ReviewService) DeleteReview(ctx context.Context, id string, principal models.Principal) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != principal.ID && !principal.IsAdmin() {
		return ErrForbidden
	}

	err = retryOnConflict("product "+review.ProductID, func() error {
		p, err := s.products.GetByID(ctx, review.ProductID)
		if err != nil {
			return err
		}
		if !p.RemoveReview(review.ID) {
			return nil
		}
		if err := p.Rating.Remove(review.Rating); err != nil {
			return err
		}
		return s.products.Update(ctx, p)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to update rating of product %s: %w", review.ProductID, err)
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:      events.ReviewDeleted,
		UserID:    review.UserID,
		ProductID: review.ProductID,
		Data:      map[string]string{"review_id": review.ID},
	})
	return nil
}

// ListByProduct returns the reviews of a product with their authors' names.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]ReviewView, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	views := make([]ReviewView, 0, len(reviews))
	for _, r := range reviews {
		v := ReviewView{
			ID:        r.ID,
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
		if user, err := s.users.GetByID(ctx, r.UserID); err == nil {
			v.FullName = user.FullName()
			v.ThumbnailURL = user.ThumbnailURL
		}
		views = append(views, v)
	}
	return views, nil
}
