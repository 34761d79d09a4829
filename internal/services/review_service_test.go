package services_test

import (
	"context"
	"sync"
	"testing"

	"tokoshop/internal/events"
	"tokoshop/internal/models"
	"tokoshop/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = models.Principal{ID: "admin", Roles: []models.Role{models.RoleAdmin}}

func TestReviewService_QualificationFollowsCompletedOrders(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)

	ok, err := s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.False(t, ok, "no orders")

	order := s.paidOrder(t, "user-1", p)
	ok, err = s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.False(t, ok, "processing orders do not qualify")

	_, err = s.review.CreateReview(ctx, "user-1", p, 5, nil)
	assert.ErrorIs(t, err, services.ErrNotQualified)

	for _, st := range []models.ShippingStatus{models.ShippingStatusPendingPickup, models.ShippingStatusShipped, models.ShippingStatusDelivered} {
		_, err = s.orderSvc.UpdateShippingStatus(ctx, order.ID, st)
		require.NoError(t, err)
	}

	ok, err = s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.review.IsQualified(ctx, "user-2", p)
	require.NoError(t, err)
	assert.False(t, ok)

	comment := "great"
	review, err := s.review.CreateReview(ctx, "user-1", p, 4, &comment)
	require.NoError(t, err)

	ok, err = s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.False(t, ok, "the only line has been reviewed")

	_, err = s.review.CreateReview(ctx, "user-1", p, 5, nil)
	assert.ErrorIs(t, err, services.ErrNotQualified)

	stored, err := s.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Items[0].ReviewID)
	assert.Equal(t, review.ID, *stored.Items[0].ReviewID)

	s.completedOrder(t, "user-1", p)
	ok, err = s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.True(t, ok, "a second completed order qualifies again")
}

func TestReviewService_RatingAverage(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)

	s.completedOrder(t, "user-1", p)
	s.completedOrder(t, "user-2", p)

	three, err := s.review.CreateReview(ctx, "user-1", p, 3, nil)
	require.NoError(t, err)
	_, err = s.review.CreateReview(ctx, "user-2", p, 5, nil)
	require.NoError(t, err)

	product, err := s.products.GetByID(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, product.Rating.ThreeStarCount)
	assert.Equal(t, 1, product.Rating.FiveStarCount)
	assert.Equal(t, 4.0, product.Rating.Average)
	assert.Len(t, product.ReviewIDs, 2)

	require.NoError(t, s.review.DeleteReview(ctx, three.ID, models.Principal{ID: "user-1"}))
	product, err = s.products.GetByID(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Rating.ThreeStarCount)
	assert.Equal(t, 5.0, product.Rating.Average)
	assert.NotContains(t, product.ReviewIDs, three.ID)
}

func TestReviewService_DeleteKeepsLineReviewed(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	order := s.completedOrder(t, "user-1", p)

	review, err := s.review.CreateReview(ctx, "user-1", p, 2, nil)
	require.NoError(t, err)
	require.NoError(t, s.review.DeleteReview(ctx, review.ID, models.Principal{ID: "user-1"}))

	_, err = s.reviews.GetByID(ctx, review.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	stored, err := s.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Items[0].ReviewID)
	assert.Equal(t, review.ID, *stored.Items[0].ReviewID)

	ok, err := s.review.IsQualified(ctx, "user-1", p)
	require.NoError(t, err)
	assert.False(t, ok, "one review ever per line")

	product, err := s.products.GetByID(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Rating.Count())
	assert.Equal(t, 0.0, product.Rating.Average)

	assert.Equal(t, []string{events.ReviewCreated, events.ReviewDeleted}, filterReviewEvents(s.published.types()))
}

func TestReviewService_DeletePermissions(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	s.completedOrder(t, "user-1", p)
	s.completedOrder(t, "user-1", p)

	first, err := s.review.CreateReview(ctx, "user-1", p, 4, nil)
	require.NoError(t, err)
	second, err := s.review.CreateReview(ctx, "user-1", p, 1, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, s.review.DeleteReview(ctx, first.ID, models.Principal{ID: "user-2"}), services.ErrForbidden)
	require.NoError(t, s.review.DeleteReview(ctx, first.ID, admin))
	require.NoError(t, s.review.DeleteReview(ctx, second.ID, models.Principal{ID: "user-1"}))
	assert.ErrorIs(t, s.review.DeleteReview(ctx, second.ID, admin), services.ErrNotFound)
}

func TestReviewService_Validation(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	s.completedOrder(t, "user-1", p)

	_, err := s.review.CreateReview(ctx, "user-1", p, 6, nil)
	assert.Error(t, err)
	_, err = s.review.CreateReview(ctx, "user-1", "missing", 5, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)

	product, err := s.products.GetByID(ctx, p)
	require.NoError(t, err)
	product.Status = models.ProductStatusDraft
	require.NoError(t, s.products.Update(ctx, product))
	_, err = s.review.CreateReview(ctx, "user-1", p, 5, nil)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestReviewService_ConcurrentReviewsClaimOneLine(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)
	s.completedOrder(t, "user-1", p)

	var wg sync.WaitGroup
	results := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.review.CreateReview(ctx, "user-1", p, 5, nil)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	product, err := s.products.GetByID(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, product.Rating.FiveStarCount)
}

func TestReviewService_ListByProduct(t *testing.T) {
	s := newShop(t)
	ctx := context.Background()
	p := s.addProduct(t, "10.00", 10)

	user := &models.User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	require.NoError(t, s.users.Create(ctx, user))
	s.completedOrder(t, user.ID, p)
	_, err := s.review.CreateReview(ctx, user.ID, p, 5, nil)
	require.NoError(t, err)

	views, err := s.review.ListByProduct(ctx, p)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Ada Lovelace", views[0].FullName)
	assert.Equal(t, 5, views[0].Rating)
}

func filterReviewEvents(types []string) []string {
	var out []string
	for _, typ := range types {
		if typ == events.ReviewCreated || typ == events.ReviewDeleted {
			out = append(out, typ)
		}
	}
	return out
}
