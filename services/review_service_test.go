package services_test

import (
	"context"
	"testing"

	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitReview(t *testing.T) {
	b := newBakery(t)
	ctx := context.Background()
	order := b.deliveredOrder(t)

	review, err := b.reviews.SubmitReview(ctx, as(b.customer), order.ID, 5, "  Perfect crumb  ")
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "Perfect crumb", review.Comment)
	assert.True(t, review.IsVerifiedPurchase)
	require.NotNil(t, review.JuniorBakerID)
	assert.Equal(t, b.junior.ID, *review.JuniorBakerID)
	require.NotNil(t, review.MainBakerID)
	assert.Equal(t, b.mainBaker.ID, *review.MainBakerID)

	_, err = b.reviews.SubmitReview(ctx, as(b.customer), order.ID, 4, "Changed my mind")
	assert.ErrorIs(t, err, services.ErrDuplicateReview)
}

func TestSubmitReview_Rejections(t *testing.T) {
	b := newBakery(t)
	ctx := context.Background()
	delivered := b.deliveredOrder(t)
	open := b.assignedOrder(t)

	tests := []struct {
		name    string
		caller  services.Principal
		orderID uint
		rating  int
		wantErr error
	}{
		{"rating below range", as(b.customer), delivered.ID, 0, services.ErrInvalidRating},
		{"rating above range", as(b.customer), delivered.ID, 6, services.ErrInvalidRating},
		{"order not delivered", as(b.customer), open.ID, 5, services.ErrInvalidState},
		{"not the ordering customer", as(b.mainBaker), delivered.ID, 5, services.ErrInvalidState},
		{"unknown order", as(b.customer), 9999, 5, services.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.reviews.SubmitReview(ctx, tt.caller, tt.orderID, tt.rating, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetBakerRating(t *testing.T) {
	b := newBakery(t)
	ctx := context.Background()

	rating, err := b.reviews.GetBakerRating(ctx, b.junior.ID)
	require.NoError(t, err)
	assert.Zero(t, rating.Average)
	assert.Zero(t, rating.Count)

	for _, stars := range []int{4, 5} {
		order := b.deliveredOrder(t)
		_, err := b.reviews.SubmitReview(ctx, as(b.customer), order.ID, stars, "")
		require.NoError(t, err)
	}

	rating, err = b.reviews.GetBakerRating(ctx, b.junior.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, rating.Average)
	assert.Equal(t, int64(2), rating.Count)

	order := b.deliveredOrder(t)
	_, err = b.reviews.SubmitReview(ctx, as(b.customer), order.ID, 4, "")
	require.NoError(t, err)

	rating, err = b.reviews.GetBakerRating(ctx, b.mainBaker.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.33, rating.Average)
	assert.Equal(t, int64(3), rating.Count)

	other, err := b.reviews.GetBakerRating(ctx, b.otherBaker.ID)
	require.NoError(t, err)
	assert.Zero(t, other.Count)

	reviews, err := b.reviews.ListReviewsForBaker(ctx, b.junior.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, order.ID, reviews[0].OrderID, "newest first")
	require.NotNil(t, reviews[0].User)
	assert.Equal(t, b.customer.ID, reviews[0].User.ID)
}
