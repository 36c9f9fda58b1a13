package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BakerRating aggregates the reviews of the orders a baker worked on
type BakerRating struct {
	BakerID uint    `json:"baker_id"`
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// ReviewService stores order reviews and computes baker ratings
type ReviewService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// NewReviewService creates a ReviewService
func NewReviewService(db *gorm.DB, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{db: db, log: log}
}

// SubmitReview rates a delivered order. Only the ordering customer may review, once.
func (s *ReviewService) SubmitReview(ctx context.Context, p Principal, orderID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order.UserID != p.UserID || order.Status != models.OrderStatusDelivered {
		return nil, ErrInvalidState
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).Where("order_id = ?", orderID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateReview
	}

	review := models.Review{
		OrderID:            orderID,
		UserID:             p.UserID,
		JuniorBakerID:      order.JuniorBakerID,
		MainBakerID:        order.MainBakerID,
		Rating:             rating,
		Comment:            strings.TrimSpace(comment),
		IsVerifiedPurchase: true,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "review_id": review.ID, "rating": rating}).Info("Review submitted")
	return &review, nil
}

// GetBakerRating returns the average rating, rounded to two decimals, over the reviews of
// orders where bakerID was the junior or the main baker. A baker without reviews has 0/0.
func (s *ReviewService) GetBakerRating(ctx context.Context, bakerID uint) (*BakerRating, error) {
	var agg struct {
		Average *float64
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("junior_baker_id = ? OR main_baker_id = ?", bakerID, bakerID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute rating of baker %d: %w", bakerID, err)
	}

	rating := &BakerRating{BakerID: bakerID, Count: agg.Count}
	if agg.Average != nil {
		rating.Average = math.Round(*agg.Average*100) / 100
	}
	return rating, nil
}

// ListReviewsForBaker returns the reviews counted in the baker's rating, newest first
func (s *ReviewService) ListReviewsForBaker(ctx context.Context, bakerID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("junior_baker_id = ? OR main_baker_id = ?", bakerID, bakerID).
		Order("created_at DESC, id DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews of baker %d: %w", bakerID, err)
	}
	return reviews, nil
}
