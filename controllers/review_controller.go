package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// ReviewRequest represents the request body for reviewing an order
type ReviewRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// ReviewController serves reviews and baker ratings
type ReviewController struct {
	reviews *services.ReviewService
	log     logrus.FieldLogger
}

// NewReviewController creates a ReviewController
func NewReviewController(reviews *services.ReviewService, log logrus.FieldLogger) *ReviewController {
	return &ReviewController{reviews: reviews, log: log}
}

// SubmitReview handles POST /api/reviews
func (ctl *ReviewController) SubmitReview(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	review, err := ctl.reviews.SubmitReview(c.Request.Context(), p, req.OrderID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.CreatedResponse(c, review)
}

// GetBakerRating handles GET /api/bakers/:id/rating
func (ctl *ReviewController) GetBakerRating(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	rating, err := ctl.reviews.GetBakerRating(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, rating)
}

// ListBakerReviews handles GET /api/bakers/:id/reviews
func (ctl *ReviewController) ListBakerReviews(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	reviews, err := ctl.reviews.ListReviewsForBaker(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}
	utils.SuccessResponse(c, reviews)
}
