package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// CustomCakeRequest represents the request body for designing a cake
type CustomCakeRequest struct {
	Size     string `json:"size" binding:"required,cake_size"`
	Flavor   string `json:"flavor" binding:"required"`
	Frosting string `json:"frosting" binding:"required"`
	Tiers    int    `json:"tiers" binding:"omitempty,min=1,max=3"`
	Message  string `json:"message"`
}

// CustomCakeController serves cake designs
type CustomCakeController struct {
	cakes *services.CustomCakeService
	log   logrus.FieldLogger
}

// NewCustomCakeController creates a CustomCakeController
func NewCustomCakeController(cakes *services.CustomCakeService, log logrus.FieldLogger) *CustomCakeController {
	return &CustomCakeController{cakes: cakes, log: log}
}

// CreateCustomCake handles POST /api/custom-cakes - prices and saves a design
func (ctl *CustomCakeController) CreateCustomCake(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CustomCakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	cake, err := ctl.cakes.CreateCustomCake(c.Request.Context(), p, services.CustomCakeInput{
		Size:     req.Size,
		Flavor:   req.Flavor,
		Frosting: req.Frosting,
		Tiers:    req.Tiers,
		Message:  req.Message,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.CreatedResponse(c, cake)
}

// GetCustomCake handles GET /api/custom-cakes/:id
func (ctl *CustomCakeController) GetCustomCake(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	cake, err := ctl.cakes.GetCustomCake(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, cake)
}
