package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductRequest represents the request body for creating or updating a product
type ProductRequest struct {
	MainBakerID  uint             `json:"main_baker_id"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Category     *string          `json:"category"`
	IsNew        *bool            `json:"is_new"`
	IsBestSeller *bool            `json:"is_best_seller"`
	IsAvailable  *bool            `json:"is_available"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:         r.Name,
		Description:  r.Description,
		Price:        r.Price,
		Category:     r.Category,
		IsNew:        r.IsNew,
		IsBestSeller: r.IsBestSeller,
		IsAvailable:  r.IsAvailable,
	}
}

// ProductController serves the catalogue
type ProductController struct {
	products *services.ProductService
	log      logrus.FieldLogger
}

// NewProductController creates a ProductController
func NewProductController(products *services.ProductService, log logrus.FieldLogger) *ProductController {
	return &ProductController{products: products, log: log}
}

// ListProducts handles GET /api/products?category=&main_baker_id=&is_new=&is_best_seller=
func (ctl *ProductController) ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		Category:    c.Query("category"),
		MainBakerID: optionalUint(c.Query("main_baker_id")),
	}
	if v, err := strconv.ParseBool(c.Query("is_new")); err == nil {
		filter.IsNew = &v
	}
	if v, err := strconv.ParseBool(c.Query("is_best_seller")); err == nil {
		filter.IsBestSeller = &v
	}

	products, err := ctl.products.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, products)
}

// GetProduct handles GET /api/products/:id
func (ctl *ProductController) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	product, err := ctl.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// CreateProduct handles POST /api/products (main bakers and admins)
func (ctl *ProductController) CreateProduct(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	product, err := ctl.products.CreateProduct(c.Request.Context(), p, req.MainBakerID, req.input())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.CreatedResponse(c, product)
}

// UpdateProduct handles PUT /api/products/:id
func (ctl *ProductController) UpdateProduct(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	product, err := ctl.products.UpdateProduct(c.Request.Context(), p, id, req.input())
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, product)
}

// UploadProductImage handles POST /api/products/:id/image - multipart field "image"
func (ctl *ProductController) UploadProductImage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field", nil)
		return
	}

	product, err := ctl.products.SetProductImage(c.Request.Context(), p, id, fileHeader)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, product)
}
