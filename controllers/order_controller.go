package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// OrderItemRequest is one cart line of a checkout
type OrderItemRequest struct {
	ProductID    *uint `json:"product_id"`
	CustomCakeID *uint `json:"custom_cake_id"`
	Quantity     int   `json:"quantity"`
}

// CreateOrderRequest represents the request body for checking out a cart. total_amount is what
// the client displayed and is not trusted.
type CreateOrderRequest struct {
	Items        []OrderItemRequest  `json:"items"`
	ShippingInfo models.ShippingInfo `json:"shipping_info"`
	Deadline     *time.Time          `json:"deadline"`
	TotalAmount  *decimal.Decimal    `json:"total_amount"`
}

// UpdateStatusRequest represents the request body for a status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// AssignBakerRequest represents the request body for routing an order to bakers
type AssignBakerRequest struct {
	MainBakerID   uint  `json:"main_baker_id"`
	JuniorBakerID *uint `json:"junior_baker_id"`
}

// OrderController serves the order lifecycle
type OrderController struct {
	orders *services.OrderService
	log    logrus.FieldLogger
}

// NewOrderController creates an OrderController
func NewOrderController(orders *services.OrderService, log logrus.FieldLogger) *OrderController {
	return &OrderController{orders: orders, log: log}
}

// CreateOrder handles POST /api/orders - places an order (customers only)
func (ctl *OrderController) CreateOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	in := services.CreateOrderInput{
		Shipping:    req.ShippingInfo,
		Deadline:    req.Deadline,
		ClientTotal: req.TotalAmount,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, services.OrderItemInput{
			ProductID:    item.ProductID,
			CustomCakeID: item.CustomCakeID,
			Quantity:     item.Quantity,
		})
	}

	order, err := ctl.orders.CreateOrder(c.Request.Context(), p, in)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.CreatedResponse(c, order)
}

// ListOrders handles GET /api/orders?status=&page=&limit=
func (ctl *OrderController) ListOrders(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{Status: c.Query("status")}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Normalize()

	orders, total, err := ctl.orders.ListOrders(c.Request.Context(), p, filter)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.PaginatedResponse(c, orders, utils.Pagination{Page: filter.Page, Limit: filter.Limit, Total: total})
}

// GetOrder handles GET /api/orders/:id
func (ctl *OrderController) GetOrder(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	order, err := ctl.orders.GetOrder(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status
func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	order, err := ctl.orders.AdvanceStatus(c.Request.Context(), p, id, req.Status)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, order)
}

// AssignBakers handles PATCH /api/orders/:id/assign
func (ctl *OrderController) AssignBakers(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req AssignBakerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	order, err := ctl.orders.AssignBaker(c.Request.Context(), p, id, req.MainBakerID, req.JuniorBakerID)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, order)
}
