package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderItemInput is one cart line. Exactly one of ProductID and CustomCakeID must be set.
type OrderItemInput struct {
	ProductID    *uint
	CustomCakeID *uint
	Quantity     int
}

// CreateOrderInput is the checkout request. ClientTotal is what the client displayed; it is
// only compared against the computed total, never stored.
type CreateOrderInput struct {
	Items       []OrderItemInput
	Shipping    models.ShippingInfo
	Deadline    *time.Time
	ClientTotal *decimal.Decimal
}

// OrderFilter narrows an order listing
type OrderFilter struct {
	Status string
	Page   int
	Limit  int
}

// Normalize applies the default and maximum page size
func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
}

// OrderService runs the order lifecycle: checkout, baker assignment and status changes
type OrderService struct {
	db    *gorm.DB
	teams *TeamService
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewOrderService creates an OrderService
func NewOrderService(db *gorm.DB, teams *TeamService, log logrus.FieldLogger) *OrderService {
	return &OrderService{db: db, teams: teams, log: log, now: time.Now}
}

// CreateOrder places an order for the calling customer. Prices come from the catalogue and
// the saved custom cakes; the order and its items are written in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, p Principal, in CreateOrderInput) (*models.Order, error) {
	if p.Role != models.RoleCustomer {
		return nil, ErrForbidden.WithMessage("Only customers can place orders")
	}
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, item := range in.Items {
		if (item.ProductID == nil) == (item.CustomCakeID == nil) || item.Quantity <= 0 {
			return nil, ErrInvalidItem
		}
	}
	if strings.TrimSpace(in.Shipping.FullName) == "" || strings.TrimSpace(in.Shipping.Address) == "" ||
		strings.TrimSpace(in.Shipping.Phone) == "" {
		return nil, ErrValidation.WithMessage("Shipping name, phone and address are required")
	}
	if in.Deadline != nil && in.Deadline.Before(s.now()) {
		return nil, ErrValidation.WithMessage("Deadline must be in the future")
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, mainBakerID, err := s.priceItems(tx, p, in.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.Subtotal())
		}

		order = models.Order{
			OrderCode:   newOrderCode(),
			UserID:      p.UserID,
			Status:      models.OrderStatusPending,
			TotalAmount: total,
			MainBakerID: mainBakerID,
			Deadline:    in.Deadline,
			Shipping:    in.Shipping,
		}
		if err := tx.Omit("Items").Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"order_id": order.ID, "order_code": order.OrderCode, "user_id": p.UserID})
	if in.ClientTotal != nil && !in.ClientTotal.Equal(order.TotalAmount) {
		entry.WithFields(logrus.Fields{
			"client_total": in.ClientTotal.String(),
			"total":        order.TotalAmount.String(),
		}).Warn("Client total differs from computed order total")
	}
	entry.Info("Order created")

	return s.load(ctx, order.ID)
}

// priceItems resolves every cart line to its server-side price. The returned main baker is
// set when all catalogue products belong to the same baker.
func (s *OrderService) priceItems(tx *gorm.DB, p Principal, lines []OrderItemInput) ([]models.OrderItem, *uint, error) {
	var productIDs, cakeIDs []uint
	for _, line := range lines {
		if line.ProductID != nil {
			productIDs = append(productIDs, *line.ProductID)
		} else {
			cakeIDs = append(cakeIDs, *line.CustomCakeID)
		}
	}

	products := make(map[uint]models.Product)
	if len(productIDs) > 0 {
		var found []models.Product
		if err := tx.Where("id IN ? AND is_available = ?", productIDs, true).Find(&found).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to load products: %w", err)
		}
		for _, product := range found {
			products[product.ID] = product
		}
	}

	cakes := make(map[uint]models.CustomCake)
	if len(cakeIDs) > 0 {
		var found []models.CustomCake
		if err := tx.Where("id IN ? AND user_id = ?", cakeIDs, p.UserID).Find(&found).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to load custom cakes: %w", err)
		}
		for _, cake := range found {
			cakes[cake.ID] = cake
		}
	}

	bakers := make(map[uint]struct{})
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := models.OrderItem{Quantity: line.Quantity}
		if line.ProductID != nil {
			product, ok := products[*line.ProductID]
			if !ok {
				return nil, nil, ErrUnknownProduct.WithMessage(fmt.Sprintf("Product %d does not exist or is unavailable", *line.ProductID))
			}
			item.ProductID = &product.ID
			item.PricePerItem = product.Price
			bakers[product.MainBakerID] = struct{}{}
		} else {
			cake, ok := cakes[*line.CustomCakeID]
			if !ok {
				return nil, nil, ErrUnknownCake.WithMessage(fmt.Sprintf("Custom cake %d does not exist", *line.CustomCakeID))
			}
			item.CustomCakeID = &cake.ID
			item.PricePerItem = cake.Price
		}
		items = append(items, item)
	}

	var mainBakerID *uint
	if len(bakers) == 1 {
		for id := range bakers {
			id := id
			mainBakerID = &id
		}
	}
	return items, mainBakerID, nil
}

// AssignBaker sets the main baker and optionally the junior baker of an order. Admins may
// route an order to any main baker. The order's main baker may only pick a junior baker
// from their own active team.
func (s *OrderService) AssignBaker(ctx context.Context, p Principal, orderID, mainBakerID uint, juniorBakerID *uint) (*models.Order, error) {
	order, err := s.find(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}

	switch {
	case p.IsAdmin():
		if mainBakerID == 0 && order.MainBakerID != nil {
			mainBakerID = *order.MainBakerID
		}
	case p.Role == models.RoleMainBaker && order.MainBakerID != nil && *order.MainBakerID == p.UserID:
		if mainBakerID != 0 && mainBakerID != p.UserID {
			return nil, ErrForbidden.WithMessage("Only an admin can hand an order to another main baker")
		}
		mainBakerID = p.UserID
	default:
		return nil, ErrForbidden.WithMessage("Only an admin or the order's main baker can assign bakers")
	}

	if models.IsTerminalOrderStatus(order.Status) {
		return nil, ErrOrderClosed
	}

	if err := requireUserRole(ctx, s.db, mainBakerID, models.RoleMainBaker); err != nil {
		return nil, err
	}
	if juniorBakerID != nil {
		if err := requireUserRole(ctx, s.db, *juniorBakerID, models.RoleJuniorBaker); err != nil {
			return nil, err
		}
		inTeam, err := s.teams.IsActiveMember(ctx, mainBakerID, *juniorBakerID)
		if err != nil {
			return nil, err
		}
		if !inTeam {
			return nil, ErrInvalidBaker.WithMessage("The junior baker is not in this main baker's team")
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, []string{models.OrderStatusDelivered, models.OrderStatusCancelled}).
		Updates(map[string]interface{}{"main_baker_id": mainBakerID, "junior_baker_id": juniorBakerID})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to assign bakers: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderClosed
	}

	s.log.WithFields(logrus.Fields{
		"order_id":        orderID,
		"main_baker_id":   mainBakerID,
		"junior_baker_id": juniorBakerID,
		"actor_id":        p.UserID,
	}).Info("Order bakers assigned")

	return s.load(ctx, orderID)
}

// AdvanceStatus moves an order to next if the transition table and the caller's role allow
// it. Admins may additionally cancel any order that is not yet delivered or cancelled.
func (s *OrderService) AdvanceStatus(ctx context.Context, p Principal, orderID uint, next string) (*models.Order, error) {
	if !models.ValidOrderStatus(next) {
		return nil, ErrInvalidStatus
	}

	order, err := s.find(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}

	current := order.Status
	allowed := models.CanTransition(current, next)
	switch {
	case p.IsAdmin():
		if next == models.OrderStatusCancelled && !models.IsTerminalOrderStatus(current) {
			allowed = true
		}
	case order.MainBakerID != nil && *order.MainBakerID == p.UserID,
		order.JuniorBakerID != nil && *order.JuniorBakerID == p.UserID:
	case order.UserID == p.UserID:
		if next != models.OrderStatusCancelled {
			return nil, ErrForbidden.WithMessage("Customers can only cancel their orders")
		}
		allowed = current == models.OrderStatusPending
	default:
		return nil, ErrForbidden.WithMessage("You cannot change the status of this order")
	}

	if !allowed {
		return nil, ErrInvalidTransition.WithMessage(fmt.Sprintf("Cannot move an order from %s to %s", current, next))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": next}
		if next == models.OrderStatusDelivered {
			updates["delivered_at"] = s.now()
		}

		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", orderID, current).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition.WithMessage("The order status changed in the meantime")
		}

		if next == models.OrderStatusDelivered && order.JuniorBakerID != nil {
			if err := tx.Model(&models.User{}).Where("id = ?", *order.JuniorBakerID).
				UpdateColumn("completed_orders", gorm.Expr("completed_orders + ?", 1)).Error; err != nil {
				return fmt.Errorf("failed to update completed orders: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     current,
		"to":       next,
		"actor_id": p.UserID,
	}).Info("Order status changed")

	return s.load(ctx, orderID)
}

// MarkDelivered completes an order. Delivered orders can be reviewed.
func (s *OrderService) MarkDelivered(ctx context.Context, p Principal, orderID uint) (*models.Order, error) {
	return s.AdvanceStatus(ctx, p, orderID, models.OrderStatusDelivered)
}

// ListOrders returns the orders the caller can see, newest first
func (s *OrderService) ListOrders(ctx context.Context, p Principal, filter OrderFilter) ([]models.Order, int64, error) {
	filter.Normalize()

	query := s.db.WithContext(ctx).Model(&models.Order{})
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleMainBaker:
		query = query.Where("main_baker_id = ?", p.UserID)
	case models.RoleJuniorBaker:
		query = query.Where("junior_baker_id = ?", p.UserID)
	default:
		query = query.Where("user_id = ?", p.UserID)
	}
	if filter.Status != "" {
		if !models.ValidOrderStatus(filter.Status) {
			return nil, 0, ErrInvalidStatus
		}
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	err := query.Preload("Items").
		Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder returns an order with its items if the caller takes part in it
func (s *OrderService) GetOrder(ctx context.Context, p Principal, orderID uint) (*models.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canAccessOrder(p, order) {
		return nil, ErrForbidden.WithMessage("You do not have permission to view this order")
	}
	return order, nil
}

func (s *OrderService) find(ctx context.Context, db *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	return &order, nil
}

func (s *OrderService) load(ctx context.Context, orderID uint) (*models.Order, error) {
	return s.find(ctx, s.db.
		Preload("Items.Product").
		Preload("Items.CustomCake").
		Preload("Customer").
		Preload("MainBaker").
		Preload("JuniorBaker"), orderID)
}

// canAccessOrder lets admins read any order. Order chat is limited to participants.
func canAccessOrder(p Principal, order *models.Order) bool {
	return p.IsAdmin() || order.IsParticipant(p.UserID)
}

func newOrderCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(id[:8])
}
