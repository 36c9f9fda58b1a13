package services_test

import (
	"context"
	"testing"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/tests/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// bakery is a small shop seeded for service tests: one main baker with a junior baker in
// their team, a second main baker, a customer, an admin and one 25.00 product
type bakery struct {
	db   *gorm.DB
	log  *logrus.Logger
	hook *test.Hook

	orders  *services.OrderService
	teams   *services.TeamService
	chat    *services.ChatService
	reviews *services.ReviewService
	cakes   *services.CustomCakeService
	broker  *services.MemoryBroker

	mainBaker  *models.User
	otherBaker *models.User
	junior     *models.User
	customer   *models.User
	admin      *models.User
	product    *models.Product
}

func newBakery(t *testing.T) *bakery {
	t.Helper()

	db := testutil.NewTestDB(t)
	log, hook := testutil.NewTestLogger()
	broker := services.NewMemoryBroker()
	teams := services.NewTeamService(db, log)

	b := &bakery{
		db:      db,
		log:     log,
		hook:    hook,
		orders:  services.NewOrderService(db, teams, log),
		teams:   teams,
		chat:    services.NewChatService(db, broker, log),
		reviews: services.NewReviewService(db, log),
		cakes:   services.NewCustomCakeService(db),
		broker:  broker,
	}

	b.mainBaker = testutil.CreateUser(t, db, "maria", models.RoleMainBaker)
	b.otherBaker = testutil.CreateUser(t, db, "oscar", models.RoleMainBaker)
	b.junior = testutil.CreateUser(t, db, "jules", models.RoleJuniorBaker)
	b.customer = testutil.CreateUser(t, db, "carla", models.RoleCustomer)
	b.admin = testutil.CreateUser(t, db, "ada", models.RoleAdmin)
	testutil.AddToTeam(t, db, b.mainBaker.ID, b.junior.ID)
	b.product = testutil.CreateProduct(t, db, b.mainBaker.ID, "Chocolate Cake", "25.00")
	return b
}

func as(user *models.User) services.Principal {
	return services.PrincipalFor(user)
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		FullName: "Carla Customer",
		Phone:    "555-0100",
		Address:  "1 Main Street",
		City:     "Springfield",
	}
}

func oneOf(product *models.Product, quantity int) []services.OrderItemInput {
	return []services.OrderItemInput{{ProductID: &product.ID, Quantity: quantity}}
}

// placeOrder creates an order for the seeded customer with one seeded product
func (b *bakery) placeOrder(t *testing.T) *models.Order {
	t.Helper()

	order, err := b.orders.CreateOrder(context.Background(), as(b.customer), services.CreateOrderInput{
		Items:    oneOf(b.product, 1),
		Shipping: shipping(),
	})
	require.NoError(t, err)
	return order
}

// assignedOrder is placeOrder with the seeded junior baker assigned
func (b *bakery) assignedOrder(t *testing.T) *models.Order {
	t.Helper()

	order := b.placeOrder(t)
	order, err := b.orders.AssignBaker(context.Background(), as(b.mainBaker), order.ID, 0, &b.junior.ID)
	require.NoError(t, err)
	return order
}

// advance walks an order through statuses as its main baker
func (b *bakery) advance(t *testing.T, orderID uint, statuses ...string) *models.Order {
	t.Helper()

	var order *models.Order
	for _, status := range statuses {
		var err error
		order, err = b.orders.AdvanceStatus(context.Background(), as(b.mainBaker), orderID, status)
		require.NoError(t, err, "moving order to %s", status)
	}
	return order
}

// deliveredOrder is an assigned order that went through the full lifecycle
func (b *bakery) deliveredOrder(t *testing.T) *models.Order {
	t.Helper()

	order := b.assignedOrder(t)
	return b.advance(t, order.ID,
		models.OrderStatusProcessing,
		models.OrderStatusQualityCheck,
		models.OrderStatusReady,
		models.OrderStatusDelivered,
	)
}

func (b *bakery) reloadOrder(t *testing.T, id uint) models.Order {
	t.Helper()

	var order models.Order
	require.NoError(t, b.db.First(&order, id).Error)
	return order
}
