package routes

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/controllers"
	"github.com/kendall-kelly/bakehouse-api/middleware"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are the infrastructure pieces the API is built from. Images is nil when uploads are
// not configured; Broker defaults to an in-process broker. Open event streams end when
// Streams is done.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Log     *logrus.Logger
	Images  services.ImageService
	Broker  services.Broker
	Streams context.Context
}

// NewRouter wires services, controllers and middleware into a gin engine
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Broker == nil {
		d.Broker = services.NewMemoryBroker()
	}

	tokens := services.NewTokenService(d.Config)
	users := services.NewUserService(d.DB, d.Images, d.Log)
	teams := services.NewTeamService(d.DB, d.Log)

	requireAuth, err := middleware.EnsureValidToken(d.Config, users, d.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth middleware: %w", err)
	}

	chat := controllers.NewChatController(services.NewChatService(d.DB, d.Broker, d.Log), d.Log)
	if d.Streams != nil {
		chat.EndStreamsOn(d.Streams)
	}

	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.CORS(d.Config.CORSAllowedOrigins))

	Register(router, Controllers{
		Auth:       controllers.NewAuthController(services.NewAuthService(d.DB, tokens), d.Log),
		Users:      controllers.NewUserController(users, d.Log),
		Products:   controllers.NewProductController(services.NewProductService(d.DB, d.Images, d.Log), d.Log),
		CustomCake: controllers.NewCustomCakeController(services.NewCustomCakeService(d.DB), d.Log),
		Orders:     controllers.NewOrderController(services.NewOrderService(d.DB, teams, d.Log), d.Log),
		Teams:      controllers.NewTeamController(teams, d.Log),
		Chat:       chat,
		Reviews:    controllers.NewReviewController(services.NewReviewService(d.DB, d.Log), d.Log),
	}, Options{
		DB:           d.DB,
		RequireAuth:  requireAuth,
		LoginLimiter: middleware.PerMinute(d.Config.LoginRatePerMinute).Middleware(),
	})

	return router, nil
}
