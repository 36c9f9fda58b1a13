package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

const (
	principalKey = "principal"
	userKey      = "user"
)

// CustomClaims contains the custom data carried by API access tokens
type CustomClaims struct {
	Role string `json:"role"`
}

// Validate satisfies validator.CustomClaims. The role claim is informational only; the
// role stored on the user is the one enforced.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// UserLookup loads the user a token was issued to
type UserLookup interface {
	FindUser(ctx context.Context, id uint) (*models.User, error)
}

// EnsureValidToken checks the access token of the request and resolves its subject to a
// user. The token is read from the Authorization header, or from the access_token query
// parameter for EventSource clients that cannot set headers.
func EnsureValidToken(cfg *config.Config, users UserLookup, log logrus.FieldLogger) (gin.HandlerFunc, error) {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		cfg.JWTIssuer,
		[]string{cfg.JWTAudience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the jwt validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).Debug("Rejected access token")

		code, message := "INVALID_TOKEN", "Failed to validate JWT."
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			code, message = "MISSING_TOKEN", "Authentication is required"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		body := fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q}}`, code, message)
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			log.WithError(writeErr).Warn("Failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			jwtmiddleware.ParameterTokenExtractor("access_token"),
		)),
	)

	return func(c *gin.Context) {
		reached := false
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			reached = true
			c.Request = r

			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			id, err := strconv.ParseUint(token.RegisteredClaims.Subject, 10, 64)
			if err != nil {
				utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", "Failed to validate JWT.", nil)
				return
			}

			user, err := users.FindUser(r.Context(), uint(id))
			if err != nil {
				if errors.Is(err, services.ErrUserNotFound) {
					utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_TOKEN", "The account for this token no longer exists", nil)
					return
				}
				log.WithError(err).Error("Failed to load token user")
				utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
				return
			}

			c.Set(userKey, user)
			SetPrincipal(c, services.PrincipalFor(user))
			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
		if !reached {
			c.Abort()
		}
	}, nil
}

// SetPrincipal stores the authenticated caller in the Gin context
func SetPrincipal(c *gin.Context, p services.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal extracts the authenticated caller from the Gin context
func GetPrincipal(c *gin.Context) (services.Principal, error) {
	value, exists := c.Get(principalKey)
	if !exists {
		return services.Principal{}, &AuthError{Code: "MISSING_PRINCIPAL", Message: "Caller not found in context"}
	}

	p, ok := value.(services.Principal)
	if !ok {
		return services.Principal{}, &AuthError{Code: "INVALID_PRINCIPAL", Message: "Caller is not in the expected format"}
	}

	return p, nil
}

// GetUser returns the user loaded for the request's token
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// RequireRole is a middleware that only lets callers with one of roles through
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := GetPrincipal(c)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication is required", nil)
			return
		}

		if !p.HasRole(roles...) {
			utils.ErrorResponse(c, http.StatusForbidden, "INSUFFICIENT_ROLE", "Insufficient permissions to access this resource", nil)
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
