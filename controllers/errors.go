package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/middleware"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// statusFor maps a service error kind to its HTTP status
func statusFor(kind services.ErrorKind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindAuthentication:
		return http.StatusUnauthorized
	case services.KindAuthorization:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as an error envelope. Errors that are not service errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	if svcErr, ok := services.AsError(err); ok {
		utils.ErrorResponse(c, statusFor(svcErr.Kind), svcErr.Code, svcErr.Message, nil)
		return
	}

	entry := log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"path":       c.Request.URL.Path,
	})
	if p, perr := middleware.GetPrincipal(c); perr == nil {
		entry = entry.WithField("user_id", p.UserID)
	}
	entry.Error("Request failed")

	utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// principal returns the caller, writing a 401 when the request is unauthenticated
func principal(c *gin.Context) (services.Principal, bool) {
	p, err := middleware.GetPrincipal(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Authentication is required", nil)
		return services.Principal{}, false
	}
	return p, true
}

// idParam parses a positive numeric path parameter, writing a 400 when it is malformed
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name, nil)
		return 0, false
	}
	return uint(id), true
}

// optionalUint parses a numeric query parameter, returning 0 when it is missing or malformed
func optionalUint(value string) uint {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
