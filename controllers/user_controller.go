package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// UpdateProfileRequest represents the request body for updating the caller's profile
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
}

// UserController serves the caller's own account
type UserController struct {
	users *services.UserService
	log   logrus.FieldLogger
}

// NewUserController creates a UserController
func NewUserController(users *services.UserService, log logrus.FieldLogger) *UserController {
	return &UserController{users: users, log: log}
}

// GetMyProfile handles GET /api/users/me
func (ctl *UserController) GetMyProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := ctl.users.GetProfile(c.Request.Context(), p)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// UpdateMyProfile handles PUT /api/users/me
func (ctl *UserController) UpdateMyProfile(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	user, err := ctl.users.UpdateProfile(c.Request.Context(), p, services.UpdateProfileInput{
		FullName: req.FullName,
		Username: req.Username,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, user)
}

// UploadProfileImage handles POST /api/users/me/image - multipart field "image"
func (ctl *UserController) UploadProfileImage(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field", nil)
		return
	}

	user, err := ctl.users.SetProfileImage(c.Request.Context(), p, fileHeader)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, user)
}
