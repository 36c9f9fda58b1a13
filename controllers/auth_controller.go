package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/bakehouse-api/services"
	"github.com/kendall-kelly/bakehouse-api/utils"
	"github.com/sirupsen/logrus"
)

// RegisterRequest represents the request body for opening an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
}

// LoginRequest represents the request body for a password login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthController serves account registration and login
type AuthController struct {
	auth *services.AuthService
	log  logrus.FieldLogger
}

// NewAuthController creates an AuthController
func NewAuthController(auth *services.AuthService, log logrus.FieldLogger) *AuthController {
	return &AuthController{auth: auth, log: log}
}

// Register handles POST /api/auth/register - creates a customer account
func (ctl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := ctl.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// Login handles POST /api/auth/login
func (ctl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	result, err := ctl.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, ctl.log, err)
		return
	}

	utils.SuccessResponse(c, result)
}
