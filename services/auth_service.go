package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/bakehouse-api/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput is the data needed to open a customer account
type RegisterInput struct {
	Email    string
	Username string
	Password string
	FullName string
}

// AuthResult is returned by register and login
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService handles account creation and password login
type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
}

// NewAuthService creates an AuthService
func NewAuthService(db *gorm.DB, tokens *TokenService) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

// Register creates a customer account and returns a token for it
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || strings.TrimSpace(in.FullName) == "" || len(in.Password) < 8 {
		return nil, ErrValidation.WithMessage("Email, username, full name and a password of at least 8 characters are required")
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         models.RoleCustomer,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issue(&user)
}

// Login checks the password of the account registered under email
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(&user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// HashPassword hashes a password the way Register does. Used when provisioning staff accounts.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
