package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxCakeMessage is the longest inscription a cake can carry
const maxCakeMessage = 60

var (
	cakeBasePrice = map[string]decimal.Decimal{
		models.CakeSizeSmall:  decimal.NewFromInt(25),
		models.CakeSizeMedium: decimal.NewFromInt(40),
		models.CakeSizeLarge:  decimal.NewFromInt(60),
	}
	frostingSurcharge = map[string]decimal.Decimal{
		"buttercream":  decimal.Zero,
		"whipped":      decimal.Zero,
		"cream_cheese": decimal.NewFromInt(5),
		"ganache":      decimal.NewFromInt(8),
		"fondant":      decimal.NewFromInt(10),
	}
	extraTierPrice = decimal.NewFromInt(15)
	messagePrice   = decimal.NewFromInt(3)
)

// CustomCakeInput describes a cake design
type CustomCakeInput struct {
	Size     string
	Flavor   string
	Frosting string
	Tiers    int
	Message  string
}

// QuoteCustomCake prices a cake design
func QuoteCustomCake(in CustomCakeInput) (decimal.Decimal, error) {
	base, ok := cakeBasePrice[in.Size]
	if !ok {
		return decimal.Zero, ErrValidation.WithMessage("Size must be small, medium or large")
	}
	surcharge, ok := frostingSurcharge[in.Frosting]
	if !ok {
		return decimal.Zero, ErrValidation.WithMessage("Unknown frosting")
	}
	if in.Tiers < 1 || in.Tiers > 3 {
		return decimal.Zero, ErrValidation.WithMessage("A cake has between 1 and 3 tiers")
	}
	if strings.TrimSpace(in.Flavor) == "" {
		return decimal.Zero, ErrValidation.WithMessage("Flavor is required")
	}
	if len(in.Message) > maxCakeMessage {
		return decimal.Zero, ErrValidation.WithMessage(fmt.Sprintf("Message is limited to %d characters", maxCakeMessage))
	}

	price := base.Add(surcharge).Add(extraTierPrice.Mul(decimal.NewFromInt(int64(in.Tiers - 1))))
	if strings.TrimSpace(in.Message) != "" {
		price = price.Add(messagePrice)
	}
	return price, nil
}

// CustomCakeService stores customer cake designs
type CustomCakeService struct {
	db *gorm.DB
}

// NewCustomCakeService creates a CustomCakeService
func NewCustomCakeService(db *gorm.DB) *CustomCakeService {
	return &CustomCakeService{db: db}
}

// CreateCustomCake prices and saves a design for the calling customer
func (s *CustomCakeService) CreateCustomCake(ctx context.Context, p Principal, in CustomCakeInput) (*models.CustomCake, error) {
	if p.Role != models.RoleCustomer {
		return nil, ErrForbidden.WithMessage("Only customers can design custom cakes")
	}
	if in.Tiers == 0 {
		in.Tiers = 1
	}

	price, err := QuoteCustomCake(in)
	if err != nil {
		return nil, err
	}

	cake := models.CustomCake{
		UserID:   p.UserID,
		Size:     in.Size,
		Flavor:   strings.TrimSpace(in.Flavor),
		Frosting: in.Frosting,
		Tiers:    in.Tiers,
		Message:  strings.TrimSpace(in.Message),
		Price:    price,
	}
	if err := s.db.WithContext(ctx).Create(&cake).Error; err != nil {
		return nil, fmt.Errorf("failed to save custom cake: %w", err)
	}
	return &cake, nil
}

// GetCustomCake returns one of the caller's designs
func (s *CustomCakeService) GetCustomCake(ctx context.Context, p Principal, id uint) (*models.CustomCake, error) {
	var cake models.CustomCake
	if err := s.db.WithContext(ctx).First(&cake, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomCakeNotFound
		}
		return nil, fmt.Errorf("failed to load custom cake %d: %w", id, err)
	}
	if cake.UserID != p.UserID && !p.IsAdmin() {
		return nil, ErrCustomCakeNotFound
	}
	return &cake, nil
}
