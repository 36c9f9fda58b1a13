package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ProductFilter narrows a catalogue listing
type ProductFilter struct {
	Category     string
	MainBakerID  uint
	IsNew        *bool
	IsBestSeller *bool
}

// ProductInput holds the editable fields of a product. On update nil fields are left as is.
type ProductInput struct {
	Name         *string
	Description  *string
	Price        *decimal.Decimal
	Category     *string
	IsNew        *bool
	IsBestSeller *bool
	IsAvailable  *bool
}

// ProductService manages the catalogue
type ProductService struct {
	db     *gorm.DB
	images ImageService
	log    logrus.FieldLogger
}

// NewProductService creates a ProductService. images may be nil when uploads are disabled.
func NewProductService(db *gorm.DB, images ImageService, log logrus.FieldLogger) *ProductService {
	return &ProductService{db: db, images: images, log: log}
}

// ListProducts returns available products matching filter, newest first
func (s *ProductService) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Where("is_available = ?", true)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.MainBakerID != 0 {
		query = query.Where("main_baker_id = ?", filter.MainBakerID)
	}
	if filter.IsNew != nil {
		query = query.Where("is_new = ?", *filter.IsNew)
	}
	if filter.IsBestSeller != nil {
		query = query.Where("is_best_seller = ?", *filter.IsBestSeller)
	}

	var products []models.Product
	if err := query.Order("created_at DESC, id DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	for i := range products {
		products[i].ImageURL = resolveImageURL(ctx, s.images, products[i].ImageKey)
	}
	return products, nil
}

// GetProduct returns one product
func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	product.ImageURL = resolveImageURL(ctx, s.images, product.ImageKey)
	return product, nil
}

// CreateProduct adds a product owned by the calling main baker. Admins must name the owner
// through mainBakerID.
func (s *ProductService) CreateProduct(ctx context.Context, p Principal, mainBakerID uint, in ProductInput) (*models.Product, error) {
	owner := p.UserID
	switch {
	case p.Role == models.RoleMainBaker:
	case p.IsAdmin():
		if err := requireUserRole(ctx, s.db, mainBakerID, models.RoleMainBaker); err != nil {
			return nil, err
		}
		owner = mainBakerID
	default:
		return nil, ErrForbidden.WithMessage("Only main bakers and admins can add products")
	}

	if in.Name == nil || strings.TrimSpace(*in.Name) == "" || in.Category == nil || strings.TrimSpace(*in.Category) == "" || in.Price == nil {
		return nil, ErrValidation.WithMessage("Name, category and price are required")
	}

	product := models.Product{MainBakerID: owner, IsAvailable: true}
	if err := applyProductInput(&product, in); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// UpdateProduct changes a product. Only its owner or an admin may do so.
func (s *ProductService) UpdateProduct(ctx context.Context, p Principal, id uint, in ProductInput) (*models.Product, error) {
	product, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	product.ImageURL = resolveImageURL(ctx, s.images, product.ImageKey)
	return product, nil
}

// SetProductImage uploads a product photo and replaces the previous one
func (s *ProductService) SetProductImage(ctx context.Context, p Principal, id uint, fileHeader *multipart.FileHeader) (*models.Product, error) {
	if s.images == nil {
		return nil, ErrInvalidImage.WithMessage("Image uploads are not configured")
	}
	product, err := s.loadOwned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	key, err := s.images.UploadImage(ctx, ProductImageFolder, fileHeader)
	if err != nil {
		return nil, err
	}

	var previous string
	if product.ImageKey != nil {
		previous = *product.ImageKey
	}
	err = s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).
		Update("image_key", key).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save product image: %w", err)
	}
	if previous != "" && previous != key {
		if err := s.images.DeleteImage(ctx, previous); err != nil {
			s.log.WithError(err).WithField("key", previous).Warn("Failed to delete previous product image")
		}
	}

	product.ImageKey = &key
	product.ImageURL = resolveImageURL(ctx, s.images, product.ImageKey)
	return product, nil
}

func (s *ProductService) load(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return &product, nil
}

func (s *ProductService) loadOwned(ctx context.Context, p Principal, id uint) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !(p.Role == models.RoleMainBaker && product.MainBakerID == p.UserID) {
		return nil, ErrForbidden.WithMessage("Only the owning baker or an admin can change this product")
	}
	return product, nil
}

// requireUserRole fails with ErrInvalidBaker unless userID exists and has role
func requireUserRole(ctx context.Context, db *gorm.DB, userID uint, role string) error {
	var user models.User
	err := db.WithContext(ctx).Select("id", "role").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.Role != role) {
		return ErrInvalidBaker
	}
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return nil
}

func applyProductInput(product *models.Product, in ProductInput) error {
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return ErrValidation.WithMessage("Name cannot be empty")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return ErrValidation.WithMessage("Price must be greater than zero")
		}
		product.Price = in.Price.Round(2)
	}
	if in.Category != nil {
		if strings.TrimSpace(*in.Category) == "" {
			return ErrValidation.WithMessage("Category cannot be empty")
		}
		product.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.IsNew != nil {
		product.IsNew = *in.IsNew
	}
	if in.IsBestSeller != nil {
		product.IsBestSeller = *in.IsBestSeller
	}
	if in.IsAvailable != nil {
		product.IsAvailable = *in.IsAvailable
	}
	return nil
}
