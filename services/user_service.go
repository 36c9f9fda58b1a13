package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/kendall-kelly/bakehouse-api/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UpdateProfileInput holds the profile fields a user may change. Nil fields are left as is.
type UpdateProfileInput struct {
	FullName *string
	Username *string
}

// UserService reads and updates user accounts
type UserService struct {
	db     *gorm.DB
	images ImageService
	log    logrus.FieldLogger
}

// NewUserService creates a UserService. images may be nil when uploads are disabled.
func NewUserService(db *gorm.DB, images ImageService, log logrus.FieldLogger) *UserService {
	return &UserService{db: db, images: images, log: log}
}

// FindUser loads a user by ID
func (s *UserService) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &user, nil
}

// GetProfile returns the caller's own account
func (s *UserService) GetProfile(ctx context.Context, p Principal) (*models.User, error) {
	user, err := s.FindUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	user.ProfileImageURL = resolveImageURL(ctx, s.images, user.ProfileImageKey)
	return user, nil
}

// UpdateProfile changes the caller's name or username
func (s *UserService) UpdateProfile(ctx context.Context, p Principal, in UpdateProfileInput) (*models.User, error) {
	updates := make(map[string]interface{})
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, ErrValidation.WithMessage("Full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, ErrValidation.WithMessage("Username cannot be empty")
		}
		updates["username"] = username
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", p.UserID).Updates(updates).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
	}

	return s.GetProfile(ctx, p)
}

// SetProfileImage stores a new profile image for the caller and removes the previous one
func (s *UserService) SetProfileImage(ctx context.Context, p Principal, fileHeader *multipart.FileHeader) (*models.User, error) {
	if s.images == nil {
		return nil, ErrInvalidImage.WithMessage("Image uploads are not configured")
	}

	user, err := s.FindUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.UploadImage(ctx, ProfileImageFolder, fileHeader)
	if err != nil {
		return nil, err
	}

	var previous string
	if user.ProfileImageKey != nil {
		previous = *user.ProfileImageKey
	}
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("profile_image_key", key).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save profile image: %w", err)
	}

	if previous != "" && previous != key {
		if err := s.images.DeleteImage(ctx, previous); err != nil {
			s.log.WithError(err).WithField("key", previous).Warn("Failed to delete previous profile image")
		}
	}

	user.ProfileImageKey = &key
	user.ProfileImageURL = resolveImageURL(ctx, s.images, user.ProfileImageKey)
	return user, nil
}
