package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/kendall-kelly/bakehouse-api/utils"
)

// Folders images are stored under
const (
	ProfileImageFolder = "profiles"
	ProductImageFolder = "products"
)

// ImageService handles all image-related operations including upload, retrieval, and deletion
type ImageService interface {
	// UploadImage validates and uploads an image file, returns the storage key
	UploadImage(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// S3ImageService implements ImageService using AWS S3 for storage
type S3ImageService struct {
	s3Service S3Interface
}

// NewImageService creates an image service backed by s3Service
func NewImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage validates and uploads an image file to S3
func (s *S3ImageService) UploadImage(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", ErrInvalidImage.WithMessage(err.Error())
	}

	s3Key, err := s.s3Service.UploadFile(ctx, folder, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s3Key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// resolveImageURL returns a presigned URL for key, or nil when there is no image or it
// cannot be signed. A missing URL never fails the request it decorates.
func resolveImageURL(ctx context.Context, images ImageService, key *string) *string {
	if images == nil || key == nil || *key == "" {
		return nil
	}
	url, err := images.GetImageURL(ctx, *key)
	if err != nil || url == "" {
		return nil
	}
	return &url
}
