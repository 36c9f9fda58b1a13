package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/kendall-kelly/bakehouse-api/config"
	"github.com/kendall-kelly/bakehouse-api/utils"
)

// presignTTL is how long image URLs handed to clients stay valid
const presignTTL = time.Hour

// S3Interface defines the interface for S3 operations
type S3Interface interface {
	UploadFile(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error)
	GetPresignedURL(ctx context.Context, s3Key string) (string, error)
	DeleteFile(ctx context.Context, s3Key string) error
}

// S3Service handles all S3-related operations
type S3Service struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Service creates an S3 client for the bucket configured in cfg
func NewS3Service(ctx context.Context, cfg *config.Config) (*S3Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)
	return &S3Service{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.AWSS3Bucket,
	}, nil
}

// UploadFile uploads a file under folder and returns its S3 key
func (s *S3Service) UploadFile(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	ext := utils.ImageExtension(fileHeader.Filename)
	s3Key := path.Join(folder, uuid.NewString()+ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(utils.ImageContentType(ext)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s3Key, nil
}

// GetPresignedURL generates a presigned URL for accessing a private S3 object
func (s *S3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	request, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignTTL
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

// DeleteFile deletes a file from S3
func (s *S3Service) DeleteFile(ctx context.Context, s3Key string) error {
	if s3Key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3Key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}
