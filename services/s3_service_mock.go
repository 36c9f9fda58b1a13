package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"sync"
)

// MockS3Service is an in-memory implementation of S3Interface for testing
type MockS3Service struct {
	objects map[string][]byte // S3 key -> content
	mu            sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string][]byte),
	}
}

// UploadFile stores the file under folder/mock_<filename>
func (m *MockS3Service) UploadFile(ctx context.Context, folder string, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := path.Join(folder, "mock_"+path.Base(fileHeader.Filename))

	m.mu.Lock()
	m.objects[s3Key] = content
	m.mu.Unlock()

	return s3Key, nil
}

// GetPresignedURL returns a fake bucket URL for a stored key
func (m *MockS3Service) GetPresignedURL(ctx context.Context, s3Key string) (string, error) {
	if s3Key == "" {
		return "", nil
	}

	m.mu.RLock()
	_, exists := m.objects[s3Key]
	m.mu.RUnlock()

	if !exists {
		return "", fmt.Errorf("file not found in mock S3: %s", s3Key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", s3Key), nil
}

// DeleteFile simulates deleting a file from S3
func (m *MockS3Service) DeleteFile(ctx context.Context, s3Key string) error {
	m.mu.Lock()
	delete(m.objects, s3Key)
	m.mu.Unlock()
	return nil
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[s3Key]
	return exists
}

// NewMockImageService returns an image service that validates like the real one but keeps
// files in memory
func NewMockImageService() (*S3ImageService, *MockS3Service) {
	store := NewMockS3Service()
	return NewImageService(store), store
}

var _ ImageService = (*S3ImageService)(nil)
var _ S3Interface = (*MockS3Service)(nil)
