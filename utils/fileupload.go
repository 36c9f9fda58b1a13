package utils

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 5MB in bytes
	MaxFileSize = 5 * 1024 * 1024
)

// allowedImageTypes maps accepted extensions to their content type
var allowedImageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ImageExtension returns the lower-cased extension of filename
func ImageExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// ImageContentType returns the content type stored with an image of extension ext
func ImageContentType(ext string) string {
	if ct, ok := allowedImageTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ValidateImageFile validates the uploaded file format and size. The extension must be
// one of the allowed image types and the content must sniff as that type.
func ValidateImageFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	ext := ImageExtension(fileHeader.Filename)
	expected, ok := allowedImageTypes[ext]
	if !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG, JPEG and WebP images are allowed",
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		return &FileUploadError{Code: "UNREADABLE_FILE", Message: "Could not read uploaded file"}
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	if detected := http.DetectContentType(head[:n]); detected != expected {
		return &FileUploadError{
			Code:    "CONTENT_MISMATCH",
			Message: "File content does not match its extension",
		}
	}

	return nil
}
