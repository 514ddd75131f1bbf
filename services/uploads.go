package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/LittleGragon/coffee-shop-sub000/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadResult is returned for a stored image
type UploadResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadService stores menu images on local disk
type UploadService struct {
	dir      string
	maxBytes int64
	log      *logrus.Entry
}

// NewUploadService creates an UploadService writing into dir
func NewUploadService(dir string, maxBytes int64, log logrus.FieldLogger) *UploadService {
	return &UploadService{dir: dir, maxBytes: maxBytes, log: logging.Component(log, "upload_service")}
}

// Dir is where files are stored
func (s *UploadService) Dir() string {
	return s.dir
}

// Save checks the file type and size and writes it under a random name
func (s *UploadService) Save(fh *multipart.FileHeader) (*UploadResult, error) {
	if fh == nil {
		return nil, Invalid("No file uploaded")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return nil, Invalid("Only image files are allowed (jpg, jpeg, png, gif, webp)")
	}
	if fh.Size > s.maxBytes {
		return nil, Invalid(fmt.Sprintf("File is too large (max %d bytes)", s.maxBytes))
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	// One byte past the limit detects a size header that lied
	written, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil || written > s.maxBytes {
		os.Remove(path)
		if err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		return nil, Invalid(fmt.Sprintf("File is too large (max %d bytes)", s.maxBytes))
	}

	s.log.WithFields(logrus.Fields{"file": name, "bytes": written}).Info("Image uploaded")
	return &UploadResult{Success: true, URL: "/uploads/" + name, Filename: name}, nil
}
