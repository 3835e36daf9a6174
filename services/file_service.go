package services

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"studymate/models"
)

// FileService stores uploaded files on disk and keeps the document table
// in sync with them.
type FileService struct {
	UploadDir string
}

// NewFileService creates a FileService rooted at uploadDir, creating the
// directory if needed.
func NewFileService(uploadDir string) (*FileService, error) {
	absPath, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for upload dir: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload dir: %w", err)
	}
	return &FileService{UploadDir: absPath}, nil
}

// SaveUpload writes the uploaded content under a fresh UUID filename and
// records a pending document row. Processing happens later, in the
// background.
func (fs *FileService) SaveUpload(db *gorm.DB, src io.Reader, originalFilename string, courseID uint) (*models.Document, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalFilename), "."))
	if ext == "" {
		return nil, fmt.Errorf("invalid file: missing extension")
	}
	if !IsSupportedFileType(ext) {
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	uniqueName := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	path := filepath.Join(fs.UploadDir, uniqueName)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}

	document := &models.Document{
		Filename:         uniqueName,
		OriginalFilename: originalFilename,
		FilePath:         path,
		FileType:         ext,
		FileSize:         written,
		CourseID:         courseID,
	}
	if err := db.Create(document).Error; err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("create document record: %w", err)
	}

	log.Printf("SERVICE: Saved upload '%s' as %s (%d bytes)", originalFilename, uniqueName, written)
	return document, nil
}

// DeleteFile removes the stored file for a document. A missing file is
// not an error; the record cleanup still has to proceed.
func (fs *FileService) DeleteFile(document *models.Document) error {
	if document.FilePath == "" {
		return nil
	}
	if err := os.Remove(document.FilePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document file: %w", err)
	}
	return nil
}
