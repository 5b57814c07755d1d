// Package storage keeps uploaded onboarding documents on the local
// filesystem, one directory per cleaner.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/nathanieluriri/marcus-cleaning-backend/internal/pkg/apperror"
)

// Document types a cleaner may upload: identity photos or scanned PDFs.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// DocumentStorage writes verification documents under rootPath. Files
// land via a temp-file rename so a failed write never leaves a partial
// document behind.
type DocumentStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewDocumentStorage(rootPath string, maxUploadMB int64) (*DocumentStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", rootPath, err)
	}
	return &DocumentStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// ValidateContent sniffs the magic bytes and checks them against the
// declared filename. The client's Content-Type header is never trusted.
func (s *DocumentStorage) ValidateContent(originalName string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", apperror.New(apperror.ErrCodeDocumentUploadInvalid,
			fmt.Sprintf("unsupported file extension %s", ext))
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", apperror.New(apperror.ErrCodeDocumentUploadInvalid,
			"could not determine the file type from its content")
	}
	mimeType := kind.MIME.Value
	if !allowedMimeTypes[mimeType] {
		return "", apperror.New(apperror.ErrCodeDocumentUploadInvalid,
			fmt.Sprintf("unsupported file type %s", mimeType))
	}

	expectedExt := "." + kind.Extension
	jpegAlias := (ext == ".jpg" && expectedExt == ".jpeg") || (ext == ".jpeg" && expectedExt == ".jpg")
	if ext != expectedExt && !jpegAlias {
		return "", apperror.New(apperror.ErrCodeDocumentUploadInvalid,
			fmt.Sprintf("file extension %s does not match content type %s", ext, mimeType))
	}
	return mimeType, nil
}

// Save stores the document and returns its path relative to the root.
func (s *DocumentStorage) Save(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	ownerDir := filepath.Join(s.rootPath, ownerID.String())
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: create owner dir: %w", err)
	}

	targetPath := filepath.Join(ownerDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: create file: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: r, N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: write file: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, apperror.New(apperror.ErrCodeDocumentUploadInvalid,
			fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUploadBytes))
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: close file: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: finalize file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(ownerID.String(), fileName)), written, nil
}

// Delete removes a stored document.
func (s *DocumentStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

// Open returns a reader for a stored document.
func (s *DocumentStorage) Open(relativePath string) (*os.File, error) {
	full := filepath.Join(s.rootPath, filepath.FromSlash(relativePath))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.ResourceNotFound("document", relativePath)
		}
		return nil, fmt.Errorf("storage: open file: %w", err)
	}
	return f, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
