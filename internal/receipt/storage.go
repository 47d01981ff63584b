// Package receipt stores uploaded receipt files on local disk and serves
// them back by URL.
package receipt

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds the maximum allowed size")
	ErrTypeNotAllowed = errors.New("file type not allowed; accepted: JPEG, PNG, GIF, WebP, PDF")
)

// allowedTypes maps sniffed content types to stored file extensions.
var allowedTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// Storage writes receipts under a single directory with generated names.
type Storage struct {
	dir     string
	maxSize int64
	baseURL string
}

// NewStorage creates the upload directory if needed.
func NewStorage(dir string, maxSize int64, baseURL string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Storage{dir: dir, maxSize: maxSize, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory receipts are stored in.
func (s *Storage) Dir() string { return s.dir }

// Stored describes a successfully saved receipt. URL is what clients attach
// to the expense record.
type Stored struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Save reads the upload, verifies size and sniffed content type, and writes
// it under a generated name.
func (s *Storage) Save(r io.Reader) (*Stored, error) {
	// Read one byte past the limit to tell "exactly max" from "too big".
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	// Content type comes from the bytes, never the client-supplied name.
	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, ErrTypeNotAllowed
	}

	name := "receipt_" + uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return nil, fmt.Errorf("writing receipt file: %w", err)
	}
	return &Stored{
		URL:         s.baseURL + "/" + name,
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// Remove deletes the stored file behind a receipt URL. A missing file is not
// an error; expense deletion should not fail over a lost receipt.
func (s *Storage) Remove(receiptURL string) error {
	name := filepath.Base(receiptURL)
	if name == "." || name == "/" || !strings.HasPrefix(name, "receipt_") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing receipt file: %w", err)
	}
	return nil
}
