// Package imagestore persists annotated detection frames on local disk and
// resolves stored references into request-time URLs.
package imagestore

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homewatch/homewatch-go/internal/errors"
)

const (
	detectionsDir = "detections"
	jpegQuality   = 90
)

// Store writes annotated frames under a base directory. References returned
// by Save are relative to that directory so the base can move without
// invalidating stored rows.
type Store struct {
	basePath string
}

// New creates a store rooted at basePath, creating the detections
// subdirectory if needed.
func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "uploads"
	}

	dir := filepath.Join(basePath, detectionsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Context("path", dir).
			Build()
	}

	return &Store{basePath: basePath}, nil
}

// BasePath returns the root directory frames are stored under.
func (s *Store) BasePath() string {
	return s.basePath
}

// Save encodes the frame as JPEG and writes it to disk. The returned
// reference is relative ("detections/<object>_<index>_<ts>_<suffix>.jpg")
// and unique per call even for identical inputs.
func (s *Store) Save(img image.Image, objectID uint, index int) (string, error) {
	if img == nil {
		return "", errors.Newf("nil image").
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Build()
	}

	name := fmt.Sprintf("%d_%d_%d_%s.jpg",
		objectID, index, time.Now().Unix(), uuid.NewString()[:8])
	ref := path.Join(detectionsDir, name)
	fullPath := filepath.Join(s.basePath, detectionsDir, name)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", errors.New(err).
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Context("path", fullPath).
			Build()
	}

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return "", errors.New(err).
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Context("path", fullPath).
			Build()
	}

	if err := f.Close(); err != nil {
		return "", errors.New(err).
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Context("path", fullPath).
			Build()
	}

	return ref, nil
}

// Delete removes a stored frame. A missing file is not an error.
func (s *Store) Delete(ref string) error {
	if ref == "" {
		return nil
	}

	fullPath, err := s.resolvePath(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return errors.New(err).
			Component("imagestore").
			Category(errors.CategoryImageStore).
			Context("path", fullPath).
			Build()
	}
	return nil
}

// resolvePath joins a stored reference with the base path, rejecting
// references that escape it.
func (s *Store) resolvePath(ref string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(ref))
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.Newf("invalid image reference: %s", ref).
			Component("imagestore").
			Category(errors.CategoryValidation).
			Build()
	}
	return filepath.Join(s.basePath, cleaned), nil
}

// ResolveURL turns a stored reference into an absolute URL under the
// server's /uploads route. Empty references stay empty.
func ResolveURL(ref, baseURL string) string {
	if ref == "" {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/uploads/" + strings.TrimPrefix(ref, "/")
}
