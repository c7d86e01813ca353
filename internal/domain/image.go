package domain

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ImageFile is one of the two source images attached to a creation request.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether the file is missing or has no content.
func (f *ImageFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// MIMEType returns the declared content type, sniffing the payload when the
// caller did not provide one.
func (f *ImageFile) MIMEType() string {
	if f == nil {
		return ""
	}
	if ct := strings.TrimSpace(f.ContentType); ct != "" {
		return ct
	}
	return http.DetectContentType(f.Data)
}

// ReadImageFile loads an image from disk.
func ReadImageFile(path string) (*ImageFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	f := &ImageFile{Name: filepath.Base(path), Data: data}
	f.ContentType = http.DetectContentType(data)
	return f, nil
}

// ValidatePair enforces that both the light and the dark image are present.
func ValidatePair(light, dark *ImageFile) error {
	switch {
	case light.Empty() && dark.Empty():
		return fmt.Errorf("%w: light and dark images are required", ErrValidation)
	case light.Empty():
		return fmt.Errorf("%w: light image is required", ErrValidation)
	case dark.Empty():
		return fmt.Errorf("%w: dark image is required", ErrValidation)
	}
	return nil
}
