package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints is one accepted upload shape.
type FileConstraints struct {
	Name       string
	MimeTypes  []string
	Extensions []string
	MaxSize    int64
}

var (
	// ImageConstraints covers avatars and face photos.
	ImageConstraints = FileConstraints{
		Name:       "image",
		MimeTypes:  []string{"image/jpeg", "image/png", "image/webp"},
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		MaxSize:    5 << 20,
	}

	// DocumentConstraints covers scanned identity documents.
	DocumentConstraints = FileConstraints{
		Name:       "document",
		MimeTypes:  []string{"application/pdf"},
		Extensions: []string{".pdf"},
		MaxSize:    10 << 20,
	}
)

func (c FileConstraints) allows(mimeType, ext string) bool {
	return contains(c.MimeTypes, mimeType) && contains(c.Extensions, ext)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// DetectMimeType sniffs the first 512 bytes of the upload. The client's
// Content-Type is never trusted.
func DetectMimeType(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return http.DetectContentType(buffer[:n]), nil
}

// ValidateFile accepts the upload when it satisfies any of constraints and
// returns the sniffed MIME type.
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) (string, error) {
	if len(constraints) == 0 {
		return "", fmt.Errorf("no file constraints provided")
	}

	mimeType, err := DetectMimeType(header)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))

	var names []string
	for _, c := range constraints {
		if !c.allows(mimeType, ext) {
			names = append(names, c.Name)
			continue
		}
		if header.Size > c.MaxSize {
			return "", fmt.Errorf("file too large: maximum size for %s uploads is %d MB", c.Name, c.MaxSize>>20)
		}
		return mimeType, nil
	}

	return "", fmt.Errorf("unsupported file type %s (%s), expected %s", mimeType, ext, strings.Join(names, " or "))
}
