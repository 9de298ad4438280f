package validation

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

func fileHeader(t *testing.T, filename string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		body        []byte
		constraints []FileConstraints
		mime        string
		wantErr     string
	}{
		{"png avatar", "me.PNG", pngBytes, []FileConstraints{ImageConstraints}, "image/png", ""},
		{"pdf as image", "id.pdf", pdfBytes, []FileConstraints{ImageConstraints}, "", "expected image"},
		{"pdf document", "id.pdf", pdfBytes, []FileConstraints{ImageConstraints, DocumentConstraints}, "application/pdf", ""},
		{"renamed png", "me.pdf", pngBytes, []FileConstraints{ImageConstraints, DocumentConstraints}, "", "expected image or document"},
		{"text file", "notes.txt", []byte("hello"), []FileConstraints{ImageConstraints}, "", "unsupported file type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := ValidateFile(fileHeader(t, tt.filename, tt.body), tt.constraints...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mime, mime)
		})
	}
}

func TestValidateFileTooLarge(t *testing.T) {
	header := fileHeader(t, "me.png", pngBytes)
	header.Size = ImageConstraints.MaxSize + 1

	_, err := ValidateFile(header, ImageConstraints)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size for image uploads is 5 MB")
}

func TestValidateFileNeedsConstraints(t *testing.T) {
	_, err := ValidateFile(fileHeader(t, "me.png", pngBytes))
	assert.Error(t, err)
}
