package capture

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/apex/log"
)

// FileSource reads a user-selected file into an EncodedImage. It is the
// upload fallback for when the camera is unavailable or denied.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// RequestImage reads and sniffs the file. Non-image files are rejected
// with ErrInvalidInput and produce no state change.
func (s *FileSource) RequestImage(ctx context.Context) (*EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrCancelled
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		log.Errorf("Failed to read image file %s: %v", s.Path, err)
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		log.Warnf("Rejected non-image upload %s (%s)", s.Path, mimeType)
		return nil, ErrInvalidInput
	}

	return &EncodedImage{Data: data, MimeType: mimeType}, nil
}
