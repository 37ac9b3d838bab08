package fields

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// File is an uploaded file stored with a record
type File struct {
	Name        string
	Size        int64
	ContentType string
	Head        []byte `json:"-"` // first bytes of the content, for sniffing
}

// RestrictedFile validates File values (File or *File; empty names pass)
type RestrictedFile struct {
	MaxSize int64 // bytes, 0 for any
	// ContentTypes allowed by the file name extension, empty for any
	ContentTypes []string
	// SniffedContentTypes allowed by the content itself, empty for any
	SniffedContentTypes []string
}

// Validate checks size, name and content
func (f RestrictedFile) Validate(value any) error {
	var file File
	switch v := value.(type) {
	case File:
		file = v
	case *File:
		if v == nil {
			return nil
		}
		file = *v
	default:
		panic(fmt.Sprintf("RestrictedFile expects a File, got %T", value))
	}
	if file.Name == "" {
		return nil
	}
	if f.MaxSize > 0 && file.Size > f.MaxSize {
		return fmt.Errorf("Please keep filesize under %s. Current filesize %s",
			FileSize(f.MaxSize), FileSize(file.Size))
	}
	if len(f.ContentTypes) > 0 {
		byName := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.Name)))
		if mediaType, _, err := mime.ParseMediaType(byName); err != nil || !slices.Contains(f.ContentTypes, mediaType) {
			return errors.New("Extension of file name is not allowed")
		}
	}
	if len(f.SniffedContentTypes) > 0 {
		mediaType, _, err := mime.ParseMediaType(http.DetectContentType(file.Head))
		if err != nil || !slices.Contains(f.SniffedContentTypes, mediaType) {
			return errors.New("File content was evaluated as not supported file type")
		}
	}
	return nil
}

// FileSize formats a byte count for humans: "512 bytes", "1.5 KB", "2.0 MB"
func FileSize(size int64) string {
	const unit = 1024
	if size < unit {
		if size == 1 {
			return "1 byte"
		}
		return fmt.Sprintf("%d bytes", size)
	}
	value := float64(size) / unit
	for _, suffix := range []string{"KB", "MB", "GB", "TB"} {
		if value < unit {
			return fmt.Sprintf("%.1f %s", value, suffix)
		}
		value /= unit
	}
	return fmt.Sprintf("%.1f PB", value)
}
