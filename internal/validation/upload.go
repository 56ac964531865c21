package validation

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

const (
	MaxVideoSize = 100 * 1024 * 1024
	MinVideoSize = 1 * 1024 * 1024

	MinTitleLength       = 3
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

var (
	allowedTypes      = []string{"video/mp4", "video/webm", "video/quicktime"}
	allowedExtensions = []string{".mp4", ".webm", ".mov"}

	extensionTypes = map[string]string{
		".mp4":  "video/mp4",
		".webm": "video/webm",
		".mov":  "video/quicktime",
	}
)

// VideoFile describes a file picked for upload
type VideoFile struct {
	Name        string
	Size        int64
	ContentType string
}

// Upload is everything the upload form submits
type Upload struct {
	File        VideoFile
	Title       string
	Description string
	TopicID     string
}

// InspectVideo stats path and sniffs its content type, falling back to the
// extension when the header is not recognised.
func InspectVideo(path string) (VideoFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return VideoFile{}, fmt.Errorf("failed to open video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return VideoFile{}, fmt.Errorf("failed to stat video: %w", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return VideoFile{}, fmt.Errorf("failed to read video: %w", err)
	}

	return VideoFile{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: sniffType(head[:n], path),
	}, nil
}

func sniffType(head []byte, name string) string {
	ct := http.DetectContentType(head)
	if strings.HasPrefix(ct, "video/") {
		return ct
	}
	if byExt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return byExt
	}
	return ct
}

// ValidateVideoFile checks type, extension and size
func ValidateVideoFile(f VideoFile) Errors {
	var errs Errors

	if !slices.Contains(allowedTypes, f.ContentType) {
		errs.add("file", fmt.Sprintf("Invalid file type: %s. Only MP4, WebM, and MOV files are allowed.", f.ContentType))
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	if !slices.Contains(allowedExtensions, ext) {
		errs.add("file", fmt.Sprintf("Invalid file extension: %s. Only .mp4, .webm, and .mov files are allowed.", ext))
	}

	if f.Size > MaxVideoSize {
		errs.add("file", fmt.Sprintf("File too large: %s. Maximum size is 100MB.", humanize.IBytes(uint64(f.Size))))
	}
	if f.Size < MinVideoSize {
		errs.add("file", fmt.Sprintf("File too small: %s. Minimum size is 1MB.", humanize.IBytes(uint64(max(f.Size, 0)))))
	}

	return errs
}

// ValidateTitle checks the trimmed title length
func ValidateTitle(title string) Errors {
	var errs Errors
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)

	switch {
	case n == 0:
		errs.add("title", "Video title is required")
	case n < MinTitleLength:
		errs.add("title", "Title must be at least 3 characters long")
	case n > MaxTitleLength:
		errs.add("title", "Title cannot be more than 100 characters")
	}
	return errs
}

// ValidateDescription checks the optional description length
func ValidateDescription(desc string) Errors {
	var errs Errors
	if utf8.RuneCountInString(strings.TrimSpace(desc)) > MaxDescriptionLength {
		errs.add("description", "Description cannot be more than 500 characters")
	}
	return errs
}

// ValidateUpload runs every upload rule; a non-empty result means the
// request must not be sent.
func ValidateUpload(u Upload) Errors {
	var errs Errors
	if strings.TrimSpace(u.TopicID) == "" {
		errs.add("topic", "Please select a topic first")
	}
	errs = append(errs, ValidateVideoFile(u.File)...)
	errs = append(errs, ValidateTitle(u.Title)...)
	errs = append(errs, ValidateDescription(u.Description)...)
	return errs
}
