package application

import (
	"fmt"
	"strings"

	"github.com/openmerch/catalog/catalog/domain"
)

// Validation bounds for incoming category images.
const (
	minFileSize       = 1 * 1024        // rejects empty and truncated uploads
	maxFileSize       = 2 * 1024 * 1024 // 2MB
	maxFilenameLength = 255

	minDimension   = 100
	maxDimension   = 2000
	maxAspectRatio = 5.0 // width:height and height:width both capped at 5:1
)

// allowedMimeTypes maps each accepted MIME type to the extensions it may
// legitimately carry.
var allowedMimeTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// unsafeFilenameFragments are substrings that indicate path traversal or
// shell/HTML injection attempts in a user-supplied filename.
var unsafeFilenameFragments = []string{
	"..", "/", "\\", "<", ">", "&", ";", "|", "$", "`", "'", "\"", "\x00",
}

// ValidationResult collects every applicable failure keyed by field name, so
// a caller can report all problems in one round trip.
type ValidationResult struct {
	IsValid bool
	Errors  map[string]string
}

// AssetValidator checks an upload request against type, size, filename and
// geometry constraints. It performs no I/O; everything is judged from the
// declared request fields.
type AssetValidator struct{}

func NewAssetValidator() *AssetValidator {
	return &AssetValidator{}
}

// Validate runs every applicable file-level check and collects the failures.
func (v *AssetValidator) Validate(req domain.UploadRequest) ValidationResult {
	errs := map[string]string{}

	mime := strings.ToLower(strings.TrimSpace(req.MimeType))
	extensions, mimeAllowed := allowedMimeTypes[mime]
	if !mimeAllowed {
		errs["mimeType"] = fmt.Sprintf("unsupported file type %q; allowed types are JPEG, PNG and WebP", req.MimeType)
	}

	ext := strings.ToLower(extensionOf(req.OriginalFilename))
	if mimeAllowed {
		if !containsString(extensions, ext) {
			errs["extension"] = fmt.Sprintf("extension %q does not match declared type %q", extensionOf(req.OriginalFilename), req.MimeType)
		}
	}

	if req.Size < minFileSize {
		errs["size"] = fmt.Sprintf("file is too small (%d bytes); minimum is %d bytes", req.Size, minFileSize)
	} else if req.Size > maxFileSize {
		errs["size"] = fmt.Sprintf("file is too large (%d bytes); maximum is %d bytes", req.Size, maxFileSize)
	}

	if req.OriginalFilename == "" {
		errs["filename"] = "filename is empty"
	} else {
		if len(req.OriginalFilename) > maxFilenameLength {
			errs["filename"] = fmt.Sprintf("filename exceeds %d characters", maxFilenameLength)
		}
		for _, fragment := range unsafeFilenameFragments {
			if strings.Contains(req.OriginalFilename, fragment) {
				errs["filename"] = fmt.Sprintf("filename contains unsafe sequence %q", fragment)
				break
			}
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// ValidateDimensions checks decoded geometry against the size and aspect
// bounds. Callers skip this when no dimensions were supplied.
func (v *AssetValidator) ValidateDimensions(width, height int) ValidationResult {
	errs := map[string]string{}

	if width < minDimension || height < minDimension {
		errs["dimensions"] = fmt.Sprintf("image is %dx%d; minimum is %dx%d", width, height, minDimension, minDimension)
	} else if width > maxDimension || height > maxDimension {
		errs["dimensions"] = fmt.Sprintf("image is %dx%d; maximum is %dx%d", width, height, maxDimension, maxDimension)
	}

	if width > 0 && height > 0 {
		ratio := float64(width) / float64(height)
		if ratio > maxAspectRatio || ratio < 1/maxAspectRatio {
			errs["aspectRatio"] = fmt.Sprintf("aspect ratio %.2f is outside the allowed range 1:5 to 5:1", ratio)
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return filename[idx:]
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
