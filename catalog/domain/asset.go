package domain

import "errors"

// Stable failure codes returned across the upload pipeline boundary. The
// pipeline never lets an error escape as a panic or a bare error; callers
// switch on these codes.
const (
	CodeFileValidationFailed      = "FILE_VALIDATION_FAILED"
	CodeDimensionValidationFailed = "DIMENSION_VALIDATION_FAILED"
	CodeFileMoveFailed            = "FILE_MOVE_FAILED"
	CodeIntegrityCheckFailed      = "INTEGRITY_CHECK_FAILED"
	CodeInternalProcessingError   = "INTERNAL_PROCESSING_ERROR"
	CodeMissingOwnerID            = "MISSING_OWNER_ID"
	CodeOwnerNotFound             = "OWNER_NOT_FOUND"
	CodeInvalidAssetAssociation   = "INVALID_ASSET_ASSOCIATION"
)

var ErrCategoryNotFound = errors.New("category not found")

// UploadRequest describes an incoming image file. The bytes live at
// SourcePath (typically a temp file written by the HTTP layer) until the
// pipeline consumes them. Width and Height are zero when the caller did not
// decode the image.
type UploadRequest struct {
	SourcePath       string
	OriginalFilename string
	MimeType         string
	Size             int64
	Width            int
	Height           int
}

// HasDimensions reports whether decoded geometry was supplied.
func (r UploadRequest) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// OptimizationInfo records the outcome of the best-effort optimization stage.
type OptimizationInfo struct {
	OriginalSize  int64   `json:"originalSize"`
	OptimizedSize int64   `json:"optimizedSize"`
	Ratio         float64 `json:"ratio"`
}

// AssetDescriptor is the result of a successful pipeline run. Path is
// store-relative; the owning service persists it on the category record.
type AssetDescriptor struct {
	Filename     string
	Path         string
	Size         int64
	Optimization *OptimizationInfo
}

// Result converts a descriptor into the pipeline's success shape.
func (d AssetDescriptor) Result() UploadResult {
	return UploadResult{
		Success:      true,
		Filename:     d.Filename,
		Path:         d.Path,
		Size:         d.Size,
		Optimization: d.Optimization,
	}
}

// UploadResult is the pipeline's only output shape. Exactly one of the
// success fields or the failure fields is populated.
type UploadResult struct {
	Success      bool              `json:"success"`
	Filename     string            `json:"filename,omitempty"`
	Path         string            `json:"path,omitempty"`
	Size         int64             `json:"size,omitempty"`
	Optimization *OptimizationInfo `json:"optimization,omitempty"`
	Code         string            `json:"code,omitempty"`
	Message      string            `json:"message,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// Failure builds a failed UploadResult with a stable code.
func Failure(code, message string) UploadResult {
	return UploadResult{Code: code, Message: message}
}

// ValidationFailure builds a failed UploadResult carrying per-field errors.
func ValidationFailure(code string, fieldErrors map[string]string) UploadResult {
	return UploadResult{
		Code:    code,
		Message: "uploaded file failed validation",
		Errors:  fieldErrors,
	}
}
