// Package errors provides structured error handling for findtext.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: File and directory I/O errors
//   - 4XX: Validation errors
//   - 6XX: Protocol (MCP) errors
//   - 9XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and directory I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryProtocol indicates MCP protocol errors.
	CategoryProtocol Category = "PROTOCOL"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// IO errors (200-299)
	ErrCodeFileNotFound     = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission   = "ERR_203_FILE_PERMISSION"
	ErrCodeFileRead         = "ERR_207_FILE_READ"
	ErrCodeFileDecode       = "ERR_208_FILE_DECODE"
	ErrCodeWalkFailed       = "ERR_209_WALK_FAILED"
	ErrCodeTooManyOpenFiles = "ERR_210_TOO_MANY_OPEN_FILES"
	ErrCodeHistoryStore     = "ERR_211_HISTORY_STORE"

	// Validation errors (400-499)
	ErrCodeInvalidInput    = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty      = "ERR_404_QUERY_EMPTY"
	ErrCodeInvalidPath     = "ERR_406_INVALID_PATH"
	ErrCodeNotDirectory    = "ERR_407_NOT_DIRECTORY"
	ErrCodeDirUnreadable   = "ERR_408_DIR_UNREADABLE"
	ErrCodeInvalidEncoding = "ERR_409_INVALID_ENCODING"

	// Protocol errors (600-699)
	ErrCodeInvalidParams = "ERR_601_INVALID_PARAMS"
	ErrCodeTransport     = "ERR_602_TRANSPORT"

	// Internal errors (900-999)
	ErrCodeInternal     = "ERR_901_INTERNAL"
	ErrCodeSearchFailed = "ERR_902_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '6':
		return CategoryProtocol
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityFatal
	case ErrCodeFileDecode:
		// Undecodable files are skipped, the search continues.
		return SeverityWarning
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeTooManyOpenFiles:
		return true
	default:
		return false
	}
}
