// Package mcp implements the Model Context Protocol (MCP) server for findtext.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// Custom MCP error codes for findtext.
const (
	// ErrCodeSearchFailed indicates the search stopped on an I/O failure.
	ErrCodeSearchFailed = -32002

	// ErrCodeTimeout indicates the request timed out or was cancelled.
	ErrCodeTimeout = -32003

	// ErrCodeFileNotFound indicates the directory or a file vanished.
	ErrCodeFileNotFound = -32004

	// Standard JSON-RPC error codes.
	ErrCodeMethodNotFound = jsonrpc.CodeMethodNotFound
	ErrCodeInvalidParams  = jsonrpc.CodeInvalidParams
	ErrCodeInternalError  = jsonrpc.CodeInternalError
)

// Sentinel errors for internal use.
var (
	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")

	// ErrResourceNotFound indicates the requested resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// Wire converts e into a JSON-RPC error, which the SDK returns to the
// client as a protocol error instead of a failed tool result.
func (e *MCPError) Wire() *jsonrpc.Error {
	return &jsonrpc.Error{Code: int64(e.Code), Message: e.Message}
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var me *MCPError
	if errors.As(err, &me) {
		return me
	}

	var fe *fterrors.Error
	if errors.As(err, &fe) {
		return mapFindTextError(fe)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid parameters.",
		}
	case errors.Is(err, ErrResourceNotFound):
		return &MCPError{
			Code:    ErrCodeMethodNotFound,
			Message: "Resource not found.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}

// NewResourceNotFoundError creates an error for unknown resources.
func NewResourceNotFoundError(uri string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Resource '%s' not found.", uri),
	}
}

// mapFindTextError converts a structured error to an MCPError.
func mapFindTextError(fe *fterrors.Error) *MCPError {
	message := fe.Message
	if fe.Suggestion != "" {
		message = fmt.Sprintf("%s. %s", fe.Message, fe.Suggestion)
	}

	switch fe.Category {
	case fterrors.CategoryValidation:
		if fe.Code == fterrors.ErrCodeDirUnreadable {
			return &MCPError{Code: ErrCodeSearchFailed, Message: message}
		}
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case fterrors.CategoryIO:
		if fe.Code == fterrors.ErrCodeFileNotFound {
			return &MCPError{Code: ErrCodeFileNotFound, Message: message}
		}
		return &MCPError{Code: ErrCodeSearchFailed, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
