package errors

import (
	stderrors "errors"
	"io/fs"
	"syscall"
)

// FileError classifies an operating system error for path into a
// structured error. The path is recorded under the "path" detail.
func FileError(path string, err error) *Error {
	if err == nil {
		return nil
	}

	var fe *Error
	switch {
	case stderrors.As(err, &fe):
		return fe
	case stderrors.Is(err, fs.ErrNotExist):
		fe = New(ErrCodeFileNotFound, "file not found: "+path, err).
			WithSuggestion("The file was removed while the search was running")
	case stderrors.Is(err, fs.ErrPermission):
		fe = New(ErrCodeFilePermission, "permission denied: "+path, err).
			WithSuggestion("Check read permissions or exclude the path with --exclude")
	case IsDescriptorExhaustion(err):
		fe = New(ErrCodeTooManyOpenFiles, "too many open files: "+path, err).
			WithSuggestion("Lower --concurrency or raise the open file limit (ulimit -n)")
	default:
		fe = New(ErrCodeFileRead, "read failed: "+path, err)
	}
	return fe.WithDetail("path", path)
}

// IsDescriptorExhaustion reports whether err is a transient failure to
// obtain a file descriptor.
func IsDescriptorExhaustion(err error) bool {
	var errno syscall.Errno
	if !stderrors.As(err, &errno) {
		return false
	}
	switch errno {
	case syscall.EMFILE, syscall.ENFILE, syscall.EINTR, syscall.EAGAIN:
		return true
	}
	return false
}
