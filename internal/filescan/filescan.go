// Package filescan reads one file line by line and reports every occurrence
// of a folded query, skipping files whose bytes are not valid text.
package filescan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
	"github.com/Aman-CERP/findtext/internal/match"
)

const (
	// DefaultMaxLineBytes bounds the memory used for a single line.
	DefaultMaxLineBytes = 64 * 1024 * 1024

	initialLineBuffer = 64 * 1024
	precheckBuffer    = 32 * 1024
)

// Options configures a Scanner.
type Options struct {
	// Encoding is a WHATWG label. Empty means strict UTF-8.
	Encoding string

	// MaxLineBytes is the longest line accepted before the file is skipped.
	// Zero means DefaultMaxLineBytes.
	MaxLineBytes int

	// OpenRetry controls retries of transient open failures.
	// Nil means fterrors.DefaultRetryConfig().
	OpenRetry *fterrors.RetryConfig
}

// Result summarizes the scan of one file.
type Result struct {
	Path        string
	Lines       int
	Occurrences int

	// Skipped is set when the file could not be decoded as text.
	Skipped    bool
	SkipReason error
}

// EmitFunc receives occurrences in line-then-offset order.
// A non-nil error stops the scan and is returned from Scan.
type EmitFunc func(line, offset int) error

// Scanner scans files for occurrences of a query. It is safe for
// concurrent use; each Scan owns its file handle.
type Scanner struct {
	enc          encoding.Encoding
	maxLineBytes int
	retry        fterrors.RetryConfig
}

// New creates a Scanner.
func New(opts Options) (*Scanner, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		enc:          enc,
		maxLineBytes: opts.MaxLineBytes,
		retry:        fterrors.DefaultRetryConfig(),
	}
	if s.maxLineBytes <= 0 {
		s.maxLineBytes = DefaultMaxLineBytes
	}
	if opts.OpenRetry != nil {
		s.retry = *opts.OpenRetry
	}
	return s, nil
}

// Scan reports every occurrence of foldedQuery in the file at path.
//
// A file that cannot be decoded, or that has a line longer than MaxLineBytes,
// is reported with Result.Skipped and a nil error. The whole file is decoded
// once before the first emit, so a skipped file never emits anything.
// Cancellation is checked before every line and before every search within
// a line, and returns ctx.Err(). Any other I/O failure is returned as a
// structured file error.
func (s *Scanner) Scan(ctx context.Context, path, foldedQuery string, emit EmitFunc) (Result, error) {
	res := Result{Path: path}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	f, err := fterrors.RetryWithResult(ctx, s.retry, func() (*os.File, error) {
		return os.Open(path)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fterrors.FileError(path, err)
	}
	defer f.Close()

	if src, err := s.precheck(ctx, f); err != nil {
		return s.failure(ctx, res, src, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return res, fterrors.FileError(path, err)
	}

	src := &fileReader{ctx: ctx, r: f}
	var r io.Reader = src
	if s.enc != nil {
		r = transform.NewReader(src, s.enc.NewDecoder())
	}

	// The terminator and one byte of lookahead after a "\r" share the buffer
	// with the line.
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, min(initialLineBuffer, s.maxLineBytes+2)), s.maxLineBytes+2)
	sc.Split(scanLines)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !sc.Scan() {
			break
		}
		res.Lines++

		line := sc.Text()
		if s.enc == nil && !utf8.ValidString(line) {
			// The file changed after validation.
			return s.skip(res, errors.New("invalid UTF-8"))
		}

		for offset := range match.Offsets(line, foldedQuery) {
			if err := emit(res.Lines, offset); err != nil {
				return res, err
			}
			res.Occurrences++
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
	}

	if err := sc.Err(); err != nil {
		return s.failure(ctx, res, src, err)
	}
	return res, nil
}

// precheck decodes the whole file without emitting anything and fails on
// invalid input or on a line longer than maxLineBytes.
func (s *Scanner) precheck(ctx context.Context, f *os.File) (*fileReader, error) {
	src := &fileReader{ctx: ctx, r: f}
	var t transform.Transformer = encoding.UTF8Validator
	if s.enc != nil {
		t = s.enc.NewDecoder()
	}
	r := transform.NewReader(src, t)

	buf := make([]byte, precheckBuffer)
	lineLen := 0
	for {
		n, err := r.Read(buf)
		chunk := buf[:n]
		for len(chunk) > 0 {
			i := bytes.IndexAny(chunk, "\r\n")
			if i < 0 {
				lineLen += len(chunk)
				break
			}
			if lineLen+i > s.maxLineBytes {
				return src, bufio.ErrTooLong
			}
			lineLen = 0
			chunk = chunk[i+1:]
		}
		if lineLen > s.maxLineBytes {
			return src, bufio.ErrTooLong
		}
		if err == io.EOF {
			return src, nil
		}
		if err != nil {
			return src, err
		}
	}
}

// failure sorts a read error into cancellation, an I/O error from the file,
// or a decoding problem that skips the file.
func (s *Scanner) failure(ctx context.Context, res Result, src *fileReader, err error) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if src.err != nil {
		return res, fterrors.FileError(res.Path, src.err)
	}
	return s.skip(res, err)
}

func (s *Scanner) skip(res Result, cause error) (Result, error) {
	msg := "file is not valid text"
	if errors.Is(cause, bufio.ErrTooLong) {
		msg = "line exceeds maximum length"
	}

	res.Skipped = true
	res.SkipReason = fterrors.New(fterrors.ErrCodeFileDecode, msg, cause).WithDetail("path", res.Path)
	return res, nil
}

// fileReader checks for cancellation before every read and remembers the
// last error returned by the underlying file.
type fileReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (fr *fileReader) Read(p []byte) (int, error) {
	if err := fr.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := fr.r.Read(p)
	if err != nil && err != io.EOF {
		fr.err = err
	}
	return n, err
}
