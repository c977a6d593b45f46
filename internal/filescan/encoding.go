package filescan

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// DefaultEncoding is the strict encoding files are assumed to use.
const DefaultEncoding = "utf-8"

// lookupEncoding resolves a WHATWG encoding label. A nil encoding means
// strict UTF-8: invalid input is a decode failure rather than being replaced.
func lookupEncoding(name string) (encoding.Encoding, error) {
	label := strings.ToLower(strings.TrimSpace(name))
	switch label {
	case "", "utf-8", "utf8":
		return nil, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fterrors.New(fterrors.ErrCodeInvalidEncoding, "unknown encoding: "+name, err).
			WithSuggestion("Use a WHATWG label such as utf-8, windows-1252, iso-8859-2 or utf-16le")
	}
	if canonical, _ := htmlindex.Name(enc); canonical == DefaultEncoding {
		return nil, nil
	}
	return enc, nil
}

// ValidateEncoding reports whether name is a usable encoding label.
func ValidateEncoding(name string) error {
	_, err := lookupEncoding(name)
	return err
}

// CanonicalEncoding returns the canonical name for label, or label itself
// when it is unknown.
func CanonicalEncoding(label string) string {
	enc, err := lookupEncoding(label)
	if err != nil {
		return label
	}
	if enc == nil {
		return DefaultEncoding
	}
	if name, err := htmlindex.Name(enc); err == nil {
		return name
	}
	return label
}
