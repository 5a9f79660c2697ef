// Package cryptoerr defines the error kinds shared by every transform.
package cryptoerr

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidKey is returned when a classical cipher key is empty or malformed.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidKeyLength is returned when a decoded key does not fit the cipher.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidIVLength is returned when a decoded IV or nonce does not fit the cipher.
	ErrInvalidIVLength = errors.New("invalid iv length")

	// ErrInvalidMode is returned for a mode the chosen cipher family does not support.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidEncoding is returned when hex/base64 source material is malformed
	// or text cannot be represented in the requested codec.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrPadding is returned when PKCS#7 padding is corrupt on decrypt.
	ErrPadding = errors.New("invalid padding")

	// ErrAuthentication is returned when an authenticated mode rejects its tag.
	ErrAuthentication = errors.New("message authentication failed")

	// ErrInvalidInput is returned for malformed data or a missing or malformed
	// parameter that is not a key.
	ErrInvalidInput = errors.New("invalid input")
)

// Error ties an error kind to the parameter that caused it.
type Error struct {
	Kind   error
	Param  string
	Detail string
}

// New builds an Error for the given kind and parameter.
func New(kind error, param, detail string) *Error {
	return &Error{Kind: kind, Param: param, Detail: detail}
}

func (e *Error) Error() string {
	sb := strings.Builder{}
	if e.Param != "" {
		_, _ = sb.WriteString(e.Param)
		_, _ = sb.WriteString(": ")
	}
	if e.Kind != nil {
		_, _ = sb.WriteString(e.Kind.Error())
	} else {
		_, _ = sb.WriteString("error")
	}
	if e.Detail != "" {
		_, _ = sb.WriteString(" (")
		_, _ = sb.WriteString(e.Detail)
		_, _ = sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap returns the error kind so errors.Is matches the sentinels.
func (e *Error) Unwrap() error {
	return e.Kind
}

// WithParam returns a copy of err attributed to param when err is an *Error
// without a parameter name. Other errors are returned unchanged.
func WithParam(err error, param string) error {
	var ce *Error
	if !errors.As(err, &ce) || ce.Param != "" {
		return err
	}
	return &Error{Kind: ce.Kind, Param: param, Detail: ce.Detail}
}

// ParamOf reports the offending parameter name carried by err, if any.
func ParamOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Param
	}
	return ""
}

// KindOf maps err to its sentinel kind, or nil when err is not a cipher error.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrInvalidKey, ErrInvalidKeyLength, ErrInvalidIVLength,
		ErrInvalidMode, ErrInvalidEncoding, ErrPadding, ErrAuthentication, ErrInvalidInput,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
