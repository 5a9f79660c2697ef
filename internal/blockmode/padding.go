package blockmode

import (
	"bytes"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// Pad appends PKCS#7 padding. A full block of padding is added when data is
// already aligned.
func Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

// Unpad strips PKCS#7 padding. It never truncates on a bad run; every
// inconsistency is reported as ErrPadding.
func Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, cryptoerr.New(cryptoerr.ErrPadding, "data", "input is not block aligned")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, cryptoerr.New(cryptoerr.ErrPadding, "data", "trailing byte is not a valid pad length")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, cryptoerr.New(cryptoerr.ErrPadding, "data", "inconsistent padding run")
		}
	}
	out := make([]byte, len(data)-n)
	copy(out, data)
	return out, nil
}
