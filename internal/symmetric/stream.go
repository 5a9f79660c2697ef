package symmetric

import (
	"crypto/rc4"
	"fmt"

	"golang.org/x/crypto/chacha20"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// RC4 encrypts or decrypts data; the operation is symmetric.
func RC4(key, data []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKeyLength, "key", fmt.Sprintf("rc4 keys must be 1 to 256 bytes, got %d", len(key)))
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}

// djbNonceSize is the 64 bit nonce of the original ChaCha20 construction.
const djbNonceSize = 8

// ChaCha20 runs the ChaCha20 keystream from block counter zero. A 12 byte
// nonce selects ChaCha20, a 24 byte nonce XChaCha20. An 8 byte nonce is
// left-padded with zeros, which matches the 64 bit counter variant for the
// first 2^32 blocks. An empty nonce means eight zero bytes.
func ChaCha20(key, nonce, data []byte) ([]byte, error) {
	if len(key) != chacha20.KeySize {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKeyLength, "key", fmt.Sprintf("chacha20 keys must be %d bytes, got %d", chacha20.KeySize, len(key)))
	}
	switch len(nonce) {
	case 0:
		nonce = make([]byte, chacha20.NonceSize)
	case djbNonceSize:
		nonce = append(make([]byte, chacha20.NonceSize-djbNonceSize), nonce...)
	case chacha20.NonceSize, chacha20.NonceSizeX:
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidIVLength, "nonce", fmt.Sprintf("chacha20 nonces must be %d, %d or %d bytes, got %d", djbNonceSize, chacha20.NonceSize, chacha20.NonceSizeX, len(nonce)))
	}
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out, nil
}
