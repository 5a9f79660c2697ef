package blockmode

import (
	"crypto/cipher"
	"crypto/subtle"
	"fmt"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

func newGCM(block cipher.Block, nonce []byte) (cipher.AEAD, []byte, error) {
	if len(nonce) == 0 {
		nonce = make([]byte, GCMNonceSize)
	}
	if len(nonce) != GCMNonceSize {
		return nil, nil, cryptoerr.New(cryptoerr.ErrInvalidIVLength, "iv", fmt.Sprintf("got %d bytes, GCM needs a %d byte nonce", len(nonce), GCMNonceSize))
	}
	aead, err := cipher.NewGCMWithNonceSize(block, GCMNonceSize)
	if err != nil {
		return nil, nil, cryptoerr.New(cryptoerr.ErrInvalidMode, "mode", err.Error())
	}
	return aead, nonce, nil
}

func sealGCM(block cipher.Block, nonce, plaintext []byte, o options) (Result, error) {
	aead, nonce, err := newGCM(block, nonce)
	if err != nil {
		return Result{}, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, o.additional)
	split := len(sealed) - aead.Overhead()
	return Result{Data: sealed[:split:split], Tag: sealed[split:]}, nil
}

func openGCM(block cipher.Block, nonce, ciphertext []byte, o options) (Result, error) {
	aead, nonce, err := newGCM(block, nonce)
	if err != nil {
		return Result{}, err
	}

	if len(o.tag) == 0 {
		// The ciphertext half of Seal is the CTR keystream XOR the input, so
		// sealing zeros yields the keystream without needing a tag.
		keystream := aead.Seal(nil, nonce, make([]byte, len(ciphertext)), nil)
		out := make([]byte, len(ciphertext))
		subtle.XORBytes(out, ciphertext, keystream[:len(ciphertext)])
		return Result{Data: out}, nil
	}

	if len(o.tag) != aead.Overhead() {
		return Result{}, cryptoerr.New(cryptoerr.ErrInvalidInput, "tag", fmt.Sprintf("got %d bytes, GCM tags are %d", len(o.tag), GCMTagSize))
	}
	sealed := make([]byte, 0, len(ciphertext)+len(o.tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, o.tag...)
	plain, err := aead.Open(nil, nonce, sealed, o.additional)
	if err != nil {
		return Result{}, cryptoerr.New(cryptoerr.ErrAuthentication, "tag", err.Error())
	}
	return Result{Data: plain, Tag: o.tag, Authenticated: true}, nil
}
