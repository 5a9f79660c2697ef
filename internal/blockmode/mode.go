// Package blockmode turns any cipher.Block into a whole-message transform for
// the ECB, CBC, CTR, OFB, CFB and GCM modes.
//
// The primitive is injected, so the same dispatcher serves AES, DES, 3DES,
// Blowfish or a test double. Padding, IV checks and tag handling live here;
// key schedules do not.
package blockmode

import (
	"crypto/cipher"
	"fmt"
	"strings"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// Mode names a block cipher mode of operation.
type Mode string

const (
	ECB Mode = "ECB"
	CBC Mode = "CBC"
	CTR Mode = "CTR"
	OFB Mode = "OFB"
	CFB Mode = "CFB"
	GCM Mode = "GCM"
)

// GCMNonceSize is the nonce length used for GCM. GCMTagSize is the length of
// the tag it produces.
const (
	GCMNonceSize = 16
	GCMTagSize   = 16
)

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{CBC, ECB, CTR, OFB, CFB, GCM}
}

// ParseMode resolves a mode name case-insensitively.
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToUpper(strings.TrimSpace(name)))
	for _, known := range Modes() {
		if m == known {
			return m, nil
		}
	}
	return "", cryptoerr.New(cryptoerr.ErrInvalidMode, "mode", fmt.Sprintf("unsupported mode %q", name))
}

// Padded reports whether the mode pads its input to whole blocks.
func (m Mode) Padded() bool {
	return m == ECB || m == CBC
}

// Result is the output of a mode transform. Tag is only set by GCM.
type Result struct {
	Data []byte
	Tag  []byte
	// Authenticated is true when a GCM tag was checked on decrypt.
	Authenticated bool
}

type options struct {
	tag        []byte
	additional []byte
}

// Option adjusts an Encrypt or Decrypt call.
type Option func(*options)

// WithTag supplies the GCM tag to verify on decrypt.
func WithTag(tag []byte) Option {
	return func(o *options) {
		o.tag = tag
	}
}

// WithAdditionalData supplies GCM additional authenticated data.
func WithAdditionalData(aad []byte) Option {
	return func(o *options) {
		o.additional = aad
	}
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Encrypt runs plaintext through block in the given mode. An empty iv means an
// all-zero IV (or nonce). ECB ignores iv.
func Encrypt(block cipher.Block, mode Mode, iv, plaintext []byte, opts ...Option) (Result, error) {
	o := collect(opts)
	if mode == GCM {
		return sealGCM(block, iv, plaintext, o)
	}
	iv, err := checkIV(block, mode, iv)
	if err != nil {
		return Result{}, err
	}

	if mode.Padded() {
		plaintext = Pad(plaintext, block.BlockSize())
	}
	switch mode {
	case ECB:
		out := make([]byte, len(plaintext))
		newECBEncrypter(block).CryptBlocks(out, plaintext)
		return Result{Data: out}, nil
	case CBC:
		out := make([]byte, len(plaintext))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
		return Result{Data: out}, nil
	case CTR, OFB, CFB:
		return Result{Data: stream(block, mode, iv, plaintext, false)}, nil
	default:
		return Result{}, cryptoerr.New(cryptoerr.ErrInvalidMode, "mode", fmt.Sprintf("unsupported mode %q", mode))
	}
}

// Decrypt reverses Encrypt. Padded modes strip PKCS#7 padding and fail with
// ErrPadding when it is inconsistent. GCM authenticates only when a tag is
// supplied with WithTag.
func Decrypt(block cipher.Block, mode Mode, iv, ciphertext []byte, opts ...Option) (Result, error) {
	o := collect(opts)
	if mode == GCM {
		return openGCM(block, iv, ciphertext, o)
	}
	iv, err := checkIV(block, mode, iv)
	if err != nil {
		return Result{}, err
	}

	bs := block.BlockSize()
	if mode.Padded() && (len(ciphertext) == 0 || len(ciphertext)%bs != 0) {
		return Result{}, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(ciphertext), bs))
	}
	switch mode {
	case ECB, CBC:
		out := make([]byte, len(ciphertext))
		if mode == ECB {
			newECBDecrypter(block).CryptBlocks(out, ciphertext)
		} else {
			cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		}
		plain, err := Unpad(out, bs)
		if err != nil {
			return Result{}, err
		}
		return Result{Data: plain}, nil
	case CTR, OFB, CFB:
		return Result{Data: stream(block, mode, iv, ciphertext, true)}, nil
	default:
		return Result{}, cryptoerr.New(cryptoerr.ErrInvalidMode, "mode", fmt.Sprintf("unsupported mode %q", mode))
	}
}

func checkIV(block cipher.Block, mode Mode, iv []byte) ([]byte, error) {
	bs := block.BlockSize()
	if mode == ECB {
		return nil, nil
	}
	if len(iv) == 0 {
		return make([]byte, bs), nil
	}
	if len(iv) != bs {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidIVLength, "iv", fmt.Sprintf("got %d bytes, %s needs %d", len(iv), mode, bs))
	}
	return iv, nil
}

func stream(block cipher.Block, mode Mode, iv, src []byte, decrypt bool) []byte {
	dst := make([]byte, len(src))
	var s cipher.Stream
	switch mode {
	case CTR:
		s = cipher.NewCTR(block, iv)
	case OFB:
		s = newOFB(block, iv)
	default:
		s = newCFB(block, iv, decrypt)
	}
	s.XORKeyStream(dst, src)
	return dst
}
