// Package symmetric binds named block cipher families to the mode
// dispatcher and wraps the RC4 and ChaCha20 stream ciphers.
package symmetric

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/blowfish"

	"github.com/RowanDark/cipherkit/internal/blockmode"
	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// Family describes a block cipher: how to build it from a key, which key
// sizes it accepts and which modes it may run in.
type Family struct {
	Name string
	// KeySizes lists the accepted key lengths in bytes. When empty,
	// MinKey..MaxKey is used instead.
	KeySizes []int
	MinKey   int
	MaxKey   int
	Modes    []blockmode.Mode
	New      func(key []byte) (cipher.Block, error)
}

func (f Family) validKeySize(n int) bool {
	if len(f.KeySizes) == 0 {
		return n >= f.MinKey && n <= f.MaxKey
	}
	for _, size := range f.KeySizes {
		if n == size {
			return true
		}
	}
	return false
}

func (f Family) keySizeText() string {
	if len(f.KeySizes) == 0 {
		return fmt.Sprintf("%d to %d", f.MinKey, f.MaxKey)
	}
	parts := make([]string, len(f.KeySizes))
	for i, size := range f.KeySizes {
		parts[i] = fmt.Sprint(size)
	}
	return strings.Join(parts, ", ")
}

// Supports reports whether the family may run in mode.
func (f Family) Supports(mode blockmode.Mode) bool {
	for _, m := range f.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// Block checks the key length and builds the primitive.
func (f Family) Block(key []byte) (cipher.Block, error) {
	if !f.validKeySize(len(key)) {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKeyLength, "key",
			fmt.Sprintf("%s keys must be %s bytes, got %d", f.Name, f.keySizeText(), len(key)))
	}
	block, err := f.New(key)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
	}
	return block, nil
}

var (
	registry = make(map[string]Family)
	mu       sync.RWMutex
)

// Register adds or replaces a family.
func Register(f Family) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(f.Name)] = f
}

// Lookup returns the family registered under name.
func Lookup(name string) (Family, bool) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Families lists the registered family names in sorted order.
func Families() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var legacyModes = []blockmode.Mode{blockmode.CBC, blockmode.ECB, blockmode.CTR, blockmode.OFB}

func init() {
	Register(Family{
		Name:     "aes",
		KeySizes: []int{16, 24, 32},
		Modes:    blockmode.Modes(),
		New:      aes.NewCipher,
	})
	Register(Family{
		Name:     "des",
		KeySizes: []int{8},
		Modes:    legacyModes,
		New:      des.NewCipher,
	})
	Register(Family{
		Name:     "3des",
		KeySizes: []int{16, 24},
		Modes:    legacyModes,
		New:      newTripleDES,
	})
	Register(Family{
		Name:   "blowfish",
		MinKey: 4,
		MaxKey: 56,
		Modes:  legacyModes,
		New: func(key []byte) (cipher.Block, error) {
			return blowfish.NewCipher(key)
		},
	})
}

// newTripleDES expands a two-key bundle to K1 K2 K1.
func newTripleDES(key []byte) (cipher.Block, error) {
	if len(key) == 16 {
		expanded := make([]byte, 0, 24)
		expanded = append(expanded, key...)
		expanded = append(expanded, key[:8]...)
		key = expanded
	}
	return des.NewTripleDESCipher(key)
}

// Params carries decoded key material for one call. An empty IV selects the
// all-zero IV. Tag and AAD are only read in GCM mode.
type Params struct {
	Key  []byte
	IV   []byte
	Mode blockmode.Mode
	Tag  []byte
	AAD  []byte
}

func (p Params) options() []blockmode.Option {
	return []blockmode.Option{blockmode.WithTag(p.Tag), blockmode.WithAdditionalData(p.AAD)}
}

func resolve(name string, p Params) (cipher.Block, blockmode.Mode, error) {
	f, ok := Lookup(name)
	if !ok {
		return nil, "", cryptoerr.New(cryptoerr.ErrInvalidInput, "cipher", fmt.Sprintf("unknown cipher family %q", name))
	}
	mode := p.Mode
	if mode == "" {
		mode = blockmode.CBC
	}
	if !f.Supports(mode) {
		return nil, "", cryptoerr.New(cryptoerr.ErrInvalidMode, "mode", fmt.Sprintf("%s does not support %s", f.Name, mode))
	}
	block, err := f.Block(p.Key)
	if err != nil {
		return nil, "", err
	}
	return block, mode, nil
}

// Encrypt encrypts plaintext with the named family. The mode defaults to CBC.
func Encrypt(name string, p Params, plaintext []byte) (blockmode.Result, error) {
	block, mode, err := resolve(name, p)
	if err != nil {
		return blockmode.Result{}, err
	}
	return blockmode.Encrypt(block, mode, p.IV, plaintext, p.options()...)
}

// Decrypt reverses Encrypt.
func Decrypt(name string, p Params, ciphertext []byte) (blockmode.Result, error) {
	block, mode, err := resolve(name, p)
	if err != nil {
		return blockmode.Result{}, err
	}
	return blockmode.Decrypt(block, mode, p.IV, ciphertext, p.options()...)
}
