package classical

import (
	"fmt"
	"strings"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// VigenereEncode enciphers text with key. Only ASCII letters consume key
// characters; everything else is copied through.
func VigenereEncode(text, key string) (string, error) {
	return vigenere(text, key, 1)
}

// VigenereDecode reverses VigenereEncode.
func VigenereDecode(text, key string) (string, error) {
	return vigenere(text, key, -1)
}

func vigenere(text, key string, direction int) (string, error) {
	shifts, err := vigenereKey(key)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(text))
	skipped := 0
	for i, r := range []rune(text) {
		base, ok := letterBase(r)
		if !ok {
			sb.WriteRune(r)
			skipped++
			continue
		}
		shift := shifts[(i-skipped)%len(shifts)]
		sb.WriteRune(base + rune(mod(int(r-base)+direction*shift, alphabetSize)))
	}
	return sb.String(), nil
}

func vigenereKey(key string) ([]int, error) {
	if key == "" {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", "no key entered")
	}
	shifts := make([]int, 0, len(key))
	for _, r := range key {
		base, ok := letterBase(r)
		if !ok {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", "the key must consist only of letters")
		}
		shifts = append(shifts, int(r-base))
	}
	return shifts, nil
}

// AffineEncode applies E(x) = (a*x + b) mod 26 to every letter, keeping case.
func AffineEncode(text string, a, b int) (string, error) {
	if _, err := modInverse(a, alphabetSize); err != nil {
		return "", err
	}
	return mapLetters(text, func(x int) int { return a*x + b }), nil
}

// AffineDecode applies D(y) = a⁻¹ * (y - b) mod 26 to every letter.
func AffineDecode(text string, a, b int) (string, error) {
	inv, err := modInverse(a, alphabetSize)
	if err != nil {
		return "", err
	}
	return mapLetters(text, func(y int) int { return inv * (y - b) }), nil
}

// AtbashOptions tunes Atbash output.
type AtbashOptions struct {
	// StripNonLetters drops every rune that is not an ASCII letter.
	StripNonLetters bool
}

// Atbash maps each letter x to 25 - x. It is its own inverse.
func Atbash(text string, opts ...AtbashOptions) string {
	var o AtbashOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	out := mapLetters(text, func(x int) int { return alphabetSize - 1 - x })
	if !o.StripNonLetters {
		return out
	}
	return strings.Map(func(r rune) rune {
		if _, ok := letterBase(r); ok {
			return r
		}
		return -1
	}, out)
}

// Substitute re-maps characters. Lookups ignore the case of the input rune;
// unmapped runes keep their original case.
func Substitute(text string, mapping map[rune]rune) string {
	folded := make(map[rune]rune, len(mapping))
	for from, to := range mapping {
		lower := toLowerASCII(from)
		if _, exists := folded[lower]; exists && from != lower {
			// An explicit lower case key wins over its upper case twin.
			continue
		}
		folded[lower] = to
	}
	return strings.Map(func(r rune) rune {
		if to, ok := folded[toLowerASCII(r)]; ok {
			return to
		}
		return r
	}, text)
}

func mapLetters(text string, f func(int) int) string {
	return strings.Map(func(r rune) rune {
		base, ok := letterBase(r)
		if !ok {
			return r
		}
		return base + rune(mod(f(int(r-base)), alphabetSize))
	}, text)
}

func letterBase(r rune) (rune, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return 'a', true
	case r >= 'A' && r <= 'Z':
		return 'A', true
	default:
		return 0, false
	}
}

func toLowerASCII(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func modInverse(a, m int) (int, error) {
	a = mod(a, m)
	for x := 1; x < m; x++ {
		if (a*x)%m == 1 {
			return x, nil
		}
	}
	return 0, cryptoerr.New(cryptoerr.ErrInvalidKey, "a", fmt.Sprintf("%d is not coprime with %d", a, m))
}
