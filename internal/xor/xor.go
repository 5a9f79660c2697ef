// Package xor implements repeating-key XOR and single-byte key search.
package xor

import "github.com/RowanDark/cipherkit/internal/cryptoerr"

// XOR combines input with key, repeating the key as needed. Applying it twice
// with the same key returns the input.
func XOR(input, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", "key must not be empty")
	}
	out := make([]byte, len(input))
	for i, b := range input {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}

// Bruteforce XORs the first maxLen bytes of input with every single byte key.
// A non-positive maxLen uses the whole input. No scoring is applied.
func Bruteforce(input []byte, maxLen int) map[byte][]byte {
	if maxLen <= 0 || maxLen > len(input) {
		maxLen = len(input)
	}
	window := input[:maxLen]
	out := make(map[byte][]byte, 256)
	for k := 0; k < 256; k++ {
		candidate := make([]byte, len(window))
		for i, b := range window {
			candidate[i] = b ^ byte(k)
		}
		out[byte(k)] = candidate
	}
	return out
}
