// Package classical implements classical ciphers: rotations, Vigenère, Affine,
// Atbash, monoalphabetic substitution and Morse code.
//
// Every function is pure. Inputs are never modified and rotation amounts of
// any size wrap instead of being rejected.
package classical

import (
	"strings"
)

const (
	alphabetSize = 26

	rot47Low     = 33
	rot47High    = 126
	rot47Modulus = rot47High - rot47Low + 1

	// ROT47Default is the conventional ROT47 shift.
	ROT47Default = 47
)

// Rotate shifts every ASCII letter by n positions, preserving case.
func Rotate(text string, n int) string {
	shift := mod(n, alphabetSize)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + rune(mod(int(r-'a')+shift, alphabetSize))
		case r >= 'A' && r <= 'Z':
			return 'A' + rune(mod(int(r-'A')+shift, alphabetSize))
		default:
			return r
		}
	}, text)
}

// ROT13 is Rotate with a fixed shift of 13. It is its own inverse.
func ROT13(text string) string {
	return Rotate(text, 13)
}

// ROT47 rotates the printable ASCII range '!'..'~' by n. Everything else,
// including space, is left untouched.
func ROT47(text string, n int) string {
	shift := mod(n, rot47Modulus)
	return strings.Map(func(r rune) rune {
		if r < rot47Low || r > rot47High {
			return r
		}
		return rot47Low + rune(mod(int(r-rot47Low)+shift, rot47Modulus))
	}, text)
}

// RotateBruteforce returns the text rotated by every shift from 1 to 26.
func RotateBruteforce(text string) map[int]string {
	out := make(map[int]string, alphabetSize)
	for n := 1; n <= alphabetSize; n++ {
		out[n] = Rotate(text, n)
	}
	return out
}

// ROT47Bruteforce returns the text rotated by every ROT47 shift from 1 to 93.
func ROT47Bruteforce(text string) map[int]string {
	out := make(map[int]string, rot47Modulus-1)
	for n := 1; n < rot47Modulus; n++ {
		out[n] = ROT47(text, n)
	}
	return out
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
