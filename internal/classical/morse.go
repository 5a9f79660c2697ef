package classical

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// morseTable is the ITU alphabet written with '.' and '-'. It is never
// mutated; custom dot and dash symbols are applied per call.
var morseTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '\'': ".----.", '!': "-.-.--",
	'/': "-..-.", '(': "-.--.", ')': "-.--.-", '&': ".-...", ':': "---...",
	';': "-.-.-.", '=': "-...-", '+': ".-.-.", '-': "-....-", '_': "..--.-",
	'"': ".-..-.", '$': "...-..-", '@': ".--.-.",
}

// MorseOptions controls the symbols used for Morse code. Empty fields fall
// back to '.', '-', a space and a newline.
type MorseOptions struct {
	Dot         string
	Dash        string
	LetterDelim string
	WordDelim   string
}

func (o MorseOptions) withDefaults() MorseOptions {
	if o.Dot == "" {
		o.Dot = "."
	}
	if o.Dash == "" {
		o.Dash = "-"
	}
	if o.LetterDelim == "" {
		o.LetterDelim = " "
	}
	if o.WordDelim == "" {
		o.WordDelim = "\n"
	}
	return o
}

// validate rejects symbols that cannot be told apart from each other or
// from a delimiter once encoded.
func (o MorseOptions) validate() error {
	if o.Dot == o.Dash {
		return cryptoerr.New(cryptoerr.ErrInvalidInput, "dot", "dot and dash symbols must differ")
	}
	symbols := []struct{ name, value string }{{"dot", o.Dot}, {"dash", o.Dash}}
	delims := []struct{ name, value string }{{"letter_delim", o.LetterDelim}, {"word_delim", o.WordDelim}}
	for _, sym := range symbols {
		if strings.TrimSpace(sym.value) != sym.value {
			return cryptoerr.New(cryptoerr.ErrInvalidInput, sym.name, "symbol must not contain leading or trailing whitespace")
		}
		for _, d := range delims {
			if strings.Contains(d.value, sym.value) || strings.Contains(sym.value, d.value) {
				return cryptoerr.New(cryptoerr.ErrInvalidInput, d.name, fmt.Sprintf("%q collides with the %s symbol %q", d.value, sym.name, sym.value))
			}
		}
	}
	return nil
}

func (o MorseOptions) render(code string) string {
	var sb strings.Builder
	for _, r := range code {
		if r == '.' {
			sb.WriteString(o.Dot)
		} else {
			sb.WriteString(o.Dash)
		}
	}
	return sb.String()
}

// ToMorse encodes text. Every letter code is followed by the letter
// delimiter and every word by the word delimiter. Words are split on
// whitespace.
func ToMorse(text string, opts MorseOptions) (string, error) {
	o := opts.withDefaults()
	if err := o.validate(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, word := range strings.Fields(text) {
		for _, r := range word {
			code, ok := morseTable[unicode.ToUpper(r)]
			if !ok {
				return "", cryptoerr.New(cryptoerr.ErrInvalidInput, "data", fmt.Sprintf("%q has no morse code", r))
			}
			sb.WriteString(o.render(code))
			sb.WriteString(o.LetterDelim)
		}
		sb.WriteString(o.WordDelim)
	}
	return sb.String(), nil
}

// FromMorse decodes Morse code into upper case text with single spaces
// between words. Unknown codes are copied through.
func FromMorse(text string, opts MorseOptions) (string, error) {
	o := opts.withDefaults()
	inverse, err := morseInverse(o)
	if err != nil {
		return "", err
	}

	var words [][]string
	if strings.Contains(o.WordDelim, o.LetterDelim) {
		for _, w := range strings.Split(text, o.WordDelim) {
			words = append(words, strings.Split(w, o.LetterDelim))
		}
	} else {
		current := []string{}
		for _, token := range strings.Split(text, o.LetterDelim) {
			parts := strings.Split(token, o.WordDelim)
			for i, part := range parts {
				if i > 0 {
					words = append(words, current)
					current = []string{}
				}
				current = append(current, part)
			}
		}
		words = append(words, current)
	}

	decoded := make([]string, 0, len(words))
	for _, codes := range words {
		var sb strings.Builder
		for _, code := range codes {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if r, ok := inverse[code]; ok {
				sb.WriteRune(r)
			} else {
				sb.WriteString(code)
			}
		}
		if sb.Len() > 0 {
			decoded = append(decoded, sb.String())
		}
	}
	return strings.Join(decoded, " "), nil
}

func morseInverse(o MorseOptions) (map[string]rune, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	inverse := make(map[string]rune, len(morseTable))
	for r, code := range morseTable {
		rendered := o.render(code)
		if prev, dup := inverse[rendered]; dup {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "dot", fmt.Sprintf("%q and %q share the code %q", prev, r, rendered))
		}
		inverse[rendered] = r
	}
	return inverse, nil
}
