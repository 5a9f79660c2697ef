package cipher

import (
	"context"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/tidwall/sjson"

	"github.com/RowanDark/cipherkit/internal/classical"
	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

func runRotate(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	n, err := intParam(params, "amount", 13)
	if err != nil {
		return nil, err
	}
	return []byte(classical.Rotate(string(input), n)), nil
}

func runROT47(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	n, err := intParam(params, "amount", classical.ROT47Default)
	if err != nil {
		return nil, err
	}
	return []byte(classical.ROT47(string(input), n)), nil
}

// negateAmount inverts a rotation over an alphabet of size modulus.
func negateAmount(fallback, modulus int) func(map[string]interface{}) map[string]interface{} {
	return func(params map[string]interface{}) map[string]interface{} {
		n, err := intParam(params, "amount", fallback)
		if err != nil {
			return params
		}
		params["amount"] = ((-n % modulus) + modulus) % modulus
		return params
	}
}

// bruteforceJSON renders shift -> candidate as a JSON object in ascending
// shift order.
func bruteforceJSON(results map[int]string) ([]byte, error) {
	shifts := make([]int, 0, len(results))
	for n := range results {
		shifts = append(shifts, n)
	}
	sort.Ints(shifts)

	out := []byte("{}")
	var err error
	for _, n := range shifts {
		out, err = sjson.SetBytes(out, fmt.Sprintf(":%d", n), results[n])
		if err != nil {
			return nil, fmt.Errorf("encode bruteforce result: %w", err)
		}
	}
	return out, nil
}

func runVigenere(decode bool) runFunc {
	return func(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
		key, err := stringParam(params, "key", "")
		if err != nil {
			return nil, err
		}
		var out string
		if decode {
			out, err = classical.VigenereDecode(string(input), key)
		} else {
			out, err = classical.VigenereEncode(string(input), key)
		}
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}

func runAffine(decode bool) runFunc {
	return func(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
		a, err := intParam(params, "a", 1)
		if err != nil {
			return nil, err
		}
		b, err := intParam(params, "b", 1)
		if err != nil {
			return nil, err
		}
		var out string
		if decode {
			out, err = classical.AffineDecode(string(input), a, b)
		} else {
			out, err = classical.AffineEncode(string(input), a, b)
		}
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}

func runAtbash(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	strip, err := boolParam(params, "strip", false)
	if err != nil {
		return nil, err
	}
	return []byte(classical.Atbash(string(input), classical.AtbashOptions{StripNonLetters: strip})), nil
}

func runSubstitute(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	raw, err := objectParam(params, "mapping")
	if err != nil {
		return nil, err
	}
	mapping := make(map[rune]rune, len(raw))
	for from, v := range raw {
		to, ok := v.(string)
		if !ok || utf8.RuneCountInString(from) != 1 || utf8.RuneCountInString(to) != 1 {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "mapping", fmt.Sprintf("entry %q must map one character to one character", from))
		}
		f, _ := utf8.DecodeRuneInString(from)
		t, _ := utf8.DecodeRuneInString(to)
		mapping[f] = t
	}
	return []byte(classical.Substitute(string(input), mapping)), nil
}

func morseOptions(params map[string]interface{}) (classical.MorseOptions, error) {
	d := currentDefaults()
	var o classical.MorseOptions
	var err error
	if o.Dot, err = stringParam(params, "dot", "."); err != nil {
		return o, err
	}
	if o.Dash, err = stringParam(params, "dash", "-"); err != nil {
		return o, err
	}
	if o.LetterDelim, err = stringParam(params, "letter_delim", d.MorseLetterDelim); err != nil {
		return o, err
	}
	if o.WordDelim, err = stringParam(params, "word_delim", d.MorseWordDelim); err != nil {
		return o, err
	}
	return o, nil
}

func runToMorse(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	o, err := morseOptions(params)
	if err != nil {
		return nil, err
	}
	out, err := classical.ToMorse(string(input), o)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func runFromMorse(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	o, err := morseOptions(params)
	if err != nil {
		return nil, err
	}
	out, err := classical.FromMorse(string(input), o)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

var morseParams = []ParamSpec{
	{Name: "dot", Description: "Symbol for a short signal", Default: "."},
	{Name: "dash", Description: "Symbol for a long signal", Default: "-"},
	{Name: "letter_delim", Description: "Separator between letters", Default: " "},
	{Name: "word_delim", Description: "Separator between words", Default: "\\n"},
}

func init() {
	rotate := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rotate",
			TypeValue:        OperationTypeRotate,
			DescriptionValue: "Caesar shift of ASCII letters",
			ParamsValue:      []ParamSpec{{Name: "amount", Description: "Shift, may be negative", Default: "13"}},
		},
		run:    runRotate,
		invert: negateAmount(13, 26),
	}
	rot13 := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rot13",
			TypeValue:        OperationTypeRotate,
			DescriptionValue: "Rotate ASCII letters by 13",
		},
		run: text(classical.ROT13),
	}
	rot47 := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rot47",
			TypeValue:        OperationTypeRotate,
			DescriptionValue: "Rotate printable ASCII 33..126",
			ParamsValue:      []ParamSpec{{Name: "amount", Description: "Shift over the 94 printable characters", Default: "47"}},
		},
		run:    runROT47,
		invert: negateAmount(classical.ROT47Default, 94),
	}
	rot8000 := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rot8000",
			TypeValue:        OperationTypeRotate,
			DescriptionValue: "Rotate over the printable Basic Multilingual Plane",
		},
		run: text(classical.ROT8000),
	}
	rotateBrute := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rotate_bruteforce",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "Every Caesar shift from 1 to 26 as a JSON object",
		},
		run: func(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
			return bruteforceJSON(classical.RotateBruteforce(string(input)))
		},
	}
	rot47Brute := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rot47_bruteforce",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "Every ROT47 shift from 1 to 93 as a JSON object",
		},
		run: func(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
			return bruteforceJSON(classical.ROT47Bruteforce(string(input)))
		},
	}

	keyParam := []ParamSpec{{Name: "key", Description: "Alphabetic key", Required: true}}
	vigEnc, vigDec := pair(
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "vigenere_encode", TypeValue: OperationTypeEncrypt, DescriptionValue: "Vigenère encode", ParamsValue: keyParam},
			run:           runVigenere(false),
		},
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "vigenere_decode", TypeValue: OperationTypeDecrypt, DescriptionValue: "Vigenère decode", ParamsValue: keyParam},
			run:           runVigenere(true),
		},
	)

	affineParams := []ParamSpec{
		{Name: "a", Description: "Multiplier, coprime with 26", Default: "1"},
		{Name: "b", Description: "Offset", Default: "1"},
	}
	affEnc, affDec := pair(
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "affine_encode", TypeValue: OperationTypeEncrypt, DescriptionValue: "Affine encode (a*x + b) mod 26", ParamsValue: affineParams},
			run:           runAffine(false),
		},
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "affine_decode", TypeValue: OperationTypeDecrypt, DescriptionValue: "Affine decode", ParamsValue: affineParams},
			run:           runAffine(true),
		},
	)

	atbash := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "atbash",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Mirror the alphabet",
			ParamsValue:      []ParamSpec{{Name: "strip", Description: "Drop non-letters", Default: "false"}},
		},
		run: runAtbash,
	}
	substitution := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "substitution",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Replace characters through a mapping",
			ParamsValue:      []ParamSpec{{Name: "mapping", Description: "JSON object of single characters", Required: true}},
		},
		run: runSubstitute,
	}

	toMorse, fromMorse := pair(
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "to_morse", TypeValue: OperationTypeEncode, DescriptionValue: "Encode text as Morse code", ParamsValue: morseParams},
			run:           runToMorse,
		},
		&transformOp{
			BaseOperation: BaseOperation{NameValue: "from_morse", TypeValue: OperationTypeDecode, DescriptionValue: "Decode Morse code", ParamsValue: morseParams},
			run:           runFromMorse,
		},
	)

	rotate.ReverseOp = rotate
	rot47.ReverseOp = rot47
	mustRegister(
		rotate, selfInverse(rot13), rot47, selfInverse(rot8000), rotateBrute, rot47Brute,
		vigEnc, vigDec, affEnc, affDec, selfInverse(atbash), substitution, toMorse, fromMorse,
	)
}
