// Package keymaterial normalises caller supplied keys, IVs and nonces into raw
// bytes. Decoding is independent of the cipher the bytes are meant for.
package keymaterial

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// Encoding names the textual form key material is supplied in.
type Encoding string

const (
	EncodingHex     Encoding = "hex"
	EncodingBase64  Encoding = "base64"
	EncodingUTF8    Encoding = "utf8"
	EncodingLatin1  Encoding = "latin1"
	EncodingRaw     Encoding = "raw"
	EncodingUTF16LE Encoding = "utf16le"
	EncodingUTF16BE Encoding = "utf16be"
)

var aliases = map[string]Encoding{
	"hex":       EncodingHex,
	"base64":    EncodingBase64,
	"b64":       EncodingBase64,
	"utf8":      EncodingUTF8,
	"utf-8":     EncodingUTF8,
	"utf":       EncodingUTF8,
	"latin1":    EncodingLatin1,
	"latin-1":   EncodingLatin1,
	"iso8859-1": EncodingLatin1,
	"raw":       EncodingRaw,
	"utf16le":   EncodingUTF16LE,
	"utf-16-le": EncodingUTF16LE,
	"utf16be":   EncodingUTF16BE,
	"utf-16-be": EncodingUTF16BE,
}

// ParseEncoding resolves an encoding name, accepting the common aliases.
func ParseEncoding(name string) (Encoding, error) {
	enc, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(Encodings()))
		for _, e := range Encodings() {
			names = append(names, string(e))
		}
		return "", cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", fmt.Sprintf("unknown encoding %q, want one of %s", name, strings.Join(names, ", ")))
	}
	return enc, nil
}

// Encodings lists the canonical encoding names.
func Encodings() []Encoding {
	return []Encoding{EncodingHex, EncodingBase64, EncodingUTF8, EncodingLatin1, EncodingRaw, EncodingUTF16LE, EncodingUTF16BE}
}

// Material is key material together with the form it was supplied in.
type Material struct {
	Value    string
	Encoding Encoding
}

// Bytes decodes the material.
func (m Material) Bytes() ([]byte, error) {
	return Decode(m.Value, m.Encoding)
}

// Decode converts raw into bytes according to enc. The input is never modified
// and a fresh slice is always returned.
func Decode(raw string, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingHex:
		cleaned := cleanHex(raw)
		out, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", "hex: "+err.Error())
		}
		return out, nil
	case EncodingBase64:
		out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
		if err != nil {
			// Unpadded input is common when keys are copied out of JWKs.
			out, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(strings.TrimSpace(raw), "="))
			if err != nil {
				return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", "base64: "+err.Error())
			}
		}
		return out, nil
	case EncodingUTF8:
		if !utf8.ValidString(raw) {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", "utf8: input is not valid UTF-8")
		}
		return []byte(raw), nil
	case EncodingLatin1:
		return encodeWith(charmap.ISO8859_1, raw, "latin1")
	case EncodingUTF16LE:
		return encodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), raw, "utf16le")
	case EncodingUTF16BE:
		return encodeWith(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), raw, "utf16be")
	case EncodingRaw, "":
		return []byte(raw), nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", fmt.Sprintf("unknown encoding %q", enc))
	}
}

// DecodePair decodes a key and an IV with the same rules. Each failure names
// the parameter it came from.
func DecodePair(key string, keyEnc Encoding, iv string, ivEnc Encoding) ([]byte, []byte, error) {
	k, err := Decode(key, keyEnc)
	if err != nil {
		return nil, nil, cryptoerr.WithParam(err, "key")
	}
	v, err := Decode(iv, ivEnc)
	if err != nil {
		return nil, nil, cryptoerr.WithParam(err, "iv")
	}
	return k, v, nil
}

func encodeWith(codec encoding.Encoding, raw, name string) ([]byte, error) {
	if !utf8.ValidString(raw) {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", name+": input is not valid UTF-8")
	}
	out, err := codec.NewEncoder().String(raw)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "", name+": "+err.Error())
	}
	return []byte(out), nil
}

func cleanHex(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	s = strings.TrimPrefix(s, "\\x")
	return strings.NewReplacer(" ", "", "\n", "", "\t", "", ":", "").Replace(s)
}
