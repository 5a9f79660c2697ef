package cipher

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// newCodecPair registers parameterless encodings as mutual inverses.
func newCodecPair(name, label string, encode, decode func([]byte) ([]byte, error)) (*transformOp, *transformOp) {
	enc := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Encode bytes as " + label,
		},
		run: plain(encode),
	}
	dec := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode " + label + " to bytes",
		},
		run: plain(decode),
	}
	enc.ReverseOp = dec
	dec.ReverseOp = enc
	return enc, dec
}

func encodeBase64(input []byte) ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(input)), nil
}

func decodeBase64(input []byte) ([]byte, error) {
	s := strings.TrimSpace(string(input))
	out, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if out, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "data", "base64: "+err.Error())
		}
	}
	return out, nil
}

func encodeBase64URL(input []byte) ([]byte, error) {
	return []byte(base64.RawURLEncoding.EncodeToString(input)), nil
}

func decodeBase64URL(input []byte) ([]byte, error) {
	s := strings.TrimRight(strings.TrimSpace(string(input)), "=")
	out, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "data", "base64url: "+err.Error())
	}
	return out, nil
}

func encodeHex(input []byte) ([]byte, error) {
	return []byte(hex.EncodeToString(input)), nil
}

func decodeHex(input []byte) ([]byte, error) {
	s := strings.TrimSpace(string(input))
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "\\x", "")
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\n", "").Replace(s)
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "data", "hex: "+err.Error())
	}
	return out, nil
}

func encodeBinary(input []byte) ([]byte, error) {
	var sb strings.Builder
	for i, b := range input {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%08b", b)
	}
	return []byte(sb.String()), nil
}

func decodeBinary(input []byte) ([]byte, error) {
	s := strings.Join(strings.Fields(string(input)), "")
	if len(s)%8 != 0 {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "data", fmt.Sprintf("binary string length must be a multiple of 8, got %d", len(s)))
	}
	out := make([]byte, 0, len(s)/8)
	for i := 0; i < len(s); i += 8 {
		v, err := strconv.ParseUint(s[i:i+8], 2, 8)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "data", fmt.Sprintf("invalid binary group at offset %d", i))
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func init() {
	b64Enc, b64Dec := newCodecPair("base64", "standard Base64", encodeBase64, decodeBase64)
	urlEnc, urlDec := newCodecPair("base64url", "unpadded URL-safe Base64", encodeBase64URL, decodeBase64URL)
	hexEnc, hexDec := newCodecPair("hex", "lower case hexadecimal", encodeHex, decodeHex)
	binEnc, binDec := newCodecPair("binary", "space separated 8-bit groups", encodeBinary, decodeBinary)

	mustRegister(b64Enc, b64Dec, urlEnc, urlDec, hexEnc, hexDec, binEnc, binDec)
}
