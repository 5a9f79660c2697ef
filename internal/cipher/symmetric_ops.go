package cipher

import (
	"context"
	"fmt"

	"github.com/RowanDark/cipherkit/internal/blockmode"
	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
	"github.com/RowanDark/cipherkit/internal/symmetric"
)

var blockParams = []ParamSpec{
	{Name: "key", Description: "Key material", Required: true},
	{Name: "key_format", Description: "Encoding of key", Default: "hex"},
	{Name: "iv", Description: "IV or GCM nonce, all zero when omitted"},
	{Name: "iv_format", Description: "Encoding of iv", Default: "hex"},
	{Name: "mode", Description: "ECB, CBC, CTR, OFB, CFB or GCM", Default: "CBC"},
	{Name: "tag", Description: "GCM tag to verify on decrypt"},
	{Name: "tag_format", Description: "Encoding of tag", Default: "hex"},
	{Name: "aad", Description: "GCM additional authenticated data"},
	{Name: "aad_format", Description: "Encoding of aad", Default: "utf8"},
	{Name: "append_tag", Description: "GCM: append the tag on encrypt, split it off on decrypt", Default: "false"},
}

func blockCall(params map[string]interface{}) (symmetric.Params, bool, error) {
	d := currentDefaults()
	var p symmetric.Params

	keySrc, _, err := materialSource(params, "key", d.KeyFormat, true)
	if err != nil {
		return p, false, err
	}
	ivSrc, _, err := materialSource(params, "iv", d.IVFormat, false)
	if err != nil {
		return p, false, err
	}
	key, iv, err := keymaterial.DecodePair(keySrc.Value, keySrc.Encoding, ivSrc.Value, ivSrc.Encoding)
	if err != nil {
		return p, false, err
	}
	modeName, err := stringParam(params, "mode", d.Mode)
	if err != nil {
		return p, false, err
	}
	mode, err := blockmode.ParseMode(modeName)
	if err != nil {
		return p, false, err
	}
	tag, err := materialParam(params, "tag", keymaterial.EncodingHex, false)
	if err != nil {
		return p, false, err
	}
	aad, err := materialParam(params, "aad", keymaterial.EncodingUTF8, false)
	if err != nil {
		return p, false, err
	}
	appendTag, err := boolParam(params, "append_tag", false)
	if err != nil {
		return p, false, err
	}

	return symmetric.Params{Key: key, IV: iv, Mode: mode, Tag: tag, AAD: aad}, appendTag, nil
}

func runBlockEncrypt(family string) runFunc {
	return func(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
		p, appendTag, err := blockCall(params)
		if err != nil {
			return nil, err
		}
		res, err := symmetric.Encrypt(family, p, input)
		if err != nil {
			return nil, err
		}
		if appendTag && len(res.Tag) > 0 {
			return append(res.Data, res.Tag...), nil
		}
		return res.Data, nil
	}
}

func runBlockDecrypt(family string) runFunc {
	return func(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
		p, appendTag, err := blockCall(params)
		if err != nil {
			return nil, err
		}
		if appendTag && p.Mode == blockmode.GCM {
			if len(input) < blockmode.GCMTagSize {
				return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", "input is shorter than the GCM tag")
			}
			split := len(input) - blockmode.GCMTagSize
			p.Tag = input[split:]
			input = input[:split]
		}
		res, err := symmetric.Decrypt(family, p, input)
		if err != nil {
			return nil, err
		}
		return res.Data, nil
	}
}

func runRC4(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := materialParam(params, "key", currentDefaults().KeyFormat, true)
	if err != nil {
		return nil, err
	}
	return symmetric.RC4(key, input)
}

func runChaCha20(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	d := currentDefaults()
	key, err := materialParam(params, "key", d.KeyFormat, true)
	if err != nil {
		return nil, err
	}
	nonce, err := materialParam(params, "nonce", d.IVFormat, false)
	if err != nil {
		return nil, err
	}
	return symmetric.ChaCha20(key, nonce, input)
}

func streamPair(name, label string, params []ParamSpec, run runFunc) (*transformOp, *transformOp) {
	return pair(
		&transformOp{
			BaseOperation: BaseOperation{
				NameValue:        name + "_encrypt",
				TypeValue:        OperationTypeEncrypt,
				DescriptionValue: label + " encrypt",
				ParamsValue:      params,
			},
			run: run,
		},
		&transformOp{
			BaseOperation: BaseOperation{
				NameValue:        name + "_decrypt",
				TypeValue:        OperationTypeDecrypt,
				DescriptionValue: label + " decrypt",
				ParamsValue:      params,
			},
			run: run,
		},
	)
}

func init() {
	for _, family := range symmetric.Families() {
		f, _ := symmetric.Lookup(family)
		modes := make([]string, len(f.Modes))
		for i, m := range f.Modes {
			modes[i] = string(m)
		}
		enc, dec := pair(
			&transformOp{
				BaseOperation: BaseOperation{
					NameValue:        family + "_encrypt",
					TypeValue:        OperationTypeEncrypt,
					DescriptionValue: fmt.Sprintf("%s encrypt (modes %v)", family, modes),
					ParamsValue:      blockParams,
				},
				run: runBlockEncrypt(family),
			},
			&transformOp{
				BaseOperation: BaseOperation{
					NameValue:        family + "_decrypt",
					TypeValue:        OperationTypeDecrypt,
					DescriptionValue: fmt.Sprintf("%s decrypt (modes %v)", family, modes),
					ParamsValue:      blockParams,
				},
				run: runBlockDecrypt(family),
			},
		)
		mustRegister(enc, dec)
	}

	rc4Enc, rc4Dec := streamPair("rc4", "RC4", []ParamSpec{
		{Name: "key", Description: "Key material", Required: true},
		{Name: "key_format", Description: "Encoding of key", Default: "hex"},
	}, runRC4)
	chachaEnc, chachaDec := streamPair("chacha", "ChaCha20", []ParamSpec{
		{Name: "key", Description: "32 byte key", Required: true},
		{Name: "key_format", Description: "Encoding of key", Default: "hex"},
		{Name: "nonce", Description: "8, 12 or 24 byte nonce, all zero when omitted"},
		{Name: "nonce_format", Description: "Encoding of nonce", Default: "hex"},
	}, runChaCha20)

	mustRegister(rc4Enc, rc4Dec, chachaEnc, chachaDec)
}
