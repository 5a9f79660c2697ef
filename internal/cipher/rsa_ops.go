package cipher

import (
	"context"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
	"github.com/RowanDark/cipherkit/internal/pubkey"
)

func runRSAEncrypt(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	data, err := textOrFile(params, "public_key")
	if err != nil {
		return nil, err
	}
	pub, err := pubkey.ParsePublicKeyPEM(data)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "public_key")
	}
	return pubkey.EncryptOAEP(pub, input)
}

func runRSADecrypt(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	data, err := textOrFile(params, "private_key")
	if err != nil {
		return nil, err
	}
	priv, err := pubkey.ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "private_key")
	}
	return pubkey.DecryptOAEP(priv, input)
}

func runRSASign(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	data, err := textOrFile(params, "private_key")
	if err != nil {
		return nil, err
	}
	priv, err := pubkey.ParsePrivateKeyPEM(data)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "private_key")
	}
	return pubkey.SignPKCS1v15(priv, input)
}

// runRSAVerify returns {"valid":true} or fails with an authentication error.
func runRSAVerify(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	data, err := textOrFile(params, "public_key")
	if err != nil {
		return nil, err
	}
	pub, err := pubkey.ParsePublicKeyPEM(data)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "public_key")
	}
	sig, err := materialParam(params, "signature", keymaterial.EncodingHex, true)
	if err != nil {
		return nil, err
	}
	if err := pubkey.VerifyPKCS1v15(pub, input, sig); err != nil {
		return nil, err
	}
	return marshalResult(map[string]bool{"valid": true})
}

func runPEMToJWK(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
	pair, err := pubkey.PrivatePEMToJWK(input)
	if err != nil {
		return nil, err
	}
	return marshalResult(pair)
}

func runPEMFromJWK(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
	out, err := pubkey.PublicPEMFromJWK(input)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func init() {
	publicSpec := ParamSpec{Name: "public_key", Description: "RSA public key PEM (or public_key_path)", Required: true}
	privateSpec := ParamSpec{Name: "private_key", Description: "RSA private key PEM (or private_key_path)", Required: true}

	encrypt, decrypt := pair(
		&transformOp{
			BaseOperation: BaseOperation{
				NameValue:        "rsa_encrypt",
				TypeValue:        OperationTypeEncrypt,
				DescriptionValue: "RSA-OAEP (SHA-1) encrypt",
				ParamsValue:      []ParamSpec{publicSpec},
			},
			run: runRSAEncrypt,
		},
		&transformOp{
			BaseOperation: BaseOperation{
				NameValue:        "rsa_decrypt",
				TypeValue:        OperationTypeDecrypt,
				DescriptionValue: "RSA-OAEP (SHA-1) decrypt",
				ParamsValue:      []ParamSpec{privateSpec},
			},
			run: runRSADecrypt,
		},
	)
	sign := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rsa_sign",
			TypeValue:        OperationTypeSign,
			DescriptionValue: "PKCS#1 v1.5 SHA-256 signature",
			ParamsValue:      []ParamSpec{privateSpec},
		},
		run: runRSASign,
	}
	verify := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rsa_verify",
			TypeValue:        OperationTypeVerify,
			DescriptionValue: "Check a PKCS#1 v1.5 SHA-256 signature",
			ParamsValue: []ParamSpec{
				publicSpec,
				{Name: "signature", Description: "Signature bytes", Required: true},
				{Name: "signature_format", Description: "Encoding of signature", Default: "hex"},
			},
		},
		run: runRSAVerify,
	}
	toJWK := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rsa_pem_to_jwk",
			TypeValue:        OperationTypeConvert,
			DescriptionValue: "Convert a PEM private key to private and public JWKs",
		},
		run: runPEMToJWK,
	}
	fromJWK := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "rsa_pem_from_jwk",
			TypeValue:        OperationTypeConvert,
			DescriptionValue: "Convert an RSA JWK to a public key PEM",
		},
		run: runPEMFromJWK,
	}

	mustRegister(encrypt, decrypt, sign, verify, toJWK, fromJWK)
}
