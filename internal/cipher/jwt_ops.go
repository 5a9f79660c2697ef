package cipher

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/jose"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
)

// claimsInput parses the operation input as a JSON object of claims.
func claimsInput(input []byte) (map[string]interface{}, error) {
	if !gjson.ValidBytes(input) || !gjson.ParseBytes(input).IsObject() {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", "claims must be a JSON object")
	}
	claims := map[string]interface{}{}
	if err := json.Unmarshal(input, &claims); err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", err.Error())
	}
	return claims, nil
}

// textOrFile reads a parameter given inline or through "<name>_path".
func textOrFile(params map[string]interface{}, name string) ([]byte, error) {
	inline, err := stringParam(params, name, "")
	if err != nil {
		return nil, err
	}
	if inline != "" {
		return []byte(inline), nil
	}
	path, err := stringParam(params, name+"_path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, name, "parameter is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, name+"_path", err.Error())
	}
	return data, nil
}

func secretParam(params map[string]interface{}) ([]byte, error) {
	return materialParam(params, "secret", keymaterial.EncodingUTF8, true)
}

func runJWTDecode(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
	decoded, err := jose.Decode(string(input))
	if err != nil {
		return nil, err
	}
	return marshalResult(decoded)
}

func runJWTVerify(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	secret, err := secretParam(params)
	if err != nil {
		return nil, err
	}
	algs, err := stringListParam(params, "algorithms")
	if err != nil {
		return nil, err
	}
	claims, err := jose.Verify(string(input), secret, algs)
	if err != nil {
		return nil, err
	}
	return marshalResult(claims)
}

func runJWTSign(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	claims, err := claimsInput(input)
	if err != nil {
		return nil, err
	}
	secret, err := secretParam(params)
	if err != nil {
		return nil, err
	}
	alg, err := stringParam(params, "algorithm", "HS256")
	if err != nil {
		return nil, err
	}
	token, err := jose.Sign(claims, secret, alg)
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

func runJWTNone(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	claims, err := claimsInput(input)
	if err != nil {
		return nil, err
	}
	header, err := objectParam(params, "header")
	if err != nil {
		return nil, err
	}
	token, err := jose.NoneToken(claims, header)
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

func runJWTEmbeddedJWK(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	claims, err := claimsInput(input)
	if err != nil {
		return nil, err
	}
	privPEM, err := textOrFile(params, "private_key")
	if err != nil {
		return nil, err
	}
	header, err := objectParam(params, "header")
	if err != nil {
		return nil, err
	}
	alg, err := stringParam(params, "algorithm", "RS256")
	if err != nil {
		return nil, err
	}
	token, err := jose.EmbeddedJWKToken(claims, privPEM, header, alg)
	if err != nil {
		return nil, err
	}
	return []byte(token), nil
}

func runJWTBruteforce(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	words, err := stringListParam(params, "words")
	if err != nil {
		return nil, err
	}
	var wordlist *strings.Reader
	if len(words) > 0 {
		wordlist = strings.NewReader(strings.Join(words, "\n"))
	} else {
		data, err := textOrFile(params, "wordlist")
		if err != nil {
			return nil, err
		}
		wordlist = strings.NewReader(string(data))
	}

	b64, err := boolParam(params, "base64", false)
	if err != nil {
		return nil, err
	}
	algs, err := stringListParam(params, "algorithms")
	if err != nil {
		return nil, err
	}

	res, err := jose.Bruteforce(ctx, string(input), wordlist, jose.BruteforceOptions{Algorithms: algs, Base64: b64})
	if err != nil {
		return nil, err
	}
	return marshalResult(res)
}

func init() {
	secretSpec := ParamSpec{Name: "secret", Description: "HMAC secret", Required: true}
	secretFormat := ParamSpec{Name: "secret_format", Description: "Encoding of secret", Default: "utf8"}
	headerSpec := ParamSpec{Name: "header", Description: "Extra header fields as a JSON object"}

	decode := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Decode a JWT without verifying it",
		},
		run: runJWTDecode,
	}
	verify := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_verify",
			TypeValue:        OperationTypeVerify,
			DescriptionValue: "Verify an HMAC signed JWT and return its claims",
			ParamsValue: []ParamSpec{
				secretSpec, secretFormat,
				{Name: "algorithms", Description: "Accepted algorithms", Default: "HS256"},
			},
		},
		run: runJWTVerify,
	}
	sign := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_sign",
			TypeValue:        OperationTypeSign,
			DescriptionValue: "Sign JSON claims as an HMAC JWT",
			ParamsValue: []ParamSpec{
				secretSpec, secretFormat,
				{Name: "algorithm", Description: "HS256, HS384 or HS512", Default: "HS256"},
			},
		},
		run: runJWTSign,
	}
	none := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_none",
			TypeValue:        OperationTypeSign,
			DescriptionValue: "Build an unsigned JWT with alg none",
			ParamsValue:      []ParamSpec{headerSpec},
		},
		run: runJWTNone,
	}
	embedded := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_embedded_jwk",
			TypeValue:        OperationTypeSign,
			DescriptionValue: "Sign claims with an RSA key and embed its public JWK",
			ParamsValue: []ParamSpec{
				{Name: "private_key", Description: "RSA private key PEM (or private_key_path)", Required: true},
				headerSpec,
				{Name: "algorithm", Description: "RS256, RS384, RS512 or PS256", Default: "RS256"},
			},
		},
		run: runJWTEmbeddedJWK,
	}
	bruteforce := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "jwt_bruteforce",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "Find the HMAC secret of a JWT in a wordlist",
			ParamsValue: []ParamSpec{
				{Name: "wordlist", Description: "Newline separated words (or wordlist_path)"},
				{Name: "words", Description: "Candidate secrets as a list"},
				{Name: "base64", Description: "Base64 encode each word before trying it", Default: "false"},
				{Name: "algorithms", Description: "Accepted algorithms", Default: "HS256"},
			},
		},
		run: runJWTBruteforce,
	}

	mustRegister(decode, verify, sign, none, embedded, bruteforce)
}
