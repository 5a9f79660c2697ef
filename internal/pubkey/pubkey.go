// Package pubkey wraps RSA encryption, signing and JWK conversion for PEM
// encoded keys.
package pubkey

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwk"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

// ParsePrivateKeyPEM reads a PKCS#1 or PKCS#8 RSA private key.
func ParsePrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", "no PEM block found")
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", fmt.Sprintf("expected an RSA key, got %T", parsed))
		}
		return key, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", fmt.Sprintf("unsupported PEM block %q", block.Type))
	}
}

// ParsePublicKeyPEM reads a PKIX or PKCS#1 RSA public key. A private key is
// accepted too and reduced to its public half.
func ParsePublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", "no PEM block found")
	}
	switch block.Type {
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
		}
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", fmt.Sprintf("expected an RSA key, got %T", parsed))
		}
		return key, nil
	case "RSA PUBLIC KEY":
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
		}
		return key, nil
	case "RSA PRIVATE KEY", "PRIVATE KEY":
		priv, err := ParsePrivateKeyPEM(data)
		if err != nil {
			return nil, err
		}
		return &priv.PublicKey, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", fmt.Sprintf("unsupported PEM block %q", block.Type))
	}
}

// EncryptOAEP encrypts data with RSA-OAEP using SHA-1 for both the hash and MGF1.
func EncryptOAEP(pub *rsa.PublicKey, data []byte) ([]byte, error) {
	out, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, data, nil)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", err.Error())
	}
	return out, nil
}

// DecryptOAEP reverses EncryptOAEP.
func DecryptOAEP(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	out, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, data, nil)
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, "data", err.Error())
	}
	return out, nil
}

// SignPKCS1v15 signs the SHA-256 digest of data.
func SignPKCS1v15(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		return nil, cryptoerr.New(cryptoerr.ErrInvalidKey, "key", err.Error())
	}
	return sig, nil
}

// VerifyPKCS1v15 checks a signature made by SignPKCS1v15.
func VerifyPKCS1v15(pub *rsa.PublicKey, data, sig []byte) error {
	digest := sha256.Sum256(data)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return cryptoerr.New(cryptoerr.ErrAuthentication, "signature", err.Error())
	}
	return nil
}

// JWKPair holds the private and public JWK forms of one RSA key.
type JWKPair struct {
	Private json.RawMessage `json:"private"`
	Public  json.RawMessage `json:"public"`
}

// PrivatePEMToJWK converts a PEM private key to its JWK representations.
func PrivatePEMToJWK(data []byte) (JWKPair, error) {
	priv, err := ParsePrivateKeyPEM(data)
	if err != nil {
		return JWKPair{}, err
	}
	privKey, err := jwk.New(priv)
	if err != nil {
		return JWKPair{}, fmt.Errorf("build private jwk: %w", err)
	}
	pubKey, err := jwk.PublicKeyOf(privKey)
	if err != nil {
		return JWKPair{}, fmt.Errorf("derive public jwk: %w", err)
	}

	var pair JWKPair
	if pair.Private, err = json.Marshal(privKey); err != nil {
		return JWKPair{}, fmt.Errorf("marshal private jwk: %w", err)
	}
	if pair.Public, err = json.Marshal(pubKey); err != nil {
		return JWKPair{}, fmt.Errorf("marshal public jwk: %w", err)
	}
	return pair, nil
}

// PublicJWK returns the public JWK of an RSA key as a JSON object.
func PublicJWK(pub *rsa.PublicKey) (map[string]interface{}, error) {
	key, err := jwk.New(pub)
	if err != nil {
		return nil, fmt.Errorf("build public jwk: %w", err)
	}
	raw, err := json.Marshal(key)
	if err != nil {
		return nil, fmt.Errorf("marshal public jwk: %w", err)
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal public jwk: %w", err)
	}
	return out, nil
}

// PublicPEMFromJWK builds a PKIX "PUBLIC KEY" PEM from an RSA JWK. Private
// JWKs are reduced to their public half.
func PublicPEMFromJWK(data []byte) (string, error) {
	key, err := jwk.ParseKey(data)
	if err != nil {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "jwk", err.Error())
	}
	if key.KeyType() != jwa.RSA {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "jwk", fmt.Sprintf("expected an RSA key, got %s", key.KeyType()))
	}
	pubKey, err := jwk.PublicKeyOf(key)
	if err != nil {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "jwk", err.Error())
	}

	var raw interface{}
	if err := pubKey.Raw(&raw); err != nil {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "jwk", err.Error())
	}
	pub, ok := raw.(*rsa.PublicKey)
	if !ok {
		return "", cryptoerr.New(cryptoerr.ErrInvalidKey, "jwk", fmt.Sprintf("expected an RSA public key, got %T", raw))
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}
