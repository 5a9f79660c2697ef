package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

// TokenHeader carries the static API token.
const TokenHeader = "X-Cipherkit-Token"

var (
	errMissingToken = errors.New("missing api token")
	errInvalidToken = errors.New("invalid api token")
)

// Authenticator checks requests against a static shared token. The token may
// be sent in TokenHeader or as an Authorization bearer token.
type Authenticator struct {
	token []byte
}

// NewAuthenticator constructs an authenticator for token.
func NewAuthenticator(token string) (*Authenticator, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("api token must not be empty")
	}
	return &Authenticator{token: []byte(token)}, nil
}

// Check reports why r is not authorised, or nil.
func (a *Authenticator) Check(r *http.Request) error {
	presented := requestToken(r)
	if presented == "" {
		return errMissingToken
	}
	if subtle.ConstantTimeCompare([]byte(presented), a.token) != 1 {
		return errInvalidToken
	}
	return nil
}

func requestToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(TokenHeader)); token != "" {
		return token
	}
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
