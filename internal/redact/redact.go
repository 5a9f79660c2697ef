// Package redact masks key material and secrets before they reach logs.
package redact

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	redactedSecret     = "[REDACTED_SECRET]"
	redactedPrivateKey = "[REDACTED_PRIVATE_KEY]"
)

// sensitiveParams are operation parameters that always carry key material.
var sensitiveParams = map[string]struct{}{
	"key":         {},
	"iv":          {},
	"nonce":       {},
	"tag":         {},
	"secret":      {},
	"private_key": {},
	"password":    {},
	"token":       {},
	"auth_token":  {},
	"words":       {},
	"wordlist":    {},
}

// rule rewrites one shape of inline secret.
type rule struct {
	re   *regexp.Regexp
	repl string
}

var rules = []rule{
	{regexp.MustCompile(`(?s)-----BEGIN ([A-Z ]*)PRIVATE KEY-----.*?-----END ([A-Z ]*)PRIVATE KEY-----`), redactedPrivateKey},
	{regexp.MustCompile(`(?i)((?:api|token|secret|key|password|iv|nonce)[-_ ]*(?:id|key|token)?\s*[:=]\s*)(['\"]?)([A-Za-z0-9+/=_\-]{8,})(['\"]?)`), `$1$2` + redactedSecret + `$4`},
	{regexp.MustCompile(`(?i)\b(bearer|token)\s+([A-Za-z0-9._\-]{10,})`), `$1 ` + redactedSecret},
}

// IsSensitive reports whether a parameter or metadata name holds a secret.
// Companion "<name>_format" and "<name>_path" entries are not secrets.
func IsSensitive(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if strings.HasSuffix(n, "_format") || strings.HasSuffix(n, "_path") {
		return false
	}
	if _, ok := sensitiveParams[n]; ok {
		return true
	}
	return strings.HasSuffix(n, "_key") || strings.HasSuffix(n, "_secret") || strings.HasSuffix(n, "_token")
}

// String masks private key blocks and inline secrets in s.
func String(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Value masks secrets inside strings, slices and maps, recursing into nested
// values. Other types are returned as is.
func Value(v any) any {
	switch val := v.(type) {
	case string:
		return String(val)
	case fmt.Stringer:
		return String(val.String())
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = String(s)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Value(elem)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, s := range val {
			out[k] = s
		}
		return Map(out)
	case map[string]any:
		return Map(val)
	default:
		return v
	}
}

// Map returns a masked copy of in. Entries named by IsSensitive are replaced
// whole; everything else goes through Value.
func Map(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if IsSensitive(k) && v != nil {
			out[k] = redactedSecret
			continue
		}
		out[k] = Value(v)
	}
	return out
}
