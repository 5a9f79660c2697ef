package cipher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
)

// Defaults holds the fallbacks used when a parameter is omitted
type Defaults struct {
	KeyFormat           keymaterial.Encoding
	IVFormat            keymaterial.Encoding
	Mode                string
	MorseLetterDelim    string
	MorseWordDelim      string
	XORBruteforceLength int
}

// DefaultDefaults returns the built-in fallbacks.
func DefaultDefaults() Defaults {
	return Defaults{
		KeyFormat:           keymaterial.EncodingHex,
		IVFormat:            keymaterial.EncodingHex,
		Mode:                "CBC",
		MorseLetterDelim:    " ",
		MorseWordDelim:      "\n",
		XORBruteforceLength: 100,
	}
}

var (
	defaults   = DefaultDefaults()
	defaultsMu sync.RWMutex
)

// SetDefaults replaces the parameter fallbacks. Empty fields keep the
// built-in values.
func SetDefaults(d Defaults) {
	base := DefaultDefaults()
	if d.KeyFormat != "" {
		base.KeyFormat = d.KeyFormat
	}
	if d.IVFormat != "" {
		base.IVFormat = d.IVFormat
	}
	if d.Mode != "" {
		base.Mode = d.Mode
	}
	if d.MorseLetterDelim != "" {
		base.MorseLetterDelim = d.MorseLetterDelim
	}
	if d.MorseWordDelim != "" {
		base.MorseWordDelim = d.MorseWordDelim
	}
	if d.XORBruteforceLength > 0 {
		base.XORBruteforceLength = d.XORBruteforceLength
	}

	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = base
}

func currentDefaults() Defaults {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

func stringParam(params map[string]interface{}, name, fallback string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return fallback, nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected a string, got %T", v))
	}
}

func requiredString(params map[string]interface{}, name string) (string, error) {
	s, err := stringParam(params, name, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", cryptoerr.New(cryptoerr.ErrInvalidInput, name, "parameter is required")
	}
	return s, nil
}

// intParam accepts the numeric forms produced by JSON decoding and by flags.
func intParam(params map[string]interface{}, name string, fallback int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("%v is not an integer", n))
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, cryptoerr.New(cryptoerr.ErrInvalidInput, name, err.Error())
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("%q is not an integer", n))
		}
		return i, nil
	default:
		return 0, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected an integer, got %T", v))
	}
}

func boolParam(params map[string]interface{}, name string, fallback bool) (bool, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return fallback, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("%q is not a boolean", b))
		}
		return parsed, nil
	default:
		return false, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected a boolean, got %T", v))
	}
}

// stringListParam accepts a JSON array or a comma separated string.
func stringListParam(params map[string]interface{}, name string) ([]string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected strings, got %T", item))
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		var out []string
		for _, part := range strings.Split(list, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected a list, got %T", v))
	}
}

// objectParam accepts a decoded JSON object or its JSON text.
func objectParam(params map[string]interface{}, name string) (map[string]interface{}, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return map[string]interface{}{}, nil
	}
	switch obj := v.(type) {
	case map[string]interface{}:
		return obj, nil
	case map[string]string:
		out := make(map[string]interface{}, len(obj))
		for k, val := range obj {
			out[k] = val
		}
		return out, nil
	case string:
		if strings.TrimSpace(obj) == "" {
			return map[string]interface{}{}, nil
		}
		if !gjson.Valid(obj) {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, name, "expected a JSON object: invalid JSON")
		}
		out, ok := gjson.Parse(obj).Value().(map[string]interface{})
		if !ok {
			return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, name, "expected a JSON object")
		}
		return out, nil
	default:
		return nil, cryptoerr.New(cryptoerr.ErrInvalidInput, name, fmt.Sprintf("expected an object, got %T", v))
	}
}

// materialSource reads a key-like parameter and its companion
// "<name>_format" parameter without decoding it. ok is false when the
// parameter is absent and not required.
func materialSource(params map[string]interface{}, name string, fallbackFormat keymaterial.Encoding, required bool) (m keymaterial.Material, ok bool, err error) {
	raw, err := stringParam(params, name, "")
	if err != nil {
		return m, false, err
	}
	if raw == "" {
		if required {
			kind := cryptoerr.ErrInvalidInput
			if name == "key" || name == "secret" {
				kind = cryptoerr.ErrInvalidKey
			}
			return m, false, cryptoerr.New(kind, name, "parameter is required")
		}
		return m, false, nil
	}

	format := fallbackFormat
	if f, err := stringParam(params, name+"_format", ""); err != nil {
		return m, false, err
	} else if f != "" {
		if format, err = keymaterial.ParseEncoding(f); err != nil {
			return m, false, cryptoerr.WithParam(err, name+"_format")
		}
	}
	return keymaterial.Material{Value: raw, Encoding: format}, true, nil
}

// materialParam decodes a key-like parameter using its companion
// "<name>_format" parameter.
func materialParam(params map[string]interface{}, name string, fallbackFormat keymaterial.Encoding, required bool) ([]byte, error) {
	m, ok, err := materialSource(params, name, fallbackFormat, required)
	if err != nil || !ok {
		return nil, err
	}
	out, err := m.Bytes()
	if err != nil {
		return nil, cryptoerr.WithParam(err, name)
	}
	return out, nil
}

func cloneParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
