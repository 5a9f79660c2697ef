package cipher

import (
	"errors"
	"testing"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

func TestObjectParam(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    map[string]interface{}
		wantErr bool
	}{
		{"absent", nil, map[string]interface{}{}, false},
		{"json text", `{"kid":"k1","n":2}`, map[string]interface{}{"kid": "k1", "n": float64(2)}, false},
		{"blank text", "  ", map[string]interface{}{}, false},
		{"string map", map[string]string{"kid": "k1"}, map[string]interface{}{"kid": "k1"}, false},
		{"json array", `["kid"]`, nil, true},
		{"broken json", `{"kid":`, nil, true},
		{"number", 3, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := objectParam(map[string]interface{}{"header": tt.value}, "header")
			if tt.wantErr {
				if !errors.Is(err, cryptoerr.ErrInvalidInput) || cryptoerr.ParamOf(err) != "header" {
					t.Fatalf("expected ErrInvalidInput for header, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}

func TestMaterialParamMissingKinds(t *testing.T) {
	tests := []struct {
		name string
		kind error
	}{
		{"key", cryptoerr.ErrInvalidKey},
		{"secret", cryptoerr.ErrInvalidKey},
		{"nonce", cryptoerr.ErrInvalidInput},
		{"iv", cryptoerr.ErrInvalidInput},
		{"tag", cryptoerr.ErrInvalidInput},
		{"signature", cryptoerr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := materialParam(nil, tt.name, "hex", true)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if got := cryptoerr.ParamOf(err); got != tt.name {
				t.Errorf("expected param %q, got %q", tt.name, got)
			}
		})
	}

	out, err := materialParam(nil, "iv", "hex", false)
	if err != nil || out != nil {
		t.Errorf("optional parameter: expected nil, nil; got %v, %v", out, err)
	}
}
