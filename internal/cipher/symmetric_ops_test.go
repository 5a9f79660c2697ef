package cipher

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/RowanDark/cipherkit/internal/cryptoerr"
)

func aesParams(extra map[string]interface{}) map[string]interface{} {
	p := map[string]interface{}{"key": "secret password!", "key_format": "utf8"}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

func TestBlockCipherOperations(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		params map[string]interface{}
		want   string
	}{
		{"aes default mode", "aes_encrypt", aesParams(nil), "5fb8c186394fc399849b89d3b6605fa3"},
		{"aes ecb", "aes_encrypt", aesParams(map[string]interface{}{"mode": "ecb"}), "5fb8c186394fc399849b89d3b6605fa3"},
		{"aes ctr", "aes_encrypt", aesParams(map[string]interface{}{"mode": "CTR"}), "4ab2b4f72e9d92960b"},
		{"aes gcm", "aes_encrypt", aesParams(map[string]interface{}{"mode": "GCM"}), "97a6227556b2be0763"},
		{"aes cbc iv", "aes_encrypt", aesParams(map[string]interface{}{"iv": "af7d90ad2278c6bde804e90faf92b109"}), "5d2ae9d06625368fab0fda51ed325096"},
		{"aes hex key", "aes_encrypt", map[string]interface{}{"key": "7365637265742070617373776f726421", "mode": "ECB"}, "5fb8c186394fc399849b89d3b6605fa3"},
		{"des cbc", "des_encrypt", map[string]interface{}{"key": "password", "key_format": "utf8"}, "1ee5cb52954b211d1acd6e79c598baac"},
		{"3des ofb", "3des_encrypt", map[string]interface{}{"key": "super secret password !!", "key_format": "utf8", "mode": "OFB"}, "51710aefbd5bbb5bf9"},
		{"blowfish ctr", "blowfish_encrypt", map[string]interface{}{"key": "password", "key_format": "utf8", "mode": "CTR"}, "82bdcb75a4d655c63a"},
		{"rc4", "rc4_encrypt", map[string]interface{}{"key": "secret", "key_format": "utf8"}, "9e59bf79a2c0b7d253"},
		{"rc4 utf16le key", "rc4_encrypt", map[string]interface{}{"key": "secret", "key_format": "utf16le"}, "19bc2ad03cf4e4fbc0"},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := mustOp(t, tt.op).Execute(ctx, []byte("some data"), tt.params)
			if err != nil {
				t.Fatalf("encrypt failed: %v", err)
			}
			if got := hex.EncodeToString(out); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}

			rev, ok := mustOp(t, tt.op).Reverse()
			if !ok {
				t.Fatalf("%s has no reverse", tt.op)
			}
			back, err := rev.Execute(ctx, out, tt.params)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if string(back) != "some data" {
				t.Errorf("expected %q, got %q", "some data", back)
			}
		})
	}
}

func TestChaChaOperation(t *testing.T) {
	params := map[string]interface{}{
		"key":          "Learning is a lifelong endeavor.",
		"key_format":   "utf8",
		"nonce":        "Hello world.",
		"nonce_format": "utf8",
	}
	out, err := mustOp(t, "chacha_encrypt").Execute(context.Background(), []byte("4t_lea5t_1ts_n0t_Electr0n"), params)
	if err != nil {
		t.Fatalf("chacha_encrypt failed: %v", err)
	}
	want := "0d118d5f5807747b085473553146a3c76cf1ef61b976519240"
	if got := hex.EncodeToString(out); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	back, err := mustOp(t, "chacha_decrypt").Execute(context.Background(), out, params)
	if err != nil {
		t.Fatalf("chacha_decrypt failed: %v", err)
	}
	if string(back) != "4t_lea5t_1ts_n0t_Electr0n" {
		t.Errorf("unexpected plaintext %q", back)
	}
}

func TestChaChaDefaultNonce(t *testing.T) {
	key := "Learning is a lifelong endeavor."
	ctx := context.Background()
	withoutNonce, err := mustOp(t, "chacha_encrypt").Execute(ctx, []byte("some data"), map[string]interface{}{
		"key": key, "key_format": "utf8",
	})
	if err != nil {
		t.Fatalf("chacha_encrypt without nonce failed: %v", err)
	}
	eightZeros, err := mustOp(t, "chacha_encrypt").Execute(ctx, []byte("some data"), map[string]interface{}{
		"key": key, "key_format": "utf8", "nonce": "0000000000000000",
	})
	if err != nil {
		t.Fatalf("chacha_encrypt with 8 byte nonce failed: %v", err)
	}
	if !bytes.Equal(withoutNonce, eightZeros) {
		t.Errorf("expected the default nonce to be eight zero bytes")
	}

	back, err := mustOp(t, "chacha_decrypt").Execute(ctx, eightZeros, map[string]interface{}{
		"key": key, "key_format": "utf8", "nonce": "0000000000000000",
	})
	if err != nil {
		t.Fatalf("chacha_decrypt failed: %v", err)
	}
	if string(back) != "some data" {
		t.Errorf("unexpected plaintext %q", back)
	}
}

func TestGCMAppendTag(t *testing.T) {
	params := aesParams(map[string]interface{}{
		"mode":       "GCM",
		"append_tag": true,
		"aad":        "header",
	})
	ctx := context.Background()

	sealed, err := mustOp(t, "aes_encrypt").Execute(ctx, []byte("some data"), params)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if len(sealed) != len("some data")+16 {
		t.Fatalf("expected ciphertext plus 16 byte tag, got %d bytes", len(sealed))
	}

	opened, err := mustOp(t, "aes_decrypt").Execute(ctx, sealed, params)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(opened) != "some data" {
		t.Errorf("expected %q, got %q", "some data", opened)
	}

	sealed[0] ^= 1
	if _, err := mustOp(t, "aes_decrypt").Execute(ctx, sealed, params); !errors.Is(err, cryptoerr.ErrAuthentication) {
		t.Errorf("expected ErrAuthentication after tampering, got %v", err)
	}

	if _, err := mustOp(t, "aes_decrypt").Execute(ctx, []byte("short"), params); !errors.Is(err, cryptoerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for input shorter than the tag, got %v", err)
	}
}

func TestGCMSeparateTag(t *testing.T) {
	ctx := context.Background()
	sealed, err := mustOp(t, "aes_encrypt").Execute(ctx, []byte("some data"), aesParams(map[string]interface{}{"mode": "GCM", "append_tag": true}))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	ct, tag := sealed[:len(sealed)-16], sealed[len(sealed)-16:]

	opened, err := mustOp(t, "aes_decrypt").Execute(ctx, ct, aesParams(map[string]interface{}{"mode": "GCM", "tag": hex.EncodeToString(tag)}))
	if err != nil {
		t.Fatalf("decrypt with tag failed: %v", err)
	}
	if string(opened) != "some data" {
		t.Errorf("expected %q, got %q", "some data", opened)
	}
}

func TestSymmetricParameterErrors(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		params map[string]interface{}
		kind   error
		param  string
	}{
		{"missing key", "aes_encrypt", nil, cryptoerr.ErrInvalidKey, "key"},
		{"bad key hex", "aes_encrypt", map[string]interface{}{"key": "zz"}, cryptoerr.ErrInvalidEncoding, "key"},
		{"short key", "aes_encrypt", map[string]interface{}{"key": "00"}, cryptoerr.ErrInvalidKeyLength, "key"},
		{"bad key format", "aes_encrypt", map[string]interface{}{"key": "00", "key_format": "rot13"}, cryptoerr.ErrInvalidEncoding, "key_format"},
		{"bad iv length", "aes_encrypt", aesParams(map[string]interface{}{"iv": "00"}), cryptoerr.ErrInvalidIVLength, "iv"},
		{"unknown mode", "aes_encrypt", aesParams(map[string]interface{}{"mode": "XTS"}), cryptoerr.ErrInvalidMode, "mode"},
		{"des gcm", "des_encrypt", map[string]interface{}{"key": "password", "key_format": "utf8", "mode": "GCM"}, cryptoerr.ErrInvalidMode, "mode"},
		{"chacha short nonce", "chacha_encrypt", map[string]interface{}{"key": "00000000000000000000000000000000000000000000000000000000000000ff", "nonce": "00"}, cryptoerr.ErrInvalidIVLength, "nonce"},
		{"rc4 missing key", "rc4_encrypt", nil, cryptoerr.ErrInvalidKey, "key"},
		{"bad iv hex", "aes_encrypt", aesParams(map[string]interface{}{"iv": "zz"}), cryptoerr.ErrInvalidEncoding, "iv"},
		{"bad iv format", "aes_encrypt", aesParams(map[string]interface{}{"iv": "00", "iv_format": "morse"}), cryptoerr.ErrInvalidEncoding, "iv_format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mustOp(t, tt.op).Execute(context.Background(), []byte("some data"), tt.params)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if got := cryptoerr.ParamOf(err); got != tt.param {
				t.Errorf("expected param %q, got %q", tt.param, got)
			}
		})
	}
}

func TestDefaultKeyFormatFollowsSetDefaults(t *testing.T) {
	SetDefaults(Defaults{KeyFormat: "utf8", Mode: "ECB"})
	defer SetDefaults(Defaults{})

	out, err := mustOp(t, "aes_encrypt").Execute(context.Background(), []byte("some data"), map[string]interface{}{"key": "secret password!"})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if got := hex.EncodeToString(out); got != "5fb8c186394fc399849b89d3b6605fa3" {
		t.Errorf("unexpected output %s", got)
	}
}
