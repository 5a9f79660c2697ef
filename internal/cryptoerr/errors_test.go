package cryptoerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesKind(t *testing.T) {
	err := New(ErrInvalidKeyLength, "key", "got 5 bytes")
	wrapped := fmt.Errorf("aes encrypt failed: %w", err)

	if !errors.Is(wrapped, ErrInvalidKeyLength) {
		t.Fatalf("expected wrapped error to match ErrInvalidKeyLength")
	}
	if errors.Is(wrapped, ErrInvalidIVLength) {
		t.Fatalf("unexpected match with ErrInvalidIVLength")
	}
	if got := ParamOf(wrapped); got != "key" {
		t.Errorf("expected param key, got %q", got)
	}
	if got := err.Error(); got != "key: invalid key length (got 5 bytes)" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestWithParam(t *testing.T) {
	base := New(ErrInvalidEncoding, "", "odd length")
	named := WithParam(base, "iv")
	if ParamOf(named) != "iv" {
		t.Fatalf("expected iv param, got %q", ParamOf(named))
	}
	if ParamOf(base) != "" {
		t.Fatalf("WithParam must not modify the original error")
	}

	already := New(ErrInvalidEncoding, "key", "")
	if ParamOf(WithParam(already, "iv")) != "key" {
		t.Errorf("existing param should be kept")
	}

	plain := errors.New("boom")
	if WithParam(plain, "iv") != plain {
		t.Errorf("non cipher errors should pass through")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"padding", New(ErrPadding, "", ""), ErrPadding},
		{"wrapped mode", fmt.Errorf("x: %w", New(ErrInvalidMode, "mode", "XTS")), ErrInvalidMode},
		{"foreign", errors.New("other"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
