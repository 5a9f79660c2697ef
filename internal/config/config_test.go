package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RowanDark/cipherkit/internal/keymaterial"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	tempDir := t.TempDir()

	homeDir := filepath.Join(tempDir, "home")
	cfgDir := filepath.Join(homeDir, ".cipherkit")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	t.Setenv("HOME", homeDir)

	homeConfig := []byte(`server_addr: 0.0.0.0:1111
recipes_dir: /custom/recipes
defaults:
  key_format: base64
  mode: gcm
`)
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yml"), homeConfig, 0o644); err != nil {
		t.Fatalf("write home config: %v", err)
	}

	// A local file overrides the home file.
	workDir := filepath.Join(tempDir, "work")
	if err := os.Mkdir(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	localConfig := []byte(`server_addr: 127.0.0.1:6500
defaults:
  mode: ctr
  morse_letter_delim: "|"
`)
	if err := os.WriteFile(filepath.Join(workDir, "cipherkit.yml"), localConfig, 0o644); err != nil {
		t.Fatalf("write local config: %v", err)
	}

	// Env overrides beat both files.
	t.Setenv("CIPHERKIT_AUTH_TOKEN", "env-token")
	t.Setenv("CIPHERKIT_XOR_BRUTEFORCE_LENGTH", "32")

	chdir(t, workDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.ServerAddr != "127.0.0.1:6500" {
		t.Fatalf("unexpected server addr: %s", cfg.ServerAddr)
	}
	if cfg.RecipesDir != "/custom/recipes" {
		t.Fatalf("expected home recipes dir, got %s", cfg.RecipesDir)
	}
	if cfg.AuthToken != "env-token" {
		t.Fatalf("expected env token override, got %s", cfg.AuthToken)
	}
	if cfg.Defaults.KeyFormat != "base64" {
		t.Fatalf("expected home key format, got %s", cfg.Defaults.KeyFormat)
	}
	if cfg.Defaults.Mode != "ctr" {
		t.Fatalf("expected local mode override, got %s", cfg.Defaults.Mode)
	}
	if cfg.Defaults.MorseLetterDelim != "|" {
		t.Fatalf("unexpected letter delimiter: %q", cfg.Defaults.MorseLetterDelim)
	}
	if cfg.Defaults.XORBruteforceLength != 32 {
		t.Fatalf("expected env bruteforce length, got %d", cfg.Defaults.XORBruteforceLength)
	}

	d, err := cfg.CipherDefaults()
	if err != nil {
		t.Fatalf("cipher defaults: %v", err)
	}
	if d.KeyFormat != keymaterial.EncodingBase64 {
		t.Fatalf("unexpected key format: %s", d.KeyFormat)
	}
	if d.Mode != "CTR" {
		t.Fatalf("expected canonical mode, got %s", d.Mode)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	defaults := Default()
	if cfg != defaults {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipherkit.yml")
	if err := os.WriteFile(path, []byte("proxy:\n  addr: x\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadRejectsInvalidDefaults(t *testing.T) {
	cases := map[string]string{
		"key format": "defaults:\n  key_format: rot13\n",
		"iv format":  "defaults:\n  iv_format: nope\n",
		"mode":       "defaults:\n  mode: XTS\n",
		"length":     "defaults:\n  xor_bruteforce_length: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cipherkit.yml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadEnvBadInteger(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	chdir(t, t.TempDir())
	t.Setenv("CIPHERKIT_XOR_BRUTEFORCE_LENGTH", "lots")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CIPHERKIT_XOR_BRUTEFORCE_LENGTH") {
		t.Fatalf("expected env parse error, got %v", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipherkit.yml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load empty config: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestMarshalMasksToken(t *testing.T) {
	cfg := Default()
	cfg.AuthToken = "super-secret"
	out, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "super-secret") {
		t.Fatalf("token leaked: %s", out)
	}
	if !strings.Contains(string(out), "127.0.0.1:8734") {
		t.Fatalf("unexpected output: %s", out)
	}
}
