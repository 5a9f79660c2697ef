// Package config resolves cipherkit settings from built-in defaults, YAML
// files and CIPHERKIT_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/cipherkit/internal/blockmode"
	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
)

// Config captures the cipherkit configuration.
type Config struct {
	ServerAddr string         `yaml:"server_addr"`
	AuthToken  string         `yaml:"auth_token"`
	RecipesDir string         `yaml:"recipes_dir"`
	AuditLog   string         `yaml:"audit_log"`
	Defaults   DefaultsConfig `yaml:"defaults"`
}

// DefaultsConfig holds the fallbacks for omitted operation parameters.
type DefaultsConfig struct {
	KeyFormat           string `yaml:"key_format"`
	IVFormat            string `yaml:"iv_format"`
	Mode                string `yaml:"mode"`
	MorseLetterDelim    string `yaml:"morse_letter_delim"`
	MorseWordDelim      string `yaml:"morse_word_delim"`
	XORBruteforceLength int    `yaml:"xor_bruteforce_length"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := cipher.DefaultDefaults()
	return Config{
		ServerAddr: "127.0.0.1:8734",
		RecipesDir: defaultRecipesDir(),
		Defaults: DefaultsConfig{
			KeyFormat:           string(d.KeyFormat),
			IVFormat:            string(d.IVFormat),
			Mode:                d.Mode,
			MorseLetterDelim:    d.MorseLetterDelim,
			MorseWordDelim:      d.MorseWordDelim,
			XORBruteforceLength: d.XORBruteforceLength,
		},
	}
}

func defaultRecipesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "recipes"
	}
	return filepath.Join(home, ".cipherkit", "recipes")
}

// Load resolves the configuration. Later sources win:
//  1. built-in defaults
//  2. ~/.cipherkit/config.yml
//  3. ./cipherkit.yml
//  4. CIPHERKIT_* environment variables
func Load() (Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if err := loadFile(&cfg, filepath.Join(home, ".cipherkit", "config.yml")); err != nil {
			return Config{}, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("determine home directory: %w", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	if err := loadFile(&cfg, filepath.Join(wd, "cipherkit.yml")); err != nil {
		return Config{}, err
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile applies one YAML file on top of the defaults, without consulting
// the home directory, the working directory or the environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := loadFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := applyFileConfig(cfg, data); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// fileConfig uses pointers so that absent keys leave earlier values alone.
type fileConfig struct {
	ServerAddr *string             `yaml:"server_addr"`
	AuthToken  *string             `yaml:"auth_token"`
	RecipesDir *string             `yaml:"recipes_dir"`
	AuditLog   *string             `yaml:"audit_log"`
	Defaults   *fileDefaultsConfig `yaml:"defaults"`
}

type fileDefaultsConfig struct {
	KeyFormat           *string `yaml:"key_format"`
	IVFormat            *string `yaml:"iv_format"`
	Mode                *string `yaml:"mode"`
	MorseLetterDelim    *string `yaml:"morse_letter_delim"`
	MorseWordDelim      *string `yaml:"morse_word_delim"`
	XORBruteforceLength *int    `yaml:"xor_bruteforce_length"`
}

func applyFileConfig(cfg *Config, data []byte) error {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	setString(&cfg.ServerAddr, fc.ServerAddr)
	setString(&cfg.AuthToken, fc.AuthToken)
	setString(&cfg.RecipesDir, fc.RecipesDir)
	setString(&cfg.AuditLog, fc.AuditLog)
	if d := fc.Defaults; d != nil {
		setString(&cfg.Defaults.KeyFormat, d.KeyFormat)
		setString(&cfg.Defaults.IVFormat, d.IVFormat)
		setString(&cfg.Defaults.Mode, d.Mode)
		// Delimiters are kept verbatim; a space is a valid delimiter.
		if d.MorseLetterDelim != nil {
			cfg.Defaults.MorseLetterDelim = *d.MorseLetterDelim
		}
		if d.MorseWordDelim != nil {
			cfg.Defaults.MorseWordDelim = *d.MorseWordDelim
		}
		if d.XORBruteforceLength != nil {
			cfg.Defaults.XORBruteforceLength = *d.XORBruteforceLength
		}
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"CIPHERKIT_SERVER_ADDR": &cfg.ServerAddr,
		"CIPHERKIT_AUTH_TOKEN":  &cfg.AuthToken,
		"CIPHERKIT_RECIPES_DIR": &cfg.RecipesDir,
		"CIPHERKIT_AUDIT_LOG":   &cfg.AuditLog,
		"CIPHERKIT_KEY_FORMAT":  &cfg.Defaults.KeyFormat,
		"CIPHERKIT_IV_FORMAT":   &cfg.Defaults.IVFormat,
		"CIPHERKIT_MODE":        &cfg.Defaults.Mode,
	}
	for name, dst := range strs {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			*dst = val
		}
	}
	if val := strings.TrimSpace(os.Getenv("CIPHERKIT_XOR_BRUTEFORCE_LENGTH")); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("CIPHERKIT_XOR_BRUTEFORCE_LENGTH: %q is not an integer", val)
		}
		cfg.Defaults.XORBruteforceLength = n
	}
	return nil
}

// Validate checks that the defaults name known encodings and modes.
func (c Config) Validate() error {
	if _, err := c.CipherDefaults(); err != nil {
		return err
	}
	if strings.TrimSpace(c.ServerAddr) == "" {
		return errors.New("server_addr must not be empty")
	}
	return nil
}

// CipherDefaults converts the defaults section for cipher.SetDefaults.
func (c Config) CipherDefaults() (cipher.Defaults, error) {
	d := c.Defaults
	var out cipher.Defaults
	var err error

	if d.KeyFormat != "" {
		if out.KeyFormat, err = keymaterial.ParseEncoding(d.KeyFormat); err != nil {
			return cipher.Defaults{}, fmt.Errorf("defaults.key_format: %w", err)
		}
	}
	if d.IVFormat != "" {
		if out.IVFormat, err = keymaterial.ParseEncoding(d.IVFormat); err != nil {
			return cipher.Defaults{}, fmt.Errorf("defaults.iv_format: %w", err)
		}
	}
	if d.Mode != "" {
		mode, err := blockmode.ParseMode(d.Mode)
		if err != nil {
			return cipher.Defaults{}, fmt.Errorf("defaults.mode: %w", err)
		}
		out.Mode = string(mode)
	}
	if d.XORBruteforceLength < 0 {
		return cipher.Defaults{}, fmt.Errorf("defaults.xor_bruteforce_length must not be negative, got %d", d.XORBruteforceLength)
	}
	out.MorseLetterDelim = d.MorseLetterDelim
	out.MorseWordDelim = d.MorseWordDelim
	out.XORBruteforceLength = d.XORBruteforceLength
	return out, nil
}

// Marshal renders the configuration as YAML. The auth token is masked.
func (c Config) Marshal() ([]byte, error) {
	if c.AuthToken != "" {
		c.AuthToken = "[REDACTED]"
	}
	return yaml.Marshal(c)
}
