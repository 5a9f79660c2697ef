package main

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/config"
	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
	"github.com/RowanDark/cipherkit/internal/logging"
)

// stdin is swapped out by tests.
var stdin io.Reader = os.Stdin

// environment is the resolved configuration plus the audit logger built
// from it.
type environment struct {
	cfg    config.Config
	logger *logging.AuditLogger
}

// loadEnvironment resolves the configuration and installs its parameter
// defaults. The caller closes the logger.
func loadEnvironment(component string) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	defaults, err := cfg.CipherDefaults()
	if err != nil {
		return nil, err
	}
	cipher.SetDefaults(defaults)

	env := &environment{cfg: cfg}
	if strings.TrimSpace(cfg.AuditLog) != "" {
		logger, err := logging.NewAuditLogger(component, logging.WithoutStdout(), logging.WithFile(cfg.AuditLog))
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		env.logger = logger
	}
	return env, nil
}

func (e *environment) close() {
	if e.logger != nil {
		_ = e.logger.Close()
	}
}

// paramFlags collects repeated -p name=value flags.
type paramFlags map[string]interface{}

func (p paramFlags) String() string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	return strings.Join(names, ",")
}

func (p paramFlags) Set(value string) error {
	name, val, ok := strings.Cut(value, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	p[name] = val
	return nil
}

// ioFlags are the input and output flags shared by run, pipeline and recipe
// run.
type ioFlags struct {
	text      string
	inPath    string
	inFormat  string
	outFormat string
}

func (f *ioFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.text, "text", "", "input given inline")
	fs.StringVar(&f.inPath, "in", "", "read input from file (default stdin)")
	fs.StringVar(&f.inFormat, "in-format", "", "decode the input first (hex, base64, utf8, latin1, raw, utf16le, utf16be)")
	fs.StringVar(&f.outFormat, "out-format", "raw", "output encoding: raw, hex or base64")
}

func (f *ioFlags) readInput() ([]byte, error) {
	var data []byte
	switch {
	case f.text != "":
		data = []byte(f.text)
	case f.inPath != "":
		b, err := os.ReadFile(f.inPath)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		data = b
	default:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		data = b
	}
	if f.inFormat == "" {
		return data, nil
	}
	enc, err := keymaterial.ParseEncoding(f.inFormat)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "in-format")
	}
	decoded, err := keymaterial.Decode(string(data), enc)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "input")
	}
	return decoded, nil
}

func (f *ioFlags) writeOutput(out io.Writer, data []byte) error {
	var err error
	switch strings.ToLower(f.outFormat) {
	case "", "raw":
		_, err = out.Write(data)
	case "hex":
		_, err = fmt.Fprintln(out, hex.EncodeToString(data))
	case "base64":
		_, err = fmt.Fprintln(out, base64.StdEncoding.EncodeToString(data))
	default:
		err = fmt.Errorf("unsupported output format %q", f.outFormat)
	}
	return err
}

// validateOutFormat rejects a bad -out-format before any work is done.
func (f *ioFlags) validateOutFormat() error {
	switch strings.ToLower(f.outFormat) {
	case "", "raw", "hex", "base64":
		return nil
	}
	return fmt.Errorf("unsupported output format %q", f.outFormat)
}

// pipelineFile is the on-disk form of a pipeline. JSON files parse too.
type pipelineFile struct {
	Operations []cipher.OperationConfig `yaml:"operations"`
	Reversible bool                     `yaml:"reversible"`
}

// loadSteps builds the step list from a YAML or JSON file, or from a comma
// separated list of operation names without parameters.
func loadSteps(path, steps string) (cipher.Pipeline, error) {
	switch {
	case path != "" && steps != "":
		return cipher.Pipeline{}, errors.New("use either -file or -steps, not both")
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return cipher.Pipeline{}, fmt.Errorf("read pipeline: %w", err)
		}
		var pf pipelineFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return cipher.Pipeline{}, fmt.Errorf("parse pipeline %s: %w", path, err)
		}
		if len(pf.Operations) == 0 {
			return cipher.Pipeline{}, fmt.Errorf("pipeline %s has no operations", path)
		}
		return cipher.Pipeline{Operations: pf.Operations, Reversible: pf.Reversible}, nil
	case steps != "":
		var p cipher.Pipeline
		for _, name := range strings.Split(steps, ",") {
			if name = strings.TrimSpace(name); name != "" {
				p.Operations = append(p.Operations, cipher.OperationConfig{Name: name})
			}
		}
		if len(p.Operations) == 0 {
			return cipher.Pipeline{}, errors.New("-steps names no operations")
		}
		return p, nil
	default:
		return cipher.Pipeline{}, errors.New("-file or -steps is required")
	}
}

func reportError(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
}
