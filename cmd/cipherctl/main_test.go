package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// isolate points the configuration at empty temp directories.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv("CIPHERKIT_RECIPES_DIR", filepath.Join(dir, "recipes"))
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	return dir
}

func captureStdout(t *testing.T, fn func() int) (string, int) {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	code := fn()
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	os.Stdout = old
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read stdout: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("close reader: %v", err)
	}
	return string(data), code
}

func TestDispatchUsage(t *testing.T) {
	if code := dispatch(nil); code != 2 {
		t.Fatalf("expected exit code 2 without a command, got %d", code)
	}
	if code := dispatch([]string{"frobnicate"}); code != 2 {
		t.Fatalf("expected exit code 2 for unknown command, got %d", code)
	}
}

func TestVersion(t *testing.T) {
	out, code := captureStdout(t, func() int { return dispatch([]string{"version"}) })
	if code != 0 || !strings.HasPrefix(out, "cipherkit dev (go") {
		t.Fatalf("unexpected version output %q (%d)", out, code)
	}
	if code := runVersion([]string{"extra"}); code != 2 {
		t.Fatalf("expected exit code 2 for extra args, got %d", code)
	}
}

func TestRunOperation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "rot13", args: []string{"-op", "rot13", "-text", "hello"}, want: "uryyb"},
		{name: "positional op", args: []string{"-text", "some data", "-p", "amount=20", "rotate"}, want: "migy xunu"},
		{name: "aes base64", args: []string{"-op", "aes_encrypt", "-text", "some data", "-p", "key=secret password!", "-p", "key_format=utf8", "-out-format", "base64"}, want: "X7jBhjlPw5mEm4nTtmBfow==\n"},
		{name: "hex input", args: []string{"-op", "rot13", "-text", "68656c6c6f", "-in-format", "hex"}, want: "uryyb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, code := captureStdout(t, func() int { return runOperation(tt.args) })
			if code != 0 {
				t.Fatalf("exit code %d", code)
			}
			if out != tt.want {
				t.Fatalf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunOperationStdin(t *testing.T) {
	isolate(t)
	old := stdin
	stdin = strings.NewReader("uryyb")
	t.Cleanup(func() { stdin = old })

	out, code := captureStdout(t, func() int { return runOperation([]string{"-op", "rot13"}) })
	if code != 0 || out != "hello" {
		t.Fatalf("got %q (%d)", out, code)
	}
}

func TestRunOperationErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "missing op", args: []string{"-text", "x"}, want: 2},
		{name: "unknown op", args: []string{"-op", "nope", "-text", "x"}, want: 2},
		{name: "bad out format", args: []string{"-op", "rot13", "-text", "x", "-out-format", "morse"}, want: 2},
		{name: "bad param flag", args: []string{"-op", "rot13", "-p", "novalue"}, want: 2},
		{name: "short key", args: []string{"-op", "aes_encrypt", "-text", "x", "-p", "key=0011"}, want: 1},
		{name: "bad input", args: []string{"-op", "rot13", "-text", "zz", "-in-format", "hex"}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := captureStdout(t, func() int { return runOperation(tt.args) })
			if code != tt.want {
				t.Fatalf("exit code %d, want %d", code, tt.want)
			}
		})
	}
}

func TestRunPipelineSteps(t *testing.T) {
	isolate(t)

	out, code := captureStdout(t, func() int {
		return runPipeline([]string{"-steps", "rot13,base64_encode", "-text", "hello"})
	})
	if code != 0 || out != "dXJ5eWI=" {
		t.Fatalf("forward: got %q (%d)", out, code)
	}

	out, code = captureStdout(t, func() int {
		return runPipeline([]string{"-steps", "rot13,base64_encode", "-reverse", "-text", "dXJ5eWI="})
	})
	if code != 0 || out != "hello" {
		t.Fatalf("reverse: got %q (%d)", out, code)
	}
}

func TestRunPipelineFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "steps.yml")
	body := `operations:
  - name: rotate
    parameters:
      amount: 3
  - name: hex_encode
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	out, code := captureStdout(t, func() int { return runPipeline([]string{"-file", path, "-text", "abc"}) })
	if code != 0 || out != "646566" {
		t.Fatalf("got %q (%d)", out, code)
	}

	if code := runPipeline([]string{"-text", "abc"}); code != 2 {
		t.Fatalf("expected exit code 2 without steps, got %d", code)
	}
	if code := runPipeline([]string{"-file", path, "-steps", "rot13"}); code != 2 {
		t.Fatalf("expected exit code 2 with both sources, got %d", code)
	}
}

func TestRunList(t *testing.T) {
	out, code := captureStdout(t, func() int { return runList(nil) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	for _, name := range []string{"aes_encrypt", "rot13", "jwt_decode", "xor_bruteforce"} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in list output", name)
		}
	}

	out, code = captureStdout(t, func() int { return runList([]string{"-type", "encrypt", "-json"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !gjson.Valid(out) {
		t.Fatalf("expected JSON output: %s", out)
	}
	for _, typ := range gjson.Get(out, "#.type").Array() {
		if typ.String() != "encrypt" {
			t.Fatalf("type filter leaked %s", typ.String())
		}
	}
}

func TestRunDetect(t *testing.T) {
	out, code := captureStdout(t, func() int { return runDetect([]string{"-text", "0x48656c6c6f"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := gjson.Get(out, "0.encoding").String(); got != "hex" {
		t.Fatalf("expected hex first, got %s", out)
	}

	out, code = captureStdout(t, func() int { return runDetect([]string{"-decode", "-text", "0x48656c6c6f"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	var results []map[string]any
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(results) == 0 || results[0]["output"] != "Hello" {
		t.Fatalf("unexpected decode results: %s", out)
	}
}

func TestRecipeLifecycle(t *testing.T) {
	dir := isolate(t)

	out, code := captureStdout(t, func() int {
		return runRecipe([]string{"save", "-name", "rot-b64", "-description", "rot13 then base64", "-tags", "classical, transport", "-steps", "rot13,base64_encode", "-reversible"})
	})
	if code != 0 || !strings.Contains(out, "saved recipe rot-b64") {
		t.Fatalf("save: %q (%d)", out, code)
	}
	if _, err := os.Stat(filepath.Join(dir, "recipes", "rot-b64.json")); err != nil {
		t.Fatalf("expected recipe file: %v", err)
	}

	out, code = captureStdout(t, func() int { return runRecipe([]string{"list", "-q", "transport"}) })
	if code != 0 || !strings.Contains(out, "rot-b64") {
		t.Fatalf("list: %q (%d)", out, code)
	}

	out, code = captureStdout(t, func() int { return runRecipe([]string{"show", "rot-b64"}) })
	if code != 0 || gjson.Get(out, "pipeline.operations.1.name").String() != "base64_encode" {
		t.Fatalf("show: %q (%d)", out, code)
	}

	out, code = captureStdout(t, func() int { return runRecipe([]string{"run", "-name", "rot-b64", "-text", "hello"}) })
	if code != 0 || out != "dXJ5eWI=" {
		t.Fatalf("run: %q (%d)", out, code)
	}
	out, code = captureStdout(t, func() int { return runRecipe([]string{"run", "-name", "rot-b64", "-reverse", "-text", "dXJ5eWI="}) })
	if code != 0 || out != "hello" {
		t.Fatalf("run reverse: %q (%d)", out, code)
	}

	if _, code := captureStdout(t, func() int { return runRecipe([]string{"delete", "rot-b64"}) }); code != 0 {
		t.Fatalf("delete exit code %d", code)
	}
	if _, code := captureStdout(t, func() int { return runRecipe([]string{"show", "rot-b64"}) }); code != 1 {
		t.Fatalf("expected show of deleted recipe to fail, got %d", code)
	}
	if _, code := captureStdout(t, func() int { return runRecipe([]string{"delete", "rot-b64"}) }); code != 1 {
		t.Fatalf("expected second delete to fail, got %d", code)
	}
}

func TestRecipeArgumentErrors(t *testing.T) {
	isolate(t)

	cases := [][]string{
		nil,
		{"bogus"},
		{"save", "-steps", "rot13"},
		{"save", "-name", "x"},
		{"show"},
		{"run"},
		{"delete"},
	}
	for _, args := range cases {
		if code := runRecipe(args); code != 2 {
			t.Fatalf("runRecipe(%v) = %d, want 2", args, code)
		}
	}
	if code := runRecipe([]string{"save", "-name", "x", "-steps", "nope"}); code != 1 {
		t.Fatalf("expected unknown step to fail, got %d", code)
	}
}

func TestAuditLogRedactsKeys(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "audit.jsonl")
	t.Setenv("CIPHERKIT_AUDIT_LOG", logPath)

	_, code := captureStdout(t, func() int {
		return runOperation([]string{"-op", "aes_encrypt", "-text", "some data", "-p", "key=secret password!", "-p", "key_format=utf8"})
	})
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if strings.Contains(string(data), "secret password!") {
		t.Fatalf("key leaked into audit log: %s", data)
	}
	if gjson.GetBytes(data, "event_type").String() != "operation_executed" || gjson.GetBytes(data, "operation").String() != "aes_encrypt" {
		t.Fatalf("unexpected audit event: %s", data)
	}
}

func TestConfigPrint(t *testing.T) {
	isolate(t)
	t.Setenv("CIPHERKIT_AUTH_TOKEN", "very-secret")
	t.Setenv("CIPHERKIT_MODE", "gcm")

	out, code := captureStdout(t, func() int { return runConfig([]string{"print"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Contains(out, "very-secret") {
		t.Fatalf("token leaked: %s", out)
	}
	if !strings.Contains(out, "mode: gcm") {
		t.Fatalf("expected env mode in output: %s", out)
	}

	if code := runConfig(nil); code != 2 {
		t.Fatalf("expected exit code 2 for missing subcommand, got %d", code)
	}
	if code := runConfig([]string{"unknown"}); code != 2 {
		t.Fatalf("expected exit code 2 for unknown subcommand, got %d", code)
	}
}

func TestServeRequiresToken(t *testing.T) {
	isolate(t)
	if code := runServe([]string{"-addr", "127.0.0.1:0"}); code != 2 {
		t.Fatalf("expected exit code 2 without a token, got %d", code)
	}
}
