package cipher

import (
	"context"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	base64Pattern    = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)
	base64URLPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+=*$`)
	hexPattern       = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	digitsPattern    = regexp.MustCompile(`^[0-9]+$`)
	binaryPattern    = regexp.MustCompile(`^[01]+$`)
	jwtPartPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
	morsePattern     = regexp.MustCompile(`^[.\-/\s]+$`)
)

// minConfidence drops guesses below this score.
const minConfidence = 0.3

// SmartDetector guesses the encoding or container format of input
type SmartDetector struct {
	checks []func([]byte) []DetectionResult
}

// NewSmartDetector creates a detector with every built-in check
func NewSmartDetector() *SmartDetector {
	return &SmartDetector{
		checks: []func([]byte) []DetectionResult{
			detectJWT,
			detectPEM,
			detectBase64,
			detectHex,
			detectBinary,
			detectMorse,
			detectHighEntropy,
		},
	}
}

// Detect runs every check and returns the guesses, most confident first.
func (d *SmartDetector) Detect(ctx context.Context, input []byte) ([]DetectionResult, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var results []DetectionResult
	for _, check := range d.checks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range check(input) {
			if r.Confidence >= minConfidence {
				results = append(results, r)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results, nil
}

// SupportedEncodings lists what Detect can report
func (d *SmartDetector) SupportedEncodings() []string {
	return []string{"jwt", "pem", "base64", "base64url", "hex", "binary", "morse", "high-entropy"}
}

func detectBase64(input []byte) []DetectionResult {
	s := strings.TrimSpace(string(input))
	var results []DetectionResult

	if base64Pattern.MatchString(s) {
		if _, err := base64.StdEncoding.DecodeString(s); err == nil {
			confidence := 0.9
			if hexPattern.MatchString(s) {
				// Hex digits are valid base64 too.
				confidence = 0.5
			}
			results = append(results, DetectionResult{
				Encoding:   "base64",
				Confidence: confidence,
				Reasoning:  "Matches Base64 alphabet and decodes with padding",
				Operation:  "base64_decode",
			})
		} else if _, err := base64.RawStdEncoding.DecodeString(s); err == nil {
			results = append(results, DetectionResult{
				Encoding:   "base64",
				Confidence: 0.6,
				Reasoning:  "Matches Base64 alphabet without padding",
				Operation:  "base64_decode",
			})
		}
	}

	if strings.ContainsAny(s, "-_") && base64URLPattern.MatchString(s) {
		if _, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
			results = append(results, DetectionResult{
				Encoding:   "base64url",
				Confidence: 0.85,
				Reasoning:  "Uses the URL-safe Base64 alphabet",
				Operation:  "base64url_decode",
			})
		}
	}
	return results
}

func detectHex(input []byte) []DetectionResult {
	s := strings.TrimSpace(string(input))
	cleaned, hasPrefix := strings.CutPrefix(s, "0x")
	cleaned = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(cleaned)

	if cleaned == "" || len(cleaned)%2 != 0 || !hexPattern.MatchString(cleaned) {
		return nil
	}
	confidence := 0.8
	if hasPrefix {
		confidence = 0.95
	}
	if digitsPattern.MatchString(cleaned) {
		confidence *= 0.6
	}
	return []DetectionResult{{
		Encoding:   "hex",
		Confidence: confidence,
		Reasoning:  "Even number of hexadecimal digits",
		Operation:  "hex_decode",
	}}
}

func detectBinary(input []byte) []DetectionResult {
	s := strings.Join(strings.Fields(string(input)), "")
	if len(s) < 8 || len(s)%8 != 0 || !binaryPattern.MatchString(s) {
		return nil
	}
	confidence := 0.85
	if len(s) < 32 {
		confidence = 0.6
	}
	return []DetectionResult{{
		Encoding:   "binary",
		Confidence: confidence,
		Reasoning:  "Only 0s and 1s in 8-bit groups",
		Operation:  "binary_decode",
	}}
}

// detectJWT requires three dot separated segments whose first decodes to a
// JSON object with an alg field.
func detectJWT(input []byte) []DetectionResult {
	parts := strings.Split(strings.TrimSpace(string(input)), ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	for _, part := range parts {
		if !jwtPartPattern.MatchString(part) {
			return nil
		}
	}
	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || !gjson.ValidBytes(header) {
		return nil
	}
	alg := gjson.GetBytes(header, "alg")
	if !alg.Exists() {
		return nil
	}

	reasoning := fmt.Sprintf("JWT with alg %s", alg.String())
	if parts[2] == "" {
		reasoning += " and no signature"
	}
	return []DetectionResult{{
		Encoding:   "jwt",
		Confidence: 0.95,
		Reasoning:  reasoning,
		Operation:  "jwt_decode",
	}}
}

func detectPEM(input []byte) []DetectionResult {
	block, _ := pem.Decode([]byte(strings.TrimSpace(string(input))))
	if block == nil {
		return nil
	}
	result := DetectionResult{
		Encoding:   "pem",
		Confidence: 0.99,
		Reasoning:  fmt.Sprintf("PEM block %q", block.Type),
	}
	if strings.Contains(block.Type, "PRIVATE KEY") {
		result.Operation = "rsa_pem_to_jwk"
	}
	return []DetectionResult{result}
}

func detectMorse(input []byte) []DetectionResult {
	s := strings.TrimSpace(string(input))
	if !morsePattern.MatchString(s) || !strings.ContainsAny(s, ".-") {
		return nil
	}
	confidence := 0.6
	if strings.ContainsAny(s, " /\n") {
		confidence = 0.9
	}
	return []DetectionResult{{
		Encoding:   "morse",
		Confidence: confidence,
		Reasoning:  "Only dots, dashes and separators",
		Operation:  "from_morse",
	}}
}

// detectHighEntropy flags input that looks like ciphertext or random bytes.
func detectHighEntropy(input []byte) []DetectionResult {
	if len(input) < 64 {
		return nil
	}
	entropy := calculateEntropy(input)
	// a byte string of n bytes cannot exceed log2(min(n, 256)) bits per byte
	ceiling := math.Log2(math.Min(float64(len(input)), 256))
	ratio := entropy / ceiling
	if ratio < 0.9 {
		return nil
	}
	return []DetectionResult{{
		Encoding:   "high-entropy",
		Confidence: math.Min(0.3+0.5*(ratio-0.9)*10, 0.8),
		Reasoning:  fmt.Sprintf("Shannon entropy %.2f bits per byte", entropy),
		Operation:  "xor_bruteforce",
	}}
}

// calculateEntropy calculates Shannon entropy of the input
func calculateEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	entropy := 0.0
	n := float64(len(data))
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// DecodeResult is the output of one suggested operation
type DecodeResult struct {
	Detection DetectionResult `json:"detection"`
	Decoded   []byte          `json:"decoded,omitempty"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
}

// DecodeAll runs the suggested operation of every detection. Failures are
// reported per result rather than aborting.
func DecodeAll(ctx context.Context, input []byte) ([]DecodeResult, error) {
	detections, err := NewSmartDetector().Detect(ctx, input)
	if err != nil {
		return nil, err
	}

	results := make([]DecodeResult, 0, len(detections))
	for _, detection := range detections {
		op, exists := GetOperation(detection.Operation)
		if !exists {
			continue
		}

		decoded, err := op.Execute(ctx, input, nil)
		if err != nil {
			results = append(results, DecodeResult{Detection: detection, Error: err.Error()})
			continue
		}
		results = append(results, DecodeResult{Detection: detection, Decoded: decoded, Success: true})
	}
	return results, nil
}
