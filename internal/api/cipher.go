package api

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/RowanDark/cipherkit/internal/cipher"
	"github.com/RowanDark/cipherkit/internal/cryptoerr"
	"github.com/RowanDark/cipherkit/internal/keymaterial"
	"github.com/RowanDark/cipherkit/internal/logging"
)

// Output formats of the response body.
const (
	outputUTF8   = "utf8"
	outputBase64 = "base64"
	outputHex    = "hex"
)

// CipherOperationRequest runs one operation. InputFormat is a key material
// encoding of Input; the raw text is used when it is empty.
type CipherOperationRequest struct {
	Operation    string                 `json:"operation"`
	Input        string                 `json:"input"`
	InputFormat  string                 `json:"input_format,omitempty"`
	OutputFormat string                 `json:"output_format,omitempty"`
	Config       map[string]interface{} `json:"config,omitempty"`
}

// CipherPipelineRequest runs a pipeline, optionally reversed.
type CipherPipelineRequest struct {
	Input        string                   `json:"input"`
	InputFormat  string                   `json:"input_format,omitempty"`
	OutputFormat string                   `json:"output_format,omitempty"`
	Operations   []cipher.OperationConfig `json:"operations"`
	Reverse      bool                     `json:"reverse,omitempty"`
}

// CipherOutputResponse carries the result of an operation or pipeline.
type CipherOutputResponse struct {
	Output       string `json:"output"`
	OutputFormat string `json:"output_format"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Param string `json:"param,omitempty"`
}

// CipherDetectRequest asks for encoding guesses.
type CipherDetectRequest struct {
	Input string `json:"input"`
}

// CipherDetectResponse lists the guesses, most confident first.
type CipherDetectResponse struct {
	Detections []cipher.DetectionResult `json:"detections"`
}

// CipherSmartDecodeResponse is the result of applying the best guess.
type CipherSmartDecodeResponse struct {
	Output       string   `json:"output"`
	OutputFormat string   `json:"output_format"`
	Pipeline     []string `json:"pipeline"`
	Confidence   float64  `json:"confidence"`
}

// RecipeSaveRequest saves a named pipeline.
type RecipeSaveRequest struct {
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	Tags        []string                 `json:"tags,omitempty"`
	Operations  []cipher.OperationConfig `json:"operations"`
	Reversible  bool                     `json:"reversible,omitempty"`
}

// RecipeRunRequest runs a saved recipe.
type RecipeRunRequest struct {
	Input        string `json:"input"`
	InputFormat  string `json:"input_format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	Reverse      bool   `json:"reverse,omitempty"`
}

// RecipeListResponse lists recipes sorted by name.
type RecipeListResponse struct {
	Recipes []cipher.Recipe `json:"recipes"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Error: err.Error(), Param: cryptoerr.ParamOf(err)}
	if kind := cryptoerr.KindOf(err); kind != nil {
		resp.Kind = kind.Error()
	}
	s.writeJSON(w, status, resp)
}

// writeOperationError maps a failed run to a status: 504 or 408 when the
// request context ended, 422 otherwise.
func (s *Server) writeOperationError(w http.ResponseWriter, ctx context.Context, err error) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, errors.New("request timeout"))
	case errors.Is(ctx.Err(), context.Canceled):
		s.writeError(w, http.StatusRequestTimeout, errors.New("request canceled"))
	default:
		s.writeError(w, http.StatusUnprocessableEntity, err)
	}
}

func decodeInput(input, format string) ([]byte, error) {
	if format == "" {
		return []byte(input), nil
	}
	enc, err := keymaterial.ParseEncoding(format)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "input_format")
	}
	data, err := keymaterial.Decode(input, enc)
	if err != nil {
		return nil, cryptoerr.WithParam(err, "input")
	}
	return data, nil
}

// encodeOutput renders data in format. An empty format picks utf8 when data
// is valid UTF-8 and base64 otherwise.
func encodeOutput(data []byte, format string) (CipherOutputResponse, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = outputBase64
		if utf8.Valid(data) {
			format = outputUTF8
		}
	}
	switch format {
	case outputUTF8, "utf-8", "text":
		return CipherOutputResponse{Output: string(data), OutputFormat: outputUTF8}, nil
	case outputBase64:
		return CipherOutputResponse{Output: base64.StdEncoding.EncodeToString(data), OutputFormat: outputBase64}, nil
	case outputHex:
		return CipherOutputResponse{Output: hex.EncodeToString(data), OutputFormat: outputHex}, nil
	default:
		return CipherOutputResponse{}, cryptoerr.New(cryptoerr.ErrInvalidEncoding, "output_format", fmt.Sprintf("unsupported output format %q", format))
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// handleCipherExecute handles execution of a single cipher operation
func (s *Server) handleCipherExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherOperationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Operation == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("operation field is required"))
		return
	}
	op, exists := cipher.GetOperation(req.Operation)
	if !exists {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("unknown operation: %s", req.Operation))
		return
	}
	input, err := decodeInput(req.Input, req.InputFormat)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	result, err := op.Execute(ctx, input, req.Config)
	if s.logger != nil {
		_ = s.logger.OperationResult(requestID(ctx), req.Operation, req.Config, len(input), err)
	}
	if err != nil {
		s.writeOperationError(w, ctx, err)
		return
	}
	s.writeOutput(w, result, req.OutputFormat)
}

func (s *Server) writeOutput(w http.ResponseWriter, result []byte, format string) {
	resp, err := encodeOutput(result, format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// runPipeline validates the steps, reverses the pipeline when asked and runs
// it, writing either the output or the error.
func (s *Server) runPipeline(w http.ResponseWriter, r *http.Request, pipeline *cipher.Pipeline, reverse bool, input, inputFormat, outputFormat, recipe string) {
	if err := pipeline.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if reverse {
		reversible := *pipeline
		reversible.Reversible = true
		reversed, err := reversible.Reverse()
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		pipeline = reversed
	}
	data, err := decodeInput(input, inputFormat)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	result, err := pipeline.Execute(ctx, data)
	s.auditPipeline(ctx, pipeline, recipe, reverse, len(data), err)
	if err != nil {
		s.writeOperationError(w, ctx, err)
		return
	}
	s.writeOutput(w, result, outputFormat)
}

func (s *Server) auditPipeline(ctx context.Context, pipeline *cipher.Pipeline, recipe string, reverse bool, inputLen int, err error) {
	if s.logger == nil {
		return
	}
	steps := make([]string, len(pipeline.Operations))
	for i, step := range pipeline.Operations {
		steps[i] = step.Name
	}
	event := logging.AuditEvent{
		RequestID: requestID(ctx),
		EventType: logging.EventPipelineExecuted,
		Decision:  logging.DecisionAllow,
		Metadata:  map[string]any{"steps": steps, "reverse": reverse, "input_bytes": inputLen},
	}
	if recipe != "" {
		event.Metadata["recipe"] = recipe
	}
	if err != nil {
		event.Decision = logging.DecisionDeny
		event.Reason = err.Error()
	}
	_ = s.logger.Emit(event)
}

// handleCipherPipeline handles execution of a pipeline of operations
func (s *Server) handleCipherPipeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherPipelineRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.runPipeline(w, r, &cipher.Pipeline{Operations: req.Operations}, req.Reverse, req.Input, req.InputFormat, req.OutputFormat, "")
}

// handleCipherDetect handles auto-detection of encoding
func (s *Server) handleCipherDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherDetectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("input field is required"))
		return
	}

	ctx := r.Context()
	detections, err := cipher.NewSmartDetector().Detect(ctx, []byte(req.Input))
	if err != nil {
		s.writeOperationError(w, ctx, err)
		return
	}
	if detections == nil {
		detections = []cipher.DetectionResult{}
	}
	s.writeJSON(w, http.StatusOK, CipherDetectResponse{Detections: detections})
}

// handleCipherSmartDecode applies the first detection whose operation
// succeeds.
func (s *Server) handleCipherSmartDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CipherDetectRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Input == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("input field is required"))
		return
	}

	ctx := r.Context()
	results, err := cipher.DecodeAll(ctx, []byte(req.Input))
	if err != nil {
		s.writeOperationError(w, ctx, err)
		return
	}
	for _, res := range results {
		if !res.Success {
			continue
		}
		out, _ := encodeOutput(res.Decoded, "")
		s.writeJSON(w, http.StatusOK, CipherSmartDecodeResponse{
			Output:       out.Output,
			OutputFormat: out.OutputFormat,
			Pipeline:     []string{res.Detection.Operation},
			Confidence:   res.Detection.Confidence,
		})
		return
	}
	s.writeError(w, http.StatusUnprocessableEntity, errors.New("could not detect encoding"))
}

// handleCipherListOperations handles listing all available operations
func (s *Server) handleCipherListOperations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	infos := cipher.Describe()
	if t := r.URL.Query().Get("type"); t != "" {
		filtered := infos[:0]
		for _, info := range infos {
			if string(info.Type) == t {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"operations": infos})
}
