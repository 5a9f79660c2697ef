package cipher

import (
	"context"
	"fmt"
)

// OperationType groups operations for listing and filtering
type OperationType string

const (
	OperationTypeEncode  OperationType = "encode"
	OperationTypeDecode  OperationType = "decode"
	OperationTypeRotate  OperationType = "rotate"
	OperationTypeEncrypt OperationType = "encrypt"
	OperationTypeDecrypt OperationType = "decrypt"
	OperationTypeSign    OperationType = "sign"
	OperationTypeVerify  OperationType = "verify"
	OperationTypeConvert OperationType = "convert"
	OperationTypeAnalyze OperationType = "analyze"
)

// Operation is a single named transform over a byte buffer
type Operation interface {
	// Name returns the unique identifier for this operation
	Name() string

	// Type returns the category of this operation
	Type() OperationType

	// Description returns a human-readable description
	Description() string

	// Execute applies the operation. The input is never modified.
	Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error)

	// Reverse returns the inverse operation if available
	Reverse() (Operation, bool)
}

// ParamInverter is implemented by operations whose inverse is themselves
// with rewritten parameters, such as a rotation by -n.
type ParamInverter interface {
	InverseParams(params map[string]interface{}) map[string]interface{}
}

// OperationConfig is one step of a pipeline
type OperationConfig struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// Pipeline chains operations, feeding each output into the next step
type Pipeline struct {
	Operations []OperationConfig `json:"operations"`
	Reversible bool              `json:"reversible"`
}

// Execute runs the pipeline on the input data. A failing step aborts the run;
// no partial output is returned.
func (p *Pipeline) Execute(ctx context.Context, input []byte) ([]byte, error) {
	result := input
	var err error

	for i, opConfig := range p.Operations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		op, exists := GetOperation(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("unknown operation at step %d: %s", i, opConfig.Name)
		}

		result, err = op.Execute(ctx, result, opConfig.Parameters)
		if err != nil {
			return nil, fmt.Errorf("operation %s failed at step %d: %w", opConfig.Name, i, err)
		}
	}

	return result, nil
}

// Validate checks that the pipeline has steps and that every step names a
// registered operation.
func (p *Pipeline) Validate() error {
	if len(p.Operations) == 0 {
		return fmt.Errorf("pipeline has no operations")
	}
	for i, step := range p.Operations {
		if _, ok := GetOperation(step.Name); !ok {
			return fmt.Errorf("unknown operation at step %d: %s", i, step.Name)
		}
	}
	return nil
}

// Reverse builds the inverse pipeline: steps in reverse order, each replaced
// by its inverse operation.
func (p *Pipeline) Reverse() (*Pipeline, error) {
	if !p.Reversible {
		return nil, fmt.Errorf("pipeline is not reversible")
	}

	reversed := &Pipeline{
		Operations: make([]OperationConfig, len(p.Operations)),
		Reversible: true,
	}

	for i, opConfig := range p.Operations {
		op, exists := GetOperation(opConfig.Name)
		if !exists {
			return nil, fmt.Errorf("unknown operation: %s", opConfig.Name)
		}

		reverseOp, ok := op.Reverse()
		if !ok {
			return nil, fmt.Errorf("operation %s is not reversible", opConfig.Name)
		}

		params := opConfig.Parameters
		if inv, ok := reverseOp.(ParamInverter); ok {
			params = inv.InverseParams(params)
		}

		reversed.Operations[len(p.Operations)-1-i] = OperationConfig{
			Name:       reverseOp.Name(),
			Parameters: params,
		}
	}

	return reversed, nil
}

// Recipe is a named, saved pipeline
type Recipe struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Pipeline    Pipeline `json:"pipeline"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// DetectionResult is one guess about what the input is
type DetectionResult struct {
	Encoding   string  `json:"encoding"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
	Reasoning  string  `json:"reasoning"`
	Operation  string  `json:"operation"` // Suggested operation name to decode
}

// Detector identifies the encoding or format of input data
type Detector interface {
	Detect(ctx context.Context, input []byte) ([]DetectionResult, error)
	SupportedEncodings() []string
}

// BaseOperation carries the static metadata every operation shares
type BaseOperation struct {
	NameValue        string
	TypeValue        OperationType
	DescriptionValue string
	ParamsValue      []ParamSpec
	ReverseOp        Operation
}

func (b *BaseOperation) Name() string {
	return b.NameValue
}

func (b *BaseOperation) Type() OperationType {
	return b.TypeValue
}

func (b *BaseOperation) Description() string {
	return b.DescriptionValue
}

// Params documents the parameters the operation reads.
func (b *BaseOperation) Params() []ParamSpec {
	return b.ParamsValue
}

func (b *BaseOperation) Reverse() (Operation, bool) {
	if b.ReverseOp == nil {
		return nil, false
	}
	return b.ReverseOp, true
}

// ParamSpec documents one operation parameter
type ParamSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
}
