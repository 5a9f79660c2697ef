package cipher

import (
	"context"
	"encoding/json"
	"fmt"
)

type runFunc func(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error)

// transformOp is the Operation backing every built-in transform.
type transformOp struct {
	BaseOperation
	run    runFunc
	invert func(params map[string]interface{}) map[string]interface{}
}

func (op *transformOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	return op.run(ctx, input, params)
}

// InverseParams rewrites params for the reverse direction. Most operations
// reuse them unchanged.
func (op *transformOp) InverseParams(params map[string]interface{}) map[string]interface{} {
	if op.invert == nil {
		return params
	}
	return op.invert(cloneParams(params))
}

func plain(fn func([]byte) ([]byte, error)) runFunc {
	return func(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
		return fn(input)
	}
}

func text(fn func(string) string) runFunc {
	return func(_ context.Context, input []byte, _ map[string]interface{}) ([]byte, error) {
		return []byte(fn(string(input))), nil
	}
}

// pair links two operations as each other's reverse.
func pair(a, b *transformOp) (*transformOp, *transformOp) {
	a.ReverseOp = b
	b.ReverseOp = a
	return a, b
}

// selfInverse marks an involution.
func selfInverse(op *transformOp) *transformOp {
	op.ReverseOp = op
	return op
}

func marshalResult(v interface{}) ([]byte, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return out, nil
}
