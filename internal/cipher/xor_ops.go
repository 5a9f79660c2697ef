package cipher

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/tidwall/sjson"

	"github.com/RowanDark/cipherkit/internal/xor"
)

func runXOR(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := materialParam(params, "key", currentDefaults().KeyFormat, true)
	if err != nil {
		return nil, err
	}
	return xor.XOR(input, key)
}

// runXORBruteforce emits {"00": "<hex>", ..., "ff": "<hex>"}.
func runXORBruteforce(_ context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	n, err := intParam(params, "length", currentDefaults().XORBruteforceLength)
	if err != nil {
		return nil, err
	}
	results := xor.Bruteforce(input, n)

	out := []byte("{}")
	for k := 0; k <= 0xff; k++ {
		out, err = sjson.SetBytes(out, fmt.Sprintf("%02x", k), hex.EncodeToString(results[byte(k)]))
		if err != nil {
			return nil, fmt.Errorf("encode bruteforce result: %w", err)
		}
	}
	return out, nil
}

func init() {
	xorOp := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "xor",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "XOR with a repeating key",
			ParamsValue: []ParamSpec{
				{Name: "key", Description: "Key material", Required: true},
				{Name: "key_format", Description: "Encoding of key", Default: "hex"},
			},
		},
		run: runXOR,
	}
	bruteforce := &transformOp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_bruteforce",
			TypeValue:        OperationTypeAnalyze,
			DescriptionValue: "XOR the input prefix with every single byte key",
			ParamsValue:      []ParamSpec{{Name: "length", Description: "Number of leading bytes to try", Default: "100"}},
		},
		run: runXORBruteforce,
	}

	mustRegister(selfInverse(xorOp), bruteforce)
}
