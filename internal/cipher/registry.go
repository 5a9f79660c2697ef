package cipher

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Global operation registry, filled by the init functions of this package
var (
	operationsRegistry = make(map[string]Operation)
	registryMu         sync.RWMutex
)

// RegisterOperation adds an operation to the global registry
func RegisterOperation(op Operation) error {
	if op == nil {
		return fmt.Errorf("cannot register nil operation")
	}

	name := op.Name()
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := operationsRegistry[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}

	operationsRegistry[name] = op
	return nil
}

func mustRegister(ops ...Operation) {
	for _, op := range ops {
		if err := RegisterOperation(op); err != nil {
			panic(err)
		}
	}
}

// GetOperation retrieves an operation by name. Lookups ignore case.
func GetOperation(name string) (Operation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	op, exists := operationsRegistry[strings.ToLower(strings.TrimSpace(name))]
	return op, exists
}

// ListOperations returns all registered operations sorted by name
func ListOperations() []Operation {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ops := make([]Operation, 0, len(operationsRegistry))
	for _, op := range operationsRegistry {
		ops = append(ops, op)
	}

	sort.Slice(ops, func(i, j int) bool {
		return ops[i].Name() < ops[j].Name()
	})

	return ops
}

// ListOperationsByType returns operations filtered by type
func ListOperationsByType(opType OperationType) []Operation {
	var ops []Operation
	for _, op := range ListOperations() {
		if op.Type() == opType {
			ops = append(ops, op)
		}
	}
	return ops
}

// OperationInfo is the serialisable description of an operation
type OperationInfo struct {
	Name        string        `json:"name"`
	Type        OperationType `json:"type"`
	Description string        `json:"description"`
	Reversible  bool          `json:"reversible"`
	Reverse     string        `json:"reverse,omitempty"`
	Params      []ParamSpec   `json:"params,omitempty"`
}

// Describe lists every registered operation with its parameters
func Describe() []OperationInfo {
	ops := ListOperations()
	infos := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		info := OperationInfo{Name: op.Name(), Type: op.Type(), Description: op.Description()}
		if rev, ok := op.Reverse(); ok {
			info.Reversible = true
			info.Reverse = rev.Name()
		}
		if p, ok := op.(interface{ Params() []ParamSpec }); ok {
			info.Params = p.Params()
		}
		infos = append(infos, info)
	}
	return infos
}

// UnregisterOperation removes an operation from the registry (mainly for testing)
func UnregisterOperation(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()

	delete(operationsRegistry, name)
}
