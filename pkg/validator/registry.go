package validator

import (
	"fmt"
	"sync"

	"github.com/empd2/empd-admin/pkg/schema"
	"github.com/empd2/empd-admin/pkg/store"
	"github.com/empd2/empd-admin/pkg/types"
)

// CellRule checks a single cell value against its column spec. A rule that
// does not apply to the column must pass the value through.
type CellRule interface {
	// Check returns ("", true) if the value passes, or a failure message
	// and false otherwise.
	Check(value string, spec *schema.ColumnSpec, lookups schema.LookupTables) (string, bool)
}

// CrossRule checks one whole row after all per-cell rules have run. It may
// read already-failed cells; the validator drops its findings for cells
// that already carry a per-cell finding.
type CrossRule interface {
	Check(row store.Row, sch *schema.Schema, lookups schema.LookupTables) []types.Finding
}

var (
	registryMu sync.RWMutex
	cellRules  = make(map[types.RuleKind]CellRule)
	crossRules = make(map[string]CrossRule)
)

// Register makes a cell rule available for the given rule kind.
// It panics if the kind is already taken or the rule is nil.
func Register(kind types.RuleKind, rule CellRule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if rule == nil {
		panic("validator: Register rule is nil")
	}
	if _, dup := cellRules[kind]; dup {
		panic(fmt.Sprintf("validator: Register called twice for rule kind %v", kind))
	}
	cellRules[kind] = rule
}

// RegisterCross makes a cross-column rule available under the given name,
// to be enabled per schema via its checks list. It panics on duplicates or
// a nil rule.
func RegisterCross(name string, rule CrossRule) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if rule == nil {
		panic("validator: RegisterCross rule is nil")
	}
	if _, dup := crossRules[name]; dup {
		panic(fmt.Sprintf("validator: RegisterCross called twice for check %q", name))
	}
	crossRules[name] = rule
}

// HasCross reports whether a cross-column rule is registered under name.
func HasCross(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := crossRules[name]
	return ok
}

func cellRule(kind types.RuleKind) CellRule {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return cellRules[kind]
}

func crossRule(name string) CrossRule {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return crossRules[name]
}
