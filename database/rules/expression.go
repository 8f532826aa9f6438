// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rules

import (
	"fmt"
	"strings"

	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/statetree"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Write rules are boolean expressions in a JavaScript-like notation, e.g.
//
//	auth.addr === $uid && typeof newData === 'number'
//
// Rules are translated into the expression language of expr-lang before
// being compiled. The translation maps strict (in)equality operators to
// their plain counterparts, null and undefined to nil, path variables like
// $uid to vars.uid, the typeof operator to a function call, and drops the
// util. prefix of helper functions.

// Context is the information rules are evaluated against.
type Context struct {
	// Auth is the author of the write.
	Auth Auth
	// Timestamp is the time of the write in milliseconds.
	Timestamp int64
	// Data is the current value at the written path.
	Data any
	// NewData is the value to be written.
	NewData any
	// Vars are the path variables captured while matching the rule.
	Vars map[string]any
	// State provides read access to the state the rule is evaluated in.
	State StateReader
}

// StateReader provides read access to the state for rule expressions.
type StateReader interface {
	GetValue(path string) any
	GetRule(path string) any
	GetOwner(path string) any
	GetFunction(path string) any
}

// Evaluator compiles and evaluates write rule expressions. Compiled programs
// are cached. An Evaluator is not thread safe.
type Evaluator struct {
	programs *common.LruCache[string, *vm.Program]
}

// NewEvaluator creates an evaluator caching up to the given number of
// compiled rule programs.
func NewEvaluator(cacheSize int) *Evaluator {
	return &Evaluator{
		programs: common.NewLruCache[string, *vm.Program](cacheSize),
	}
}

var helperFunctions = []expr.Option{
	expr.Function("typeof", func(params ...any) (any, error) {
		return typeOf(params[0]), nil
	}, new(func(any) string)),
	expr.Function("isNumber", func(params ...any) (any, error) {
		_, ok := toNumber(params[0])
		return ok, nil
	}, new(func(any) bool)),
	expr.Function("isString", func(params ...any) (any, error) {
		_, ok := params[0].(string)
		return ok, nil
	}, new(func(any) bool)),
	expr.Function("isBool", func(params ...any) (any, error) {
		_, ok := params[0].(bool)
		return ok, nil
	}, new(func(any) bool)),
	expr.Function("isDict", func(params ...any) (any, error) {
		_, ok := params[0].(map[string]any)
		return ok, nil
	}, new(func(any) bool)),
}

// typeOf mirrors JavaScript's typeof operator for state values.
func typeOf(value any) string {
	switch value.(type) {
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	}
	return "object"
}

// Compile translates and compiles a rule expression.
func (e *Evaluator) Compile(rule string) (*vm.Program, error) {
	if program, found := e.programs.Get(rule); found {
		return program, nil
	}
	program, err := expr.Compile(TranslateRule(rule), helperFunctions...)
	if err != nil {
		return nil, fmt.Errorf("invalid rule %q: %w", rule, err)
	}
	e.programs.Set(rule, program)
	return program, nil
}

// EvalWriteRule evaluates a write rule, which is either a boolean literal or
// a rule expression. Expressions evaluating to anything but true, including
// failing evaluations, deny the write.
func (e *Evaluator) EvalWriteRule(rule any, ctx Context) (bool, error) {
	switch r := rule.(type) {
	case bool:
		return r, nil
	case string:
		program, err := e.Compile(r)
		if err != nil {
			return false, err
		}
		out, err := expr.Run(program, ctx.env())
		if err != nil {
			return false, fmt.Errorf("failed to evaluate rule %q: %w", r, err)
		}
		res, _ := out.(bool)
		return res, nil
	}
	return false, fmt.Errorf("invalid rule type %T", rule)
}

func (c Context) env() map[string]any {
	vars := c.Vars
	if vars == nil {
		vars = map[string]any{}
	}
	res := map[string]any{
		"auth":        c.Auth.toObject(),
		"data":        c.Data,
		"newData":     c.NewData,
		"currentTime": c.Timestamp,
		"vars":        vars,
	}
	state := c.State
	if state == nil {
		state = emptyState{}
	}
	res["getValue"] = state.GetValue
	res["getRule"] = state.GetRule
	res["getOwner"] = state.GetOwner
	res["getFunction"] = state.GetFunction
	return res
}

type emptyState struct{}

func (emptyState) GetValue(string) any    { return nil }
func (emptyState) GetRule(string) any     { return nil }
func (emptyState) GetOwner(string) any    { return nil }
func (emptyState) GetFunction(string) any { return nil }

// ValidateRuleTree checks a rule tree object, including the syntax of all
// rule expressions. On failure, the path of the first invalid element is
// returned.
func (e *Evaluator) ValidateRuleTree(obj any) (statetree.Path, bool) {
	return validateTree(obj, RuleLabel, e.validateRuleConfig)
}

func (e *Evaluator) validateRuleConfig(config any) (statetree.Path, bool) {
	dict, isDict := config.(map[string]any)
	if !isDict || len(dict) == 0 {
		return statetree.Path{}, false
	}
	for _, key := range sortedKeys(dict) {
		switch key {
		case WriteProperty:
			switch rule := dict[key].(type) {
			case bool:
			case string:
				if _, err := e.Compile(rule); err != nil {
					return statetree.Path{key}, false
				}
			default:
				return statetree.Path{key}, false
			}
		case StateProperty:
			if invalid, ok := validateStateRule(dict[key]); !ok {
				return statetree.Path{key}.Child(invalid...), false
			}
		default:
			return statetree.Path{key}, false
		}
	}
	return nil, true
}

// TranslateRule converts a rule in JavaScript-like notation into an
// expression of the expr language.
func TranslateRule(rule string) string {
	var sb strings.Builder
	sb.Grow(len(rule) + 16)
	for i := 0; i < len(rule); {
		c := rule[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipString(rule, i)
			sb.WriteString(rule[i:end])
			i = end
		case strings.HasPrefix(rule[i:], "==="):
			sb.WriteString("==")
			i += 3
		case strings.HasPrefix(rule[i:], "!=="):
			sb.WriteString("!=")
			i += 3
		case c == '$' && i+1 < len(rule) && isIdentStart(rule[i+1]):
			end := skipIdent(rule, i+1)
			sb.WriteString("vars.")
			sb.WriteString(rule[i+1 : end])
			i = end
		case isIdentStart(c):
			end := skipIdent(rule, i)
			word := rule[i:end]
			switch {
			case followsDot(rule, i):
				sb.WriteString(word)
			case word == "null" || word == "undefined":
				sb.WriteString("nil")
			case word == "util" && end < len(rule) && rule[end] == '.':
				end++
			case word == "typeof":
				operand := skipSpaces(rule, end)
				if operand < len(rule) && rule[operand] == '(' {
					sb.WriteString(word)
					break
				}
				end = skipOperand(rule, operand)
				sb.WriteString("typeof(")
				sb.WriteString(TranslateRule(rule[operand:end]))
				sb.WriteString(")")
			default:
				sb.WriteString(word)
			}
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func skipIdent(s string, i int) int {
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	return i
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

// skipOperand skips a typeof operand like data, $uid or newData.a.b.
func skipOperand(s string, i int) int {
	for i < len(s) && (isIdentChar(s[i]) || s[i] == '.' || s[i] == '$') {
		i++
	}
	return i
}

// skipString skips a quoted string starting at i, honoring escapes.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

// followsDot reports whether the identifier at i is a property access.
func followsDot(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\n':
			continue
		case '.':
			return j == 0 || s[j-1] != '.'
		}
		return false
	}
	return false
}
