// Package rules evaluates boolean expressions against bindb records, for
// example to decide whether a card is accepted:
//
//	vendorIn("VISA", "MASTERCARD") and not is_prepaid and countryIn("MA", "FR")
//
// Every record field is available by name. Fields whose name collides with an
// expr builtin (such as "type") are read with field("type").
package rules

import (
	"fmt"
	"maps"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/s0up4200/bindb/bindb"
)

// Rule is a compiled expression
type Rule struct {
	expression string
	program    *vm.Program
	funcs      map[string]any
}

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables rule caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[string, *Rule](size)
		if err == nil {
			c.cache = cache
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.funcs, funcs)
	}
}

// Compiler compiles rule expressions
type Compiler struct {
	funcs map[string]any
	cache *lru.Cache[string, *Rule]
}

// NewCompiler creates a new expr-based rule compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		funcs: make(map[string]any),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into a Rule
func (c *Compiler) Compile(expression string) (*Rule, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Compile against helpers bound to no record; only signatures matter here
	env := recordHelpers(nil)
	maps.Copy(env, c.funcs)

	program, err := expr.Compile(expression,
		expr.Env(env),
		expr.AllowUndefinedVariables(), // record fields
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	rule := &Rule{
		expression: expression,
		program:    program,
		funcs:      maps.Clone(c.funcs),
	}

	if c.cache != nil {
		c.cache.Add(expression, rule)
	}

	return rule, nil
}

// CompileAll compiles a set of named rules. Nothing is returned unless every
// rule compiles.
func (c *Compiler) CompileAll(expressions map[string]string) (map[string]*Rule, error) {
	compiled := make(map[string]*Rule, len(expressions))
	for name, expression := range expressions {
		rule, err := c.Compile(expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule '%s': %w", name, err)
		}
		compiled[name] = rule
	}
	return compiled, nil
}

// Clear removes all cached rules
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// Size returns the number of cached rules
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Expression returns the original expression
func (r *Rule) Expression() string {
	return r.expression
}

// Match evaluates the rule against a record. A nil record (not found) never matches.
func (r *Rule) Match(rec *bindb.Record) (bool, error) {
	if rec == nil {
		return false, nil
	}

	result, err := expr.Run(r.program, r.environment(rec))
	if err != nil {
		return false, &EvaluationError{
			Expression: r.expression,
			Bin:        fmt.Sprint(rec.Info().Bin),
			Reason:     "failed to evaluate expression",
			Err:        err,
		}
	}

	// AsBool guarantees the type
	return result.(bool), nil
}

// environment creates the runtime environment for one record
func (r *Rule) environment(rec *bindb.Record) map[string]any {
	values := rec.Map()
	env := make(map[string]any, len(values)+len(r.funcs)+8)

	maps.Copy(env, values)
	env["Record"] = values
	maps.Copy(env, recordHelpers(rec))
	maps.Copy(env, r.funcs)

	return env
}

// recordHelpers creates the helper functions bound to a record
func recordHelpers(rec *bindb.Record) map[string]any {
	info := rec.Info()

	return map[string]any{
		"has": func(name string) bool {
			_, ok := rec.Get(name)
			return ok
		},
		"field": func(name string) any {
			v, _ := rec.Get(name)
			return v
		},
		"countryIn": func(codes ...string) bool {
			return equalsAnyFold(info.CountryCode, codes)
		},
		"vendorIn": func(vendors ...string) bool {
			return equalsAnyFold(info.Vendor, vendors)
		},
		"issuerLike": func(substr string) bool {
			return strings.Contains(strings.ToLower(info.Issuer), strings.ToLower(substr))
		},
	}
}

func equalsAnyFold(value string, candidates []string) bool {
	if value == "" {
		return false
	}
	for _, c := range candidates {
		if strings.EqualFold(value, c) {
			return true
		}
	}
	return false
}
