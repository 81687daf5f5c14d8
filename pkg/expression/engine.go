package expression

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine evaluates playbook detection rules against crawl snapshot
// environments. Compiled programs are cached by rule text; an audit
// evaluates the same handful of rules across thousands of entities, so
// each rule compiles once per process.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new rule engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate runs a rule against the given environment
func (e *Engine) Evaluate(rule string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(rule, env)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rule: %w", err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate rule: %w", err)
	}
	return result, nil
}

// Validate reports whether a rule compiles against the environment shape.
// The catalog loader rejects broken rules at startup instead of letting
// them surface mid-run.
func (e *Engine) Validate(rule string, env map[string]interface{}) error {
	_, err := e.getProgram(rule, env)
	return err
}

// getProgram returns a cached compiled program or compiles and caches it
func (e *Engine) getProgram(rule string, env map[string]interface{}) (*vm.Program, error) {
	e.mu.RLock()
	if program, ok := e.programCache[rule]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock
	if program, ok := e.programCache[rule]; ok {
		return program, nil
	}

	options := []expr.Option{
		expr.Env(env),
		// words counts whitespace-separated words. Thin-content rules use
		// it where raw byte length over-counts markup-heavy bodies.
		expr.Function("words", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("words expects exactly 1 argument")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("words expects a string argument")
			}
			return len(strings.Fields(s)), nil
		}),
	}

	program, err := expr.Compile(rule, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[rule] = program
	return program, nil
}
