// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment and produces a scene.Scene from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/sculpt/pkg/logging"
	"github.com/chazu/sculpt/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents an advisory finding on an evaluated scene.
type EvalWarning struct {
	Field   string
	Message string
}

func (w EvalWarning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// EvalResult bundles the full output of an evaluation for use by UI bindings.
type EvalResult struct {
	Scene    *scene.Scene
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for scene evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine creates a new Engine with the default EvalTimeout.
func NewEngine() *Engine {
	return &Engine{timeout: EvalTimeout}
}

// SetTimeout changes the evaluation limit. Non-positive values restore
// EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate takes Lisp source code and produces a new Scene, starting from
// scene.Default. Each call creates a fresh zygomys sandbox for
// deterministic evaluation. A scene that fails validation is reported as
// eval errors.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval/validation failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	limit := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, limit, gen, &e.mu, &e.generation)
}

// EvaluateResult is Evaluate with validation warnings attached, for UI
// bindings that report both.
func (e *Engine) EvaluateResult(source string) (EvalResult, error) {
	sc, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Scene: sc, Errors: evalErrs}
	if sc == nil {
		return res, nil
	}
	for _, f := range scene.Validate(sc) {
		if f.Severity == scene.SeverityWarning {
			res.Warnings = append(res.Warnings, EvalWarning{Field: f.Field, Message: f.Message})
		}
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	sc := scene.Default()

	// Empty source is a valid program that produces the default scene.
	if strings.TrimSpace(source) == "" {
		return sc, nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, sc)

	// Load and compile the source string into bytecode.
	err := env.LoadString(preprocessSource(source))
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	// Execute the compiled bytecode.
	_, err = env.Run()
	if err != nil {
		evalErrs := parseZygomysError(err)
		return nil, evalErrs, nil
	}

	var evalErrs []EvalError
	for _, f := range scene.Validate(sc) {
		if f.Severity == scene.SeverityError {
			evalErrs = append(evalErrs, EvalError{Message: fmt.Sprintf("%s: %s", f.Field, f.Message)})
		}
	}
	if len(evalErrs) > 0 {
		return nil, evalErrs, nil
	}
	logging.For("engine").Debug("evaluated", "name", sc.Name, "points", len(sc.Points))
	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// Try to extract line numbers from the error message.
	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		detail := strings.TrimSpace(m[2])
		return []EvalError{{
			Line:    line,
			Col:     0,
			Message: detail,
		}}
	}

	// Fallback: no line info available.
	return []EvalError{{
		Line:    0,
		Col:     0,
		Message: strings.TrimSpace(msg),
	}}
}
