package engine

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/sculpt/pkg/grid"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine()

	for _, src := range []string{"", "   \n\t  \n  "} {
		sc, evalErrs, err := eng.Evaluate(src)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if sc == nil {
			t.Fatal("expected non-nil scene")
		}
		if sc.NX != grid.DefaultNX || sc.NY != grid.DefaultNY {
			t.Errorf("expected default grid, got %dx%d", sc.NX, sc.NY)
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine()

	// Plain Lisp with no scene builtins leaves the default scene.
	sc, evalErrs, err := eng.Evaluate("(+ 1 2)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
	if len(sc.Points) != 0 {
		t.Errorf("expected no point edits, got %d", len(sc.Points))
	}
}

func TestEvaluateMultipleExpressions(t *testing.T) {
	eng := NewEngine()

	source := `
(def x 10)
(def y 20)
(+ x y)
`
	sc, evalErrs, err := eng.Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if sc == nil {
		t.Fatal("expected non-nil scene")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine()

	// Unmatched paren is a parse error.
	sc, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if sc != nil {
		t.Fatal("expected nil scene on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate("(+ 1 undefined-symbol)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if sc != nil {
		t.Fatal("expected nil scene on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvaluateInvalidSceneIsReported(t *testing.T) {
	eng := NewEngine()

	sc, evalErrs, err := eng.Evaluate("(grid 1 4)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if sc != nil {
		t.Fatal("expected nil scene for an invalid grid")
	}
	if len(evalErrs) != 1 || !strings.HasPrefix(evalErrs[0].Message, "grid:") {
		t.Fatalf("expected one grid error, got %v", evalErrs)
	}
}

func TestEvaluateResultWarnings(t *testing.T) {
	eng := NewEngine()

	res, err := eng.EvaluateResult("(resolution 500)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if res.Scene == nil || len(res.Errors) != 0 {
		t.Fatalf("expected a scene, got errors %v", res.Errors)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Field != "resolution" {
		t.Fatalf("expected one resolution warning, got %v", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0].String(), "resolution: ") {
		t.Errorf("String() = %q", res.Warnings[0].String())
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()

	// Each evaluation starts from a fresh sandbox and a fresh scene.
	for i := 0; i < 5; i++ {
		sc, evalErrs, err := eng.Evaluate("(point 0 0 0 0 1)")
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if len(sc.Points) != 1 {
			t.Errorf("iteration %d: expected 1 point edit, got %d", i, len(sc.Points))
		}
	}
}

func TestEvaluateTimeout(t *testing.T) {
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult) // never sends

	done := make(chan struct{})
	var resultErr error
	go func() {
		defer close(done)
		_, _, resultErr = waitWithTimeout(ch, 50*time.Millisecond, 1, &mu, &gen)
	}()

	select {
	case <-done:
		if resultErr == nil {
			t.Fatal("expected timeout error, got nil")
		}
		if !strings.Contains(resultErr.Error(), "timed out") {
			t.Errorf("expected timeout error message, got: %v", resultErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestSetTimeout(t *testing.T) {
	eng := NewEngine()
	eng.SetTimeout(time.Second)
	if eng.timeout != time.Second {
		t.Errorf("timeout = %s, want 1s", eng.timeout)
	}
	eng.SetTimeout(0)
	if eng.timeout != EvalTimeout {
		t.Errorf("timeout = %s, want %s", eng.timeout, EvalTimeout)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // current generation

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	_, _, err := waitWithTimeout(ch, time.Second, 1, &mu, &gen)
	if err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: bad vec3",
			wantLine: 3,
			wantMsg:  "bad vec3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
