// Package engine provides the Lisp evaluation engine for solidprobe.
// It wraps zygomys in a sandboxed environment and produces a catalog of
// placed solids, plus a log of the queries made against them, from user
// source code.
package engine

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/solidprobe/pkg/catalog"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/sirupsen/logrus"
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

// EvalWarning represents a non-fatal finding about an evaluated catalog.
type EvalWarning struct {
	Message string
	EntryID catalog.EntryID
}

// EvalResult bundles the full output of an evaluation.
type EvalResult struct {
	Catalog  *catalog.Catalog
	Errors   []EvalError
	Warnings []EvalWarning
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for evaluation and probe diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// Engine wraps the zygomys interpreter for solidprobe evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	log        logrus.FieldLogger
}

// NewEngine creates a new Engine instance. Without WithLogger the engine
// is silent.
func NewEngine(opts ...Option) *Engine {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	e := &Engine{log: quiet, timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate takes Lisp source code and produces a new Catalog.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns catalog + nil errors + nil error
//   - On parse/eval failure: returns nil catalog + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*catalog.Catalog, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		c, evalErrs, err := e.evaluate(source)
		ch <- evalResult{catalog: c, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// EvaluateAll evaluates source and validates the resulting catalog.
// Validation errors are reported as EvalErrors, validation warnings as
// EvalWarnings. Fatal failures are returned as the error.
func (e *Engine) EvaluateAll(source string) (EvalResult, error) {
	c, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	res := EvalResult{Catalog: c, Errors: evalErrs}
	if c == nil {
		return res, nil
	}

	v := c.Validate()
	for _, ve := range v.Errors {
		res.Errors = append(res.Errors, EvalError{Message: ve.Error()})
	}
	for _, vw := range v.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{Message: vw.Message, EntryID: vw.EntryID})
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*catalog.Catalog, []EvalError, error) {
	// Empty source is a valid program that produces an empty catalog.
	if strings.TrimSpace(source) == "" {
		return catalog.New(), nil, nil
	}

	// Create a fresh sandboxed zygomys environment.
	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	c := catalog.New()
	registerBuiltins(env, c, e.log)

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

	e.log.WithFields(logrus.Fields{
		"entries": c.Len(),
		"probes":  len(c.Probes()),
	}).Debug("evaluation complete")
	return c, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
