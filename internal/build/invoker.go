package build

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Compiler is the opaque compilation pipeline. It returns informational
// diagnostics on success and an error on failure.
type Compiler interface {
	Compile(inputDir string) ([]string, error)
}

// Invoker runs the compiler and turns whatever happens into an Outcome.
// Compiler errors and panics become failed outcomes; they never escape.
// Single-flight is the Scheduler's job, not re-checked here.
type Invoker struct {
	compiler Compiler
	inputDir string
}

// NewInvoker wraps compiler for builds of inputDir.
func NewInvoker(compiler Compiler, inputDir string) *Invoker {
	return &Invoker{compiler: compiler, inputDir: inputDir}
}

// Run performs one compilation and returns its outcome.
func (i *Invoker) Run(reason Reason) (outcome Outcome) {
	outcome = Outcome{
		ID:        uuid.NewString(),
		Reason:    reason,
		StartedAt: time.Now(),
	}

	defer func() {
		outcome.Duration = time.Since(outcome.StartedAt)
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Diagnostics = append(outcome.Diagnostics, fmt.Sprintf("compiler panic: %v", r))
		}
	}()

	diags, err := i.compiler.Compile(i.inputDir)
	if err != nil {
		outcome.Success = false
		outcome.Diagnostics = append(diags, err.Error())
		return outcome
	}

	outcome.Success = true
	outcome.Diagnostics = diags
	return outcome
}
