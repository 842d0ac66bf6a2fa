package chain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amber-ici/amber/backend/pkg/ai"
	"github.com/amber-ici/amber/backend/pkg/logger"
)

// Type selects the chain execution mode.
type Type string

const (
	TypeSequential Type = "sequential"
	TypeParallel   Type = "parallel"
)

// UnsupportedTypeError is returned when a request names a chain type outside
// the closed set.
type UnsupportedTypeError struct {
	Value string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported chain type: %q", e.Value)
}

// ParseType validates a chain type tag.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeSequential, TypeParallel:
		return Type(s), nil
	default:
		return "", &UnsupportedTypeError{Value: s}
	}
}

// StepResult records one model's step in a chain. For sequential chains the
// output of step k becomes the input of step k+1; for parallel chains all
// steps share the same input. A failed step carries its error message; its
// output holds whatever fragments arrived before the failure.
type StepResult struct {
	Model     string    `json:"model"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Orchestrator runs a prompt through an ordered set of models on one backend.
type Orchestrator struct {
	backend ai.ModelBackend
}

// NewOrchestrator creates an Orchestrator bound to the given backend.
func NewOrchestrator(backend ai.ModelBackend) *Orchestrator {
	return &Orchestrator{backend: backend}
}

// Run dispatches to the execution mode named by chainType.
func (o *Orchestrator) Run(ctx context.Context, chainType Type, models []string, prompt string) ([]StepResult, error) {
	switch chainType {
	case TypeSequential:
		return o.RunSequential(ctx, models, prompt)
	case TypeParallel:
		return o.RunParallel(ctx, models, prompt), nil
	default:
		return nil, &UnsupportedTypeError{Value: string(chainType)}
	}
}

// RunSequential invokes each model in order, feeding every step's full output
// forward as the next step's prompt. A failed step terminates the chain: the
// failure is recorded in that step's result and returned as an explicit
// error, never silently fed forward as an empty prompt.
func (o *Orchestrator) RunSequential(ctx context.Context, models []string, initialPrompt string) ([]StepResult, error) {
	results := make([]StepResult, 0, len(models))
	current := initialPrompt

	for _, model := range models {
		events, err := o.backend.Invoke(ctx, model, current, nil)
		if err != nil {
			results = append(results, StepResult{
				Model:     model,
				Input:     current,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			return results, fmt.Errorf("sequential chain step %q: %w", model, err)
		}

		output, err := ai.Collect(ctx, model, events)
		if err != nil {
			results = append(results, StepResult{
				Model:     model,
				Input:     current,
				Output:    output,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
			return results, fmt.Errorf("sequential chain step %q: %w", model, err)
		}

		results = append(results, StepResult{
			Model:     model,
			Input:     current,
			Output:    output,
			Timestamp: time.Now(),
		})
		current = output
	}

	return results, nil
}

// RunParallel fans the same prompt out to every model concurrently and waits
// for all of them. Results are stitched back into model-declared order; one
// model's failure is reported in its own result and never cancels siblings.
func (o *Orchestrator) RunParallel(ctx context.Context, models []string, prompt string) []StepResult {
	results := make([]StepResult, len(models))
	var wg sync.WaitGroup

	for i, model := range models {
		wg.Add(1)
		go func(i int, model string) {
			defer wg.Done()

			res := StepResult{Model: model, Input: prompt}

			events, err := o.backend.Invoke(ctx, model, prompt, nil)
			if err != nil {
				res.Error = err.Error()
				res.Timestamp = time.Now()
				results[i] = res
				return
			}

			output, err := ai.Collect(ctx, model, events)
			res.Output = output
			if err != nil {
				logger.Warn("[Chain] Parallel step failed", "model", model, "err", err)
				res.Error = err.Error()
			}
			res.Timestamp = time.Now()
			results[i] = res
		}(i, model)
	}

	wg.Wait()
	return results
}
