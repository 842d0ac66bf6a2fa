package agent

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Type selects the agent procedure. The set is closed; unknown tags are
// rejected at construction.
type Type string

const (
	TypeResearch      Type = "research"
	TypeAnalysis      Type = "analysis"
	TypeSummary       Type = "summary"
	TypeInvestigation Type = "investigation"
)

// UnsupportedTypeError is returned when a request names an agent type outside
// the closed set.
type UnsupportedTypeError struct {
	Value string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported agent type: %q", e.Value)
}

// ParseType validates an agent type tag.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeResearch, TypeAnalysis, TypeSummary, TypeInvestigation:
		return Type(s), nil
	default:
		return "", &UnsupportedTypeError{Value: s}
	}
}

// Status is the terminal state of one agent execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Parameters carries variant-specific inputs. Analysis reads Data, summary
// reads Content; both default to the empty string.
type Parameters struct {
	Data    string `json:"data"`
	Content string `json:"content"`
}

// Step is one timestamped entry in the execution log.
type Step struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Execution is the full record of one agent run. It is created at call
// start, mutated only by the owning execution, and finalized exactly once
// before being returned.
type Execution struct {
	AgentType       Type      `json:"agent_type"`
	Task            string    `json:"task"`
	Models          []string  `json:"models"`
	Status          Status    `json:"status"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	Steps           []Step    `json:"steps"`
	Output          string    `json:"output,omitempty"`
	Error           string    `json:"error,omitempty"`
}

const analysisDataPreview = 100

// Agent drives a fixed multi-step procedure producing one structured report.
// Given identical inputs and a fixed clock, step logs and report text are
// fully deterministic.
type Agent struct {
	agentType Type
	models    []string

	now func() time.Time
}

// New creates an agent for the given type and model list. The type must be
// one of the closed variants.
func New(agentType Type, models []string) (*Agent, error) {
	if _, err := ParseType(string(agentType)); err != nil {
		return nil, err
	}
	return &Agent{
		agentType: agentType,
		models:    models,
		now:       time.Now,
	}, nil
}

type stepLogger func(message string)

// Execute runs the agent procedure for one task. Failures inside a variant
// are captured into the returned record, never propagated: the caller always
// receives a finalized Execution.
func (a *Agent) Execute(task string, params Parameters) (exec Execution) {
	start := a.now()
	exec = Execution{
		AgentType: a.agentType,
		Task:      task,
		Models:    a.models,
		Status:    StatusCompleted,
		StartTime: start,
		Steps:     []Step{},
	}

	logStep := func(message string) {
		exec.Steps = append(exec.Steps, Step{Timestamp: a.now(), Message: message})
	}

	defer func() {
		if r := recover(); r != nil {
			exec.Status = StatusFailed
			exec.Error = fmt.Sprint(r)
		}
		end := a.now()
		exec.EndTime = end
		exec.DurationSeconds = end.Sub(start).Seconds()
	}()

	var output string
	switch a.agentType {
	case TypeResearch:
		output = a.research(task, logStep)
	case TypeAnalysis:
		output = a.analysis(task, params, logStep)
	case TypeSummary:
		output = a.summary(task, params, logStep)
	case TypeInvestigation:
		output = a.investigation(task, logStep)
	}

	exec.Output = output
	return exec
}

func (a *Agent) research(task string, logStep stepLogger) string {
	logStep("Starting research agent")

	outputs := make([]string, 0, len(a.models))
	for _, model := range a.models {
		logStep("Querying model: " + model)
		outputs = append(outputs, fmt.Sprintf("[%s] Research on: %s", model, task))
	}

	logStep("Research completed")
	return strings.Join(outputs, "\n\n")
}

func (a *Agent) analysis(task string, params Parameters, logStep stepLogger) string {
	logStep("Starting analysis agent")

	preview := params.Data
	if runes := []rune(preview); len(runes) > analysisDataPreview {
		preview = string(runes[:analysisDataPreview])
	}

	outputs := make([]string, 0, len(a.models))
	for _, model := range a.models {
		logStep("Analyzing with model: " + model)
		outputs = append(outputs, fmt.Sprintf("[%s] Analysis of: %s\nData: %s...", model, task, preview))
	}

	logStep("Analysis completed")
	return strings.Join(outputs, "\n\n")
}

func (a *Agent) summary(task string, params Parameters, logStep stepLogger) string {
	logStep("Starting summary agent")

	model := "default"
	if len(a.models) > 0 {
		model = a.models[0]
	}
	logStep("Generating summary with model: " + model)

	result := fmt.Sprintf(
		"[%s] Summary of: %s\nContent length: %d characters",
		model, task, utf8.RuneCountInString(params.Content),
	)

	logStep("Summary completed")
	return result
}

func (a *Agent) investigation(task string, logStep stepLogger) string {
	logStep("Starting investigation agent")

	logStep("Step 1: Information gathering")
	info := "Gathering information about: " + task

	logStep("Step 2: Analysis")
	analysis := "Analyzing findings for: " + task

	logStep("Step 3: Cross-referencing")
	crossRef := "Cross-referencing data across sources"

	logStep("Step 4: Report generation")
	report := fmt.Sprintf(`
INVESTIGATION REPORT
====================
Task: %s
Models Used: %s

1. Information Gathering:
%s

2. Analysis:
%s

3. Cross-Reference:
%s

4. Conclusion:
Investigation completed. See detailed findings above.
`, task, strings.Join(a.models, ", "), info, analysis, crossRef)

	logStep("Investigation completed")
	return report
}
