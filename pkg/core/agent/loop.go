package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stock_research/pkg/core/llm"
	"stock_research/pkg/core/logging"

	"go.uber.org/zap"
)

// State is a position in the agent loop state machine.
type State string

const (
	StateAwaitingModel State = "AWAITING_MODEL"
	StateExecutingTool State = "EXECUTING_TOOL"
	StateDone          State = "DONE"
	StateFailed        State = "FAILED"
)

// invalidFormatAction marks steps recorded for Unparseable model output.
const invalidFormatAction = "_invalid_format"

const (
	DefaultMaxIterations       = 10
	DefaultMaxContextChars     = 48000
	DefaultMaxObservationChars = 6000
)

// ToolSet is the fixed set of tools a run can dispatch to.
type ToolSet interface {
	// Invoke runs the named tool. ok is false when no tool has that name.
	Invoke(ctx context.Context, name, input string) (observation string, ok bool)
	Names() []string
}

type Options struct {
	MaxIterations int
	Budget        Budget
	Temperature   float64 // Zero keeps the provider's configured temperature
	Model         string  // Optional model override passed to the provider
	SystemPrompt  string
	Logger        *zap.Logger
}

// Result is the outcome of one run.
type Result struct {
	RunID      string        `json:"run_id"`
	State      State         `json:"state"`
	Answer     string        `json:"answer"`
	Truncated  bool          `json:"truncated"`
	Iterations int           `json:"iterations"`
	Transcript []Step        `json:"transcript"`
	Duration   time.Duration `json:"duration"`
}

// ModelError reports a failed call to the model endpoint. It is fatal to the
// run and distinct from tool errors, which become observations.
type ModelError struct {
	Iteration int
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model endpoint failed at iteration %d: %v", e.Iteration, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// Runner drives the tool-dispatch loop. It keeps no per-run state, so one
// Runner can serve concurrent runs.
type Runner struct {
	provider llm.Provider
	tools    ToolSet
	opts     Options
	logger   *zap.Logger
}

func NewRunner(provider llm.Provider, tools ToolSet, opts Options) *Runner {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Budget.MaxContextChars <= 0 {
		opts.Budget.MaxContextChars = DefaultMaxContextChars
	}
	if opts.Budget.MaxObservationChars <= 0 {
		opts.Budget.MaxObservationChars = DefaultMaxObservationChars
	}
	return &Runner{provider: provider, tools: tools, opts: opts, logger: logging.OrNop(opts.Logger)}
}

// Run executes the loop for one prompt until the model produces a final
// answer, the iteration bound is hit, or the model endpoint fails.
func (r *Runner) Run(ctx context.Context, runID string, prompt string) (*Result, error) {
	start := time.Now()
	log := r.logger.With(zap.String("run_id", runID))

	var transcript Transcript
	var pending ToolCall
	state := StateAwaitingModel
	iterations := 0

	options := map[string]interface{}{}
	if r.opts.Temperature > 0 {
		options["temperature"] = r.opts.Temperature
	}
	if r.opts.Model != "" {
		options["model"] = r.opts.Model
	}
	systemPrompt := r.provider.AdaptInstructions(r.opts.SystemPrompt)

	finish := func(s State, answer string, truncated bool) *Result {
		return &Result{
			RunID:      runID,
			State:      s,
			Answer:     answer,
			Truncated:  truncated,
			Iterations: iterations,
			Transcript: transcript.Steps(),
			Duration:   time.Since(start),
		}
	}

	for {
		switch state {
		case StateAwaitingModel:
			if err := ctx.Err(); err != nil {
				return finish(StateFailed, "", false), fmt.Errorf("run %s cancelled: %w", runID, err)
			}

			input := BuildContext(prompt, transcript.Steps(), r.opts.Budget)
			log.Debug("calling model", zap.Int("iteration", iterations), zap.Int("context_chars", len(input)))

			output, err := r.provider.GenerateResponse(ctx, input, systemPrompt, options)
			if err != nil {
				log.Error("model endpoint failed", zap.Int("iteration", iterations), zap.Error(err))
				return finish(StateFailed, "", false), &ModelError{Iteration: iterations, Err: err}
			}

			switch p := ParseStep(output).(type) {
			case FinalAnswer:
				transcript.Append(Step{FinalAnswer: p.Text})
				state = StateDone

			case ToolCall:
				if iterations >= r.opts.MaxIterations {
					log.Warn("iteration bound reached", zap.Int("max_iterations", r.opts.MaxIterations))
					return finish(StateFailed, truncatedAnswer(transcript.Steps(), r.opts.MaxIterations, r.opts.Budget.MaxObservationChars), true), nil
				}
				pending = p
				state = StateExecutingTool

			case Unparseable:
				if iterations >= r.opts.MaxIterations {
					log.Warn("iteration bound reached", zap.Int("max_iterations", r.opts.MaxIterations))
					return finish(StateFailed, truncatedAnswer(transcript.Steps(), r.opts.MaxIterations, r.opts.Budget.MaxObservationChars), true), nil
				}
				iterations++
				log.Info("unparseable model output", zap.String("reason", p.Reason))
				transcript.Append(Step{
					Action:      invalidFormatAction,
					Observation: formatReminder(p.Reason),
				})
			}

		case StateExecutingTool:
			iterations++
			toolStart := time.Now()
			observation, ok := r.tools.Invoke(ctx, pending.Action, pending.Input)
			if !ok {
				observation = unknownToolObservation(pending.Action, r.tools.Names())
			}
			log.Info("tool invoked",
				zap.String("tool", pending.Action),
				zap.Bool("known", ok),
				zap.Int("iteration", iterations),
				zap.Duration("duration", time.Since(toolStart)),
			)
			transcript.Append(Step{
				Thought:     pending.Thought,
				Action:      pending.Action,
				ActionInput: pending.Input,
				Observation: observation,
			})
			pending = ToolCall{}
			state = StateAwaitingModel

		case StateDone:
			last, _ := transcript.Last()
			log.Info("run complete", zap.Int("iterations", iterations), zap.Duration("duration", time.Since(start)))
			return finish(StateDone, last.FinalAnswer, false), nil
		}
	}
}

func unknownToolObservation(name string, valid []string) string {
	return fmt.Sprintf("Error: tool %q is not recognized. Valid tool names are: %s. Use one of them exactly as written.",
		name, strings.Join(valid, ", "))
}

func formatReminder(reason string) string {
	return fmt.Sprintf("Error: your last reply could not be parsed (%s). To use a tool, write two lines:\nAction: <ToolName>\nAction Input: <input>\nOtherwise write the complete final report without any Action line.", reason)
}

// truncatedAnswer is the partial report surfaced when the loop is cut off.
func truncatedAnswer(steps []Step, maxIterations, maxObservationChars int) string {
	var sb strings.Builder
	sb.WriteString("## Research Incomplete\n\n")
	sb.WriteString(fmt.Sprintf("The research loop stopped after %d tool calls without producing a final report. ", maxIterations))
	sb.WriteString("The data gathered so far is listed below; it has not been analyzed.\n")

	wrote := false
	for _, s := range steps {
		if !s.IsToolStep() || s.Action == invalidFormatAction {
			continue
		}
		if !wrote {
			sb.WriteString("\n## Collected Observations\n")
			wrote = true
		}
		sb.WriteString(fmt.Sprintf("\n### %s (%s)\n\n", s.Action, s.ActionInput))
		sb.WriteString(capObservation(strings.TrimSpace(s.Observation), maxObservationChars))
		sb.WriteString("\n")
	}
	if !wrote {
		sb.WriteString("\nNo tool returned data before the loop was stopped.\n")
	}
	return sb.String()
}
