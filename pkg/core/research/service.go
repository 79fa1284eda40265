// Package research runs stock and news research end to end: it builds the
// prompt, drives the agent loop over the tool set and renders the report.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock_research/pkg/core/agent"
	"stock_research/pkg/core/config"
	"stock_research/pkg/core/logging"
	"stock_research/pkg/core/prompt"
	"stock_research/pkg/core/report"
	"stock_research/pkg/core/tools"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one research request.
type Outcome struct {
	RunID        string         `json:"run_id"`
	Kind         report.Kind    `json:"kind"`
	Subject      string         `json:"subject"`
	Report       *report.Report `json:"report,omitempty"`
	State        agent.State    `json:"state"`
	Truncated    bool           `json:"truncated"`
	Iterations   int            `json:"iterations"`
	Duration     time.Duration  `json:"duration"`
	ArtifactPath string         `json:"artifact_path,omitempty"`
	RenderErr    error          `json:"-"`
	Err          error          `json:"-"`

	// Error and RenderError carry the error text for JSON clients.
	Error       string `json:"error,omitempty"`
	RenderError string `json:"render_error,omitempty"`
}

func (o *Outcome) fail(err error) (*Outcome, error) {
	o.State = agent.StateFailed
	o.Err = err
	o.Error = err.Error()
	return o, err
}

// Options tune a Service.
type Options struct {
	Loop        agent.Options
	Parallelism int
	// Prompts overrides the embedded prompt templates when set.
	Prompts *prompt.Registry
	Logger  *zap.Logger
	// Now is the clock used for prompt dates and report timestamps.
	Now func() time.Time
}

// OptionsFromConfig maps configuration onto service options.
func OptionsFromConfig(cfg config.Config, logger *zap.Logger) Options {
	return Options{
		Loop: agent.Options{
			MaxIterations: cfg.Agent.MaxIterations,
			Budget: agent.Budget{
				MaxContextChars:     cfg.Agent.MaxContextChars,
				MaxObservationChars: cfg.Agent.MaxObservationChars,
			},
		},
		Parallelism: cfg.Parallelism,
		Logger:      logger,
	}
}

// Service orchestrates research runs. It is safe for concurrent use.
type Service struct {
	manager  *agent.Manager
	registry *tools.Registry
	renderer report.Renderer
	prompts  *prompt.Registry
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a service. renderer may be nil to skip artifacts.
func NewService(manager *agent.Manager, registry *tools.Registry, renderer report.Renderer, opts Options) (*Service, error) {
	if manager == nil || registry == nil {
		return nil, errors.New("research: manager and tool registry are required")
	}
	prompts := opts.Prompts
	if prompts == nil {
		var err error
		if prompts, err = prompt.Default(); err != nil {
			return nil, err
		}
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	logger := logging.OrNop(opts.Logger)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		manager:  manager,
		registry: registry,
		renderer: renderer,
		prompts:  prompts,
		opts:     opts,
		logger:   logger,
		now:      now,
	}, nil
}

// ResearchStock produces a stock analysis report for ticker.
func (s *Service) ResearchStock(ctx context.Context, ticker string) (*Outcome, error) {
	symbol, ok := tools.NormalizeTicker(ticker)
	if !ok {
		out := &Outcome{Kind: report.KindStock, Subject: ticker}
		return out.fail(fmt.Errorf("invalid ticker symbol %q", ticker))
	}
	return s.run(ctx, report.KindStock, symbol, config.AgentStockAnalyst, prompt.StockAnalysisID)
}

// ResearchNews produces a news research report for topic.
func (s *Service) ResearchNews(ctx context.Context, topic string) (*Outcome, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		out := &Outcome{Kind: report.KindNews}
		return out.fail(errors.New("news topic is empty"))
	}
	return s.run(ctx, report.KindNews, topic, config.AgentNewsAnalyst, prompt.NewsResearchID)
}

// ResearchStocks researches several tickers in parallel, bounded by the
// configured parallelism. Outcomes keep input order and one ticker's failure
// does not stop the others.
func (s *Service) ResearchStocks(ctx context.Context, tickers []string) []*Outcome {
	outcomes := make([]*Outcome, len(tickers))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Parallelism)
	for i, t := range tickers {
		i, t := i, t
		g.Go(func() error {
			outcomes[i], _ = s.ResearchStock(ctx, t)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (s *Service) run(ctx context.Context, kind report.Kind, subject, agentType, promptID string) (*Outcome, error) {
	runID := uuid.NewString()
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("kind", string(kind)),
		zap.String("subject", subject),
	)
	out := &Outcome{RunID: runID, Kind: kind, Subject: subject}

	provider, err := s.manager.GetProvider(agentType)
	if err != nil {
		return out.fail(err)
	}

	now := s.now()
	built := s.prompts.Build(promptID, subject, now, s.promptTools())

	loopOpts := s.opts.Loop
	loopOpts.SystemPrompt = built.System
	loopOpts.Logger = log

	log.Info("research started")
	result, err := agent.NewRunner(provider, s.registry, loopOpts).Run(ctx, runID, built.User)
	out.State = result.State
	out.Iterations = result.Iterations
	out.Truncated = result.Truncated
	out.Duration = result.Duration
	if err != nil {
		log.Error("research failed", zap.Error(err))
		return out.fail(err)
	}

	rep := report.New(kind, subject, result.Answer, now)
	rep.Truncated = result.Truncated
	out.Report = rep

	if s.renderer != nil {
		path, rerr := s.renderer.Render(ctx, rep)
		if rerr != nil {
			log.Warn("report render failed", zap.Error(rerr))
			out.RenderErr = rerr
			out.RenderError = rerr.Error()
		} else {
			out.ArtifactPath = path
		}
	}

	log.Info("research finished",
		zap.String("state", string(out.State)),
		zap.Bool("truncated", out.Truncated),
		zap.Int("iterations", out.Iterations),
		zap.Duration("duration", out.Duration),
	)
	return out, nil
}

func (s *Service) promptTools() []prompt.Tool {
	specs := s.registry.Specs()
	out := make([]prompt.Tool, len(specs))
	for i, spec := range specs {
		out[i] = prompt.Tool{Name: string(spec.Name), Description: spec.Description}
	}
	return out
}

// ParseTickers splits a comma separated list, upper-casing symbols and
// dropping empties and duplicates. Whitespace inside an entry is kept so a
// malformed symbol fails validation instead of becoming two tickers.
func ParseTickers(input string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(input, ",") {
		t := strings.ToUpper(strings.TrimSpace(part))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
