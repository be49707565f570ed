package risk

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/celrisk/internal/domain"
	"github.com/aristath/celrisk/internal/events"
	"github.com/aristath/celrisk/internal/modules/simulation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ErrNoRunStore is returned by operations that need persistence when the
// service was built without a store.
var ErrNoRunStore = errors.New("run store not configured")

// NPVSampler draws an NPV sample for a parameter set.
type NPVSampler interface {
	Sample(ctx context.Context, params domain.SimulationParameters, opts simulation.Options) ([]float64, error)
}

// RunStore persists runs and their samples.
type RunStore interface {
	Create(run *domain.Run, samples []float64) error
	Get(id string) (*domain.Run, error)
	List(limit int) ([]domain.Run, error)
	Samples(id string) ([]float64, error)
}

// EventPublisher receives run lifecycle events.
type EventPublisher interface {
	Publish(data events.EventData)
}

// Analyzer derives tail-risk metrics from a summary.
type Analyzer interface {
	Analyze(summary domain.DistributionSummary) (*domain.RiskMetrics, error)
}

// Defaults fill in options a run leaves unset.
type Defaults struct {
	Partitions int
	Workers    int
}

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	Seed    uint64
	Workers int
	// Partitions overrides params.Partitions when positive.
	Partitions int
}

// Service runs the sample → summarize → guard → integrate pipeline.
type Service struct {
	sampler     NPVSampler
	store       RunStore
	publisher   EventPublisher
	defaults    Defaults
	newAnalyzer func(partitions int) (Analyzer, error)
	log         zerolog.Logger
}

// NewService creates the risk pipeline service. store and publisher may be nil
// for one-shot evaluations that are neither persisted nor broadcast.
func NewService(sampler NPVSampler, store RunStore, publisher EventPublisher, defaults Defaults, log zerolog.Logger) *Service {
	if defaults.Partitions <= 0 {
		defaults.Partitions = DefaultPartitions
	}
	if defaults.Workers <= 0 {
		defaults.Workers = runtime.NumCPU()
	}
	return &Service{
		sampler:   sampler,
		store:     store,
		publisher: publisher,
		defaults:  defaults,
		newAnalyzer: func(k int) (Analyzer, error) {
			return NewIntegrator(k)
		},
		log: log.With().Str("service", "npv_risk").Logger(),
	}
}

// Run samples params, evaluates the sample and stores the result.
func (s *Service) Run(ctx context.Context, params domain.SimulationParameters, opts RunOptions) (*domain.Run, error) {
	if opts.Partitions > 0 {
		params.Partitions = opts.Partitions
	}
	if params.Partitions == 0 {
		params.Partitions = s.defaults.Partitions
	}

	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := opts.Workers
	if workers < 1 {
		workers = s.defaults.Workers
	}

	start := time.Now()

	samples, err := s.sampler.Sample(ctx, params, simulation.Options{Seed: seed, Workers: workers})
	if err != nil {
		return nil, s.fail("sampling", err)
	}

	evaluation, err := s.evaluate(samples, params.Partitions)
	if err != nil {
		return nil, s.fail("evaluation", err)
	}

	run := &domain.Run{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now(),
		Status:     evaluation.Status,
		Seed:       seed,
		Workers:    workers,
		Partitions: params.Partitions,
		Params:     params,
		Summary:    evaluation.Summary,
		Metrics:    evaluation.Metrics,
	}

	if s.store != nil {
		if err := s.store.Create(run, samples); err != nil {
			return nil, s.fail("persistence", err)
		}
	}

	elapsed := time.Since(start)
	logEvent := s.log.Info().
		Str("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("trials", len(samples)).
		Float64("mean", run.Summary.Mean).
		Float64("std_dev", run.Summary.StdDev).
		Dur("elapsed", elapsed)
	if run.Metrics != nil {
		logEvent = logEvent.Float64("deficit_probability", run.Metrics.DeficitProbability)
	}
	logEvent.Msg("NPV risk run completed")

	completed := &events.RunCompletedData{
		RunID:     run.ID,
		Status:    string(run.Status),
		Trials:    len(samples),
		Mean:      run.Summary.Mean,
		StdDev:    run.Summary.StdDev,
		ElapsedMs: elapsed.Milliseconds(),
	}
	if run.Metrics != nil {
		p := run.Metrics.DeficitProbability
		completed.DeficitProbability = &p
	}
	s.publish(completed)

	return run, nil
}

// Reintegrate re-evaluates a stored sample with a different partition count.
// The stored run is left unchanged.
func (s *Service) Reintegrate(ctx context.Context, id string, partitions int) (*domain.Evaluation, error) {
	if s.store == nil {
		return nil, ErrNoRunStore
	}
	if partitions <= 0 {
		return nil, fmt.Errorf("%w: partitions must be positive, got %d", domain.ErrInvalidParameters, partitions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := s.store.Samples(id)
	if err != nil {
		return nil, err
	}

	evaluation, err := s.evaluate(samples, partitions)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("run_id", id).
		Int("partitions", partitions).
		Msg("Run re-integrated")

	return &evaluation, nil
}

// Get returns a stored run.
func (s *Service) Get(id string) (*domain.Run, error) {
	if s.store == nil {
		return nil, ErrNoRunStore
	}
	return s.store.Get(id)
}

// List returns stored runs, newest first. limit is clamped to [1, 500],
// with non-positive values meaning 50.
func (s *Service) List(limit int) ([]domain.Run, error) {
	if s.store == nil {
		return nil, ErrNoRunStore
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.List(limit)
}

// evaluate summarizes samples and, unless the deficit risk is negligible,
// integrates the fitted density. The integrator is never built for a
// negligible outcome.
func (s *Service) evaluate(samples []float64, partitions int) (domain.Evaluation, error) {
	summary, err := Summarize(samples)
	if err != nil {
		return domain.Evaluation{}, err
	}

	if IsNegligible(summary) {
		return domain.Evaluation{Status: domain.OutcomeNegligibleRisk, Summary: summary}, nil
	}

	analyzer, err := s.newAnalyzer(partitions)
	if err != nil {
		return domain.Evaluation{}, err
	}
	metrics, err := analyzer.Analyze(summary)
	if err != nil {
		return domain.Evaluation{}, err
	}

	return domain.Evaluation{Status: domain.OutcomeComputed, Summary: summary, Metrics: metrics}, nil
}

func (s *Service) fail(stage string, err error) error {
	event := s.log.Error()
	if errors.Is(err, domain.ErrInvalidParameters) || errors.Is(err, context.Canceled) {
		event = s.log.Warn()
	}
	event.Err(err).Str("stage", stage).Msg("NPV risk run failed")

	s.publish(&events.RunFailedData{Stage: stage, Error: err.Error()})
	return err
}

func (s *Service) publish(data events.EventData) {
	if s.publisher != nil {
		s.publisher.Publish(data)
	}
}
