// Package service wires the consolidation and reconciliation stages together
// with logging, metrics and per-run correlation ids.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/consolidate"
	"github.com/okian/consolidator/internal/domain/labels"
	"github.com/okian/consolidator/internal/domain/reconcile"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/pkg/logger"
	"github.com/okian/consolidator/pkg/metrics"
)

const modelOutcomeConsolidated = "consolidated"

type runIDKey struct{}

// Report is the outcome of one Build call.
type Report struct {
	RunID string

	Combined *table.Table
	// Wide has the baseline row already filled.
	Wide     *table.Table
	Baseline *table.Table

	Consolidation  consolidate.Report
	Reconciliation reconcile.Report
}

// Service runs the pipeline. It holds only immutable state after New and is
// safe for concurrent use.
type Service struct {
	cfg     *config.Config
	logger  logger.Logger
	metrics *metrics.Manager

	registry     *labels.Registry
	matcher      *labels.Matcher
	consolidator *consolidate.Consolidator
	reconciler   *reconcile.Reconciler
}

// New constructs a Service. Without options it logs nowhere, records on the
// global metrics manager and uses the built-in labels and aliases.
func New(opts ...Option) *Service {
	s := &Service{
		logger:  logger.Nop(),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(context.Background())
	}

	s.logger = s.logger.Named("consolidator")
	s.registry = labels.NewRegistry(s.cfg.DisplayNames)
	s.matcher = labels.NewBaselineMatcher(s.cfg.BaselinePrefixes...)
	s.consolidator = consolidate.New(
		consolidate.WithRegistry(s.registry),
		consolidate.WithForecastAliases(consolidate.ForecastAliases().
			With(consolidate.ColMonth, s.cfg.TimeAliases...).
			With(consolidate.ColForecast, s.cfg.ValueAliases...)),
	)
	s.reconciler = reconcile.New(reconcile.WithPrefixes(s.cfg.BaselinePrefixes...))
	return s
}

// WithRunID returns a context carrying id. Process and Fill reuse it instead
// of generating their own.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id carried by ctx, if any.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok && id != ""
}

func (s *Service) ensureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRunID(ctx, id), id
}

// Process consolidates the raw per-model tables.
func (s *Service) Process(ctx context.Context, raw map[string]*table.Table) consolidate.Result {
	ctx, runID := s.ensureRunID(ctx)
	log := s.logger.With(logger.String("run_id", runID))
	start := time.Now()

	log.Debug(ctx, "consolidating forecasts", logger.Int("tables", len(raw)))
	res := s.consolidator.Process(raw)

	s.metrics.RecordRun(metrics.StageConsolidate)
	for range res.Report.Models {
		s.metrics.RecordModel(modelOutcomeConsolidated)
	}
	for _, sk := range res.Report.Skipped {
		s.metrics.RecordModel(string(sk.Reason))
		log.Debug(ctx, "model skipped",
			logger.String("model", sk.Key),
			logger.String("reason", string(sk.Reason)),
		)
	}
	s.metrics.RecordRowsDropped(metrics.StageConsolidate, res.Report.ForecastRowsDropped)
	s.metrics.RecordRowsDropped(metrics.StageBaseline, res.Report.BaselineRowsDropped)
	s.metrics.RecordDuplicatesMerged(res.Report.DuplicatesMerged)
	elapsed := time.Since(start)
	s.metrics.ObserveStageDuration(metrics.StageConsolidate, elapsed.Seconds())

	if res.Report.ForecastRowsDropped > 0 || res.Report.BaselineRowsDropped > 0 {
		log.Warn(ctx, "rows dropped during coercion",
			logger.Int("forecast_rows", res.Report.ForecastRowsDropped),
			logger.Int("baseline_rows", res.Report.BaselineRowsDropped),
		)
	}
	log.Info(ctx, "forecasts consolidated",
		logger.Strings("models", res.Report.Models),
		logger.Int("skipped", len(res.Report.Skipped)),
		logger.Int("combined_rows", res.Combined.Len()),
		logger.Int("baseline_years", res.Baseline.Len()),
		logger.Int("duplicates_merged", res.Report.DuplicatesMerged),
		logger.Duration("elapsed", elapsed),
	)
	return res
}

// Fill writes the baseline series into the baseline row of wide and returns
// the result. wide is not modified.
func (s *Service) Fill(ctx context.Context, wide, baseline *table.Table) *table.Table {
	out, _ := s.fill(ctx, wide, baseline)
	return out
}

func (s *Service) fill(ctx context.Context, wide, baseline *table.Table) (*table.Table, reconcile.Report) {
	ctx, runID := s.ensureRunID(ctx)
	log := s.logger.With(logger.String("run_id", runID))
	start := time.Now()

	out, rep := s.reconciler.Fill(wide, baseline)

	s.metrics.RecordRun(metrics.StageReconcile)
	s.metrics.RecordFill(string(rep.Outcome))
	s.metrics.RecordCellsFilled(rep.CellsFilled)
	s.metrics.RecordRowsDropped(metrics.StageReconcile, rep.CellsDropped)
	elapsed := time.Since(start)
	s.metrics.ObserveStageDuration(metrics.StageReconcile, elapsed.Seconds())

	fields := []logger.Field{
		logger.String("outcome", string(rep.Outcome)),
		logger.Int("rows_matched", rep.RowsMatched),
		logger.Int("cells_filled", rep.CellsFilled),
		logger.Int("cells_dropped", rep.CellsDropped),
		logger.Duration("elapsed", elapsed),
	}
	if rep.Outcome == reconcile.OutcomeFilled {
		log.Info(ctx, "baseline reconciled", fields...)
	} else {
		log.Debug(ctx, "baseline reconciliation skipped", fields...)
	}
	return out, rep
}

// Build runs Process and then Fill with the resulting wide and baseline
// tables. The baseline key never reaches the wide table as a forecast, so when
// a baseline pivot exists and wide has no baseline row one is appended first.
func (s *Service) Build(ctx context.Context, raw map[string]*table.Table) Report {
	ctx, runID := s.ensureRunID(ctx)

	res := s.Process(ctx, raw)
	withRow, appended := s.withBaselineRow(res.Wide, res.Baseline)
	wide, rep := s.fill(ctx, withRow, res.Baseline)
	// An appended row that received no value would only be an empty placeholder.
	if appended && (rep.Outcome != reconcile.OutcomeFilled || rep.CellsFilled == 0) {
		wide = res.Wide
	}

	return Report{
		RunID:          runID,
		Combined:       res.Combined,
		Wide:           wide,
		Baseline:       res.Baseline,
		Consolidation:  res.Report,
		Reconciliation: rep,
	}
}

// withBaselineRow returns wide itself, or a copy with an empty baseline row
// appended when the baseline pivot has data and no row matches yet. The bool
// reports whether a row was appended.
func (s *Service) withBaselineRow(wide, baseline *table.Table) (*table.Table, bool) {
	if wide.Empty() || baseline.Empty() || !wide.Has(consolidate.ColModel) {
		return wide, false
	}
	for i := 0; i < wide.Len(); i++ {
		v, _ := wide.Value(i, consolidate.ColModel)
		if s.matcher.MatchCell(v) != labels.MatchNone {
			return wide, false
		}
	}
	out := wide.Clone()
	if err := out.AppendRecord(map[string]any{
		consolidate.ColModel: s.registry.DisplayName(labels.BaselineKey),
	}); err != nil {
		return wide, false
	}
	return out, true
}
