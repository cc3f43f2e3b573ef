package service_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/consolidator/internal/app"
	"github.com/okian/consolidator/internal/config"
	"github.com/okian/consolidator/internal/domain/reconcile"
	"github.com/okian/consolidator/internal/domain/table"
	"github.com/okian/consolidator/pkg/logger"
	"github.com/okian/consolidator/pkg/metrics"
)

func newManager() (*metrics.Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.NewManager(metrics.WithPrometheusRegistry(reg)), reg
}

// metricValue sums the samples of name whose labels include every pair in want.
func metricValue(reg *prometheus.Registry, name string, want map[string]string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range f.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metricLoop
				}
			}
			switch {
			case m.GetCounter() != nil:
				total += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				total += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return total
}

func scenario() map[string]*table.Table {
	return map[string]*table.Table{
		"rf": table.FromRecords([]map[string]any{
			{"Month": "2024-01-01", "Forecast": 0.05},
		}),
		"final_smoothed_values": table.FromRecords([]map[string]any{
			{"Date": "2024-01-15", "Final_Smoothed_Value": 4.0},
		}),
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should be usable without any setup", func() {
			So(svc, ShouldNotBeNil)
			res := svc.Process(context.Background(), nil)
			So(res.Combined.Len(), ShouldEqual, 0)
			So(res.Wide.Columns(), ShouldResemble, []string{"Model", "Avg"})
			So(res.Baseline.Columns(), ShouldResemble, []string{"Year"})
		})
	})
}

func TestService_Process(t *testing.T) {
	Convey("Given a service with a private metrics registry", t, func() {
		manager, reg := newManager()
		var buf bytes.Buffer
		svc := service.New(
			service.WithMetrics(manager),
			service.WithLogger(logger.New(&buf, slog.LevelDebug)),
		)
		ctx := service.WithRunID(context.Background(), "run-1")

		Convey("When processing models with skips and dropped rows", func() {
			raw := scenario()
			raw["train"] = table.FromRecords([]map[string]any{{"Month": "2024-01-01", "Forecast": 1.0}})
			raw["prophet"] = table.FromRecords([]map[string]any{
				{"Month": "2024-02-01", "Forecast": 0.1},
				{"Month": "not a date", "Forecast": 0.2},
			})
			raw["broken"] = table.FromRecords([]map[string]any{{"When": "2024-01-01", "Value": 1.0}})

			res := svc.Process(ctx, raw)

			Convey("Then the result should be consolidated", func() {
				So(res.Report.Models, ShouldResemble, []string{"Prophet", "Rf"})
				So(res.Report.ForecastRowsDropped, ShouldEqual, 1)
				So(res.Combined.Len(), ShouldEqual, 2)
			})

			Convey("Then metrics should be recorded per outcome", func() {
				So(metricValue(reg, "consolidator_pipeline_runs_total", map[string]string{"stage": "consolidate"}), ShouldEqual, 1.0)
				So(metricValue(reg, "consolidator_pipeline_models_total", map[string]string{"outcome": "consolidated"}), ShouldEqual, 2.0)
				So(metricValue(reg, "consolidator_pipeline_models_total", map[string]string{"outcome": "reserved"}), ShouldEqual, 1.0)
				So(metricValue(reg, "consolidator_pipeline_models_total", map[string]string{"outcome": "schema"}), ShouldEqual, 1.0)
				So(metricValue(reg, "consolidator_pipeline_rows_dropped_total", map[string]string{"stage": "consolidate"}), ShouldEqual, 1.0)
				So(metricValue(reg, "consolidator_pipeline_stage_duration_seconds", map[string]string{"stage": "consolidate"}), ShouldEqual, 1.0)
			})

			Convey("Then the log should carry the run id and skip reasons", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "run_id=run-1")
				So(out, ShouldContainSubstring, "model skipped")
				So(out, ShouldContainSubstring, "reason=schema")
				So(out, ShouldContainSubstring, "forecasts consolidated")
			})
		})
	})
}

func TestService_Fill(t *testing.T) {
	Convey("Given a service and a wide table with a truncated baseline label", t, func() {
		manager, reg := newManager()
		svc := service.New(service.WithMetrics(manager))

		wide := table.MustNew("Model", "Avg", "Jan-24", "Feb-24")
		So(wide.Append("Rf", 0.2, 0.1, 0.3), ShouldBeNil)
		So(wide.Append("Final_smoot", 9.0, 9.0, nil), ShouldBeNil)

		baseline := table.MustNew("Year", "Jan", "Feb")
		So(baseline.Append(2024, 3.10, 5.0), ShouldBeNil)

		Convey("When filling", func() {
			out := svc.Fill(context.Background(), wide, baseline)

			Convey("Then the baseline row should hold fractions", func() {
				jan, _ := out.Value(1, "Jan-24")
				feb, _ := out.Value(1, "Feb-24")
				avg, _ := out.Value(1, "Avg")
				So(jan, ShouldAlmostEqual, 0.031, 1e-12)
				So(feb, ShouldAlmostEqual, 0.05, 1e-12)
				So(avg, ShouldAlmostEqual, 0.0405, 1e-12)
			})

			Convey("Then the input should be untouched", func() {
				jan, _ := wide.Value(1, "Jan-24")
				So(jan, ShouldEqual, 9.0)
			})

			Convey("Then fill metrics should be recorded", func() {
				So(metricValue(reg, "consolidator_pipeline_fill_total", map[string]string{"outcome": "filled"}), ShouldEqual, 1.0)
				So(metricValue(reg, "consolidator_pipeline_cells_filled_total", nil), ShouldEqual, 2.0)
			})
		})

		Convey("When the baseline is empty", func() {
			out := svc.Fill(context.Background(), wide, table.MustNew("Year"))

			Convey("Then the wide table should come back unchanged", func() {
				So(out.Records(), ShouldResemble, wide.Records())
				So(metricValue(reg, "consolidator_pipeline_fill_total", map[string]string{"outcome": "empty_input"}), ShouldEqual, 1.0)
			})
		})
	})
}

func TestService_Build(t *testing.T) {
	Convey("Given a service", t, func() {
		manager, _ := newManager()
		svc := service.New(service.WithMetrics(manager))

		Convey("When building reports for a model and a baseline", func() {
			rep := svc.Build(context.Background(), scenario())

			Convey("Then every view should be populated", func() {
				So(rep.RunID, ShouldNotBeEmpty)
				So(rep.Combined.Len(), ShouldEqual, 1)
				So(rep.Baseline.Columns(), ShouldResemble, []string{"Year", "Jan"})
				So(rep.Consolidation.Models, ShouldResemble, []string{"Rf"})
				So(rep.Reconciliation.Outcome, ShouldEqual, reconcile.OutcomeFilled)
			})

			Convey("Then the wide table should gain a filled baseline row", func() {
				So(rep.Wide.Len(), ShouldEqual, 2)
				model, _ := rep.Wide.Value(1, "Model")
				jan, _ := rep.Wide.Value(1, "Jan-24")
				avg, _ := rep.Wide.Value(1, "Avg")
				So(model, ShouldEqual, "Final_smoothed_values")
				So(jan, ShouldAlmostEqual, 0.04, 1e-12)
				So(avg, ShouldAlmostEqual, 0.04, 1e-12)

				rf, _ := rep.Wide.Value(0, "Jan-24")
				So(rf, ShouldEqual, 0.05)
			})
		})

		Convey("When there is no baseline", func() {
			raw := scenario()
			delete(raw, "final_smoothed_values")
			rep := svc.Build(context.Background(), raw)

			Convey("Then the wide table should not gain a row", func() {
				So(rep.Wide.Len(), ShouldEqual, 1)
				So(rep.Reconciliation.Outcome, ShouldEqual, reconcile.OutcomeEmptyInput)
			})
		})

		Convey("When the baseline shares no month with the forecasts", func() {
			raw := scenario()
			raw["final_smoothed_values"] = table.FromRecords([]map[string]any{
				{"Date": "2023-06-15", "Final_Smoothed_Value": 4.0},
			})
			rep := svc.Build(context.Background(), raw)

			Convey("Then no empty baseline row is left in the wide table", func() {
				So(rep.Reconciliation.CellsFilled, ShouldEqual, 0)
				So(rep.Wide.Len(), ShouldEqual, 1)
				model, _ := rep.Wide.Value(0, "Model")
				So(model, ShouldEqual, "Rf")
			})
		})

		Convey("When two builds run", func() {
			a := svc.Build(context.Background(), scenario())
			b := svc.Build(context.Background(), scenario())

			Convey("Then their run ids should differ", func() {
				So(a.RunID, ShouldNotEqual, b.RunID)
			})
		})
	})
}

func TestService_WithConfig(t *testing.T) {
	Convey("Given a config with display names and aliases", t, func() {
		cfg := config.New(context.Background())
		cfg.DisplayNames = map[string]string{"lstm": "LSTM"}
		cfg.TimeAliases = []string{"period"}
		cfg.ValueAliases = []string{"prediction"}
		cfg.BaselinePrefixes = []string{"baseline_"}

		manager, _ := newManager()
		svc := service.New(service.WithConfig(cfg), service.WithMetrics(manager))

		Convey("When processing a model using the extra aliases", func() {
			raw := map[string]*table.Table{
				"lstm": table.FromRecords([]map[string]any{{"period": "2024-03-01", "prediction": 0.2}}),
			}
			res := svc.Process(context.Background(), raw)

			Convey("Then the configured display name and aliases should apply", func() {
				So(res.Report.Models, ShouldResemble, []string{"LSTM"})
				v, _ := res.Wide.Value(0, "Mar-24")
				So(v, ShouldEqual, 0.2)
			})
		})

		Convey("When filling a row labelled with a configured prefix", func() {
			wide := table.MustNew("Model", "Avg", "Mar-24")
			So(wide.Append("Baseline_v2", nil, nil), ShouldBeNil)
			baseline := table.MustNew("Year", "Mar")
			So(baseline.Append(2024, 2.0), ShouldBeNil)

			out := svc.Fill(context.Background(), wide, baseline)

			Convey("Then the row should be filled", func() {
				v, _ := out.Value(0, "Mar-24")
				So(v, ShouldAlmostEqual, 0.02, 1e-12)
			})
		})
	})
}
