package labels_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/consolidator/internal/domain/labels"
)

func TestMonthLabels(t *testing.T) {
	Convey("Given dates", t, func() {
		d := time.Date(2024, time.January, 15, 13, 30, 0, 0, time.UTC)

		Convey("Then MonthStart truncates to the first of the month", func() {
			So(labels.MonthStart(d), ShouldEqual, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
		})

		Convey("Then MonthLabel renders Mon-YY", func() {
			So(labels.MonthLabel(d), ShouldEqual, "Jan-24")
			So(labels.MonthLabel(time.Date(2009, time.December, 1, 0, 0, 0, 0, time.UTC)), ShouldEqual, "Dec-09")
		})
	})

	Convey("Given a year and a month name", t, func() {
		Convey("Then LabelFor agrees with MonthLabel", func() {
			So(labels.LabelFor(2024, "Jan"), ShouldEqual, "Jan-24")
			So(labels.LabelFor(2024, "JAN"), ShouldEqual, "Jan-24")
			So(labels.LabelFor(2031, "september"), ShouldEqual, "Sep-31")
			So(labels.LabelFor(2005, "mar"), ShouldEqual, "Mar-05")
		})
	})

	Convey("Given the abbreviation table", t, func() {
		abbrevs := labels.Abbreviations()

		Convey("Then it is in calendar order and round-trips", func() {
			So(len(abbrevs), ShouldEqual, 12)
			So(abbrevs[0], ShouldEqual, "Jan")
			So(abbrevs[11], ShouldEqual, "Dec")
			for i, a := range abbrevs {
				m, ok := labels.MonthOf(a)
				So(ok, ShouldBeTrue)
				So(m, ShouldEqual, time.Month(i+1))
				So(labels.Abbrev(m), ShouldEqual, a)
			}
			_, ok := labels.MonthOf("jan")
			So(ok, ShouldBeFalse)
		})

		Convey("Then the returned slice is a copy", func() {
			abbrevs[0] = "xxx"
			So(labels.Abbreviations()[0], ShouldEqual, "Jan")
		})
	})
}

func TestMonthColumn(t *testing.T) {
	Convey("Given baseline column names", t, func() {
		Convey("Then abbreviations and full names normalise to the abbreviation", func() {
			for in, want := range map[string]string{
				"Jan":       "Jan",
				"jan":       "Jan",
				"January":   "Jan",
				" JANUARY ": "Jan",
				"September": "Sep",
				"sep":       "Sep",
				"may":       "May",
			} {
				got, ok := labels.MonthColumn(in)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
			}
		})

		Convey("Then other columns are not months", func() {
			for _, in := range []string{"Year", "Model", "Avg", "Average", "Total", "Janu", "Sept", "Jan-24", ""} {
				_, ok := labels.MonthColumn(in)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given the default registry", t, func() {
		r := labels.DefaultRegistry()

		Convey("Then known keys map to their display names", func() {
			So(r.DisplayName("rf"), ShouldEqual, "Rf")
			So(r.DisplayName(" Random_Forest "), ShouldEqual, "Rf")
			So(r.DisplayName("XGB"), ShouldEqual, "Xgb")
			So(r.DisplayName("xgboost"), ShouldEqual, "Xgb")
			So(r.DisplayName("prophet"), ShouldEqual, "Prophet")
			So(r.DisplayName("sarimax"), ShouldEqual, "Sarimax")
			So(r.DisplayName("var"), ShouldEqual, "Var")
			So(r.DisplayName(labels.BaselineKey), ShouldEqual, "Final_smoothed_values")
		})

		Convey("Then unknown keys are title-cased", func() {
			So(r.DisplayName("lstm"), ShouldEqual, "Lstm")
			So(r.DisplayName("holt winters"), ShouldEqual, "Holt Winters")
			So(r.DisplayName("holt_winters"), ShouldEqual, "Holt_Winters")
			So(r.DisplayName("arima2x"), ShouldEqual, "Arima2X")
			So(r.DisplayName("NEURAL_prophet"), ShouldEqual, "Neural_Prophet")
		})

		Convey("Then reserved keys are recognised regardless of case and space", func() {
			for _, k := range []string{"train", " TEST", "Debug ", "final_smoothed_values", "FINAL_SMOOTHED_VALUES"} {
				So(r.Reserved(k), ShouldBeTrue)
			}
			So(r.Reserved("rf"), ShouldBeFalse)
			So(labels.IsBaseline(" Final_Smoothed_Values "), ShouldBeTrue)
			So(labels.IsBaseline("final_smoot"), ShouldBeFalse)
		})
	})

	Convey("Given a registry with extra names", t, func() {
		r := labels.NewRegistry(map[string]string{" LSTM ": "LSTM", "rf": "RandomForest", "blank": " "})

		Convey("Then extras are added and override built-ins", func() {
			So(r.DisplayName("lstm"), ShouldEqual, "LSTM")
			So(r.DisplayName("rf"), ShouldEqual, "RandomForest")
			So(r.DisplayName("blank"), ShouldEqual, "Blank")
		})

		Convey("Then the default registry is unaffected", func() {
			So(labels.DefaultRegistry().DisplayName("rf"), ShouldEqual, "Rf")
		})
	})
}

func TestBaselineMatcher(t *testing.T) {
	Convey("Given the baseline matcher", t, func() {
		m := labels.NewBaselineMatcher()

		Convey("Then rules are exact first, then the truncated prefix", func() {
			rules := m.Rules()
			So(len(rules), ShouldEqual, 2)
			So(rules[0].Kind, ShouldEqual, labels.MatchExact)
			So(rules[1].Kind, ShouldEqual, labels.MatchPrefix)
			So(rules[1].Pattern, ShouldEqual, labels.TruncatedBaselinePrefix)
		})

		Convey("Then the canonical label matches exactly", func() {
			So(m.Match("final_smoothed_values"), ShouldEqual, labels.MatchExact)
			So(m.Match(" Final_smoothed_values "), ShouldEqual, labels.MatchExact)
		})

		Convey("Then truncations match by prefix", func() {
			So(m.Match("Final_smoot"), ShouldEqual, labels.MatchPrefix)
			So(m.Match("final_smoothed"), ShouldEqual, labels.MatchPrefix)
		})

		Convey("Then other labels and cells do not match", func() {
			So(m.Match("Rf"), ShouldEqual, labels.MatchNone)
			So(m.Match("final_smo"), ShouldEqual, labels.MatchNone)
			So(m.Match(""), ShouldEqual, labels.MatchNone)
			So(m.MatchCell(nil), ShouldEqual, labels.MatchNone)
			So(m.MatchCell(42), ShouldEqual, labels.MatchNone)
			So(m.MatchCell("FINAL_SMOOT"), ShouldEqual, labels.MatchPrefix)
		})

		Convey("Then match kinds have names", func() {
			So(labels.MatchExact.String(), ShouldNotBeEmpty)
			So(labels.MatchNone.String(), ShouldNotEqual, labels.MatchPrefix.String())
		})
	})

	Convey("Given a matcher with extra prefixes", t, func() {
		m := labels.NewBaselineMatcher(" Baseline_", "")

		Convey("Then the extras are appended after the built-in rules", func() {
			So(len(m.Rules()), ShouldEqual, 3)
			So(m.Match("baseline_smoothed"), ShouldEqual, labels.MatchPrefix)
		})
	})
}
