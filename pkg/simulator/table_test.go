package simulator

import (
	"bytes"
	"math"
	"testing"
)

func TestRelativeError(t *testing.T) {
	tests := []struct {
		name      string
		estimated float64
		truth     int64
		want      float64
	}{
		{"overestimate", 5, 4, 0.25},
		{"exact", 2, 2, 0},
		{"underestimate", 1, 2, -0.5},
		{"zero truth zero estimate", 0, 0, math.NaN()},
		{"zero truth nonzero estimate", 5, 0, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RelativeError(tt.estimated, tt.truth)
			if math.IsNaN(tt.want) {
				if !math.IsNaN(got) {
					t.Errorf("RelativeError(%v, %d) = %v, want NaN", tt.estimated, tt.truth, got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("RelativeError(%v, %d) = %v, want %v", tt.estimated, tt.truth, got, tt.want)
			}
		})
	}
}

func TestAggregateMeanAndStd(t *testing.T) {
	raw := RawTable{
		{NumSets: 2, EstimatedCardinality: 4, TrueCardinality: 4, RunIndex: 1, RelativeError: 0},
		{NumSets: 1, EstimatedCardinality: 1, TrueCardinality: 2, RunIndex: 0, RelativeError: -0.5},
		{NumSets: 1, EstimatedCardinality: 3, TrueCardinality: 2, RunIndex: 1, RelativeError: 0.5},
		{NumSets: 2, EstimatedCardinality: 6, TrueCardinality: 4, RunIndex: 0, RelativeError: 0.5},
	}

	agg := Aggregate(raw)
	if len(agg) != 2 {
		t.Fatalf("Expected 2 aggregate rows, got %d", len(agg))
	}

	// Rows sorted ascending by num_sets even though input was unordered.
	if agg[0].NumSets != 1 || agg[1].NumSets != 2 {
		t.Fatalf("Aggregate rows not sorted: %d, %d", agg[0].NumSets, agg[1].NumSets)
	}

	const tolerance = 1e-12
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"num_sets=1 estimated mean", agg[0].EstimatedCardinalityMean, 2},
		{"num_sets=1 estimated std", agg[0].EstimatedCardinalityStd, math.Sqrt(2)},
		{"num_sets=1 true mean", agg[0].TrueCardinalityMean, 2},
		{"num_sets=1 true std", agg[0].TrueCardinalityStd, 0},
		{"num_sets=1 relative error mean", agg[0].RelativeErrorMean, 0},
		{"num_sets=1 relative error std", agg[0].RelativeErrorStd, math.Sqrt(0.5)},
		{"num_sets=2 estimated mean", agg[1].EstimatedCardinalityMean, 5},
		{"num_sets=2 estimated std", agg[1].EstimatedCardinalityStd, math.Sqrt(2)},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > tolerance {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestAggregateSingleSampleStdIsNaN(t *testing.T) {
	raw := RawTable{
		{NumSets: 1, EstimatedCardinality: 2, TrueCardinality: 2, RelativeError: 0},
	}
	agg := Aggregate(raw)
	if len(agg) != 1 {
		t.Fatalf("Expected 1 aggregate row, got %d", len(agg))
	}
	if !math.IsNaN(agg[0].EstimatedCardinalityStd) {
		t.Errorf("Single-sample estimated std: got %v, want NaN", agg[0].EstimatedCardinalityStd)
	}
	if agg[0].EstimatedCardinalityMean != 2 {
		t.Errorf("Single-sample estimated mean: got %v, want 2", agg[0].EstimatedCardinalityMean)
	}
}

func TestAggregateNaNPoisonsGroup(t *testing.T) {
	raw := RawTable{
		{NumSets: 1, EstimatedCardinality: 1, TrueCardinality: 0, RelativeError: math.NaN()},
		{NumSets: 1, EstimatedCardinality: 1, TrueCardinality: 1, RelativeError: 0},
	}
	agg := Aggregate(raw)
	if !math.IsNaN(agg[0].RelativeErrorMean) {
		t.Errorf("Relative error mean with a NaN member: got %v, want NaN", agg[0].RelativeErrorMean)
	}
	if !math.IsNaN(agg[0].RelativeErrorStd) {
		t.Errorf("Relative error std with a NaN member: got %v, want NaN", agg[0].RelativeErrorStd)
	}
	if agg[0].EstimatedCardinalityMean != 1 {
		t.Errorf("Estimated mean unaffected by relative-error NaN: got %v, want 1", agg[0].EstimatedCardinalityMean)
	}
}

func TestAggregateEmptyTable(t *testing.T) {
	if agg := Aggregate(nil); len(agg) != 0 {
		t.Errorf("Aggregate(nil): expected empty table, got %d rows", len(agg))
	}
}

func TestRawTableWriteCSV(t *testing.T) {
	raw := RawTable{
		{NumSets: 1, EstimatedCardinality: 2, TrueCardinality: 2, RunIndex: 0, RelativeError: 0},
		{NumSets: 2, EstimatedCardinality: 2.5, TrueCardinality: 3, RunIndex: 0, RelativeError: RelativeError(2.5, 3)},
		{NumSets: 1, EstimatedCardinality: 1, TrueCardinality: 0, RunIndex: 1, RelativeError: math.NaN()},
	}

	var buf bytes.Buffer
	if err := raw.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	want := "num_sets,estimated_cardinality,true_cardinality,run_index,relative_error\n" +
		"1,2,2,0,0\n" +
		"2,2.5,3,0,-0.16666666666666666\n" +
		"1,1,0,1,NaN\n"
	if buf.String() != want {
		t.Errorf("Raw CSV mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestAggregateTableWriteCSV(t *testing.T) {
	agg := AggregateTable{
		{
			NumSets:                  1,
			EstimatedCardinalityMean: 2,
			EstimatedCardinalityStd:  math.NaN(),
			TrueCardinalityMean:      2,
			TrueCardinalityStd:       math.NaN(),
			RelativeErrorMean:        0,
			RelativeErrorStd:         math.NaN(),
		},
	}

	var buf bytes.Buffer
	if err := agg.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() failed: %v", err)
	}

	want := "num_sets,estimated_cardinality_mean,estimated_cardinality_std," +
		"true_cardinality_mean,true_cardinality_std,relative_error_mean,relative_error_std\n" +
		"1,2,NaN,2,NaN,0,NaN\n"
	if buf.String() != want {
		t.Errorf("Aggregate CSV mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}
