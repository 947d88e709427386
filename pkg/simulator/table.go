package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Row is one observation: the estimate for the first NumSets sketches of a
// trial, against the exact union size. RunIndex and RelativeError are filled
// in by the driver.
type Row struct {
	NumSets              int     `json:"num_sets"`
	EstimatedCardinality float64 `json:"estimated_cardinality"`
	TrueCardinality      int64   `json:"true_cardinality"`
	RunIndex             int     `json:"run_index"`
	RelativeError        float64 `json:"relative_error"`
}

// RawTable is the concatenation of all trial rows, in run order.
type RawTable []Row

// AggregateRow holds sample mean and standard deviation per metric for one
// num_sets value.
type AggregateRow struct {
	NumSets                  int     `json:"num_sets"`
	EstimatedCardinalityMean float64 `json:"estimated_cardinality_mean"`
	EstimatedCardinalityStd  float64 `json:"estimated_cardinality_std"`
	TrueCardinalityMean      float64 `json:"true_cardinality_mean"`
	TrueCardinalityStd       float64 `json:"true_cardinality_std"`
	RelativeErrorMean        float64 `json:"relative_error_mean"`
	RelativeErrorStd         float64 `json:"relative_error_std"`
}

// AggregateTable has one row per distinct num_sets value, ascending.
type AggregateTable []AggregateRow

// RelativeError computes (estimated - truth) / truth. A zero truth yields
// NaN so that degenerate trials poison their aggregates instead of hiding
// behind an infinity or a crash.
func RelativeError(estimated float64, truth int64) float64 {
	if truth == 0 {
		return math.NaN()
	}
	return (estimated - float64(truth)) / float64(truth)
}

// Aggregate groups raw rows by num_sets and reduces each metric to its
// sample mean and standard deviation (N-1 denominator). Groups with a single
// observation get a NaN deviation; NaN observations make their group's
// statistics NaN.
func Aggregate(raw RawTable) AggregateTable {
	groups := make(map[int][]Row)
	for _, row := range raw {
		groups[row.NumSets] = append(groups[row.NumSets], row)
	}

	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	agg := make(AggregateTable, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		estimated := make([]float64, len(rows))
		truth := make([]float64, len(rows))
		relative := make([]float64, len(rows))
		for i, row := range rows {
			estimated[i] = row.EstimatedCardinality
			truth[i] = float64(row.TrueCardinality)
			relative[i] = row.RelativeError
		}
		out := AggregateRow{NumSets: k}
		out.EstimatedCardinalityMean, out.EstimatedCardinalityStd = stat.MeanStdDev(estimated, nil)
		out.TrueCardinalityMean, out.TrueCardinalityStd = stat.MeanStdDev(truth, nil)
		out.RelativeErrorMean, out.RelativeErrorStd = stat.MeanStdDev(relative, nil)
		agg = append(agg, out)
	}
	return agg
}

// WriteCSV serializes the raw table as header plus one line per row.
func (t RawTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"num_sets", "estimated_cardinality", "true_cardinality", "run_index", "relative_error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing raw header: %w", err)
	}
	for _, row := range t {
		record := []string{
			strconv.Itoa(row.NumSets),
			formatFloat(row.EstimatedCardinality),
			strconv.FormatInt(row.TrueCardinality, 10),
			strconv.Itoa(row.RunIndex),
			formatFloat(row.RelativeError),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing raw row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV serializes the aggregate table as header plus one line per
// num_sets value.
func (t AggregateTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"num_sets",
		"estimated_cardinality_mean", "estimated_cardinality_std",
		"true_cardinality_mean", "true_cardinality_std",
		"relative_error_mean", "relative_error_std",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing aggregate header: %w", err)
	}
	for _, row := range t {
		record := []string{
			strconv.Itoa(row.NumSets),
			formatFloat(row.EstimatedCardinalityMean),
			formatFloat(row.EstimatedCardinalityStd),
			formatFloat(row.TrueCardinalityMean),
			formatFloat(row.TrueCardinalityStd),
			formatFloat(row.RelativeErrorMean),
			formatFloat(row.RelativeErrorStd),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing aggregate row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
