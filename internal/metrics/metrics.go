// Package metrics aggregates cleaned article records per publication.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"github.com/matsen/pubgraph/internal/article"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

// diagnosticRows is how many leading records an AggregationError shows.
const diagnosticRows = 5

// PublicationMetrics summarizes one publication's articles.
// Every float is rounded to 2 decimals.
type PublicationMetrics struct {
	Publication     string  `json:"publication"`
	ClapsMean       float64 `json:"claps_mean"`
	ClapsSum        float64 `json:"claps_sum"`
	ClapsCount      int     `json:"claps_count"`
	ResponsesMean   float64 `json:"responses_mean"`
	ResponsesSum    float64 `json:"responses_sum"`
	ReadingTimeMean float64 `json:"reading_time_mean"`
}

// AggregationError reports records that cannot be aggregated.
// Diagnostics holds the dataset schema and its first rows.
type AggregationError struct {
	Dataset     string
	Err         error
	Diagnostics string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("calculating publication metrics for %s: %v", e.Dataset, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// Calculate groups records by publication and returns one PublicationMetrics
// per distinct publication, sorted by publication.
func Calculate(ds *article.Dataset) ([]PublicationMetrics, error) {
	type columns struct {
		claps, responses, readingTime []float64
	}

	groups := make(map[string]*columns)
	for i, r := range ds.Records {
		if err := validate(r); err != nil {
			return nil, &AggregationError{
				Dataset:     ds.Name,
				Err:         errors.Wrapf(err, "record %d", i),
				Diagnostics: ds.Describe(diagnosticRows),
			}
		}

		g, ok := groups[r.Publication]
		if !ok {
			g = &columns{}
			groups[r.Publication] = g
		}
		g.claps = append(g.claps, r.Claps)
		g.responses = append(g.responses, r.Responses)
		g.readingTime = append(g.readingTime, r.ReadingTime)
	}

	out := make([]PublicationMetrics, 0, len(groups))
	for pub, g := range groups {
		out = append(out, PublicationMetrics{
			Publication:     pub,
			ClapsMean:       Round2(stat.Mean(g.claps, nil)),
			ClapsSum:        Round2(floats.Sum(g.claps)),
			ClapsCount:      len(g.claps),
			ResponsesMean:   Round2(stat.Mean(g.responses, nil)),
			ResponsesSum:    Round2(floats.Sum(g.responses)),
			ReadingTimeMean: Round2(stat.Mean(g.readingTime, nil)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Publication < out[j].Publication
	})

	return out, nil
}

// validate rejects records whose values would yield non-finite statistics.
func validate(r article.Record) error {
	if r.Publication == "" {
		return errors.New("empty publication")
	}
	values := []struct {
		name string
		v    float64
	}{
		{article.ColClaps, r.Claps},
		{article.ColResponses, r.Responses},
		{article.ColReadingTime, r.ReadingTime},
	}
	for _, c := range values {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return errors.Errorf("%s is %v for publication %q", c.name, c.v, r.Publication)
		}
	}
	return nil
}

// Index maps each publication to its metrics.
func Index(ms []PublicationMetrics) map[string]PublicationMetrics {
	idx := make(map[string]PublicationMetrics, len(ms))
	for _, m := range ms {
		idx[m.Publication] = m
	}
	return idx
}

// Total returns the number of records the metrics were computed from.
func Total(ms []PublicationMetrics) int {
	n := 0
	for _, m := range ms {
		n += m.ClapsCount
	}
	return n
}

// Round2 rounds x to 2 decimal places, halves away from zero.
func Round2(x float64) float64 {
	return scalar.Round(x, 2)
}
