package viz

import (
	"github.com/matsen/pubgraph/internal/article"
	"github.com/matsen/pubgraph/internal/metrics"
	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
)

// Stats describes the inputs a graph was built from.
type Stats struct {
	Records     int `json:"records"`
	UniqueDates int `json:"unique_dates"`
}

// BuildGraph constructs one node per publication and one link per unordered
// pair of publications.
//
// Link weight is the number of calendar days both publications were active on,
// divided by the number of distinct days across the whole dataset. Every pair
// gets a link, including pairs with no common day, so the link count grows
// quadratically with the publication count.
func BuildGraph(ds *article.Dataset, ms []metrics.PublicationMetrics) (*GraphData, Stats, error) {
	publications := funk.UniqString(ds.Publications())

	nodes, err := buildNodes(publications, metrics.Index(ms))
	if err != nil {
		return nil, Stats{}, err
	}

	days, allDays := activeDays(ds)
	links := buildLinks(publications, days, len(allDays))

	return &GraphData{Nodes: nodes, Links: links}, Stats{
		Records:     ds.Len(),
		UniqueDates: len(allDays),
	}, nil
}

// buildNodes creates a node per publication in first-appearance order.
func buildNodes(publications []string, idx map[string]metrics.PublicationMetrics) ([]Node, error) {
	nodes := make([]Node, 0, len(publications))

	for _, pub := range publications {
		m, ok := idx[pub]
		if !ok {
			return nil, errors.Errorf("data integrity error: publication %q has no metrics", pub)
		}
		nodes = append(nodes, newNode(m))
	}

	return nodes, nil
}

// newNode creates a visualization node from publication metrics.
func newNode(m metrics.PublicationMetrics) Node {
	return Node{
		ID:             m.Publication,
		Name:           m.Publication,
		ArticleCount:   m.ClapsCount,
		AvgClaps:       m.ClapsMean,
		AvgResponses:   m.ResponsesMean,
		AvgReadingTime: m.ReadingTimeMean,
	}
}

// activeDays returns the distinct calendar days of each publication and of
// the dataset as a whole.
func activeDays(ds *article.Dataset) (map[string]map[string]struct{}, map[string]struct{}) {
	byPub := make(map[string]map[string]struct{})
	all := make(map[string]struct{})

	for _, r := range ds.Records {
		d := r.Day()
		set, ok := byPub[r.Publication]
		if !ok {
			set = make(map[string]struct{})
			byPub[r.Publication] = set
		}
		set[d] = struct{}{}
		all[d] = struct{}{}
	}

	return byPub, all
}

// buildLinks pairs every publication with each one after it.
func buildLinks(publications []string, days map[string]map[string]struct{}, totalDays int) []Link {
	n := len(publications)
	links := make([]Link, 0, n*(n-1)/2)

	for i, a := range publications {
		for _, b := range publications[i+1:] {
			common := intersectionSize(days[a], days[b])

			weight := 0.0
			if totalDays > 0 {
				weight = float64(common) / float64(totalDays)
			}

			links = append(links, Link{
				Source:      a,
				Target:      b,
				CommonDates: common,
				Weight:      weight,
			})
		}
	}

	return links
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for d := range a {
		if _, ok := b[d]; ok {
			n++
		}
	}
	return n
}
