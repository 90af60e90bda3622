// Package viz builds the publication co-activity graph consumed by the front end.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node represents a publication in the graph.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Sizing and tooltips
	ArticleCount   int     `json:"articleCount"`
	AvgClaps       float64 `json:"avgClaps"`
	AvgResponses   float64 `json:"avgResponses"`
	AvgReadingTime float64 `json:"avgReadingTime"`
}

// Link connects two publications that published on the same calendar days.
type Link struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	CommonDates int     `json:"commonDates"`
	Weight      float64 `json:"weight"` // CommonDates over the dataset's distinct dates
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}
