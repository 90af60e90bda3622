package article

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Describe renders the dataset schema and its first n rows for diagnostics.
// Column types are inferred from the cleaned values.
func (d *Dataset) Describe(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "dataset %q: %d records, %d columns\n", d.Name, len(d.Records), len(d.Columns))

	if len(d.Records) == 0 {
		fmt.Fprintf(&b, "columns: %s\n", strings.Join(d.Columns, ", "))
		return b.String()
	}

	rows := make([][]string, 0, len(d.Records)+1)
	rows = append(rows, d.Columns)
	for _, r := range d.Records {
		row := make([]string, len(d.Columns))
		for i, col := range d.Columns {
			row[i] = r.cell(col)
		}
		rows = append(rows, row)
	}

	df := dataframe.LoadRecords(rows, dataframe.DetectTypes(true))
	if df.Err != nil {
		fmt.Fprintf(&b, "columns: %s\n(schema unavailable: %v)\n", strings.Join(d.Columns, ", "), df.Err)
		return b.String()
	}

	b.WriteString("schema:\n")
	for i, name := range df.Names() {
		fmt.Fprintf(&b, "  %-20s %s\n", name, df.Types()[i])
	}

	if n > df.Nrow() {
		n = df.Nrow()
	}
	if n > 0 {
		head := make([]int, n)
		for i := range head {
			head[i] = i
		}
		b.WriteString("head:\n")
		b.WriteString(df.Subset(head).String())
	}

	return b.String()
}
