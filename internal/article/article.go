// Package article loads and cleans article-metadata CSV files.
package article

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Required column names.
const (
	ColPublication = "publication"
	ColDate        = "date"
	ColClaps       = "claps"
	ColResponses   = "responses"
	ColReadingTime = "reading_time"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{ColPublication, ColDate, ColClaps, ColResponses, ColReadingTime}

// DayLayout is the calendar-date format used to compare activity days.
const DayLayout = "2006-01-02"

// MissingPublication is the token a missing publication cell is coerced to.
const MissingPublication = "nan"

// Record is one cleaned article row.
type Record struct {
	Publication string
	Date        time.Time
	Claps       float64
	Responses   float64
	ReadingTime float64

	// Extra holds every non-required column verbatim, keyed by header name.
	Extra map[string]string
}

// Day returns the calendar date the article was published on.
func (r Record) Day() string {
	return r.Date.Format(DayLayout)
}

// Key returns a string that is equal for two records iff all their fields
// are equal. An absent extra column compares equal to an empty one.
func (r Record) Key() string {
	var b strings.Builder
	b.WriteString(r.Publication)
	b.WriteByte(0x1f)
	b.WriteString(r.Date.UTC().Format(time.RFC3339Nano))
	for _, f := range []float64{r.Claps, r.Responses, r.ReadingTime} {
		b.WriteByte(0x1f)
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}

	keys := make([]string, 0, len(r.Extra))
	for k, v := range r.Extra {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(0x1e)
		b.WriteString(k)
		b.WriteByte(0x1f)
		b.WriteString(r.Extra[k])
	}
	return b.String()
}

// Dataset is an ordered collection of cleaned records.
type Dataset struct {
	Name    string
	Columns []string // Header order
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// IsEmpty returns true if the dataset has no records.
func (d *Dataset) IsEmpty() bool {
	return len(d.Records) == 0
}

// Publications returns each record's publication in record order.
func (d *Dataset) Publications() []string {
	pubs := make([]string, len(d.Records))
	for i, r := range d.Records {
		pubs[i] = r.Publication
	}
	return pubs
}

// cell returns the textual value of column col for record r.
func (r Record) cell(col string) string {
	switch col {
	case ColPublication:
		return r.Publication
	case ColDate:
		return r.Date.Format("2006-01-02 15:04:05")
	case ColClaps:
		return strconv.FormatFloat(r.Claps, 'f', -1, 64)
	case ColResponses:
		return strconv.FormatFloat(r.Responses, 'f', -1, 64)
	case ColReadingTime:
		return strconv.FormatFloat(r.ReadingTime, 'f', -1, 64)
	default:
		return r.Extra[col]
	}
}
