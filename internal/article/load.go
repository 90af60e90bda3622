package article

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptyFile is returned when the input has no header row.
	ErrEmptyFile = errors.New("empty input file")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
)

// naValues are cell values treated as missing, matching common CSV exports.
var naValues = map[string]bool{
	"": true, "#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true,
	"-1.#QNAN": true, "-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true,
	"<NA>": true, "N/A": true, "NA": true, "NULL": true, "NaN": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// LoadReport summarizes what cleaning did to an input file.
type LoadReport struct {
	Source             string  `json:"source"`
	Rows               int     `json:"rows"`
	Kept               int     `json:"kept"`
	DroppedBadDate     int     `json:"dropped_bad_date"`
	ClapsMissing       int     `json:"claps_missing"`
	ResponsesMissing   int     `json:"responses_missing"`
	ReadingTimeMissing int     `json:"reading_time_missing"`
	ClapsFill          float64 `json:"claps_fill"`
	ReadingTimeFill    float64 `json:"reading_time_fill"`

	// Set when a column had no parseable value, so its fill fell back to 0.
	ClapsUndefined       bool `json:"claps_undefined,omitempty"`
	ReadingTimeUndefined bool `json:"reading_time_undefined,omitempty"`
}

// Load reads and cleans the CSV file at path.
// The dataset is named after the file's base name without extension.
func Load(path string) (*Dataset, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{Source: path}, errors.Wrap(err, "opening input")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	ds, report, err := Read(f, name)
	report.Source = path
	if err != nil {
		return nil, report, errors.Wrapf(err, "reading %s", path)
	}
	return ds, report, nil
}

// Read parses and cleans CSV data from r.
//
// Numeric cells that fail to parse are treated as missing and filled:
// responses with 0, claps with the column mean, reading_time with the column
// median. Fill values come from every parsed value in the file, including rows
// later dropped for an unparseable date. Rows whose date cannot be parsed are
// removed.
func Read(r io.Reader, name string) (*Dataset, LoadReport, error) {
	report := LoadReport{Source: name}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, report, ErrEmptyFile
	}
	if err != nil {
		return nil, report, errors.Wrap(err, "reading header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		if _, dup := idx[col]; !dup {
			idx[col] = i
		}
	}
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, report, errors.Wrapf(ErrMissingColumn, "%q", col)
		}
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, report, errors.Wrap(err, "reading row")
		}
		if len(row) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, report, errors.Errorf("line %d: %d fields, header has %d", line, len(row), len(header))
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	report.Rows = len(rows)

	claps, clapsOK := parseColumn(rows, idx[ColClaps])
	responses, responsesOK := parseColumn(rows, idx[ColResponses])
	readingTime, readingTimeOK := parseColumn(rows, idx[ColReadingTime])

	report.ClapsMissing = len(rows) - len(clapsOK)
	report.ResponsesMissing = len(rows) - len(responsesOK)
	report.ReadingTimeMissing = len(rows) - len(readingTimeOK)

	if len(clapsOK) > 0 {
		report.ClapsFill = stat.Mean(clapsOK, nil)
	} else {
		report.ClapsUndefined = len(rows) > 0
	}
	if len(readingTimeOK) > 0 {
		report.ReadingTimeFill = median(readingTimeOK)
	} else {
		report.ReadingTimeUndefined = len(rows) > 0
	}

	ds := &Dataset{
		Name:    name,
		Columns: header,
		Records: make([]Record, 0, len(rows)),
	}

	for i, row := range rows {
		date, ok := parseDate(row[idx[ColDate]])
		if !ok {
			report.DroppedBadDate++
			continue
		}

		rec := Record{
			Publication: coercePublication(row[idx[ColPublication]]),
			Date:        date,
			Claps:       fill(claps[i], report.ClapsFill),
			Responses:   fill(responses[i], 0),
			ReadingTime: fill(readingTime[i], report.ReadingTimeFill),
		}
		for j, col := range header {
			if isRequired(col) {
				continue
			}
			if rec.Extra == nil {
				rec.Extra = make(map[string]string, len(header)-len(RequiredColumns))
			}
			rec.Extra[col] = row[j]
		}
		ds.Records = append(ds.Records, rec)
	}
	report.Kept = len(ds.Records)

	return ds, report, nil
}

// parseColumn parses column col of every row. Missing values are NaN in the
// returned slice; ok holds only the successfully parsed values.
func parseColumn(rows [][]string, col int) (values []float64, ok []float64) {
	values = make([]float64, len(rows))
	for i, row := range rows {
		v, parsed := parseNumber(row[col])
		if !parsed {
			values[i] = math.NaN()
			continue
		}
		values[i] = v
		ok = append(ok, v)
	}
	return values, ok
}

// parseNumber parses a numeric cell. Empty, NA-like, unparseable and
// non-finite values report false.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if naValues[s] {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Dates outside the range of a nanosecond timestamp are treated as unparseable.
var (
	minDate = time.Unix(0, math.MinInt64).UTC()
	maxDate = time.Unix(0, math.MaxInt64).UTC()
)

// parseDate parses a date cell in any common layout, interpreting zone-less
// values as UTC. Ambiguous slash dates are month-first unless the month would
// be out of range, as in 31/12/2020. All-digit cells longer than YYYYMMDD are
// rejected rather than read as epoch offsets.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if naValues[s] {
		return time.Time{}, false
	}
	if len(s) > len("20060102") && isDigits(s) {
		return time.Time{}, false
	}

	t, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return time.Time{}, false
	}
	// The day-first retry parses in time.Local; keep the wall clock in UTC.
	if t.Location() == time.Local {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	if t.Before(minDate) || t.After(maxDate) {
		return time.Time{}, false
	}
	return t, true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// coercePublication returns the publication cell as a string, mapping missing
// cells to the "nan" token.
func coercePublication(s string) string {
	if naValues[s] {
		return MissingPublication
	}
	return s
}

func fill(v, with float64) float64 {
	if math.IsNaN(v) {
		return with
	}
	return v
}

// median returns the median of values; even-length input averages the two
// middle values.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func isRequired(col string) bool {
	for _, c := range RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}
