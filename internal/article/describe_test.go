package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	ds, _ := readString(t, sampleCSV)

	out := ds.Describe(2)
	assert.Contains(t, out, `dataset "test": 3 records, 6 columns`)
	assert.Contains(t, out, "schema:")
	for _, col := range ds.Columns {
		assert.Contains(t, out, col)
	}
	assert.Contains(t, out, "head:")
	assert.Contains(t, out, "Towards Data Science")
}

func TestDescribe_Empty(t *testing.T) {
	ds, _ := readString(t, "publication,date,claps,responses,reading_time\n")

	out := ds.Describe(5)
	assert.True(t, strings.HasPrefix(out, `dataset "test": 0 records, 5 columns`))
	assert.Contains(t, out, "columns: publication, date, claps, responses, reading_time")
	assert.NotContains(t, out, "head:")
}
