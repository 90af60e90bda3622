package article

// Combine concatenates datasets and drops records that duplicate an earlier
// one in every field. Columns are the union of the inputs' columns in
// first-appearance order.
func Combine(name string, sets ...*Dataset) *Dataset {
	total := 0
	for _, ds := range sets {
		total += ds.Len()
	}

	out := &Dataset{
		Name:    name,
		Records: make([]Record, 0, total),
	}

	seenCol := make(map[string]bool)
	seen := make(map[string]bool, total)
	for _, ds := range sets {
		for _, col := range ds.Columns {
			if !seenCol[col] {
				seenCol[col] = true
				out.Columns = append(out.Columns, col)
			}
		}
		for _, r := range ds.Records {
			key := r.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out.Records = append(out.Records, r)
		}
	}

	return out
}
