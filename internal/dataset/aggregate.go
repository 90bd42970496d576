package dataset

import "sort"

// ModalValue returns the most frequent non-empty value of a column across the
// selected rows, ties broken by the lexicographically smaller value. Returns
// the empty string when the column is absent or no row carries a value.
func ModalValue(ds *Dataset, column string, rows []int) string {
	values, ok := ds.Strings(column)
	if !ok {
		return ""
	}
	counts := make(map[string]int)
	for _, i := range rows {
		if values[i] != "" {
			counts[values[i]]++
		}
	}
	best, bestCount := "", 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return best
}

// TopValues ranks a column's non-empty values by frequency across the
// selected rows, count descending then value ascending, capped at limit.
// Returns nil when the column is absent.
func TopValues(ds *Dataset, column string, rows []int, limit int) []string {
	values, ok := ds.Strings(column)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, i := range rows {
		if values[i] != "" {
			counts[values[i]]++
		}
	}
	type entry struct {
		value string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, entry{value: value, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}
