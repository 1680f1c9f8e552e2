package catalog

// Dedupe drops repeated ids, which Xtream panels emit when an entry sits in
// several categories. The first occurrence keeps its position and takes the
// newest timestamp seen for its id.
func Dedupe(items []Item) (int, []Item) {
	index := make(map[int]int, len(items))
	deduped := make([]Item, 0, len(items))
	dupes := 0

	for _, item := range items {
		i, ok := index[item.ID]
		if !ok {
			index[item.ID] = len(deduped)
			deduped = append(deduped, item)
			continue
		}

		dupes++
		if item.Timestamp.After(deduped[i].Timestamp.Time) {
			deduped[i].Timestamp = item.Timestamp
		}
	}

	return dupes, deduped
}
