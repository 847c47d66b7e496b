package metadata

import "sort"

// Metadata is the merged collection of every loaded metadata set. Sets are
// ordered by selector text, so two collections built from the same files
// always compare and serialize identically.
type Metadata struct {
	Sets []*Set `json:"scoped_metadata"`
}

// Len returns the number of sets.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Sets)
}

// Clone returns an independent copy of the collection.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	sets := make([]*Set, len(m.Sets))
	for i, s := range m.Sets {
		sets[i] = s.Clone()
	}
	return &Metadata{Sets: sets}
}

// MergeRaw overlays freshly accumulated entries onto the collection and
// returns the result. Overlay sets replace base sets with the same selector
// text wholesale; there is no per-key merging across the two collections.
// The receiver is not modified.
func (m *Metadata) MergeRaw(acc *Accumulator) *Metadata {
	overlay := acc.Merge()

	bySelector := make(map[string]*Set, len(m.Sets)+len(overlay.Sets))
	for _, s := range m.Sets {
		bySelector[s.SelectorText] = s
	}
	for _, s := range overlay.Sets {
		bySelector[s.SelectorText] = s
	}

	texts := make([]string, 0, len(bySelector))
	for text := range bySelector {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	sets := make([]*Set, len(texts))
	for i, text := range texts {
		sets[i] = bySelector[text]
	}
	return &Metadata{Sets: sets}
}
