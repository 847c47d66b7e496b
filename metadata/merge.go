package metadata

import (
	"sort"

	"github.com/dshills/scopemeta/settings"
)

// Merge resolves every accumulated entry into a Metadata collection.
//
// Entries are sorted by path and folded into one settings group per
// selector text. Within a group, a later entry's value replaces an earlier
// one's for the same key, except shellVariables, which merge variable by
// variable. The first entry to touch a group stamps it with the file path
// used in log messages.
//
// Merge does not fail as a whole: a group whose settings cannot be
// resolved, or whose selector does not parse, is logged and dropped. The
// accumulator keeps its entries, so Merge can be called again after more
// files arrive.
func (a *Accumulator) Merge() *Metadata {
	entries := make([]RawEntry, len(a.entries))
	copy(entries, a.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	groups := make(map[string]settings.Map)
	for _, entry := range entries {
		group, ok := groups[entry.Scope]
		if !ok {
			group = settings.Map{sourcePathKey: entry.Path}
			groups[entry.Scope] = group
		}

		for key, value := range entry.Settings {
			if !isRecognizedKey(key) {
				continue
			}
			if key == KeyShellVariables {
				a.appendVars(group, value, entry.Scope)
			} else {
				group[key] = value
			}
		}
	}

	texts := make([]string, 0, len(groups))
	for text := range groups {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	sets := make([]*Set, 0, len(texts))
	for _, text := range texts {
		set, err := NewSet(text, groups[text])
		if err != nil {
			a.logger.Warn().Str("selector", text).Err(err).Msg("Skipping metadata set")
			continue
		}
		sets = append(sets, set)
	}
	return &Metadata{Sets: sets}
}

// appendVars folds one entry's shellVariables into the group. Malformed
// variables are logged and dropped, but the group still records that the
// key appeared so the set survives the recognized-keys check.
func (a *Accumulator) appendVars(group settings.Map, raw any, scopeText string) {
	existing, _ := group[KeyShellVariables].(map[string]any)
	if existing == nil {
		existing = make(map[string]any)
		group[KeyShellVariables] = existing
	}

	vars, err := shellVariablesFrom(raw)
	if err != nil {
		a.logger.Warn().Str("scope", scopeText).Err(err).Msg("Malformed shell variables")
		return
	}
	for name, value := range vars {
		existing[name] = value
	}
}
