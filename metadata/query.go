package metadata

import (
	"sort"

	"github.com/dshills/scopemeta/scope"
)

// ScoredSet pairs a matching Set with the power of its match.
type ScoredSet struct {
	Power scope.MatchPower
	Set   *Set
}

// ScopedMetadata holds every Set that matched a scope stack, best match
// first. Matches with equal power keep their selector-text order, so a
// query over the same collection always resolves the same way.
//
// Each accessor cascades independently: it walks the matches in order and
// answers from the first Set that defines the field it needs. A field that
// is defined but does not match the probed line does not fall through to
// weaker matches.
type ScopedMetadata struct {
	Items []ScoredSet
}

// ForScope scores every set's selector against the stack and collects the
// matches in descending match power.
func (m *Metadata) ForScope(stack scope.Stack) ScopedMetadata {
	if m == nil {
		return ScopedMetadata{}
	}
	matches := make([]ScoredSet, 0, len(m.Sets))
	for _, set := range m.Sets {
		power, ok := set.Selector.Score(stack)
		if !ok {
			continue
		}
		matches = append(matches, ScoredSet{Power: power, Set: set})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Power > matches[j].Power
	})
	return ScopedMetadata{Items: matches}
}

// firstDefined returns the first non-nil value get extracts from the
// matches, in match order.
func firstDefined[T any](sm ScopedMetadata, get func(*Items) *T) *T {
	for _, match := range sm.Items {
		items := match.Set.Items
		if items == nil {
			continue
		}
		if v := get(items); v != nil {
			return v
		}
	}
	return nil
}

// IncreaseIndent reports whether the line should increase the indent of
// the line that follows it.
func (sm ScopedMetadata) IncreaseIndent(line string) bool {
	if p := firstDefined(sm, func(it *Items) *Pattern { return it.IncreaseIndentPattern }); p != nil {
		return p.IsMatch(line)
	}
	return false
}

// DecreaseIndent reports whether the line should be dedented relative to
// the line before it.
func (sm ScopedMetadata) DecreaseIndent(line string) bool {
	if p := firstDefined(sm, func(it *Items) *Pattern { return it.DecreaseIndentPattern }); p != nil {
		return p.IsMatch(line)
	}
	return false
}

// BracketIncrease reports whether the line should indent only the
// immediately following line.
func (sm ScopedMetadata) BracketIncrease(line string) bool {
	if p := firstDefined(sm, func(it *Items) *Pattern { return it.BracketIndentNextLinePattern }); p != nil {
		return p.IsMatch(line)
	}
	return false
}

// DisableIndentNextLine reports whether automatic indent of the next line
// should be suppressed after this line.
func (sm ScopedMetadata) DisableIndentNextLine(line string) bool {
	if p := firstDefined(sm, func(it *Items) *Pattern { return it.DisableIndentNextLinePattern }); p != nil {
		return p.IsMatch(line)
	}
	return false
}

// UnindentedLine reports whether the line is exempt from indentation
// rules entirely.
func (sm ScopedMetadata) UnindentedLine(line string) bool {
	if p := firstDefined(sm, func(it *Items) *Pattern { return it.UnIndentedLinePattern }); p != nil {
		return p.IsMatch(line)
	}
	return false
}

// LineComment returns the line comment marker from the best match that
// defines one.
func (sm ScopedMetadata) LineComment() (string, bool) {
	if c := firstDefined(sm, func(it *Items) *string { return it.lineComment }); c != nil {
		return *c, true
	}
	return "", false
}

// BlockComment returns the block comment markers from the best match that
// defines them.
func (sm ScopedMetadata) BlockComment() (BlockComment, bool) {
	if c := firstDefined(sm, func(it *Items) *BlockComment { return it.blockComment }); c != nil {
		return *c, true
	}
	return BlockComment{}, false
}

// IsEmpty reports whether no set matched the queried stack.
func (sm ScopedMetadata) IsEmpty() bool {
	return len(sm.Items) == 0
}

// Len returns the number of matched sets.
func (sm ScopedMetadata) Len() int {
	return len(sm.Items)
}
