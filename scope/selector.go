package scope

import (
	"fmt"
	"math"
	"strings"
)

// atomWeightBits is the exponent step between adjacent stack positions when
// scoring. Each step inward multiplies a match's weight by 2^atomWeightBits,
// so a match deeper in the stack always outranks any match above it.
const atomWeightBits = 3

// MatchPower ranks how specifically a selector matches a scope stack.
// Powers are totally ordered; higher means more specific.
type MatchPower float64

// Selector is a single scope-selector alternative: a path of scopes that must
// prefix-match the stack in order, plus optional excluded paths. An exclude is
// introduced in the textual form by " -", as in "text.html - text.html.markdown".
type Selector struct {
	// Path is the sequence of scopes to match, outermost first.
	// An empty path matches every stack with minimal specificity.
	Path Stack

	// Excludes lists paths that suppress the match entirely.
	Excludes []Stack
}

// ParseSelector parses one selector alternative. The text before the first
// " -" separator is the path; each subsequent " -" segment is an exclude.
func ParseSelector(s string) (Selector, error) {
	parts := strings.Split(s, " -")
	path, err := ParseStack(parts[0])
	if err != nil {
		return Selector{}, err
	}
	sel := Selector{Path: path}
	for _, part := range parts[1:] {
		exclude, err := ParseStack(part)
		if err != nil {
			return Selector{}, err
		}
		sel.Excludes = append(sel.Excludes, exclude)
	}
	return sel, nil
}

// Score reports whether the selector applies to the stack and, if so, how
// specifically. Any matching exclude suppresses the match.
func (sel Selector) Score(stack Stack) (MatchPower, bool) {
	for _, exclude := range sel.Excludes {
		if _, ok := exclude.score(stack); ok {
			return 0, false
		}
	}
	if len(sel.Path) == 0 {
		// An empty selector matches everything, as weakly as possible.
		return 1, true
	}
	return sel.Path.score(stack)
}

// String returns the textual form of the selector.
func (sel Selector) String() string {
	var b strings.Builder
	b.WriteString(sel.Path.String())
	for _, exclude := range sel.Excludes {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('-')
		b.WriteString(exclude.String())
	}
	return b.String()
}

// score walks the stack outermost to innermost, consuming path scopes as they
// prefix-match. Every path scope must be consumed in order for the stack to
// match. A matched scope contributes its atom count, weighted exponentially
// by its position in the stack.
func (p Stack) score(stack Stack) (MatchPower, bool) {
	if len(p) == 0 {
		return 0, false
	}
	idx := 0
	var power float64
	for i, sc := range stack {
		if p[idx].IsPrefixOf(sc) {
			power += float64(p[idx].Len()) * math.Exp2(float64(atomWeightBits*i))
			idx++
			if idx == len(p) {
				return MatchPower(power), true
			}
		}
	}
	return 0, false
}

// Selectors is a comma-separated list of selector alternatives. A stack
// matches if any alternative matches; the best score wins.
type Selectors []Selector

// ParseSelectors parses a full selector expression such as
// "source.rust, source.go - comment". An empty string yields a single
// empty selector, which matches every stack.
func ParseSelectors(s string) (Selectors, error) {
	parts := strings.Split(s, ",")
	sels := make(Selectors, 0, len(parts))
	for _, part := range parts {
		sel, err := ParseSelector(part)
		if err != nil {
			return nil, err
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

// MustParseSelectors parses a selector expression and panics on error.
func MustParseSelectors(s string) Selectors {
	sels, err := ParseSelectors(s)
	if err != nil {
		panic(fmt.Sprintf("scope: %v", err))
	}
	return sels
}

// Score reports the best score among the alternatives, if any matches.
func (sels Selectors) Score(stack Stack) (MatchPower, bool) {
	var best MatchPower
	found := false
	for _, sel := range sels {
		pow, ok := sel.Score(stack)
		if !ok {
			continue
		}
		if !found || pow > best {
			best = pow
			found = true
		}
	}
	return best, found
}

// String returns the textual form of the selector list.
func (sels Selectors) String() string {
	parts := make([]string, len(sels))
	for i, sel := range sels {
		parts[i] = sel.String()
	}
	return strings.Join(parts, ", ")
}
