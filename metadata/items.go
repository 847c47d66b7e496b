package metadata

import (
	"fmt"

	"github.com/dshills/scopemeta/settings"
)

// Settings keys recognized in metadata files. Any other key is ignored.
const (
	KeyIncreaseIndentPattern        = "increaseIndentPattern"
	KeyDecreaseIndentPattern        = "decreaseIndentPattern"
	KeyBracketIndentNextLinePattern = "bracketIndentNextLinePattern"
	KeyDisableIndentNextLinePattern = "disableIndentNextLinePattern"
	KeyUnIndentedLinePattern        = "unIndentedLinePattern"
	KeyIndentParens                 = "indentParens"
	KeyShellVariables               = "shellVariables"
)

var recognizedKeys = []string{
	KeyIncreaseIndentPattern,
	KeyDecreaseIndentPattern,
	KeyBracketIndentNextLinePattern,
	KeyDisableIndentNextLinePattern,
	KeyUnIndentedLinePattern,
	KeyIndentParens,
	KeyShellVariables,
}

// RecognizedKeys returns the settings keys kept by the merge, in their
// documented order.
func RecognizedKeys() []string {
	return append([]string(nil), recognizedKeys...)
}

func isRecognizedKey(key string) bool {
	for _, k := range recognizedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// commentKeys pairs each TM_COMMENT_START variant with its matching
// TM_COMMENT_END variant, in the order the derivation scans them.
var commentKeys = [...][2]string{
	{"TM_COMMENT_START", "TM_COMMENT_END"},
	{"TM_COMMENT_START_2", "TM_COMMENT_END_2"},
	{"TM_COMMENT_START_3", "TM_COMMENT_END_3"},
}

// BlockComment holds the markers that open and close a block comment.
type BlockComment struct {
	Start string
	End   string
}

// Items holds the metadata values for one scope selector. Pattern fields
// are nil when the corresponding key was absent, which is how the query
// cascade decides whether a Set defines a field.
//
// Comment markers are derived, not stored: the line comment is the first
// TM_COMMENT_START variant in ShellVariables without a matching
// TM_COMMENT_END, and the block comment is the first variant with both.
type Items struct {
	IncreaseIndentPattern        *Pattern
	DecreaseIndentPattern        *Pattern
	BracketIndentNextLinePattern *Pattern
	DisableIndentNextLinePattern *Pattern
	UnIndentedLinePattern        *Pattern
	IndentParens                 *bool
	// ShellVariables is never nil.
	ShellVariables map[string]string

	lineComment  *string
	blockComment *BlockComment
}

// newItems extracts recognized keys from a parsed settings block. It
// returns ErrNoRecognizedKeys if none are present and a ValueError if a
// present key holds a value of the wrong shape.
func newItems(doc settings.Map) (*Items, error) {
	recognized := false
	for _, key := range recognizedKeys {
		if _, ok := doc[key]; ok {
			recognized = true
			break
		}
	}
	if !recognized {
		return nil, ErrNoRecognizedKeys
	}

	items := &Items{ShellVariables: make(map[string]string)}

	patternFields := []struct {
		key string
		dst **Pattern
	}{
		{KeyIncreaseIndentPattern, &items.IncreaseIndentPattern},
		{KeyDecreaseIndentPattern, &items.DecreaseIndentPattern},
		{KeyBracketIndentNextLinePattern, &items.BracketIndentNextLinePattern},
		{KeyDisableIndentNextLinePattern, &items.DisableIndentNextLinePattern},
		{KeyUnIndentedLinePattern, &items.UnIndentedLinePattern},
	}
	for _, field := range patternFields {
		raw, ok := doc[field.key]
		if !ok {
			continue
		}
		source, ok := raw.(string)
		if !ok {
			return nil, &ValueError{Key: field.key, Value: raw, Message: "want a pattern string"}
		}
		*field.dst = NewPattern(source)
	}

	if raw, ok := doc[KeyIndentParens]; ok {
		b, ok := raw.(bool)
		if !ok {
			return nil, &ValueError{Key: KeyIndentParens, Value: raw, Message: "want a boolean"}
		}
		items.IndentParens = &b
	}

	if raw, ok := doc[KeyShellVariables]; ok {
		vars, err := shellVariablesFrom(raw)
		if err != nil {
			return nil, err
		}
		items.ShellVariables = vars
	}

	items.deriveComments()
	return items, nil
}

// shellVariablesFrom accepts the two shapes shellVariables appears in: the
// plist form, a list of {name, value} dictionaries, and the plain map form
// used by JSON, TOML, and YAML files. In the list form, a repeated name
// keeps the last value.
func shellVariablesFrom(raw any) (map[string]string, error) {
	switch v := raw.(type) {
	case []any:
		vars := make(map[string]string, len(v))
		for i, entry := range v {
			dict, ok := entry.(map[string]any)
			if !ok {
				return nil, &ValueError{
					Key:     KeyShellVariables,
					Value:   entry,
					Message: fmt.Sprintf("entry %d: want a {name, value} dictionary", i),
				}
			}
			name, ok := dict["name"].(string)
			if !ok || name == "" {
				return nil, &ValueError{
					Key:     KeyShellVariables,
					Value:   dict["name"],
					Message: fmt.Sprintf("entry %d: missing variable name", i),
				}
			}
			value, ok := dict["value"].(string)
			if !ok {
				return nil, &ValueError{
					Key:     KeyShellVariables,
					Value:   dict["value"],
					Message: fmt.Sprintf("variable %s: want a string value", name),
				}
			}
			vars[name] = value
		}
		return vars, nil
	case map[string]any:
		vars := make(map[string]string, len(v))
		for name, value := range v {
			s, ok := value.(string)
			if !ok {
				return nil, &ValueError{
					Key:     KeyShellVariables,
					Value:   value,
					Message: fmt.Sprintf("variable %s: want a string value", name),
				}
			}
			vars[name] = s
		}
		return vars, nil
	default:
		return nil, &ValueError{
			Key:     KeyShellVariables,
			Value:   raw,
			Message: "want a list or dictionary of variables",
		}
	}
}

// deriveComments recomputes the line and block comment markers from
// ShellVariables. Each marker takes the first qualifying variant.
func (it *Items) deriveComments() {
	it.lineComment = nil
	it.blockComment = nil
	for _, pair := range commentKeys {
		start, ok := it.ShellVariables[pair[0]]
		if !ok {
			continue
		}
		end, hasEnd := it.ShellVariables[pair[1]]
		if !hasEnd {
			if it.lineComment == nil {
				marker := start
				it.lineComment = &marker
			}
		} else if it.blockComment == nil {
			it.blockComment = &BlockComment{Start: start, End: end}
		}
		if it.lineComment != nil && it.blockComment != nil {
			return
		}
	}
}

// LineComment returns the derived line comment marker, if any.
func (it *Items) LineComment() (string, bool) {
	if it.lineComment == nil {
		return "", false
	}
	return *it.lineComment, true
}

// BlockComment returns the derived block comment markers, if any.
func (it *Items) BlockComment() (BlockComment, bool) {
	if it.blockComment == nil {
		return BlockComment{}, false
	}
	return *it.blockComment, true
}

// Clone returns an independent copy. Cloned patterns are uncompiled.
func (it *Items) Clone() *Items {
	if it == nil {
		return nil
	}
	clone := &Items{
		IncreaseIndentPattern:        it.IncreaseIndentPattern.Clone(),
		DecreaseIndentPattern:        it.DecreaseIndentPattern.Clone(),
		BracketIndentNextLinePattern: it.BracketIndentNextLinePattern.Clone(),
		DisableIndentNextLinePattern: it.DisableIndentNextLinePattern.Clone(),
		UnIndentedLinePattern:        it.UnIndentedLinePattern.Clone(),
		ShellVariables:               make(map[string]string, len(it.ShellVariables)),
	}
	if it.IndentParens != nil {
		b := *it.IndentParens
		clone.IndentParens = &b
	}
	for name, value := range it.ShellVariables {
		clone.ShellVariables[name] = value
	}
	clone.deriveComments()
	return clone
}

// Equal reports whether two Items hold the same values. Patterns compare
// by source text.
func (it *Items) Equal(other *Items) bool {
	if it == nil || other == nil {
		return it == other
	}
	if !it.IncreaseIndentPattern.Equal(other.IncreaseIndentPattern) ||
		!it.DecreaseIndentPattern.Equal(other.DecreaseIndentPattern) ||
		!it.BracketIndentNextLinePattern.Equal(other.BracketIndentNextLinePattern) ||
		!it.DisableIndentNextLinePattern.Equal(other.DisableIndentNextLinePattern) ||
		!it.UnIndentedLinePattern.Equal(other.UnIndentedLinePattern) {
		return false
	}
	if (it.IndentParens == nil) != (other.IndentParens == nil) {
		return false
	}
	if it.IndentParens != nil && *it.IndentParens != *other.IndentParens {
		return false
	}
	if len(it.ShellVariables) != len(other.ShellVariables) {
		return false
	}
	for name, value := range it.ShellVariables {
		if ov, ok := other.ShellVariables[name]; !ok || ov != value {
			return false
		}
	}
	return true
}
