package metadata

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dshills/scopemeta/scope"
	"github.com/dshills/scopemeta/settings"
)

// sourcePathKey carries the contributing file's path inside a merged
// settings group. It is stripped before extraction and appears only in
// log messages.
const sourcePathKey = "source_file_path"

// Set binds metadata items to the scope selector they apply to.
type Set struct {
	// SelectorText is the selector exactly as written in the source file.
	// It is the canonical ordering and identity key for the set, and is
	// what gets serialized; rebuilding it from the parsed form would lose
	// the author's spelling.
	SelectorText string

	// Selector is the parsed form of SelectorText.
	Selector scope.Selectors

	// Items holds the metadata values.
	Items *Items
}

// NewSet builds a Set from a selector string and a settings block. The
// block may carry a source path under the key "source_file_path"; it is
// used in error messages only.
//
// NewSet fails with ErrNoRecognizedKeys when the block has nothing this
// package keeps, with a ValueError when a recognized key holds the wrong
// shape, and with a parse error when the selector text is malformed.
func NewSet(selectorText string, doc settings.Map) (*Set, error) {
	path, _ := doc[sourcePathKey].(string)
	if path == "" {
		path = "(path missing)"
	}

	items, err := newItems(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	selector, err := scope.ParseSelectors(selectorText)
	if err != nil {
		return nil, fmt.Errorf("%s: selector %q: %w", path, selectorText, err)
	}

	return &Set{SelectorText: selectorText, Selector: selector, Items: items}, nil
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	if s == nil {
		return nil
	}
	return &Set{
		SelectorText: s.SelectorText,
		Selector:     s.Selector,
		Items:        s.Items.Clone(),
	}
}

// setJSON is the serialized shape of a Set. The selector travels as its
// original text; the parsed form is rebuilt on load.
type setJSON struct {
	SelectorString string     `json:"selector_string"`
	Items          *itemsJSON `json:"items"`
}

// itemsJSON mirrors Items field for field. Absent values serialize as
// null so the output distinguishes "not defined" from "empty".
type itemsJSON struct {
	IncreaseIndentPattern        *Pattern          `json:"increaseIndentPattern"`
	DecreaseIndentPattern        *Pattern          `json:"decreaseIndentPattern"`
	BracketIndentNextLinePattern *Pattern          `json:"bracketIndentNextLinePattern"`
	DisableIndentNextLinePattern *Pattern          `json:"disableIndentNextLinePattern"`
	UnIndentedLinePattern        *Pattern          `json:"unIndentedLinePattern"`
	IndentParens                 *bool             `json:"indentParens"`
	ShellVariables               map[string]string `json:"shellVariables"`
	LineComment                  *string           `json:"lineComment"`
	BlockComment                 *[2]string        `json:"blockComment"`
}

func itemsToJSON(items *Items) *itemsJSON {
	if items == nil {
		return nil
	}
	out := &itemsJSON{
		IncreaseIndentPattern:        items.IncreaseIndentPattern,
		DecreaseIndentPattern:        items.DecreaseIndentPattern,
		BracketIndentNextLinePattern: items.BracketIndentNextLinePattern,
		DisableIndentNextLinePattern: items.DisableIndentNextLinePattern,
		UnIndentedLinePattern:        items.UnIndentedLinePattern,
		IndentParens:                 items.IndentParens,
		ShellVariables:               items.ShellVariables,
		LineComment:                  items.lineComment,
	}
	if items.blockComment != nil {
		out.BlockComment = &[2]string{items.blockComment.Start, items.blockComment.End}
	}
	return out
}

func itemsFromJSON(in *itemsJSON) *Items {
	items := &Items{
		IncreaseIndentPattern:        in.IncreaseIndentPattern,
		DecreaseIndentPattern:        in.DecreaseIndentPattern,
		BracketIndentNextLinePattern: in.BracketIndentNextLinePattern,
		DisableIndentNextLinePattern: in.DisableIndentNextLinePattern,
		UnIndentedLinePattern:        in.UnIndentedLinePattern,
		IndentParens:                 in.IndentParens,
		ShellVariables:               in.ShellVariables,
	}
	if items.ShellVariables == nil {
		items.ShellVariables = make(map[string]string)
	}
	// Explicit markers win; otherwise derive them from the variables, so
	// hand-written documents need not spell out what follows from
	// shellVariables anyway.
	items.deriveComments()
	if in.LineComment != nil {
		marker := *in.LineComment
		items.lineComment = &marker
	}
	if in.BlockComment != nil {
		items.blockComment = &BlockComment{Start: in.BlockComment[0], End: in.BlockComment[1]}
	}
	return items
}

// MarshalJSON implements json.Marshaler.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(setJSON{
		SelectorString: s.SelectorText,
		Items:          itemsToJSON(s.Items),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The selector is reparsed from
// its text and comment markers are rederived when the document does not
// carry them.
func (s *Set) UnmarshalJSON(data []byte) error {
	var inner setJSON
	if err := json.Unmarshal(data, &inner); err != nil {
		return err
	}
	if inner.Items == nil {
		return errors.New("metadata set: no items")
	}
	selector, err := scope.ParseSelectors(inner.SelectorString)
	if err != nil {
		return fmt.Errorf("metadata set: selector %q: %w", inner.SelectorString, err)
	}
	s.SelectorText = inner.SelectorString
	s.Selector = selector
	s.Items = itemsFromJSON(inner.Items)
	return nil
}
