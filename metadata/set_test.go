package metadata

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/scopemeta/settings"
)

func TestNewSetErrors(t *testing.T) {
	_, err := NewSet("source.c", settings.Map{"showInSymbolList": "1"})
	if !errors.Is(err, ErrNoRecognizedKeys) {
		t.Errorf("NewSet() error = %v, expected ErrNoRecognizedKeys", err)
	}
	if err == nil || !strings.Contains(err.Error(), "(path missing)") {
		t.Errorf("NewSet() error = %v, expected the placeholder path", err)
	}

	_, err = NewSet("source.c", settings.Map{
		sourcePathKey: "Packages/C/Symbols.tmPreferences",
	})
	if err == nil || !strings.Contains(err.Error(), "Packages/C/Symbols.tmPreferences") {
		t.Errorf("NewSet() error = %v, expected the stashed path", err)
	}

	var valueErr *ValueError
	_, err = NewSet("source.c", settings.Map{KeyIncreaseIndentPattern: 7})
	if !errors.As(err, &valueErr) {
		t.Errorf("NewSet() error = %v, expected a ValueError", err)
	}

	_, err = NewSet("source..c", settings.Map{KeyIncreaseIndentPattern: `\{$`})
	if err == nil || !strings.Contains(err.Error(), "selector") {
		t.Errorf("NewSet() error = %v, expected a selector parse error", err)
	}
}

func TestSetJSONRoundTrip(t *testing.T) {
	original := mustSet(t, "source.rust, source.c - string", settings.Map{
		KeyIncreaseIndentPattern: `^.*\{[^}"']*$`,
		KeyIndentParens:          true,
		KeyShellVariables: map[string]any{
			"TM_COMMENT_START":   "// ",
			"TM_COMMENT_START_2": "/*",
			"TM_COMMENT_END_2":   "*/",
		},
	})

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, key := range []string{`"selector_string"`, `"increaseIndentPattern"`, `"shellVariables"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("serialized set missing %s: %s", key, data)
		}
	}

	var restored Set
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if restored.SelectorText != original.SelectorText {
		t.Errorf("SelectorText = %q, expected %q", restored.SelectorText, original.SelectorText)
	}
	if !restored.Items.Equal(original.Items) {
		t.Errorf("items differ after round trip: %+v vs %+v", restored.Items, original.Items)
	}
	if line, ok := restored.Items.LineComment(); !ok || line != "// " {
		t.Errorf("LineComment() = %q, %v after round trip", line, ok)
	}
	if block, ok := restored.Items.BlockComment(); !ok || block.End != "*/" {
		t.Errorf("BlockComment() = %+v, %v after round trip", block, ok)
	}
}

func TestSetUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing items", `{"selector_string": "source.go"}`},
		{"null items", `{"selector_string": "source.go", "items": null}`},
		{"bad selector", `{"selector_string": "source..go", "items": {"shellVariables": {}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var set Set
			if err := json.Unmarshal([]byte(tt.data), &set); err == nil {
				t.Error("Unmarshal() error = nil, expected an error")
			}
		})
	}
}

func TestSetUnmarshalDerivesComments(t *testing.T) {
	// markers omitted: derived from the variables
	var derived Set
	data := `{"selector_string": "source.sh", "items": {"shellVariables": {"TM_COMMENT_START": "# "}}}`
	if err := json.Unmarshal([]byte(data), &derived); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if line, ok := derived.Items.LineComment(); !ok || line != "# " {
		t.Errorf("LineComment() = %q, %v, expected derived %q", line, ok, "# ")
	}

	// explicit markers win even without variables
	var explicit Set
	data = `{"selector_string": "source.sh", "items": {"lineComment": ";; ", "blockComment": ["#|", "|#"]}}`
	if err := json.Unmarshal([]byte(data), &explicit); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if line, ok := explicit.Items.LineComment(); !ok || line != ";; " {
		t.Errorf("LineComment() = %q, %v, expected explicit %q", line, ok, ";; ")
	}
	if block, ok := explicit.Items.BlockComment(); !ok || block.Start != "#|" || block.End != "|#" {
		t.Errorf("BlockComment() = %+v, %v", block, ok)
	}
}

func TestSetClone(t *testing.T) {
	original := mustSet(t, "source.go", settings.Map{
		KeyIncreaseIndentPattern: `\{$`,
		KeyShellVariables:        map[string]any{"TM_COMMENT_START": "// "},
	})

	clone := original.Clone()
	if clone.SelectorText != original.SelectorText || !clone.Items.Equal(original.Items) {
		t.Fatal("clone should equal its original")
	}

	clone.Items.ShellVariables["TM_COMMENT_START"] = "# "
	if original.Items.ShellVariables["TM_COMMENT_START"] != "// " {
		t.Error("mutating the clone should not affect the original")
	}

	var nilSet *Set
	if nilSet.Clone() != nil {
		t.Error("nil Clone() expected nil")
	}
}

func TestMetadataJSONRoundTrip(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Add(rustIndentEntry())
	acc.Add(RawEntry{
		Path:     "Packages/Go/Indentation Rules.tmPreferences",
		Scope:    "source.go",
		Settings: settings.Map{KeyIncreaseIndentPattern: `\{$`},
	})
	original := acc.Merge()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"scoped_metadata"`) {
		t.Errorf("serialized metadata missing scoped_metadata key: %s", data)
	}

	var restored Metadata
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if restored.Len() != original.Len() {
		t.Fatalf("Len() = %d, expected %d", restored.Len(), original.Len())
	}
	for i := range original.Sets {
		if restored.Sets[i].SelectorText != original.Sets[i].SelectorText {
			t.Errorf("set %d selector = %q, expected %q",
				i, restored.Sets[i].SelectorText, original.Sets[i].SelectorText)
		}
		if !restored.Sets[i].Items.Equal(original.Sets[i].Items) {
			t.Errorf("set %d items differ after round trip", i)
		}
	}

	clone := original.Clone()
	if clone.Len() != original.Len() {
		t.Errorf("Clone().Len() = %d, expected %d", clone.Len(), original.Len())
	}
	clone.Sets[0].Items.ShellVariables["X"] = "y"
	if _, ok := original.Sets[0].Items.ShellVariables["X"]; ok {
		t.Error("mutating a clone should not affect the original")
	}
}
