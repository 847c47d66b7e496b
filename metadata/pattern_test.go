package metadata

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    string
		matches bool
	}{
		{"closing brace", `^\s*\}`, "  }", true},
		{"closing brace mid-line", `^\s*\}`, "x }", false},
		{"open brace at end", `^.*\{[^}"']*$`, "struct This {", true},
		{"balanced braces", `^.*\{[^}"']*$`, "struct This {}", false},
		{"lookahead", `\{(?=\})`, "{}", true},
		{"lookahead unmet", `\{(?=\})`, "{x", false},
		{"lookbehind", `(?<=struct )\w+`, "struct This {", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPattern(tt.source)
			if got := p.IsMatch(tt.line); got != tt.matches {
				t.Errorf("IsMatch(%q) = %v, expected %v", tt.line, got, tt.matches)
			}
		})
	}
}

func TestPatternValidate(t *testing.T) {
	if err := NewPattern(`^\s*\}`).Validate(); err != nil {
		t.Errorf("Validate() error = %v, expected nil", err)
	}
	if err := NewPattern(`[unclosed`).Validate(); err == nil {
		t.Error("Validate() on malformed source expected an error")
	}
}

func TestPatternPanicsOnMalformed(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("IsMatch on malformed source expected a panic")
		}
	}()
	NewPattern(`[unclosed`).IsMatch("anything")
}

func TestPatternClone(t *testing.T) {
	p := NewPattern(`\d+`)
	if !p.IsMatch("42") {
		t.Fatal("IsMatch(42) = false, expected true")
	}

	clone := p.Clone()
	if !p.Equal(clone) {
		t.Error("clone should equal its original")
	}
	if clone.re.Load() != nil {
		t.Error("clone should start uncompiled")
	}
	if !clone.IsMatch("42") {
		t.Error("clone IsMatch(42) = false, expected true")
	}

	var nilPattern *Pattern
	if nilPattern.Clone() != nil {
		t.Error("nil Clone() expected nil")
	}
}

func TestPatternEqual(t *testing.T) {
	a := NewPattern("abc")
	b := NewPattern("abc")
	c := NewPattern("xyz")

	if !a.Equal(b) {
		t.Error("patterns with the same source should be equal")
	}
	if a.Equal(c) {
		t.Error("patterns with different sources should not be equal")
	}
	if a.Equal(nil) {
		t.Error("pattern should not equal nil")
	}
	var nilA, nilB *Pattern
	if !nilA.Equal(nilB) {
		t.Error("two nil patterns should be equal")
	}
}

func TestPatternJSON(t *testing.T) {
	var p Pattern
	if err := json.Unmarshal([]byte(`"just a string"`), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if p.Source() != "just a string" {
		t.Errorf("Source() = %q, expected %q", p.Source(), "just a string")
	}

	data, err := json.Marshal(&p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"just a string"` {
		t.Errorf("Marshal() = %s, expected %q", data, `"just a string"`)
	}

	// compiling first must not change the serialized form
	compiled := NewPattern(`\d+`)
	if !compiled.IsMatch("42") {
		t.Fatal("IsMatch(42) = false, expected true")
	}
	data, err = json.Marshal(compiled)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"\\d+"` {
		t.Errorf("Marshal() of compiled pattern = %s, expected %q", data, `"\\d+"`)
	}
}

func TestPatternConcurrentCompile(t *testing.T) {
	p := NewPattern(`^\s*\}`)

	var wg sync.WaitGroup
	results := make([]bool, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.IsMatch("   }")
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Errorf("goroutine %d: IsMatch = false, expected true", i)
		}
	}
}
