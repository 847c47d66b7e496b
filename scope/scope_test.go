package scope

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantLen int
		wantErr error
	}{
		{
			name:    "single atom",
			input:   "source",
			want:    "source",
			wantLen: 1,
		},
		{
			name:    "two atoms",
			input:   "source.rust",
			want:    "source.rust",
			wantLen: 2,
		},
		{
			name:    "trims whitespace",
			input:   "  meta.block  ",
			want:    "meta.block",
			wantLen: 2,
		},
		{
			name:    "deep scope",
			input:   "punctuation.definition.comment.begin",
			want:    "punctuation.definition.comment.begin",
			wantLen: 4,
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: ErrEmptyScope,
		},
		{
			name:    "blank string",
			input:   "   ",
			wantErr: ErrEmptyScope,
		},
		{
			name:    "empty atom",
			input:   "source..rust",
			wantErr: ErrEmptyAtom,
		},
		{
			name:    "trailing dot",
			input:   "source.rust.",
			wantErr: ErrEmptyAtom,
		},
		{
			name:    "too many atoms",
			input:   "a.b.c.d.e.f.g.h.i",
			wantErr: ErrTooManyAtoms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := New(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New(%q) unexpected error: %v", tt.input, err)
			}
			if got := sc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := sc.Len(); got != tt.wantLen {
				t.Errorf("Len() = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestIsPrefixOf(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		scope  string
		want   bool
	}{
		{
			name:   "identical",
			prefix: "source.rust",
			scope:  "source.rust",
			want:   true,
		},
		{
			name:   "shorter prefix",
			prefix: "source",
			scope:  "source.rust",
			want:   true,
		},
		{
			name:   "longer than target",
			prefix: "source.rust.attribute",
			scope:  "source.rust",
			want:   false,
		},
		{
			name:   "matching atoms only",
			prefix: "sour",
			scope:  "source.rust",
			want:   false,
		},
		{
			name:   "diverging atom",
			prefix: "source.go",
			scope:  "source.rust",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustNew(tt.prefix).IsPrefixOf(MustNew(tt.scope))
			if got != tt.want {
				t.Errorf("IsPrefixOf(%q, %q) = %v, want %v", tt.prefix, tt.scope, got, tt.want)
			}
		})
	}
}

func TestParseStack(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{
			name:  "empty",
			input: "",
			want:  []string{},
		},
		{
			name:  "single",
			input: "source.rust",
			want:  []string{"source.rust"},
		},
		{
			name:  "multiple",
			input: "source.rust  meta.block string.quoted",
			want:  []string{"source.rust", "meta.block", "string.quoted"},
		},
		{
			name:    "bad scope",
			input:   "source.rust meta..block",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := ParseStack(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStack(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStack(%q) unexpected error: %v", tt.input, err)
			}
			got := make([]string, len(stack))
			for i, sc := range stack {
				got[i] = sc.String()
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseStack(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStackString(t *testing.T) {
	stack := MustParseStack("source.rust meta.block")
	if got := stack.String(); got != "source.rust meta.block" {
		t.Errorf("String() = %q", got)
	}
}
