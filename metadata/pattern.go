package metadata

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/dshills/scopemeta/internal/regex"
)

// Pattern is a regular expression held as source text and compiled on first
// use. Metadata files carry many patterns and a typical session matches
// against only a handful, so eager compilation would be wasted work.
//
// Compilation is race-safe: concurrent first matches may each compile, one
// result is published with CompareAndSwap and the rest are discarded.
// Identity for equality and serialization is the source text alone.
type Pattern struct {
	source string
	re     atomic.Pointer[regex.Regexp]
}

// NewPattern creates an uncompiled pattern from regex source text. The
// source is not checked here; call Validate to surface compile errors
// without matching.
func NewPattern(source string) *Pattern {
	return &Pattern{source: source}
}

// Source returns the pattern's regex source text.
func (p *Pattern) Source() string {
	return p.source
}

// IsMatch reports whether the pattern matches anywhere in text, compiling
// the pattern first if no goroutine has done so yet.
//
// IsMatch panics if the source does not compile. Callers that cannot
// guarantee well-formed sources must call Validate first.
func (p *Pattern) IsMatch(text string) bool {
	re := p.re.Load()
	if re == nil {
		compiled, err := regex.Compile(p.source)
		if err != nil {
			panic(fmt.Sprintf("metadata: malformed pattern %q: %v", p.source, err))
		}
		p.re.CompareAndSwap(nil, compiled)
		re = p.re.Load()
	}
	return re.IsMatch(text)
}

// Validate compiles the pattern if needed and returns the compile error, if
// any. A nil return guarantees later IsMatch calls will not panic.
func (p *Pattern) Validate() error {
	if p.re.Load() != nil {
		return nil
	}
	compiled, err := regex.Compile(p.source)
	if err != nil {
		return fmt.Errorf("pattern %q: %w", p.source, err)
	}
	p.re.CompareAndSwap(nil, compiled)
	return nil
}

// Clone returns an independent, uncompiled pattern with the same source.
func (p *Pattern) Clone() *Pattern {
	if p == nil {
		return nil
	}
	return NewPattern(p.source)
}

// Equal reports whether both patterns have the same source text. Compiled
// state is ignored.
func (p *Pattern) Equal(other *Pattern) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.source == other.source
}

// String returns the pattern source.
func (p *Pattern) String() string {
	return p.source
}

// MarshalJSON encodes the pattern as its source string.
func (p *Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.source)
}

// UnmarshalJSON decodes a source string into an uncompiled pattern.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var source string
	if err := json.Unmarshal(data, &source); err != nil {
		return err
	}
	p.source = source
	p.re.Store(nil)
	return nil
}
