// Package regex is the boundary to the regular-expression engine used for
// metadata patterns. Preference files are written against an Oniguruma-style
// engine whose patterns lean on lookaround, so the wrapper is backed by
// regexp2 rather than the stdlib RE2 matcher.
package regex

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Regexp is a compiled pattern.
type Regexp struct {
	re *regexp2.Regexp
}

// Compile compiles a pattern source string.
func Compile(source string) (*Regexp, error) {
	re, err := regexp2.Compile(source, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", source, err)
	}
	return &Regexp{re: re}, nil
}

// IsMatch reports whether the pattern matches anywhere in text.
func (r *Regexp) IsMatch(text string) bool {
	// Match errors only arise from configured timeouts, which this
	// package never sets.
	ok, _ := r.re.MatchString(text)
	return ok
}

// String returns the pattern source.
func (r *Regexp) String() string {
	return r.re.String()
}
