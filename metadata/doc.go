// Package metadata loads, merges, and resolves per-language editing
// metadata: indentation trigger patterns, comment markers, and shell
// variables, keyed by scope selectors.
//
// # Pipeline
//
// Metadata flows through three stages:
//
//	RawEntry ──▶ Accumulator ──▶ Metadata ──▶ ScopedMetadata
//	 (file)       (collect)       (merge)       (query)
//
// A RawEntry is one parsed metadata file: a scope selector string plus a
// settings dictionary. An Accumulator collects entries from any number of
// files and Merge resolves them: entries are ordered by path, grouped by
// selector text, and folded so that later files override earlier ones key
// by key, except shellVariables, which merge per variable name. Each group
// becomes a Set; the Sets, ordered by selector text, form the Metadata
// collection.
//
// # Querying
//
// Metadata.ForScope scores every Set's selector against a scope stack and
// returns the matches sorted best first:
//
//	scoped := meta.ForScope(scope.MustParseStack("source.go meta.block"))
//	if scoped.IncreaseIndent("if x {") {
//	    // indent the next line
//	}
//
// Each accessor cascades independently: it walks the matches in order and
// uses the first Set that defines the field it needs, so a weaker match can
// supply decreaseIndentPattern while a stronger one supplies
// increaseIndentPattern. A field that is defined but does not match the
// line stops the cascade for that field.
//
// # Recognized keys
//
// Only the keys in RecognizedKeys are kept; everything else in a settings
// dictionary is ignored. Pattern values are held as source text and
// compiled on first match. Comment markers are not stored directly: they
// are derived from the TM_COMMENT_START / TM_COMMENT_END shell variable
// pairs when a Set is built.
//
// # Errors
//
// Merge never fails as a whole. Groups that cannot be resolved, because no
// recognized key is present (ErrNoRecognizedKeys), a value has the wrong
// type (ValueError), or the selector does not parse, are logged through the
// accumulator's logger and skipped.
package metadata
