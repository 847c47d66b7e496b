package metadata

import (
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/dshills/scopemeta/internal/diag"
	"github.com/dshills/scopemeta/settings"
)

// RawEntry is one metadata file as parsed from disk, before merging. The
// path decides merge order; the settings block is kept whole and filtered
// to recognized keys only when the merge folds it in.
type RawEntry struct {
	Path     string
	Scope    string
	Settings settings.Map
}

// LoadRaw reads and parses the metadata file at path. The document must
// carry a "scope" selector string and a "settings" dictionary.
func LoadRaw(loader *settings.Loader, path string) (RawEntry, error) {
	doc, err := loader.LoadFile(path)
	if err != nil {
		return RawEntry{}, err
	}

	scopeText, _ := doc["scope"].(string)
	if strings.TrimSpace(scopeText) == "" {
		return RawEntry{}, &settings.ParseError{Path: path, Message: `missing "scope" selector`}
	}

	block, ok := doc["settings"].(map[string]any)
	if !ok {
		return RawEntry{}, &settings.ParseError{Path: path, Message: `missing "settings" dictionary`}
	}

	return RawEntry{Path: path, Scope: scopeText, Settings: block}, nil
}

// Accumulator collects raw entries for merging. Entries may be added in
// any order; Merge sorts them by path before folding.
type Accumulator struct {
	logger  arbor.ILogger
	entries []RawEntry
}

// NewAccumulator creates an empty accumulator. A nil logger falls back to
// the package default.
func NewAccumulator(logger arbor.ILogger) *Accumulator {
	if logger == nil {
		logger = diag.Logger()
	}
	return &Accumulator{logger: logger}
}

// Add records an entry for the next Merge.
func (a *Accumulator) Add(entry RawEntry) {
	a.entries = append(a.entries, entry)
}

// AddFile loads the metadata file at path through loader and records it.
func (a *Accumulator) AddFile(loader *settings.Loader, path string) error {
	entry, err := LoadRaw(loader, path)
	if err != nil {
		return err
	}
	a.Add(entry)
	return nil
}

// Len returns the number of accumulated entries.
func (a *Accumulator) Len() int {
	return len(a.entries)
}
