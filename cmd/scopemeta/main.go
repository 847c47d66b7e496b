// Package main is the entry point for the scopemeta command line tool.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"

	"github.com/dshills/scopemeta"
	"github.com/dshills/scopemeta/metadata"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	logger := arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}).WithLevelFromString(opts.LogLevel)

	resolver := scopemeta.New(scopemeta.WithLogger(logger))
	defer resolver.Close()

	for _, dir := range opts.Folders {
		if err := resolver.LoadFolder(dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading %s: %v\n", dir, err)
			return 1
		}
	}
	if opts.UserPath != "" {
		if err := resolver.LoadFolder(opts.UserPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: loading overrides %s: %v\n", opts.UserPath, err)
			return 1
		}
	}
	logger.Info().Int("selectors", resolver.Metadata().Len()).Msg("Metadata loaded")

	if opts.Dump {
		if err := dump(resolver); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.Scope != "" {
		if err := query(resolver, opts.Scope, opts.Line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if opts.Watch {
		resolver.OnReload(func(m *metadata.Metadata) {
			logger.Info().Int("selectors", m.Len()).Msg("Metadata reloaded")
		})
		if err := resolver.Watch(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: watching: %v\n", err)
			return 1
		}

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		<-signals
	}

	return 0
}

// dump writes the merged metadata collection to stdout as JSON.
func dump(r *scopemeta.Resolver) error {
	data, err := json.MarshalIndent(r.Metadata(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// query resolves a scope stack and reports the effective editing metadata,
// optionally evaluating the indent patterns against a sample line.
func query(r *scopemeta.Resolver, scopeText, line string) error {
	scoped, err := r.ForScopeString(scopeText)
	if err != nil {
		return err
	}
	if scoped.IsEmpty() {
		fmt.Printf("no metadata matches %q\n", scopeText)
		return nil
	}

	fmt.Printf("%d metadata sets match %q\n", scoped.Len(), scopeText)
	if lc, ok := scoped.LineComment(); ok {
		fmt.Printf("line comment:   %q\n", lc)
	}
	if bc, ok := scoped.BlockComment(); ok {
		fmt.Printf("block comment:  %q %q\n", bc.Start, bc.End)
	}
	if line != "" {
		fmt.Printf("line %q:\n", line)
		fmt.Printf("  increase indent:          %v\n", scoped.IncreaseIndent(line))
		fmt.Printf("  decrease indent:          %v\n", scoped.DecreaseIndent(line))
		fmt.Printf("  bracket indent next line: %v\n", scoped.BracketIncrease(line))
		fmt.Printf("  disable indent next line: %v\n", scoped.DisableIndentNextLine(line))
		fmt.Printf("  unindented line:          %v\n", scoped.UnindentedLine(line))
	}
	return nil
}

type options struct {
	UserPath string
	Scope    string
	Line     string
	LogLevel string
	Dump     bool
	Watch    bool
	Folders  []string
}

func parseFlags() options {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.UserPath, "user", "", "Folder of override metadata loaded after the positional folders")
	flag.StringVar(&opts.UserPath, "u", "", "Folder of override metadata (shorthand)")
	flag.StringVar(&opts.Scope, "scope", "", "Scope stack to query, e.g. \"source.go string.quoted\"")
	flag.StringVar(&opts.Scope, "s", "", "Scope stack to query (shorthand)")
	flag.StringVar(&opts.Line, "line", "", "Sample line to evaluate against the indent patterns")
	flag.StringVar(&opts.Line, "l", "", "Sample line to evaluate (shorthand)")
	flag.BoolVar(&opts.Dump, "dump", false, "Dump the merged metadata as JSON")
	flag.BoolVar(&opts.Watch, "watch", false, "Watch the loaded folders and reload on change")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Scopemeta - scoped editing metadata resolver\n\n")
		fmt.Fprintf(os.Stderr, "Usage: scopemeta [options] <folder> [folder...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  scopemeta ./Packages                        Load and summarize metadata\n")
		fmt.Fprintf(os.Stderr, "  scopemeta -dump ./Packages                  Dump the merged collection as JSON\n")
		fmt.Fprintf(os.Stderr, "  scopemeta -s source.go -l 'if x {' ./pkgs   Query indent hints for a line\n")
		fmt.Fprintf(os.Stderr, "  scopemeta -u ./User -watch ./Packages       Overlay user metadata and watch\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Scopemeta %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	// Validate log level
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	// Remaining arguments are metadata folders to load
	opts.Folders = flag.Args()
	if len(opts.Folders) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one metadata folder is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	return opts
}
