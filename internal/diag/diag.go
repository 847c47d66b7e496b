// Package diag holds the process-default logger used when a caller does not
// inject one. Diagnostics from loading and merging are advisory; they go to
// the console unless the caller wires a configured logger instead.
package diag

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

var (
	defaultLogger arbor.ILogger
	loggerOnce    sync.Once
)

// Logger returns the shared default logger, creating it on first use.
func Logger() arbor.ILogger {
	loggerOnce.Do(func() {
		defaultLogger = arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{
			Type:             models.LogWriterTypeConsole,
			TimeFormat:       "15:04:05",
			TextOutput:       true,
			DisableTimestamp: false,
		})
	})
	return defaultLogger
}
