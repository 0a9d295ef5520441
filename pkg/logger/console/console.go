// Package console provides the terminal logging backend. It satisfies
// logger.LoggerInstance, so it plugs into the facade alongside any
// other backend.
package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// ConsoleLogger writes human-readable log lines to stderr.
type ConsoleLogger struct {
	backend *log.Logger
}

// ConsoleLoggerParams configures a ConsoleLogger. Debug lowers the
// threshold so pipeline tracing (skipped files, dropped relationships)
// becomes visible.
type ConsoleLoggerParams struct {
	Debug bool
}

// NewConsoleLogger creates the terminal backend. Output goes to stderr
// so rendered artifacts and shell redirection stay clean.
func NewConsoleLogger(params ConsoleLoggerParams) *ConsoleLogger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	return &ConsoleLogger{
		backend: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           level,
		}),
	}
}

// Log writes at the default level.
func (c *ConsoleLogger) Log(message string, keyvals ...any) {
	c.backend.Print(message, keyvals...)
}

func (c *ConsoleLogger) Info(message string, keyvals ...any) {
	c.backend.Info(message, keyvals...)
}

func (c *ConsoleLogger) Warn(message string, keyvals ...any) {
	c.backend.Warn(message, keyvals...)
}

func (c *ConsoleLogger) Error(message string, keyvals ...any) {
	c.backend.Error(message, keyvals...)
}

func (c *ConsoleLogger) Debug(message string, keyvals ...any) {
	c.backend.Debug(message, keyvals...)
}

// Fatal logs the message and terminates the process.
func (c *ConsoleLogger) Fatal(message string, keyvals ...any) {
	c.backend.Fatal(message, keyvals...)
}
