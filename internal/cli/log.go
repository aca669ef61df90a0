// Package cli implements the mindgraph command-line interface.
//
// The CLI is built with cobra. Every command loads the configuration
// (defaults, then an optional mindgraph.yaml or mindgraph.toml, then
// MINDGRAPH_* environment variables) before it runs.
//
// # Commands
//
//   - generate: ask the AI provider for a mind map and logic diagram and write SVG and JSON
//   - render: re-render saved mindmap.json and logic.json without the provider
//   - explore: browse a mind map in the terminal, collapsing and expanding nodes
//   - serve: run the local browser viewer
//   - cache: clear or locate the response cache
//   - config: print or initialize the configuration
//   - completion: print shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w at level. Debug output also
// reports the caller, which helps when following a generation through the
// generator and the renderers.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    level <= log.DebugLevel,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
}

// progress measures one stage of a command.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and the time since the stage
// began.
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
