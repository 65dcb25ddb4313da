// Package logging builds the zap logger used by the mwspay command and
// adapts it to the smithy logging.Logger the library packages log through.
package logging

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/smithy-go/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger at level, or a console development
// logger when development is set.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

type smithyLogger struct {
	l *zap.SugaredLogger
}

var _ logging.Logger = smithyLogger{}
var _ logging.ContextLogger = smithyLogger{}

// Smithy adapts l so it can be handed to WithLogger options. Warn entries
// are logged at zap's warn level, everything else at debug.
func Smithy(l *zap.Logger) logging.Logger {
	if l == nil {
		return logging.Nop{}
	}
	return smithyLogger{l: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (s smithyLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	switch classification {
	case logging.Warn:
		s.l.Warnf(format, v...)
	default:
		s.l.Debugf(format, v...)
	}
}

// WithContext is a no-op; nothing in a context is logged.
func (s smithyLogger) WithContext(_ context.Context) logging.Logger {
	return s
}
