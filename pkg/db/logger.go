package db

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowThreshold is the elapsed time above which a statement is logged as
// slow regardless of log level.
const slowThreshold = 200 * time.Millisecond

// statementLogger adapts zerolog to the ORM's logger interface. In verbose
// mode (development environment) every statement is echoed with its
// duration and row count; otherwise only warnings and errors surface.
type statementLogger struct {
	log     zerolog.Logger
	verbose bool
}

func newStatementLogger(verbose bool) logger.Interface {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return &statementLogger{
		log:     zerolog.New(os.Stderr).With().Timestamp().Str("component", "db").Logger().Level(level),
		verbose: verbose,
	}
}

// LogMode is a no-op; verbosity is fixed by configuration at Open.
func (l *statementLogger) LogMode(logger.LogLevel) logger.Interface {
	return l
}

func (l *statementLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log.Info().Msgf(msg, args...)
}

func (l *statementLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log.Warn().Msgf(msg, args...)
}

func (l *statementLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log.Error().Msgf(msg, args...)
}

// Trace logs one executed statement. Record-not-found is not an error at
// this layer; the engine turns it into a typed NotFound.
func (l *statementLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("statement failed")
	case elapsed > slowThreshold:
		l.log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow statement")
	case l.verbose:
		l.log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("statement")
	}
}
