package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger routes Logf calls to a zap logger.
type ZapLogger struct {
	L *zap.SugaredLogger
}

// NewZapLogger wraps l. A nil l yields a no-op zap logger.
func NewZapLogger(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{L: l.Sugar()}
}

// Logf implements Logger at the matching sugared level.
func (z ZapLogger) Logf(level Level, format string, args ...interface{}) {
	switch level {
	case Debug:
		z.L.Debugf(format, args...)
	case Info:
		z.L.Infof(format, args...)
	case Warn:
		z.L.Warnf(format, args...)
	default:
		z.L.Errorf(format, args...)
	}
}

// ZapLevel maps a Level onto zap's levels.
func ZapLevel(l Level) zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// NewZap builds a console (or JSON) zap logger at the given level writing
// to stderr.
func NewZap(level Level, json bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ZapLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
