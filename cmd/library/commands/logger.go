package commands

import (
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// newZapLogger builds the CLI logger. Verbose runs get the development
// config; otherwise only warnings and errors reach stderr.
func newZapLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build()
}

// zapLogger adapts a zap logger to library.Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

var _ library.Logger = zapLogger{}

func newLibraryLogger(logger *zap.Logger) zapLogger {
	return zapLogger{sugar: logger.Sugar()}
}

func (l zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.sugar.Debugw(msg, keysAndValues(fields)...)
}

func (l zapLogger) Info(msg string, fields map[string]interface{}) {
	l.sugar.Infow(msg, keysAndValues(fields)...)
}

func (l zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.sugar.Warnw(msg, keysAndValues(fields)...)
}

func (l zapLogger) Error(msg string, fields map[string]interface{}) {
	l.sugar.Errorw(msg, keysAndValues(fields)...)
}

func keysAndValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	kv := make([]interface{}, 0, len(fields)*2)
	for _, key := range keys {
		kv = append(kv, key, fields[key])
	}

	return kv
}
