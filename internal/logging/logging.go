// Package logging provides the process-wide structured logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

// Init initializes the global logger with the given level, format
// ("console" or "json"), and optional log file path.
func Init(level, format, file string) error {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writeSyncer zapcore.WriteSyncer
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		writeSyncer = zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), zapcore.AddSync(f))
	} else {
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(encoder, writeSyncer, zapLevel)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	logger = zapLogger.Sugar()
	return nil
}

// Sugar returns the global sugared logger, lazily falling back to a
// development logger if Init was never called (useful in tests).
func Sugar() *zap.SugaredLogger {
	if logger == nil {
		zapLogger, _ := zap.NewDevelopment()
		logger = zapLogger.Sugar()
	}
	return logger
}

// Logger returns the global logger's desugared form, for components
// (internal/pplns, internal/mainchainmirror) that take a *zap.Logger directly.
func Logger() *zap.Logger {
	return Sugar().Desugar()
}

func Debug(args ...interface{})                    { Sugar().Debug(args...) }
func Debugf(template string, args ...interface{})   { Sugar().Debugf(template, args...) }
func Info(args ...interface{})                      { Sugar().Info(args...) }
func Infof(template string, args ...interface{})    { Sugar().Infof(template, args...) }
func Warn(args ...interface{})                       { Sugar().Warn(args...) }
func Warnf(template string, args ...interface{})    { Sugar().Warnf(template, args...) }
func Error(args ...interface{})                     { Sugar().Error(args...) }
func Errorf(template string, args ...interface{})   { Sugar().Errorf(template, args...) }
func Fatal(args ...interface{})                     { Sugar().Fatal(args...) }
func Fatalf(template string, args ...interface{})   { Sugar().Fatalf(template, args...) }
