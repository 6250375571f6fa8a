package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger *zap.SugaredLogger

var logLevels = map[string]zapcore.Level{
	"debug":  zap.DebugLevel,
	"info":   zap.InfoLevel,
	"warn":   zap.WarnLevel,
	"error":  zap.ErrorLevel,
	"dpanic": zap.DPanicLevel,
	"panic":  zap.PanicLevel,
	"fatal":  zap.FatalLevel,
}

func MustGetLogger() *zap.SugaredLogger {
	if defaultLogger != nil {
		return defaultLogger
	}

	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true

	if level, ok := logLevels[AppCfg.LogLevel]; ok {
		c.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := c.Build()
	if err != nil {
		fmt.Printf("Failed to create logger: %v", err)
		os.Exit(1)
	}

	defaultLogger = logger.Sugar()
	return defaultLogger
}
