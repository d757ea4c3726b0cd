package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// GetLogger returns the process-wide zap.Logger instance, created on first use.
// Development config by default.
func GetLogger() *zap.Logger {
	once.Do(func() {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic("failed logger setup : " + err.Error())
		}
	})
	return logger
}

// Sync flushes buffered log entries; call it on shutdown.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
