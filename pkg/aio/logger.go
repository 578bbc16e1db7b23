package aio

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerLock sync.RWMutex
)

func Logger() *zap.Logger {
	loggerLock.RLock()
	l := logger
	loggerLock.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func SetLogger(l *zap.Logger) {
	loggerLock.Lock()
	logger = l
	loggerLock.Unlock()
}
