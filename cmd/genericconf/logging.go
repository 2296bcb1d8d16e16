// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package genericconf

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var globalFileLogger = &fileLogger{}

// fileLogger feeds a rotating log file through a bounded buffer.
// Records are dropped, not blocked on, when the buffer is full.
type fileLogger struct {
	mutex   sync.RWMutex // guards records against close
	writer  *lumberjack.Logger
	records chan []byte
	done    chan struct{}
}

func (l *fileLogger) Write(p []byte) (int, error) {
	record := make([]byte, len(p))
	copy(record, p)
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if l.records == nil {
		return len(p), nil
	}
	select {
	case l.records <- record:
	default:
	}
	return len(p), nil
}

// open is not threadsafe
func (l *fileLogger) open(config *FileLoggingConfig, filename string) io.Writer {
	l.writer = &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		LocalTime:  config.LocalTime,
		Compress:   config.Compress,
	}
	records := make(chan []byte, config.BufSize)
	done := make(chan struct{})
	l.mutex.Lock()
	l.records, l.done = records, done
	l.mutex.Unlock()
	writer := l.writer
	go func() {
		defer close(done)
		for record := range records {
			_, _ = writer.Write(record)
		}
	}()
	return l
}

// close flushes buffered records. It is not threadsafe.
func (l *fileLogger) close() error {
	l.mutex.Lock()
	records, done := l.records, l.done
	l.records, l.done = nil, nil
	l.mutex.Unlock()
	if records == nil {
		return nil
	}
	close(records)
	<-done
	err := l.writer.Close()
	l.writer = nil
	return err
}

// InitLog installs the default logger. It is not threadsafe.
func InitLog(logType string, logLevel string, fileLoggingConfig *FileLoggingConfig, pathResolver func(string) string) error {
	if err := globalFileLogger.close(); err != nil {
		return fmt.Errorf("failed to close file writer: %w", err)
	}
	var output io.Writer = os.Stderr
	if fileLoggingConfig.Enable {
		output = io.MultiWriter(os.Stderr, globalFileLogger.open(fileLoggingConfig, pathResolver(fileLoggingConfig.File)))
	}
	handler, err := HandlerFromLogType(logType, output)
	if err != nil {
		return fmt.Errorf("error parsing log type when creating handler: %w", err)
	}
	slogLevel, err := ToSlogLevel(logLevel)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(slogLevel)
	log.SetDefault(log.NewLogger(glogger))
	return nil
}

// CloseFileLogger flushes and closes the file logger opened by InitLog, if any.
func CloseFileLogger() error {
	return globalFileLogger.close()
}
