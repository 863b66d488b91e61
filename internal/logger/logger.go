package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Lutefd/exchange-symbols/internal/commons"
	"github.com/Lutefd/exchange-symbols/internal/model"
	"github.com/Lutefd/exchange-symbols/internal/repository"
)

// Both loggers write to stderr; stdout is reserved for the symbols report.
var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger

	mu      sync.Mutex
	logChan chan model.Log
	logRepo repository.LogRepository
	done    chan struct{}
)

func init() {
	InfoLogger = log.New(os.Stderr, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// InitLogger attaches a persistent sink. Without it, entries only reach the
// console loggers.
func InitLogger(repo repository.LogRepository) {
	mu.Lock()
	defer mu.Unlock()

	logRepo = repo
	logChan = make(chan model.Log, commons.LoggerBufferSize)
	done = make(chan struct{})
	go processLogs(repo, logChan, done)
}

func processLogs(repo repository.LogRepository, entries <-chan model.Log, finished chan<- struct{}) {
	defer close(finished)
	for logEntry := range entries {
		if err := repo.SaveLog(context.Background(), logEntry); err != nil {
			ErrorLogger.Printf("failed to save log: %v", err)
		}
	}
}

func logAsync(level model.LogLevel, message string) {
	mu.Lock()
	if logChan != nil {
		logEntry := model.NewLog(level, message)
		select {
		case logChan <- logEntry:
		default:
			ErrorLogger.Printf("log channel full. Dropping log: %v", logEntry)
		}
	}
	mu.Unlock()

	if level == model.LogLevelInfo {
		InfoLogger.Output(3, message)
	} else {
		ErrorLogger.Output(3, message)
	}
}

func Info(v ...interface{}) {
	logAsync(model.LogLevelInfo, fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	logAsync(model.LogLevelInfo, fmt.Sprintf(format, v...))
}

func Error(v ...interface{}) {
	logAsync(model.LogLevelError, fmt.Sprint(v...))
}

func Errorf(format string, v ...interface{}) {
	logAsync(model.LogLevelError, fmt.Sprintf(format, v...))
}

// Shutdown drains pending entries into the sink and closes it. It is a no-op
// when no sink was attached.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	entries, repo, finished := logChan, logRepo, done
	logChan, logRepo, done = nil, nil, nil
	mu.Unlock()

	if entries == nil {
		return nil
	}
	close(entries)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-finished:
		return repo.Close()
	}
}
