package log

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup sends the default slog logger to logFile, rotated by size. Only
// the first call has an effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		logRotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // Max size in MB
			MaxBackups: 0,
			MaxAge:     30, // Days
			Compress:   false,
		}

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}

		logger := slog.NewJSONHandler(logRotator, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})

		slog.SetDefault(slog.New(logger))
		initialized.Store(true)
	})
}

// Initialized reports whether Setup ran.
func Initialized() bool {
	return initialized.Load()
}

// RecoverPanic logs a panic in the calling goroutine and writes the stack
// to a file in the working directory, then runs cleanup. It must be
// deferred.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}
	filename := fmt.Sprintf("vlist-panic-%s-%s.log", name, time.Now().Format("20060102-150405"))
	slog.Error("Panic recovered", "name", name, "panic", r, "file", filename)

	if f, err := os.Create(filename); err == nil {
		fmt.Fprintf(f, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(f, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(f, "Stack Trace:\n%s\n", debug.Stack())
		f.Close()
	}

	if cleanup != nil {
		cleanup()
	}
}
