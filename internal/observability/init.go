package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitConfig configures one-time observability initialization.
type InitConfig struct {
	Log LogConfig

	// SentryDSN enables error reporting when non-empty.
	SentryDSN   string
	Environment string
	Release     string
}

var (
	initOnce   sync.Once
	initLogger Logger
	initErr    error
)

// Init establishes the logging and error-reporting sinks. It must be
// called exactly once, before any request is served; repeated calls return
// the logger from the first call.
func Init(cfg InitConfig) (Logger, error) {
	initOnce.Do(func() {
		initLogger, initErr = NewLogger(cfg.Log)
		if initErr != nil {
			return
		}

		initErr = sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          cfg.Release,
			AttachStacktrace: true,
		})
		if initErr != nil {
			initErr = fmt.Errorf("failed to initialize error reporting: %w", initErr)
		}
	})
	return initLogger, initErr
}

// InitForTest installs a lightweight console logger at info level and a
// disabled error-reporting client. Safe to call from multiple tests; only
// the first call takes effect.
func InitForTest() Logger {
	logger, _ := Init(InitConfig{
		Log: LogConfig{Level: "info", Format: "console", Output: "stderr"},
	})
	if logger == nil {
		logger = NopLogger()
	}
	return logger
}

// Flush drains buffered log entries and pending error reports. Called
// during shutdown.
func Flush(logger Logger, timeout time.Duration) {
	if logger != nil {
		_ = logger.Sync()
	}
	sentry.Flush(timeout)
}
