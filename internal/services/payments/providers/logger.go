package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// printfLogger routes the printf-style logging of the stripe and resty
// clients into slog. It satisfies stripe.LeveledLoggerInterface and
// resty.Logger.
type printfLogger struct {
	logger *slog.Logger
}

func newPrintfLogger(logger *slog.Logger, provider string) printfLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return printfLogger{logger: logger.With("provider", provider)}
}

func (l printfLogger) log(level slog.Level, format string, v ...interface{}) {
	if !l.logger.Enabled(context.Background(), level) {
		return
	}
	l.logger.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l printfLogger) Debugf(format string, v ...interface{}) { l.log(slog.LevelDebug, format, v...) }
func (l printfLogger) Infof(format string, v ...interface{})  { l.log(slog.LevelInfo, format, v...) }
func (l printfLogger) Warnf(format string, v ...interface{})  { l.log(slog.LevelWarn, format, v...) }
func (l printfLogger) Errorf(format string, v ...interface{}) { l.log(slog.LevelError, format, v...) }
