package diag

import (
	"log"

	"github.com/natefinch/lumberjack"
)

type stdLogger struct {
	*lumberjack.Logger
}

var logger Logger = stdLogger{}

// LogConfig selects a rotating log file. An empty Logfile keeps output on
// the standard logger.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"`
	MaxAge  int `toml:"max_log_age"`
}

// SetLogger sends log messages to the configured rotating file until
// restore is called.
func (c *LogConfig) SetLogger() (restore func()) {
	if c == nil || c.Logfile == "" {
		return func() {}
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	prev := SetLogger(stdLogger{l})
	return func() {
		prev()
		l.Close()
	}
}

func (slog stdLogger) printf(level, format string, args ...interface{}) {
	if slog.Logger != nil {
		log.New(slog.Logger, "", log.LstdFlags).Printf(level+format, args...)
		return
	}
	log.Printf(level+format, args...)
}

// Debugf formats its arguments analogous to fmt.Printf and records the text
// as a log message at Debug level.
func (slog stdLogger) Debugf(format string, args ...interface{}) {
	slog.printf(" DEBUG ", format, args...)
}

// Infof is like Debugf, but at Info level.
func (slog stdLogger) Infof(format string, args ...interface{}) {
	slog.printf(" INFO ", format, args...)
}

// Warningf is like Debugf, but at Warning level.
func (slog stdLogger) Warningf(format string, args ...interface{}) {
	slog.printf(" WARNING ", format, args...)
}

// Errorf is like Debugf, but at Error level.
func (slog stdLogger) Errorf(format string, args ...interface{}) {
	slog.printf(" ERROR ", format, args...)
}

// Criticalf is like Debugf, but at Critical level.
func (slog stdLogger) Criticalf(format string, args ...interface{}) {
	slog.printf(" CRITICAL ", format, args...)
}

func (slog stdLogger) Shutdown() {
	if slog.Logger != nil {
		slog.Close()
	}
}
