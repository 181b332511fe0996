// Package logging is the process-wide leveled logger used by every package of
// the dashboard.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// LogLevel represents severity.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var currentLevel int32 = int32(LevelInfo)

var baseLogger atomic.Pointer[log.Logger]

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects log lines (tests capture them into a buffer).
func SetOutput(w io.Writer) {
	baseLogger.Store(log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds))
}

// SetLogLevel parses and sets the global log level. It reports false for an
// unknown level name and leaves the level unchanged.
func SetLogLevel(s string) bool {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false
	}
	atomic.StoreInt32(&currentLevel, int32(l))
	return true
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	_, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// GetLogLevel returns the current global log level.
func GetLogLevel() LogLevel { return LogLevel(atomic.LoadInt32(&currentLevel)) }

func logf(l LogLevel, format string, args ...interface{}) {
	if GetLogLevel() > l {
		return
	}
	prefix := "INFO"
	switch l {
	case LevelDebug:
		prefix = "DEBUG"
	case LevelWarn:
		prefix = "WARN"
	case LevelError:
		prefix = "ERROR"
	}
	// Without args the input is a finished message; formatting it again would
	// turn literal % characters into %!x(MISSING).
	if len(args) == 0 {
		baseLogger.Load().Printf("[%s] %s", prefix, format)
		return
	}
	baseLogger.Load().Printf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

// Public helpers
func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs the duration of a phase at debug level.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}

// Component tags every line with a "[name]" prefix, e.g. "[refresh]".
type Component struct {
	prefix string
}

// For returns the logger of one dashboard component.
func For(name string) Component {
	return Component{prefix: "[" + name + "] "}
}

func (c Component) Debugf(format string, a ...interface{}) { logf(LevelDebug, c.prefix+format, a...) }
func (c Component) Infof(format string, a ...interface{})  { logf(LevelInfo, c.prefix+format, a...) }
func (c Component) Warnf(format string, a ...interface{})  { logf(LevelWarn, c.prefix+format, a...) }
func (c Component) Errorf(format string, a ...interface{}) { logf(LevelError, c.prefix+format, a...) }

// TimeTrack logs how long the named phase of this component took.
func (c Component) TimeTrack(start time.Time, label string) {
	c.Debugf("%s took %s", label, time.Since(start))
}
