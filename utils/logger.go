package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger provides leveled logging throughout the application. Output goes to
// stderr by default so stdout only carries the report.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	tags  map[Level]string
}

// LoggerOption configures a Logger.
type LoggerOption func(*Logger)

// WithOutput redirects log lines; nil is ignored.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *Logger) {
		if w != nil {
			l.out = w
		}
	}
}

// WithLevel sets the minimum level written.
func WithLevel(level Level) LoggerOption {
	return func(l *Logger) { l.level = level }
}

// NewLogger creates a Logger writing to stderr at info level.
func NewLogger(opts ...LoggerOption) *Logger {
	l := &Logger{out: os.Stderr, level: LevelInfo}
	for _, opt := range opts {
		opt(l)
	}
	l.tags = levelTags(l.out)
	return l
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func levelTags(w io.Writer) map[Level]string {
	tags := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO ",
		LevelWarn:  "WARN ",
		LevelError: "ERROR",
	}
	if !IsTerminal(w) {
		return tags
	}

	r := lipgloss.NewRenderer(w)
	colors := map[Level]lipgloss.Color{
		LevelDebug: lipgloss.Color("6"),
		LevelInfo:  lipgloss.Color("2"),
		LevelWarn:  lipgloss.Color("3"),
		LevelError: lipgloss.Color("1"),
	}
	for lv, c := range colors {
		tags[lv] = r.NewStyle().Foreground(c).Render(tags[lv])
	}
	return tags
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) logf(lv Level, format string, args ...any) {
	if lv < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s %s\n", l.timestamp(), l.tags[lv], msg)
}

func (l *Logger) Info(format string, args ...any) {
	l.logf(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.logf(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.logf(LevelError, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.logf(LevelDebug, format, args...)
}
