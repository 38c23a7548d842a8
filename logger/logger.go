package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger is a zerolog logger carrying the service and component tags.
type Logger struct {
	zl zerolog.Logger
}

// Init builds a logger from cfg and installs it as the global logger.
func Init(cfg *Config) {
	cfg.ApplyDefaults()
	SetGlobalLogger(New(cfg, cfg.ServiceName))
}

// New writes to cfg.Output.
func New(cfg *Config, service string) *Logger {
	return NewWithWriter(cfg, service, outputWriter(cfg.Output))
}

// NewWithWriter writes to w. An unparsable level falls back to info.
func NewWithWriter(cfg *Config, service string, w io.Writer) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if f := strings.ToLower(cfg.Format); f == FormatConsole || f == FormatPretty {
		w = consoleWriter(w, service, cfg.NoColor)
	}

	zc := zerolog.New(w).Level(level).With()
	if service != "" {
		zc = zc.Str("service", service)
	}
	if cfg.Timestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		zc = zc.Caller()
	}
	return &Logger{zl: zc.Logger()}
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent tags every entry with component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

// WithFields attaches fields to every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

func emit(ev *zerolog.Event, msg string, fields []map[string]any) {
	for _, f := range fields {
		ev.Fields(f)
	}
	ev.Msg(msg)
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// SetGlobalLogger replaces the logger returned by GetGlobalLogger.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the global logger, installing a console logger on
// stdout at info level if Init was never called.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		cfg := &Config{}
		cfg.ApplyDefaults()
		globalLogger = New(cfg, "")
	}
	return globalLogger
}

// Info logs through the global logger.
func Info(msg string, fields ...map[string]any) {
	GetGlobalLogger().Info(msg, fields...)
}

// WithComponent tags the global logger.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

var levelAbbrev = map[string]string{
	"trace": "TRC", "debug": "DBG", "info": "INF",
	"warn": "WRN", "error": "ERR", "fatal": "FTL", "panic": "PNC",
}

// consoleWriter renders "[SVC][INF] message key:value", where SVC is the
// first three letters of the service name.
func consoleWriter(w io.Writer, service string, noColor bool) io.Writer {
	prefix := ""
	if len(service) >= 3 {
		prefix = "[" + strings.ToUpper(service[:3]) + "]"
	}
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    noColor,
		FormatLevel: func(i any) string {
			s, _ := i.(string)
			abbrev, ok := levelAbbrev[s]
			if !ok {
				abbrev = strings.ToUpper(s)
			}
			return prefix + "[" + abbrev + "]"
		},
		FormatFieldName: func(i any) string {
			s, _ := i.(string)
			return s + ":"
		},
	}
}
