package log

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var (
	logger     zerolog.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
)

// initLogger builds the global logger. Console output is the default;
// TRAINICS_LOG_FORMAT=JSON switches to plain JSON lines on stderr.
func initLogger() {
	loggerOnce.Do(func() {
		var l zerolog.Logger
		if strings.EqualFold(os.Getenv("TRAINICS_LOG_FORMAT"), "JSON") {
			l = zerolog.New(os.Stderr)
		} else {
			l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}
		l = l.With().Timestamp().Logger().Level(zerolog.InfoLevel)
		if DebugFromEnv() {
			l = l.Level(zerolog.DebugLevel)
		}
		logger = l
	})
}

// DebugFromEnv reports whether TRAINICS_DEBUG=YES forces debug logging.
func DebugFromEnv() bool {
	return os.Getenv("TRAINICS_DEBUG") == "YES"
}

func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(toZerolog(l))
}

// ParseLevel maps a config/CLI string onto a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	withFields(current().Debug(), kv...).Msg(msg)
}

func Info(msg string, kv ...any) {
	withFields(current().Info(), kv...).Msg(msg)
}

func Warn(msg string, kv ...any) {
	withFields(current().Warn(), kv...).Msg(msg)
}

func Error(msg string, err error, kv ...any) {
	withFields(current().Error().Err(err), kv...).Msg(msg)
}

func current() *zerolog.Logger {
	initLogger()
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// withFields attaches kv as pairs: key, value, key, value, ...
// Non-string keys are skipped; a trailing odd value is ignored.
func withFields(e *zerolog.Event, kv ...any) *zerolog.Event {
	if e == nil {
		return nil
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
