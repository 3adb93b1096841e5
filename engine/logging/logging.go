package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	gologging "github.com/op/go-logging"
)

// Level is a logger verbosity level.
type Level int

// The levels that can be passed to SetLevel.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var format = gologging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var (
	mu             sync.Mutex
	leveledBackend gologging.LeveledBackend
)

// Logger is a named, levelled logger.
type Logger interface {
	Debug(v ...any)
	Debugf(format string, v ...any)

	Info(v ...any)
	Infof(format string, v ...any)

	Notice(v ...any)
	Noticef(format string, v ...any)

	Warning(v ...any)
	Warningf(format string, v ...any)

	Error(v ...any)
	Errorf(format string, v ...any)
}

// New creates a named logger. The name appears as the module column of every record.
//
// Parameters:
//   - name: the module name, e.g. "resource" or "engine"
//
// Returns:
//   - Logger: the logger
func New(name string) Logger {
	return gologging.MustGetLogger(name)
}

// SetSink redirects all loggers to sink. Module levels are reset to Info.
//
// Parameters:
//   - sink: the writer that receives formatted records
func SetSink(sink io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	backend := gologging.NewLogBackend(sink, "", 0)
	formatted := gologging.NewBackendFormatter(backend, format)
	leveledBackend = gologging.AddModuleLevel(formatted)
	leveledBackend.SetLevel(gologging.INFO, "")
	gologging.SetBackend(leveledBackend)
}

// SetLevel sets the verbosity of one module, or of every module when module is empty.
//
// Parameters:
//   - level: the minimum level that is emitted
//   - module: the logger name, or "" for the default
func SetLevel(level Level, module string) {
	mu.Lock()
	defer mu.Unlock()
	leveledBackend.SetLevel(level.toBackend(), module)
}

// ParseLevel converts a level name ("debug", "info", "notice", "warning", "error") into a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "notice":
		return Notice, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown log level %q", name)
}

func (l Level) toBackend() gologging.Level {
	switch l {
	case Debug:
		return gologging.DEBUG
	case Notice:
		return gologging.NOTICE
	case Warning:
		return gologging.WARNING
	case Error:
		return gologging.ERROR
	default:
		return gologging.INFO
	}
}

func init() {
	SetSink(os.Stdout)
}
