// Package debug provides conditional debug logging for ampdesk.
//
// Debug logging is enabled by setting the AMPDESK_DEBUG environment variable:
//
//	AMPDESK_DEBUG=1 ampdesk
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
// Enabling debug also puts the reactive core into strict mode: programming
// errors (invalid enum inputs) fail fast instead of being coerced.
package debug

import (
	"fmt"
	"log"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// enabled is true when AMPDESK_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [AMPDESK] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("AMPDESK_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[AMPDESK] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[AMPDESK] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEvent writes a structured JSON event record. Component and event name
// are mandatory; fields are merged into the payload. Encoding failures fall
// back to a plain log line rather than being surfaced.
func LogEvent(component, event string, fields map[string]any) {
	if !enabled {
		return
	}
	payload := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"component": component,
		"event":     event,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("%s %s: failed to marshal event: %v", component, event, err)
		return
	}
	logger.Printf("%s", b)
}

// LogFunc returns a function that logs a debug message when called.
// Useful for deferred logging:
//
//	defer debug.LogFunc("done")()
func LogFunc(msg string) func() {
	if !enabled {
		return func() {}
	}
	return func() {
		logger.Print(msg)
	}
}

// Assert logs a message and panics if the condition is false.
// Only active when debug is enabled.
func Assert(cond bool, msg string) {
	if !enabled {
		return
	}
	if !cond {
		logger.Printf("ASSERTION FAILED: %s", msg)
		panic(fmt.Sprintf("debug assertion failed: %s", msg))
	}
}
