package logger

import (
	"flag"
	"io"
	"os"
	"strings"
)

// Setup builds a logger from CLI level/format flags and installs it as the
// default. A nil out writes to stderr.
func Setup(out io.Writer, level string, json, addSource bool) Logger {
	if out == nil {
		out = os.Stderr
	}
	l := NewLogger(&Config{
		Level:      ParseLevel(level),
		Output:     out,
		JSON:       json,
		AddSource:  addSource,
		TimeFormat: "15:04:05",
	})
	SetDefault(l)
	return l
}

// IsTestEnvironment reports whether the binary is running under go test.
func IsTestEnvironment() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	return strings.HasSuffix(os.Args[0], ".test")
}

// InitForTests installs a silent default logger.
func InitForTests() {
	SetDefault(NewLogger(TestConfig()))
}
