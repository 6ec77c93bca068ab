package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// NamedLogger creates a logger whose messages carry name as a prefix.
func NamedLogger(name string) *logrus.Logger {
	return &logrus.Logger{
		Out: os.Stderr,
		Formatter: &CustomTextFormatter{
			TextFormatter: logrus.TextFormatter{DisableTimestamp: true},
			Name:          name,
		},
		Hooks: make(logrus.LevelHooks),
		Level: logrus.InfoLevel,
	}
}

// CustomTextFormatter prefixes each message with the logger name.
type CustomTextFormatter struct {
	logrus.TextFormatter
	Name string
}

// Format renders a single log entry
func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Message = fmt.Sprintf("[%s] %s", f.Name, entry.Message)
	return f.TextFormatter.Format(entry)
}
