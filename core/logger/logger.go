package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

const (
	envLevel  = "LIMITLESS_LOGGING_LEVEL"
	envFormat = "LIMITLESS_LOGGING_FORMAT"

	defaultLevel = logrus.WarnLevel
)

var (
	lg   *logrus.Entry
	once sync.Once
)

// Logger returns the logger of the limitless engine.
func Logger() *logrus.Entry {
	once.Do(func() {
		lg = New()
	})
	return lg
}

// New builds a logger configured from the environment:
// LIMITLESS_LOGGING_LEVEL (defaults to warning) and LIMITLESS_LOGGING_FORMAT
// ("json" or "text"; when unset, colored text on a terminal and JSON otherwise).
func New() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(levelFromEnv())
	l.SetFormatter(formatterFromEnv())

	return l.WithField("module", "limitless")
}

func levelFromEnv() logrus.Level {
	levelStr, ok := os.LookupEnv(envLevel)
	if !ok || levelStr == "" {
		return defaultLevel
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return defaultLevel
	}
	return level
}

func formatterFromEnv() logrus.Formatter {
	switch strings.ToLower(os.Getenv(envFormat)) {
	case "json":
		return &logrus.JSONFormatter{}
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}
	}

	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return &logrus.TextFormatter{ForceColors: true, FullTimestamp: true}
	}
	return &logrus.JSONFormatter{}
}
