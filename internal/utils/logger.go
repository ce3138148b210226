package utils

import (
	"accounting-admin/internal/config"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logger   *logrus.Logger
	loggerMu sync.Mutex
)

// NewLogger builds a logger from the logging section of the configuration.
// Unknown levels fall back to info, LOG_FORMAT=text selects the text formatter.
func NewLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "text") {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	return l
}

// ConfigureLogger replaces the process logger once the configuration is loaded.
func ConfigureLogger(cfg *config.Config) *logrus.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	logger = NewLogger(cfg, os.Stdout)
	return logger
}

// GetLogger returns the process logger. Before ConfigureLogger runs it logs
// JSON at info level to stdout.
func GetLogger() *logrus.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logger == nil {
		logger = NewLogger(&config.Config{LogLevel: "info", LogFormat: "json"}, os.Stdout)
	}
	return logger
}
