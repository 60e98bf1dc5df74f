package core

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var once sync.Once

type logger struct {
	*log.Logger
	file *lumberjack.Logger
}

var singleton *logger

// LogConfig controls the process-wide logger.
type LogConfig struct {
	// One of debug, info, warn, error, fatal. Empty means debug.
	Level string
	// When set, log lines are also written to this file and rotated by size.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func getLogger() *logger {
	once.Do(func() {
		singleton = &logger{Logger: newLogger(os.Stderr)}
		singleton.SetLevel(log.DebugLevel)
	})
	return singleton
}

func newLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "Anima2D 🎨 ",
	})
}

// LogConfigure replaces the output and level of the process-wide logger.
func LogConfigure(config LogConfig) error {
	l := getLogger()

	level := log.DebugLevel
	if config.Level != "" {
		lvl, err := log.ParseLevel(config.Level)
		if err != nil {
			return err
		}
		level = lvl
	}

	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	var out io.Writer = os.Stderr
	if config.File != "" {
		maxSize := config.MaxSizeMB
		if maxSize == 0 {
			maxSize = 10
		}
		l.file = &lumberjack.Logger{
			Filename:   config.File,
			MaxSize:    maxSize,
			MaxBackups: config.MaxBackups,
		}
		out = io.MultiWriter(os.Stderr, l.file)
	}
	l.Logger = newLogger(out)
	l.SetLevel(level)
	return nil
}

// LogSetOutput redirects the logger, mostly useful in tests.
func LogSetOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
