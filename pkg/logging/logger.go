package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Params configures the process-wide logger
type Params struct {
	Level       string `toml:"level"`
	FormatJSON  bool   `toml:"json"`
	FileName    string `toml:"file"`
	LogToStdout bool   `toml:"stdout"`
	MaxSizeMB   int    `toml:"max_size_mb"`
	MaxBackups  int    `toml:"max_backups"`
}

// DefaultParams logs at info level to stdout
func DefaultParams() Params {
	return Params{
		Level:       "info",
		LogToStdout: true,
		MaxSizeMB:   50,
	}
}

// Setup configures the standard logrus logger
func Setup(params Params) {
	if params.FormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logrus.SetLevel(GetLevel(params.Level))
	logrus.SetOutput(Output(params))
}

// Output returns the writer logs go to: stdout, a rotating file, or both
func Output(params Params) io.Writer {
	if params.FileName == "" {
		return os.Stdout
	}

	if !strings.HasSuffix(params.FileName, ".log") {
		params.FileName += ".log"
	}
	maxSize := params.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}

	fileLogger := &lumberjack.Logger{
		Filename:   params.FileName,
		MaxSize:    maxSize, // megabytes
		MaxBackups: params.MaxBackups,
		LocalTime:  false,
		Compress:   true,
	}

	if params.LogToStdout {
		return io.MultiWriter(os.Stdout, fileLogger)
	}
	return fileLogger
}

// GetLevel parses a level name, defaulting to info
func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}
