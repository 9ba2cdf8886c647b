package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log file rotation limits.
const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 3
	logFileMaxAgeDays = 14
)

// setupLogging sets the logrus level and, when file is set, tees log output
// to a size-rotated file.
func setupLogging(level, file string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", level)
	}
	logrus.SetLevel(lvl)
	if file == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    logFileMaxSizeMB,
		MaxBackups: logFileMaxBackups,
		MaxAge:     logFileMaxAgeDays,
	}))
	return nil
}
