// file: logger/logger.go

package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the application-wide logger. It is usable before Init is called.
var Log = logrus.New()

// Init configures the logger with a JSON formatter writing to stdout.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})
	Log.SetLevel(logrus.InfoLevel)
}

// SetLevel changes the log level. Unknown levels keep the current one.
func SetLevel(level string) {
	if level == "" {
		return
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		Log.WithField("level", level).Warn("Unknown log level, keeping current level")
		return
	}
	Log.SetLevel(lvl)
}
