package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogger switches the standard logrus logger to JSON on stdout at the
// given level. Unknown levels fall back to info.
func SetupLogger(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}
