package logger

import (
	"github.com/sirupsen/logrus"
)

// Log is usable before Init so package code can log during setup and in
// tests; Init applies the configured level and format.
var Log = logrus.New()

// Init sets up the structured logger. JSON output by default; call
// SetTextFormatter for development.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter switches to human-readable log output.
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
