package app

import (
	"io"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger from c.
func SetupLogging(c Config, out io.Writer) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(out)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
