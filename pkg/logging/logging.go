package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide logger. Every service calls it first
// thing in main so all components log with the same shape.
func Setup(service string) *logrus.Entry {
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	return logrus.WithField("service", service)
}
