package utils

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger
)

func init() {
	// Tests and tools that never call InitLogger still get usable loggers.
	InitLogger()
}

// InitLogger sets up the info logger on stdout and the error logger on stderr.
func InitLogger() {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(os.Stdout)
	InfoLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ErrorLogger.SetOutput(os.Stderr)
	ErrorLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.WarnLevel)
}

// SetDebug lowers the info logger to debug level; used when GIN_MODE is debug.
func SetDebug(on bool) {
	if on {
		InfoLogger.SetLevel(logrus.DebugLevel)
		return
	}
	InfoLogger.SetLevel(logrus.InfoLevel)
}
