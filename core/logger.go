package core

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// NewLogger returns a new pre-configured logger writing to out.
// Console output of the ping itself goes to stdout, so callers usually pass stderr here.
func NewLogger(level uint32, out io.Writer) *log.Logger {
	logger := log.New()

	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	logger.SetLevel(log.Level(level))

	return logger
}
