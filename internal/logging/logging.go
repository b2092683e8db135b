package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

type Config struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

// Setup configures the process-wide logrus logger. An unknown level falls
// back to info.
func Setup(conf Config) {
	if conf.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if conf.Output != nil {
		log.SetOutput(conf.Output)
	} else {
		log.SetOutput(os.Stderr)
	}
}

// For returns an entry tagged with the component name.
func For(component string) *log.Entry {
	return log.WithField("component", component)
}
